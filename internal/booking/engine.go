package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/mraditya/go-bengkel-commerce/internal/kafka"
	"github.com/mraditya/go-bengkel-commerce/internal/orders"
)

type Store interface {
	GetGarage(ctx context.Context, id string) (*Garage, error)
	GetVehicle(ctx context.Context, id string) (*Vehicle, error)
	ActiveServiceItems(ctx context.Context, garageID string, ids []string) ([]ServiceItem, error)
	CreateRecord(ctx context.Context, rec *ServiceRecord, window time.Duration) error
	GetRecord(ctx context.Context, id string) (*ServiceRecord, error)
	ListByGarage(ctx context.Context, garageID string) ([]ServiceRecord, error)
	Accept(ctx context.Context, recordID, garageID string, estimatedEnd time.Time) (*ServiceRecord, error)
	Complete(ctx context.Context, recordID, garageID string, actualEnd time.Time) (*ServiceRecord, error)
	Cancel(ctx context.Context, recordID, userID string) (*ServiceRecord, error)
}

type CreateRequest struct {
	GarageID       string
	VehicleID      string
	UserID         string
	StartTime      time.Time
	ServiceItemIDs []string
}

// Engine: reservasi slot waktu per bengkel. Pola yang sama dengan stok,
// cuma "resource"-nya absence-of-conflict, bukan counter.
type Engine struct {
	Store       Store
	Window      time.Duration // jarak minimal antar booking satu bengkel
	Producer    orders.Publisher
	ServiceName string
	Log         *zap.Logger

	// buat test; nil = time.Now
	Now func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Create menjalankan validasi berurutan (tiap kegagalan adalah alasan yang
// berbeda dan kelihatan ke user) lalu menulis record dengan item yang
// di-clone (nama+harga beku).
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*ServiceRecord, error) {
	g, err := e.Store.GetGarage(ctx, req.GarageID)
	if err != nil {
		return nil, err
	}
	if !g.IsActive || !g.AcceptingBookings {
		return nil, ErrGarageUnavailable
	}

	v, err := e.Store.GetVehicle(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if v.UserID != req.UserID {
		return nil, ErrVehicleNotOwned
	}

	if len(req.ServiceItemIDs) == 0 {
		return nil, ErrNoServiceItems
	}
	found, err := e.Store.ActiveServiceItems(ctx, req.GarageID, req.ServiceItemIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]ServiceItem, len(found))
	for _, it := range found {
		byID[it.ID] = it
	}
	for _, id := range req.ServiceItemIDs {
		if _, ok := byID[id]; !ok {
			return nil, &ServiceItemError{ItemID: id}
		}
	}

	if req.StartTime.Before(e.now()) {
		return nil, ErrStartInPast
	}

	rec := &ServiceRecord{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		VehicleID: req.VehicleID,
		GarageID:  req.GarageID,
		Status:    RecordPending,
		StartTime: req.StartTime,
		CreatedAt: e.now().UTC(),
	}
	for _, id := range req.ServiceItemIDs {
		it := byID[id]
		rec.Items = append(rec.Items, RecordItem{Name: it.Name, PriceCents: it.PriceCents})
		rec.TotalCents += it.PriceCents
	}

	if err := e.Store.CreateRecord(ctx, rec, e.Window); err != nil {
		return nil, err
	}

	e.publishCreated(rec)
	return rec, nil
}

func (e *Engine) Accept(ctx context.Context, recordID, garageID string, estimatedEnd time.Time) (*ServiceRecord, error) {
	return e.Store.Accept(ctx, recordID, garageID, estimatedEnd)
}

func (e *Engine) Complete(ctx context.Context, recordID, garageID string, actualEnd time.Time) (*ServiceRecord, error) {
	return e.Store.Complete(ctx, recordID, garageID, actualEnd)
}

func (e *Engine) Cancel(ctx context.Context, recordID, userID string) (*ServiceRecord, error) {
	return e.Store.Cancel(ctx, recordID, userID)
}

func (e *Engine) Get(ctx context.Context, recordID string) (*ServiceRecord, error) {
	return e.Store.GetRecord(ctx, recordID)
}

func (e *Engine) ListByGarage(ctx context.Context, garageID string) ([]ServiceRecord, error) {
	return e.Store.ListByGarage(ctx, garageID)
}

func (e *Engine) publishCreated(rec *ServiceRecord) {
	if e.Producer == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventBookingCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      e.ServiceName,
		CorrelationID: rec.ID,
		Payload: kafkax.MustMarshal(orders.BookingCreatedPayload{
			RecordID:   rec.ID,
			GarageID:   rec.GarageID,
			UserID:     rec.UserID,
			StartTime:  rec.StartTime,
			TotalCents: rec.TotalCents,
		}),
	}
	e.Producer.Publish(orders.PartitionKey(rec.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventBookingCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
