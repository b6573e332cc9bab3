package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/mraditya/go-bengkel-commerce/internal/kafka"
)

// LifecycleStore: boundary atomiknya Finalize, flip keluar dari PENDING
// sekaligus commit/release hold dalam satu operasi.
type LifecycleStore interface {
	GetByID(ctx context.Context, id string) (*Order, error)
	Finalize(ctx context.Context, orderID string, to Status) (Status, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Lifecycle: state machine order setelah checkout. Tepat satu dari
// commit/release yang pernah jalan per order, dijamin flip dari PENDING.
type Lifecycle struct {
	Store             LifecycleStore
	ProducerConfirmed Publisher
	ProducerCancelled Publisher
	ProducerFailed    Publisher
	ServiceName       string
	Log               *zap.Logger
}

// ConfirmPayment: PENDING -> CONFIRMED + commit stok. Callback dobel untuk
// order yang sudah CONFIRMED itu no-op, bukan error.
func (l *Lifecycle) ConfirmPayment(ctx context.Context, orderID string) error {
	cur, err := l.Store.Finalize(ctx, orderID, StatusConfirmed)
	if errors.Is(err, ErrNotPending) {
		if cur == StatusConfirmed {
			l.Log.Debug("duplicate confirm ignored", zap.String("order_id", orderID))
			return nil
		}
		return &InvalidTransitionError{OrderID: orderID, From: cur, To: StatusConfirmed}
	}
	if err != nil {
		return err
	}
	l.emit(l.ProducerConfirmed, EventOrderConfirmed, orderID, "")
	return nil
}

// FailPayment: PENDING -> FAILED + release hold. Idempotent seperti confirm.
func (l *Lifecycle) FailPayment(ctx context.Context, orderID, reason string) error {
	cur, err := l.Store.Finalize(ctx, orderID, StatusFailed)
	if errors.Is(err, ErrNotPending) {
		if cur == StatusFailed {
			return nil
		}
		return &InvalidTransitionError{OrderID: orderID, From: cur, To: StatusFailed}
	}
	if err != nil {
		return err
	}
	l.emit(l.ProducerFailed, EventOrderFailed, orderID, reason)
	return nil
}

// Cancel: self-cancel customer, hanya dari PENDING. Cancel order orang lain
// ditolak; cancel order non-pending juga ditolak, bukan silent success.
func (l *Lifecycle) Cancel(ctx context.Context, orderID, userID string) error {
	o, err := l.Store.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.UserID != userID {
		return ErrNotOwner
	}
	cur, err := l.Store.Finalize(ctx, orderID, StatusCancelled)
	if errors.Is(err, ErrNotPending) {
		return &InvalidTransitionError{OrderID: orderID, From: cur, To: StatusCancelled}
	}
	if err != nil {
		return err
	}
	l.emit(l.ProducerCancelled, EventOrderCancelled, orderID, "customer cancel")
	return nil
}

func (l *Lifecycle) emit(p Publisher, eventType, orderID, reason string) {
	if p == nil {
		return
	}
	status := map[string]Status{
		EventOrderConfirmed: StatusConfirmed,
		EventOrderCancelled: StatusCancelled,
		EventOrderFailed:    StatusFailed,
	}[eventType]
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      l.ServiceName,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(OrderStatusPayload{OrderID: orderID, Status: string(status), Reason: reason}),
	}
	p.Publish(PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
