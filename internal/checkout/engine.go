package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/mraditya/go-bengkel-commerce/internal/cart"
	"github.com/mraditya/go-bengkel-commerce/internal/catalog"
	kafkax "github.com/mraditya/go-bengkel-commerce/internal/kafka"
	"github.com/mraditya/go-bengkel-commerce/internal/orders"
	"github.com/mraditya/go-bengkel-commerce/internal/stock"
)

type CartReader interface {
	Items(ctx context.Context, cartID string) ([]cart.Item, error)
}

type VariantReader interface {
	GetByID(ctx context.Context, id string) (*catalog.ProductVariant, error)
}

type OrderStore interface {
	GetByExternalID(ctx context.Context, externalID string) (*orders.Order, error)
	CreateFromCart(ctx context.Context, o *orders.Order, cartID string) error
}

// ReservationPool: reserve per-variant atomik; release buat kompensasi.
type ReservationPool interface {
	TryReserve(ctx context.Context, variantID string, qty int) (stock.Reservation, error)
	Release(ctx context.Context, res stock.Reservation) error
}

// Engine mengubah cart jadi order PENDING: validasi, reserve semua item
// (all-or-nothing), lalu persist order+reservation+clear cart dalam satu tx.
type Engine struct {
	Carts       CartReader
	Variants    VariantReader
	Orders      OrderStore
	Pool        ReservationPool
	Producer    orders.Publisher // OrderCreated, boleh nil
	ServiceName string
	Log         *zap.Logger
}

func (e *Engine) Checkout(ctx context.Context, cartID, externalID string, ship orders.ShippingInfo) (*orders.Order, error) {
	// Idempotency via external_id: checkout ulang dengan key sama balikin
	// order lama tanpa reserve lagi.
	if existing, err := e.Orders.GetByExternalID(ctx, externalID); err == nil {
		return existing, nil
	} else if !errors.Is(err, orders.ErrNotFound) {
		return nil, err
	}

	items, err := e.Carts.Items(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	// Resolve semua variant dulu; satu hilang -> seluruh checkout batal,
	// belum ada hold yang diambil di fase ini.
	for _, it := range items {
		if _, err := e.Variants.GetByID(ctx, it.VariantID); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, &VariantNotFoundError{VariantID: it.VariantID}
			}
			return nil, err
		}
	}

	// Reserve per item. Gagal satu -> semua hold yang sudah diambil
	// dilepas lagi (kompensasi), bukan rollback tx lintas baris.
	acquired := make([]stock.Reservation, 0, len(items))
	for _, it := range items {
		res, err := e.Pool.TryReserve(ctx, it.VariantID, it.Qty)
		if err != nil {
			e.releaseAll(ctx, acquired)
			return nil, err
		}
		acquired = append(acquired, res)
	}

	// Total dari snapshot harga waktu add-to-cart, sengaja bukan harga
	// live. Stok dicek live, harga tidak.
	o := &orders.Order{
		ID:         uuid.NewString(),
		ExternalID: externalID,
		UserID:     cartID,
		Status:     orders.StatusPending,
		Shipping:   ship,
		CreatedAt:  time.Now().UTC(),
	}
	for _, it := range items {
		sub := it.Qty * it.UnitPriceCents
		o.Items = append(o.Items, orders.OrderItem{
			VariantID:     it.VariantID,
			Qty:           it.Qty,
			PriceCents:    it.UnitPriceCents,
			SubtotalCents: sub,
		})
		o.TotalCents += sub
	}

	if err := e.Orders.CreateFromCart(ctx, o, cartID); err != nil {
		// Hold sudah keburu naik; wajib dilepas sebelum error naik ke caller.
		e.releaseAll(ctx, acquired)
		return nil, err
	}

	e.publishCreated(o)
	return o, nil
}

func (e *Engine) releaseAll(ctx context.Context, acquired []stock.Reservation) {
	for i := len(acquired) - 1; i >= 0; i-- {
		if err := e.Pool.Release(ctx, acquired[i]); err != nil {
			e.Log.Error("compensating release failed",
				zap.String("variant_id", acquired[i].VariantID), zap.Error(err))
		}
	}
}

func (e *Engine) publishCreated(o *orders.Order) {
	if e.Producer == nil {
		return
	}
	itemPrices := make([]orders.ItemPrice, 0, len(o.Items))
	for _, it := range o.Items {
		itemPrices = append(itemPrices, orders.ItemPrice{VariantID: it.VariantID, Qty: it.Qty, PriceCents: it.PriceCents})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      e.ServiceName,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID:    o.ID,
			ExternalID: o.ExternalID,
			UserID:     o.UserID,
			Items:      itemPrices,
			TotalCents: o.TotalCents,
		}),
	}
	e.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
