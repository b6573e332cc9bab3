package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/mraditya/go-bengkel-commerce/internal/kafka"
	"github.com/mraditya/go-bengkel-commerce/internal/orders"
	"github.com/mraditya/go-bengkel-commerce/internal/redisx"
)

// Lifecycle: subset yang dibutuhkan dari orders.Lifecycle.
type Lifecycle interface {
	ConfirmPayment(ctx context.Context, orderID string) error
	FailPayment(ctx context.Context, orderID, reason string) error
}

// Dedup: penanda event yang SELESAI diproses. Seen dicek sebelum apply,
// Mark baru ditulis sesudah apply sukses; event yang gagal transien tidak
// boleh ketandai, supaya redelivery masih diproses.
type Dedup interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

// RedisDedup: Dedup di atas go-redis dengan TTL.
type RedisDedup struct{ Client *redis.Client }

func (d *RedisDedup) Seen(ctx context.Context, key string) (bool, error) {
	return redisx.Exists(ctx, d.Client, key)
}

func (d *RedisDedup) Mark(ctx context.Context, key string) error {
	return d.Client.Set(ctx, key, "1", redisx.TTLDedup).Err()
}

// Service mengonsumsi callback payment gateway (Kafka) dan mendorong order
// ke state terminal lewat lifecycle.
type Service struct {
	Lifecycle   Lifecycle
	Dedup       Dedup
	ServiceName string
	Log         *zap.Logger
}

// HandlePaymentEvent dipasang sebagai handler consumer untuk topic
// payment.authorized dan payment.failed.
func (s *Service) HandlePaymentEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, "payments", env.EventID)
	if seen, _ := s.Dedup.Seen(ctx, dkey); seen {
		return nil
	}

	var err error
	switch env.EventType {
	case orders.EventPaymentAuthorized:
		p, perr := kafkax.UnwrapPayload[orders.PaymentAuthorizedPayload](env.Payload)
		if perr != nil {
			return perr
		}
		err = s.Lifecycle.ConfirmPayment(ctx, p.OrderID)
	case orders.EventPaymentFailed:
		p, perr := kafkax.UnwrapPayload[orders.PaymentFailedPayload](env.Payload)
		if perr != nil {
			return perr
		}
		err = s.Lifecycle.FailPayment(ctx, p.OrderID, p.Reason)
	default:
		return nil // bukan urusan kita
	}

	// Callback telat (order keburu di-cancel) itu wajar: log, commit offset.
	var ite *orders.InvalidTransitionError
	if errors.As(err, &ite) {
		s.Log.Warn("late payment callback ignored",
			zap.String("order_id", ite.OrderID),
			zap.String("current_status", string(ite.From)))
		err = nil
	}
	if err != nil {
		// transien (DB down dsb): tanpa mark, offset tidak di-commit,
		// redelivery mengulang transisinya
		return err
	}

	// Mark setelah sukses. Kalau mark-nya sendiri gagal, Finalize yang
	// idempotent menangani redelivery berikutnya.
	if merr := s.Dedup.Mark(ctx, dkey); merr != nil {
		s.Log.Warn("dedup mark failed", zap.String("event_id", env.EventID), zap.Error(merr))
	}
	return nil
}
