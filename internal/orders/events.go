package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated      = "OrderCreated"
	EventOrderConfirmed    = "OrderConfirmed"
	EventOrderCancelled    = "OrderCancelled"
	EventOrderFailed       = "OrderFailed"
	EventBookingCreated    = "BookingCreated"
	EventPaymentAuthorized = "PaymentAuthorized"
	EventPaymentFailed     = "PaymentFailed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type ItemPrice struct {
	VariantID  string `json:"variant_id"`
	Qty        int    `json:"qty"`
	PriceCents int    `json:"price_cents"`
}

type OrderCreatedPayload struct {
	OrderID    string      `json:"order_id"`
	ExternalID string      `json:"external_id"`
	UserID     string      `json:"user_id"`
	Items      []ItemPrice `json:"items"`
	TotalCents int         `json:"total_cents"`
}

type OrderStatusPayload struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
}

type BookingCreatedPayload struct {
	RecordID   string    `json:"record_id"`
	GarageID   string    `json:"garage_id"`
	UserID     string    `json:"user_id"`
	StartTime  time.Time `json:"start_time"`
	TotalCents int       `json:"total_cents"`
}

type PaymentAuthorizedPayload struct {
	OrderID     string `json:"order_id"`
	PaymentRef  string `json:"payment_ref"`
	AmountCents int    `json:"amount_cents"`
}

type PaymentFailedPayload struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}
