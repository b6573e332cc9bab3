package orders

import "time"

type ShippingInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type Order struct {
	ID         string
	ExternalID string
	UserID     string
	Status     Status
	TotalCents int
	Shipping   ShippingInfo
	Items      []OrderItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type OrderItem struct {
	VariantID     string
	Qty           int
	PriceCents    int
	SubtotalCents int
}

// Reservation row: satu per (order, variant), dibuat RESERVED bersamaan
// dengan order-nya. Finalize yang menggesernya ke COMMITTED/RELEASED.
type Reservation struct {
	OrderID   string
	VariantID string
	Qty       int
	Status    string // RESERVED | COMMITTED | RELEASED
	CreatedAt time.Time
}

const (
	ReservationReserved  = "RESERVED"
	ReservationCommitted = "COMMITTED"
	ReservationReleased  = "RELEASED"
)
