package cart

import (
	"errors"
	"time"
)

type Item struct {
	CartID         string
	VariantID      string
	Qty            int
	UnitPriceCents int
	AddedAt        time.Time
}

// UpdateResult membedakan "qty diubah" vs "item dihapus" (qty <= 0).
type UpdateResult int

const (
	Updated UpdateResult = iota
	Removed
)

var (
	ErrInvalidQty  = errors.New("quantity must be positive")
	ErrItemMissing = errors.New("cart item not found")
)
