package stock

import (
	"errors"
	"fmt"
)

// ErrVariantUnavailable: variant tidak ada atau sudah non-aktif.
var ErrVariantUnavailable = errors.New("variant unavailable")

// InsufficientStockError: kondisi recoverable, bukan fault. Caller bisa
// kurangi qty atau coba lagi nanti.
type InsufficientStockError struct {
	VariantID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %s: requested %d, available %d",
		e.VariantID, e.Requested, e.Available)
}
