package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("order not found")
	ErrNotOwner = errors.New("order does not belong to user")

	// ErrNotPending: Finalize nemu order yang sudah keluar dari PENDING.
	// Lifecycle yang memutuskan apakah ini no-op idempotent atau ditolak.
	ErrNotPending = errors.New("order is not pending")
)

type InvalidTransitionError struct {
	OrderID string
	From    Status
	To      Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %s: invalid transition %s -> %s", e.OrderID, e.From, e.To)
}
