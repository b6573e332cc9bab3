package checkout

import (
	"errors"
	"fmt"
)

var ErrEmptyCart = errors.New("cart is empty")

type VariantNotFoundError struct {
	VariantID string
}

func (e *VariantNotFoundError) Error() string {
	return fmt.Sprintf("variant not found: %s", e.VariantID)
}
