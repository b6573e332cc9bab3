package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mraditya/go-bengkel-commerce/internal/booking"
	"github.com/mraditya/go-bengkel-commerce/internal/cart"
	"github.com/mraditya/go-bengkel-commerce/internal/catalog"
	"github.com/mraditya/go-bengkel-commerce/internal/checkout"
	"github.com/mraditya/go-bengkel-commerce/internal/orders"
	"github.com/mraditya/go-bengkel-commerce/internal/stock"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr memetakan error domain ke status + body yang actionable.
// Tidak ada error taxonomy yang boleh jatuh jadi 500 generik.
func writeErr(w http.ResponseWriter, err error) {
	var insufficient *stock.InsufficientStockError
	if errors.As(err, &insufficient) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      "insufficient stock",
			"variant_id": insufficient.VariantID,
			"requested":  insufficient.Requested,
			"available":  insufficient.Available,
		})
		return
	}
	var conflict *booking.ConflictError
	if errors.As(err, &conflict) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":             "slot conflict",
			"garage_id":         conflict.GarageID,
			"requested_start":   conflict.RequestedStart.Format(time.RFC3339),
			"conflicting_start": conflict.ConflictingStart.Format(time.RFC3339),
		})
		return
	}
	var orderTransition *orders.InvalidTransitionError
	if errors.As(err, &orderTransition) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "invalid state transition",
			"status": string(orderTransition.From),
		})
		return
	}
	var recordTransition *booking.InvalidTransitionError
	if errors.As(err, &recordTransition) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "invalid state transition",
			"status": string(recordTransition.From),
		})
		return
	}
	var noVariant *checkout.VariantNotFoundError
	if errors.As(err, &noVariant) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":      "variant not found",
			"variant_id": noVariant.VariantID,
		})
		return
	}
	var noItem *booking.ServiceItemError
	if errors.As(err, &noItem) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":           "service item not offered by garage",
			"service_item_id": noItem.ItemID,
		})
		return
	}

	switch {
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrItemMissing),
		errors.Is(err, booking.ErrRecordNotFound),
		errors.Is(err, booking.ErrGarageNotFound),
		errors.Is(err, booking.ErrVehicleNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrNotOwner),
		errors.Is(err, booking.ErrNotOwner),
		errors.Is(err, booking.ErrVehicleNotOwned),
		errors.Is(err, booking.ErrWrongGarage):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, booking.ErrGarageUnavailable):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidQty),
		errors.Is(err, booking.ErrNoServiceItems),
		errors.Is(err, booking.ErrStartInPast),
		errors.Is(err, stock.ErrVariantUnavailable):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
