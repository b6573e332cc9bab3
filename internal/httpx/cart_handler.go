package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mraditya/go-bengkel-commerce/internal/cart"
)

type CartHandler struct {
	Svc *cart.Service
}

type addItemReq struct {
	VariantID string `json:"variant_id"`
	Qty       int    `json:"qty"`
}

type updateQtyReq struct {
	Qty int `json:"qty"`
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Get("/cart/{cartID}", h.items)
	r.Post("/cart/{cartID}/items", h.addItem)
	r.Put("/cart/{cartID}/items/{variantID}", h.updateQty)
	r.Delete("/cart/{cartID}/items/{variantID}", h.removeItem)
}

func (h *CartHandler) items(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items, err := h.Svc.Items(ctx, chi.URLParam(r, "cartID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, map[string]any{
			"variant_id":       it.VariantID,
			"qty":              it.Qty,
			"unit_price_cents": it.UnitPriceCents,
			"added_at":         it.AddedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.VariantID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing variant_id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.AddItem(ctx, chi.URLParam(r, "cartID"), req.VariantID, req.Qty); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (h *CartHandler) updateQty(w http.ResponseWriter, r *http.Request) {
	var req updateQtyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := h.Svc.UpdateQuantity(ctx, chi.URLParam(r, "cartID"), chi.URLParam(r, "variantID"), req.Qty)
	if err != nil {
		writeErr(w, err)
		return
	}
	// caller perlu tahu bedanya qty diubah vs item dihapus
	status := "updated"
	if result == cart.Removed {
		status = "removed"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.RemoveItem(ctx, chi.URLParam(r, "cartID"), chi.URLParam(r, "variantID")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
