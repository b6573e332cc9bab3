package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/mraditya/go-bengkel-commerce/internal/catalog"
	"github.com/mraditya/go-bengkel-commerce/internal/checkout"
	"github.com/mraditya/go-bengkel-commerce/internal/orders"
	"github.com/mraditya/go-bengkel-commerce/internal/redisx"
)

type OrdersHandler struct {
	Engine    *checkout.Engine
	Lifecycle *orders.Lifecycle
	Orders    *orders.Store
	Variants  *catalog.Store
	Redis     *redis.Client
}

type checkoutReq struct {
	CartID     string              `json:"cart_id"`
	ExternalID string              `json:"external_id"`
	Shipping   orders.ShippingInfo `json:"shipping"`
}

type checkoutResp struct {
	OrderID    string `json:"order_id"`
	Status     string `json:"status"`
	TotalCents int    `json:"total_cents"`
}

type cancelReq struct {
	UserID string `json:"user_id"`
}

type paymentWebhookReq struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason,omitempty"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/checkout", h.checkout)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
	r.Post("/payments/confirm", h.confirmPayment)
	r.Post("/payments/fail", h.failPayment)
	r.Get("/variants", h.listVariants)
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.CartID == "" || req.ExternalID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// fast path idempotency: external_id sudah pernah checkout, skip engine
	idemKey := fmt.Sprintf(redisx.KeyIdemCheckout, req.ExternalID)
	if orderID, err := h.Redis.Get(ctx, idemKey).Result(); err == nil && orderID != "" {
		if o, err := h.Orders.GetByID(ctx, orderID); err == nil {
			writeJSON(w, http.StatusOK, checkoutResp{OrderID: o.ID, Status: string(o.Status), TotalCents: o.TotalCents})
			return
		}
		// cache nyasar (mis. DB di-reset), lanjut ke engine
	}

	o, err := h.Engine.Checkout(ctx, req.CartID, req.ExternalID, req.Shipping)
	if err != nil {
		writeErr(w, err)
		return
	}

	// shortcut idempotency + cache status, DB tetap jadi kebenaran
	_ = h.Redis.Set(ctx, idemKey, o.ID, redisx.TTLIdempotency).Err()
	h.cacheStatus(ctx, o.ID, string(o.Status))

	writeJSON(w, http.StatusCreated, checkoutResp{OrderID: o.ID, Status: string(o.Status), TotalCents: o.TotalCents})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) cache dulu
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	// 2) fallback DB
	o, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	body := map[string]any{"order_id": o.ID, "status": o.Status, "total_cents": o.TotalCents}
	b, _ := json.Marshal(body)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var req cancelReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing user_id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Lifecycle.Cancel(ctx, orderID, req.UserID); err != nil {
		writeErr(w, err)
		return
	}
	h.cacheStatus(ctx, orderID, string(orders.StatusCancelled))
	writeJSON(w, http.StatusOK, map[string]string{"status": string(orders.StatusCancelled)})
}

func (h *OrdersHandler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	h.paymentWebhook(w, r, func(ctx context.Context, req paymentWebhookReq) error {
		return h.Lifecycle.ConfirmPayment(ctx, req.OrderID)
	}, orders.StatusConfirmed)
}

func (h *OrdersHandler) failPayment(w http.ResponseWriter, r *http.Request) {
	h.paymentWebhook(w, r, func(ctx context.Context, req paymentWebhookReq) error {
		return h.Lifecycle.FailPayment(ctx, req.OrderID, req.Reason)
	}, orders.StatusFailed)
}

func (h *OrdersHandler) paymentWebhook(w http.ResponseWriter, r *http.Request,
	apply func(ctx context.Context, req paymentWebhookReq) error, final orders.Status) {

	var req paymentWebhookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing order_id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := apply(ctx, req); err != nil {
		writeErr(w, err)
		return
	}
	h.cacheStatus(ctx, req.OrderID, string(final))
	writeJSON(w, http.StatusOK, map[string]string{"status": string(final)})
}

func (h *OrdersHandler) listVariants(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	vs, err := h.Variants.List(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]map[string]any, 0, len(vs))
	for _, v := range vs {
		out = append(out, map[string]any{
			"id":          v.ID,
			"product":     v.ProductName,
			"sku":         v.SKU,
			"price_cents": v.PriceCents,
			"available":   v.AvailableToReserve(),
			"is_active":   v.IsActive,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, orderID, status string) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	b, _ := json.Marshal(map[string]string{"order_id": orderID, "status": status})
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
}
