package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/mraditya/go-bengkel-commerce/internal/booking"
	"github.com/mraditya/go-bengkel-commerce/internal/redisx"
)

type BookingHandler struct {
	Engine *booking.Engine
	Redis  *redis.Client
}

type createBookingReq struct {
	GarageID       string    `json:"garage_id"`
	VehicleID      string    `json:"vehicle_id"`
	UserID         string    `json:"user_id"`
	StartTime      time.Time `json:"start_time"`
	ServiceItemIDs []string  `json:"service_item_ids"`
}

type acceptBookingReq struct {
	GarageID     string    `json:"garage_id"`
	EstimatedEnd time.Time `json:"estimated_end"`
}

type completeBookingReq struct {
	GarageID  string    `json:"garage_id"`
	ActualEnd time.Time `json:"actual_end"`
}

type cancelBookingReq struct {
	UserID string `json:"user_id"`
}

func (h *BookingHandler) Register(r *chi.Mux) {
	r.Post("/bookings", h.create)
	r.Get("/bookings/{id}", h.get)
	r.Post("/bookings/{id}/accept", h.accept)
	r.Post("/bookings/{id}/complete", h.complete)
	r.Post("/bookings/{id}/cancel", h.cancel)
	r.Get("/garages/{id}/bookings", h.listByGarage)
}

func (h *BookingHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createBookingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.GarageID == "" || req.VehicleID == "" || req.UserID == "" || req.StartTime.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Engine.Create(ctx, booking.CreateRequest{
		GarageID:       req.GarageID,
		VehicleID:      req.VehicleID,
		UserID:         req.UserID,
		StartTime:      req.StartTime,
		ServiceItemIDs: req.ServiceItemIDs,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	h.cacheStatus(ctx, rec.ID, string(rec.Status))
	writeJSON(w, http.StatusCreated, recordBody(rec))
}

func (h *BookingHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	rec, err := h.Engine.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordBody(rec))
}

func (h *BookingHandler) accept(w http.ResponseWriter, r *http.Request) {
	var req acceptBookingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GarageID == "" || req.EstimatedEnd.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing garage_id or estimated_end"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Engine.Accept(ctx, chi.URLParam(r, "id"), req.GarageID, req.EstimatedEnd)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.cacheStatus(ctx, rec.ID, string(rec.Status))
	writeJSON(w, http.StatusOK, recordBody(rec))
}

func (h *BookingHandler) complete(w http.ResponseWriter, r *http.Request) {
	var req completeBookingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GarageID == "" || req.ActualEnd.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing garage_id or actual_end"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Engine.Complete(ctx, chi.URLParam(r, "id"), req.GarageID, req.ActualEnd)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.cacheStatus(ctx, rec.ID, string(rec.Status))
	writeJSON(w, http.StatusOK, recordBody(rec))
}

func (h *BookingHandler) cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelBookingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing user_id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Engine.Cancel(ctx, chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.cacheStatus(ctx, rec.ID, string(rec.Status))
	writeJSON(w, http.StatusOK, recordBody(rec))
}

func (h *BookingHandler) listByGarage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	recs, err := h.Engine.ListByGarage(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]map[string]any, 0, len(recs))
	for i := range recs {
		out = append(out, recordBody(&recs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func recordBody(rec *booking.ServiceRecord) map[string]any {
	items := make([]map[string]any, 0, len(rec.Items))
	for _, it := range rec.Items {
		items = append(items, map[string]any{"name": it.Name, "price_cents": it.PriceCents})
	}
	body := map[string]any{
		"record_id":   rec.ID,
		"user_id":     rec.UserID,
		"vehicle_id":  rec.VehicleID,
		"garage_id":   rec.GarageID,
		"status":      rec.Status,
		"start_time":  rec.StartTime,
		"total_cents": rec.TotalCents,
		"items":       items,
	}
	if rec.EndTime != nil {
		body["end_time"] = *rec.EndTime
	}
	return body
}

func (h *BookingHandler) cacheStatus(ctx context.Context, recordID, status string) {
	key := fmt.Sprintf(redisx.KeyBookingStatus, recordID)
	b, _ := json.Marshal(map[string]string{"record_id": recordID, "status": status})
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
}
