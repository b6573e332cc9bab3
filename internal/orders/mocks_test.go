package orders

import (
	"context"
	"sync"
)

// memStore: implementasi in-memory kontrak LifecycleStore, flip status +
// commit/release reservation di bawah satu lock, persis semantik Finalize
// versi postgres.

type memVariant struct {
	stockQty int
	holdQty  int
}

type memStore struct {
	mu           sync.Mutex
	orders       map[string]*Order
	reservations map[string][]*Reservation
	variants     map[string]*memVariant
}

func newMemStore() *memStore {
	return &memStore{
		orders:       make(map[string]*Order),
		reservations: make(map[string][]*Reservation),
		variants:     make(map[string]*memVariant),
	}
}

func (m *memStore) seedVariant(id string, stockQty, holdQty int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variants[id] = &memVariant{stockQty: stockQty, holdQty: holdQty}
}

func (m *memStore) seedPendingOrder(id, userID string, items []OrderItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := &Order{ID: id, UserID: userID, Status: StatusPending, Items: items}
	m.orders[id] = o
	for _, it := range items {
		m.reservations[id] = append(m.reservations[id], &Reservation{
			OrderID: id, VariantID: it.VariantID, Qty: it.Qty, Status: ReservationReserved,
		})
	}
}

func (m *memStore) GetByID(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) Finalize(_ context.Context, orderID string, to Status) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return "", ErrNotFound
	}
	if o.Status != StatusPending {
		return o.Status, ErrNotPending
	}
	o.Status = to

	for _, r := range m.reservations[orderID] {
		if r.Status != ReservationReserved {
			continue
		}
		v := m.variants[r.VariantID]
		if to == StatusConfirmed {
			v.stockQty -= r.Qty
			v.holdQty -= r.Qty
			r.Status = ReservationCommitted
		} else {
			dec := r.Qty
			if v.holdQty < dec {
				dec = v.holdQty
			}
			v.holdQty -= dec
			r.Status = ReservationReleased
		}
	}
	return to, nil
}

func (m *memStore) variant(id string) (stockQty, holdQty int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.variants[id]
	return v.stockQty, v.holdQty
}
