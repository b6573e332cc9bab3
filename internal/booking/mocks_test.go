package booking

import (
	"context"
	"sync"
	"time"
)

// memStore: kontrak yang sama dengan PgStore, cek bentrok + insert dan
// transisi status di bawah satu lock per store.
type memStore struct {
	mu       sync.Mutex
	garages  map[string]*Garage
	vehicles map[string]*Vehicle
	items    map[string]*ServiceItem
	records  map[string]*ServiceRecord
}

func newMemStore() *memStore {
	return &memStore{
		garages:  make(map[string]*Garage),
		vehicles: make(map[string]*Vehicle),
		items:    make(map[string]*ServiceItem),
		records:  make(map[string]*ServiceRecord),
	}
}

func (m *memStore) addGarage(g Garage)     { m.garages[g.ID] = &g }
func (m *memStore) addVehicle(v Vehicle)   { m.vehicles[v.ID] = &v }
func (m *memStore) addItem(it ServiceItem) { m.items[it.ID] = &it }

func (m *memStore) GetGarage(_ context.Context, id string) (*Garage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.garages[id]
	if !ok {
		return nil, ErrGarageNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *memStore) GetVehicle(_ context.Context, id string) (*Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[id]
	if !ok {
		return nil, ErrVehicleNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *memStore) ActiveServiceItems(_ context.Context, garageID string, ids []string) ([]ServiceItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ServiceItem
	for _, id := range ids {
		it, ok := m.items[id]
		if ok && it.GarageID == garageID && it.IsActive {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *memStore) CreateRecord(_ context.Context, rec *ServiceRecord, window time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.records {
		if ex.GarageID != rec.GarageID || ex.Status == RecordCancelled {
			continue
		}
		d := ex.StartTime.Sub(rec.StartTime)
		if d < 0 {
			d = -d
		}
		if d < window {
			return &ConflictError{GarageID: rec.GarageID, RequestedStart: rec.StartTime, ConflictingStart: ex.StartTime}
		}
	}
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *memStore) GetRecord(_ context.Context, id string) (*ServiceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) ListByGarage(_ context.Context, garageID string) ([]ServiceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ServiceRecord
	for _, r := range m.records {
		if r.GarageID == garageID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) Accept(_ context.Context, recordID, garageID string, estimatedEnd time.Time) (*ServiceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[recordID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	if r.GarageID != garageID {
		return nil, ErrWrongGarage
	}
	if r.Status != RecordPending {
		return nil, &InvalidTransitionError{RecordID: recordID, From: r.Status, To: RecordInProgress}
	}
	r.Status = RecordInProgress
	end := estimatedEnd
	r.EndTime = &end
	cp := *r
	return &cp, nil
}

func (m *memStore) Complete(_ context.Context, recordID, garageID string, actualEnd time.Time) (*ServiceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[recordID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	if r.GarageID != garageID {
		return nil, ErrWrongGarage
	}
	if r.Status != RecordInProgress {
		return nil, &InvalidTransitionError{RecordID: recordID, From: r.Status, To: RecordCompleted}
	}
	r.Status = RecordCompleted
	end := actualEnd
	r.EndTime = &end
	cp := *r
	return &cp, nil
}

func (m *memStore) Cancel(_ context.Context, recordID, userID string) (*ServiceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[recordID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	if r.UserID != userID {
		return nil, ErrNotOwner
	}
	if !CanTransition(r.Status, RecordCancelled) {
		return nil, &InvalidTransitionError{RecordID: recordID, From: r.Status, To: RecordCancelled}
	}
	r.Status = RecordCancelled
	cp := *r
	return &cp, nil
}

func (m *memStore) setItemPrice(id string, priceCents int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id].PriceCents = priceCents
}
