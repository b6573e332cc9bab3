package payments

import (
	"context"
	"sync"
)

type memLifecycle struct {
	mu        sync.Mutex
	err       error // kalau di-set, semua panggilan gagal dengan error ini
	calls     int
	confirmed []string
	failed    []string
	reasons   map[string]string
}

func newMemLifecycle() *memLifecycle {
	return &memLifecycle{reasons: make(map[string]string)}
}

func (l *memLifecycle) ConfirmPayment(_ context.Context, orderID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return l.err
	}
	l.confirmed = append(l.confirmed, orderID)
	return nil
}

func (l *memLifecycle) FailPayment(_ context.Context, orderID, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return l.err
	}
	l.failed = append(l.failed, orderID)
	l.reasons[orderID] = reason
	return nil
}

func (l *memLifecycle) setErr(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func (l *memLifecycle) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

type memDedup struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemDedup() *memDedup { return &memDedup{keys: make(map[string]bool)} }

func (d *memDedup) Seen(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.keys[key], nil
}

func (d *memDedup) Mark(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys[key] = true
	return nil
}

func (d *memDedup) size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.keys)
}
