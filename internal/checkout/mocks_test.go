package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/mraditya/go-bengkel-commerce/internal/cart"
	"github.com/mraditya/go-bengkel-commerce/internal/catalog"
	"github.com/mraditya/go-bengkel-commerce/internal/orders"
	"github.com/mraditya/go-bengkel-commerce/internal/stock"
)

// in-memory doubles untuk engine; kontraknya sama dengan implementasi pgx.

type memVariants struct {
	mu       sync.Mutex
	variants map[string]*catalog.ProductVariant
}

func newMemVariants() *memVariants {
	return &memVariants{variants: make(map[string]*catalog.ProductVariant)}
}

func (m *memVariants) add(v catalog.ProductVariant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := v
	m.variants[v.ID] = &cp
}

func (m *memVariants) GetByID(_ context.Context, id string) (*catalog.ProductVariant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.variants[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

// memPool: cek-dan-naikkan hold di bawah satu lock, kontrak yang sama
// dengan FOR UPDATE di implementasi postgres.
type memPool struct {
	vars *memVariants
}

func (p *memPool) TryReserve(_ context.Context, variantID string, qty int) (stock.Reservation, error) {
	p.vars.mu.Lock()
	defer p.vars.mu.Unlock()
	v, ok := p.vars.variants[variantID]
	if !ok || !v.IsActive {
		return stock.Reservation{}, stock.ErrVariantUnavailable
	}
	if avail := v.StockQty - v.HoldQty; avail < qty {
		return stock.Reservation{}, &stock.InsufficientStockError{VariantID: variantID, Requested: qty, Available: avail}
	}
	v.HoldQty += qty
	return stock.Reservation{VariantID: variantID, Qty: qty}, nil
}

func (p *memPool) Release(_ context.Context, res stock.Reservation) error {
	p.vars.mu.Lock()
	defer p.vars.mu.Unlock()
	v, ok := p.vars.variants[res.VariantID]
	if !ok {
		return nil
	}
	dec := res.Qty
	if v.HoldQty < dec {
		dec = v.HoldQty
	}
	v.HoldQty -= dec
	return nil
}

func (p *memPool) holdOf(id string) int {
	p.vars.mu.Lock()
	defer p.vars.mu.Unlock()
	return p.vars.variants[id].HoldQty
}

type memCart struct {
	mu    sync.Mutex
	items map[string][]cart.Item // cartID -> items
}

func newMemCart() *memCart { return &memCart{items: make(map[string][]cart.Item)} }

func (m *memCart) add(it cart.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[it.CartID] = append(m.items[it.CartID], it)
}

func (m *memCart) Items(_ context.Context, cartID string) ([]cart.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]cart.Item(nil), m.items[cartID]...), nil
}

func (m *memCart) removeLocked(cartID, variantID string) {
	kept := m.items[cartID][:0]
	for _, it := range m.items[cartID] {
		if it.VariantID != variantID {
			kept = append(kept, it)
		}
	}
	m.items[cartID] = kept
}

type memOrders struct {
	mu           sync.Mutex
	byID         map[string]*orders.Order
	byExternal   map[string]string
	carts        *memCart
	failCreate   error  // kalau di-set, CreateFromCart gagal
	beforeCreate func() // dipanggil sebelum persist; simulasi aktivitas cart di tengah checkout
}

func newMemOrders(carts *memCart) *memOrders {
	return &memOrders{byID: make(map[string]*orders.Order), byExternal: make(map[string]string), carts: carts}
}

func (m *memOrders) GetByExternalID(_ context.Context, externalID string) (*orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byExternal[externalID]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return m.byID[id], nil
}

func (m *memOrders) CreateFromCart(_ context.Context, o *orders.Order, cartID string) error {
	if m.failCreate != nil {
		return m.failCreate
	}
	if m.beforeCreate != nil {
		m.beforeCreate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[o.ID] = o
	m.byExternal[o.ExternalID] = o.ID
	// kontrak yang sama dengan versi pgx: cuma pasangan yang dikonversi
	// order ini yang dihapus dari cart
	m.carts.mu.Lock()
	for _, it := range o.Items {
		m.carts.removeLocked(cartID, it.VariantID)
	}
	m.carts.mu.Unlock()
	return nil
}

var errBoom = errors.New("storage down")
