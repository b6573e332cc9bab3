package catalog

import "time"

type ProductVariant struct {
	ID          string
	ProductName string
	SKU         string
	PriceCents  int
	StockQty    int
	HoldQty     int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AvailableToReserve = stok fisik dikurangi yang lagi di-hold.
func (v ProductVariant) AvailableToReserve() int { return v.StockQty - v.HoldQty }
