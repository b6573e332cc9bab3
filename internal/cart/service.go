package cart

import (
	"context"
	"errors"

	"github.com/mraditya/go-bengkel-commerce/internal/catalog"
	"github.com/mraditya/go-bengkel-commerce/internal/stock"
)

type Store interface {
	Items(ctx context.Context, cartID string) ([]Item, error)
	Get(ctx context.Context, cartID, variantID string) (*Item, error)
	Upsert(ctx context.Context, it Item) error
	SetQty(ctx context.Context, cartID, variantID string, qty int) error
	Remove(ctx context.Context, cartID, variantID string) error
	Clear(ctx context.Context, cartID string) error
}

type VariantReader interface {
	GetByID(ctx context.Context, id string) (*catalog.ProductVariant, error)
}

type Service struct {
	Store    Store
	Variants VariantReader
}

// AddItem: validasi qty & variant aktif, lalu pre-check availability terhadap
// qty kumulatif (isi cart sekarang + tambahan). Pre-check ini non-binding;
// cek yang mengikat tetap di checkout lewat pool reservasi.
func (s *Service) AddItem(ctx context.Context, cartID, variantID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQty
	}
	v, err := s.Variants.GetByID(ctx, variantID)
	if err != nil {
		return err
	}
	if !v.IsActive {
		return stock.ErrVariantUnavailable
	}

	existing := 0
	if it, err := s.Store.Get(ctx, cartID, variantID); err == nil {
		existing = it.Qty
	} else if !errors.Is(err, ErrItemMissing) {
		return err
	}
	if want := existing + qty; v.AvailableToReserve() < want {
		return &stock.InsufficientStockError{VariantID: variantID, Requested: want, Available: v.AvailableToReserve()}
	}

	// Harga di-snapshot saat add; checkout pakai snapshot ini, bukan re-fetch.
	return s.Store.Upsert(ctx, Item{
		CartID:         cartID,
		VariantID:      variantID,
		Qty:            qty,
		UnitPriceCents: v.PriceCents,
	})
}

// UpdateQuantity: qty <= 0 berarti hapus item, dan itu dilaporkan eksplisit
// lewat UpdateResult supaya caller bisa bedakan updated vs removed.
func (s *Service) UpdateQuantity(ctx context.Context, cartID, variantID string, qty int) (UpdateResult, error) {
	if qty <= 0 {
		if err := s.Store.Remove(ctx, cartID, variantID); err != nil {
			return Removed, err
		}
		return Removed, nil
	}
	if err := s.Store.SetQty(ctx, cartID, variantID, qty); err != nil {
		return Updated, err
	}
	return Updated, nil
}

func (s *Service) Items(ctx context.Context, cartID string) ([]Item, error) {
	return s.Store.Items(ctx, cartID)
}

func (s *Service) RemoveItem(ctx context.Context, cartID, variantID string) error {
	return s.Store.Remove(ctx, cartID, variantID)
}

func (s *Service) Clear(ctx context.Context, cartID string) error {
	return s.Store.Clear(ctx, cartID)
}
