package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("variant not found")

type Store struct{ DB *pgxpool.Pool }

func (s *Store) GetByID(ctx context.Context, id string) (*ProductVariant, error) {
	var v ProductVariant
	err := s.DB.QueryRow(ctx, `
		SELECT id, product_name, sku, price_cents, stock_qty, hold_qty, is_active, created_at, updated_at
		FROM product_variants WHERE id=$1`, id).
		Scan(&v.ID, &v.ProductName, &v.SKU, &v.PriceCents, &v.StockQty, &v.HoldQty, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Store) List(ctx context.Context) ([]ProductVariant, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, product_name, sku, price_cents, stock_qty, hold_qty, is_active, created_at, updated_at
		FROM product_variants ORDER BY sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProductVariant
	for rows.Next() {
		var v ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductName, &v.SKU, &v.PriceCents, &v.StockQty, &v.HoldQty, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
