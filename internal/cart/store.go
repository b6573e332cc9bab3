package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgStore struct{ DB *pgxpool.Pool }

func (s *PgStore) Items(ctx context.Context, cartID string) ([]Item, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT cart_id, variant_id, qty, unit_price_cents, added_at
		FROM cart_items WHERE cart_id=$1 ORDER BY added_at`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.CartID, &it.VariantID, &it.Qty, &it.UnitPriceCents, &it.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *PgStore) Get(ctx context.Context, cartID, variantID string) (*Item, error) {
	var it Item
	err := s.DB.QueryRow(ctx, `
		SELECT cart_id, variant_id, qty, unit_price_cents, added_at
		FROM cart_items WHERE cart_id=$1 AND variant_id=$2`, cartID, variantID).
		Scan(&it.CartID, &it.VariantID, &it.Qty, &it.UnitPriceCents, &it.AddedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemMissing
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// Upsert: item sudah ada -> qty ditambah, harga snapshot pertama dipertahankan.
func (s *PgStore) Upsert(ctx context.Context, it Item) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO cart_items (cart_id, variant_id, qty, unit_price_cents)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, variant_id) DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty`,
		it.CartID, it.VariantID, it.Qty, it.UnitPriceCents)
	return err
}

func (s *PgStore) SetQty(ctx context.Context, cartID, variantID string, qty int) error {
	ct, err := s.DB.Exec(ctx, `UPDATE cart_items SET qty=$3 WHERE cart_id=$1 AND variant_id=$2`,
		cartID, variantID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrItemMissing
	}
	return nil
}

func (s *PgStore) Remove(ctx context.Context, cartID, variantID string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1 AND variant_id=$2`, cartID, variantID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrItemMissing
	}
	return nil
}

func (s *PgStore) Clear(ctx context.Context, cartID string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, cartID)
	return err
}
