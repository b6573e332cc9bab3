package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct{ DB *pgxpool.Pool }

// CreateFromCart: order + item + baris reservation RESERVED + hapus baris
// cart yang dikonversi, semua dalam satu tx. Hanya pasangan (cart, variant)
// milik order ini yang dihapus; item yang masuk cart setelah checkout mulai
// tidak ikut kesapu. Hold di product_variants sudah dinaikkan duluan oleh
// pool (per-baris); kalau tx ini gagal, caller wajib release hold-nya lagi.
func (s *Store) CreateFromCart(ctx context.Context, o *Order, cartID string) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO orders (id, external_id, user_id, status, total_cents, ship_name, ship_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.ExternalID, o.UserID, string(o.Status), o.TotalCents, o.Shipping.Name, o.Shipping.Address); err != nil {
		return err
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, variant_id, qty, price_cents, subtotal_cents)
			VALUES ($1, $2, $3, $4, $5)`,
			o.ID, it.VariantID, it.Qty, it.PriceCents, it.SubtotalCents); err != nil {
			return err
		}
		// Satu reservation per item; invariannya: tiap order item PENDING
		// punya hold yang sama besar.
		if _, err := tx.Exec(ctx, `
			INSERT INTO reservations (order_id, variant_id, qty, status)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (order_id, variant_id) DO NOTHING`,
			o.ID, it.VariantID, it.Qty, ReservationReserved); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1 AND variant_id=$2`,
			cartID, it.VariantID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) GetByID(ctx context.Context, id string) (*Order, error) {
	var o Order
	var status string
	err := s.DB.QueryRow(ctx, `
		SELECT id, external_id, user_id, status, total_cents, ship_name, ship_address, created_at, updated_at
		FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.ExternalID, &o.UserID, &status, &o.TotalCents, &o.Shipping.Name, &o.Shipping.Address, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)

	rows, err := s.DB.Query(ctx, `
		SELECT variant_id, qty, price_cents, subtotal_cents FROM order_items WHERE order_id=$1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.VariantID, &it.Qty, &it.PriceCents, &it.SubtotalCents); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	return &o, rows.Err()
}

func (s *Store) GetByExternalID(ctx context.Context, externalID string) (*Order, error) {
	var id string
	err := s.DB.QueryRow(ctx, `SELECT id FROM orders WHERE external_id=$1`, externalID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Finalize: geser PENDING -> to, plus commit/release semua reservation-nya,
// dalam SATU tx. Flip status pakai row lock jadi dua callback yang balapan
// cuma satu yang menang; yang kalah dapat status terkini + ErrNotPending.
func (s *Store) Finalize(ctx context.Context, orderID string, to Status) (Status, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var cur string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if Status(cur) != StatusPending {
		return Status(cur), ErrNotPending
	}
	if !CanTransition(StatusPending, to) {
		return StatusPending, ErrNotPending
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`,
		orderID, string(to)); err != nil {
		return "", err
	}

	rows, err := tx.Query(ctx, `
		SELECT variant_id, qty FROM reservations WHERE order_id=$1 AND status=$2`,
		orderID, ReservationReserved)
	if err != nil {
		return "", err
	}
	type rec struct {
		vid string
		qty int
	}
	var recs []rec
	for rows.Next() {
		var x rec
		if err := rows.Scan(&x.vid, &x.qty); err != nil {
			rows.Close()
			return "", err
		}
		recs = append(recs, x)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return "", err
	}

	resStatus := ReservationReleased
	if to == StatusConfirmed {
		resStatus = ReservationCommitted
	}
	for _, x := range recs {
		if to == StatusConfirmed {
			// stok terpakai beneran: stock & hold turun bareng
			if _, err := tx.Exec(ctx, `
				UPDATE product_variants SET stock_qty = stock_qty - $2, hold_qty = hold_qty - $2, updated_at = now()
				WHERE id=$1`, x.vid, x.qty); err != nil {
				return "", err
			}
		} else {
			// hold dilepas, stok kembali available (floor di 0)
			if _, err := tx.Exec(ctx, `
				UPDATE product_variants SET hold_qty = GREATEST(hold_qty - $2, 0), updated_at = now()
				WHERE id=$1`, x.vid, x.qty); err != nil {
				return "", err
			}
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE reservations SET status=$2 WHERE order_id=$1 AND status=$3`,
		orderID, resStatus, ReservationReserved); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return to, nil
}
