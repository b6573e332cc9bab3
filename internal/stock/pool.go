package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Reservation: handle hold atas satu variant. Dipegang caller sampai
// di-commit (stok terpakai) atau di-release (hold dibatalkan).
type Reservation struct {
	VariantID string
	Qty       int
}

// Pool: primitive reserve/release/commit atas hold_qty per variant.
// Tiap operasi atomik per-baris (FOR UPDATE dalam tx sendiri); komposisi
// lintas variant jadi tanggung jawab caller (lihat checkout).
type Pool struct {
	DB  *pgxpool.Pool
	Log *zap.Logger
}

// TryReserve: cek stock_qty - hold_qty >= qty lalu naikkan hold_qty,
// keduanya dalam satu tx dengan row lock supaya dua caller konkuren
// tidak bisa sama-sama lolos cek.
func (p *Pool) TryReserve(ctx context.Context, variantID string, qty int) (Reservation, error) {
	tx, err := p.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Reservation{}, err
	}
	defer tx.Rollback(ctx)

	var stockQty, holdQty int
	var active bool
	err = tx.QueryRow(ctx, `SELECT stock_qty, hold_qty, is_active FROM product_variants WHERE id=$1 FOR UPDATE`,
		variantID).Scan(&stockQty, &holdQty, &active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Reservation{}, ErrVariantUnavailable
	}
	if err != nil {
		return Reservation{}, err
	}
	if !active {
		return Reservation{}, ErrVariantUnavailable
	}
	if avail := stockQty - holdQty; avail < qty {
		return Reservation{}, &InsufficientStockError{VariantID: variantID, Requested: qty, Available: avail}
	}

	if _, err := tx.Exec(ctx, `UPDATE product_variants SET hold_qty = hold_qty + $2, updated_at = now() WHERE id=$1`,
		variantID, qty); err != nil {
		return Reservation{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Reservation{}, err
	}
	return Reservation{VariantID: variantID, Qty: qty}, nil
}

// Release: turunkan hold_qty, floor di 0. Double-release cuma jadi warning.
func (p *Pool) Release(ctx context.Context, res Reservation) error {
	tx, err := p.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var holdQty int
	if err := tx.QueryRow(ctx, `SELECT hold_qty FROM product_variants WHERE id=$1 FOR UPDATE`,
		res.VariantID).Scan(&holdQty); err != nil {
		return err
	}
	dec := res.Qty
	if holdQty < dec {
		p.Log.Warn("release exceeds current hold",
			zap.String("variant_id", res.VariantID), zap.Int("hold", holdQty), zap.Int("release", dec))
		dec = holdQty
	}
	if _, err := tx.Exec(ctx, `UPDATE product_variants SET hold_qty = hold_qty - $2, updated_at = now() WHERE id=$1`,
		res.VariantID, dec); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Commit: stok benar-benar terpakai; stock_qty dan hold_qty turun bareng.
// Prasyaratnya hold mencukupi (dijamin urutan reserve -> commit); kalau
// dilanggar itu bug pemanggil dan di-surface sebagai error, bukan di-floor
// diam-diam seperti Release.
func (p *Pool) Commit(ctx context.Context, res Reservation) error {
	tx, err := p.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var stockQty, holdQty int
	if err := tx.QueryRow(ctx, `SELECT stock_qty, hold_qty FROM product_variants WHERE id=$1 FOR UPDATE`,
		res.VariantID).Scan(&stockQty, &holdQty); err != nil {
		return err
	}
	if holdQty < res.Qty || stockQty < res.Qty {
		return fmt.Errorf("commit %d exceeds stock %d / hold %d for variant %s",
			res.Qty, stockQty, holdQty, res.VariantID)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE product_variants SET stock_qty = stock_qty - $2, hold_qty = hold_qty - $2, updated_at = now()
		WHERE id=$1`, res.VariantID, res.Qty); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
