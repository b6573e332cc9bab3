package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgStore struct{ DB *pgxpool.Pool }

func (s *PgStore) GetGarage(ctx context.Context, id string) (*Garage, error) {
	var g Garage
	err := s.DB.QueryRow(ctx, `SELECT id, name, is_active, accepting_bookings FROM garages WHERE id=$1`, id).
		Scan(&g.ID, &g.Name, &g.IsActive, &g.AcceptingBookings)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGarageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *PgStore) GetVehicle(ctx context.Context, id string) (*Vehicle, error) {
	var v Vehicle
	err := s.DB.QueryRow(ctx, `SELECT id, user_id, plate, model FROM vehicles WHERE id=$1`, id).
		Scan(&v.ID, &v.UserID, &v.Plate, &v.Model)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVehicleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ActiveServiceItems: hanya item aktif milik bengkel tsb; yang tidak ketemu
// dicek caller (hasil bisa lebih pendek dari ids).
func (s *PgStore) ActiveServiceItems(ctx context.Context, garageID string, ids []string) ([]ServiceItem, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, garage_id, name, price_cents, is_active
		FROM service_items WHERE garage_id=$1 AND is_active AND id = ANY($2)`, garageID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ServiceItem
	for rows.Next() {
		var it ServiceItem
		if err := rows.Scan(&it.ID, &it.GarageID, &it.Name, &it.PriceCents, &it.IsActive); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// CreateRecord: lock baris garage dulu baru cek bentrok, jadi dua request
// konkuren ke bengkel yang sama terserialisasi; analog FOR UPDATE di stok.
// Bentrok = ada record non-cancelled dengan |start - requested| < window
// (batas eksklusif: tepat `window` menit terpisah itu boleh).
func (s *PgStore) CreateRecord(ctx context.Context, rec *ServiceRecord, window time.Duration) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var gid string
	if err := tx.QueryRow(ctx, `SELECT id FROM garages WHERE id=$1 FOR UPDATE`, rec.GarageID).Scan(&gid); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrGarageNotFound
		}
		return err
	}

	lo := rec.StartTime.Add(-window)
	hi := rec.StartTime.Add(window)
	var conflicting time.Time
	err = tx.QueryRow(ctx, `
		SELECT start_time FROM service_records
		WHERE garage_id=$1 AND status <> $2 AND start_time > $3 AND start_time < $4
		LIMIT 1`, rec.GarageID, string(RecordCancelled), lo, hi).Scan(&conflicting)
	if err == nil {
		return &ConflictError{GarageID: rec.GarageID, RequestedStart: rec.StartTime, ConflictingStart: conflicting}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO service_records (id, user_id, vehicle_id, garage_id, status, start_time, end_time, total_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.UserID, rec.VehicleID, rec.GarageID, string(rec.Status), rec.StartTime, rec.EndTime, rec.TotalCents); err != nil {
		return err
	}
	for _, it := range rec.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO service_record_items (record_id, name, price_cents) VALUES ($1, $2, $3)`,
			rec.ID, it.Name, it.PriceCents); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PgStore) GetRecord(ctx context.Context, id string) (*ServiceRecord, error) {
	var r ServiceRecord
	var status string
	err := s.DB.QueryRow(ctx, `
		SELECT id, user_id, vehicle_id, garage_id, status, start_time, end_time, total_cents, created_at, updated_at
		FROM service_records WHERE id=$1`, id).
		Scan(&r.ID, &r.UserID, &r.VehicleID, &r.GarageID, &status, &r.StartTime, &r.EndTime, &r.TotalCents, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Status = RecordStatus(status)

	rows, err := s.DB.Query(ctx, `SELECT name, price_cents FROM service_record_items WHERE record_id=$1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it RecordItem
		if err := rows.Scan(&it.Name, &it.PriceCents); err != nil {
			return nil, err
		}
		r.Items = append(r.Items, it)
	}
	return &r, rows.Err()
}

func (s *PgStore) ListByGarage(ctx context.Context, garageID string) ([]ServiceRecord, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, user_id, vehicle_id, garage_id, status, start_time, end_time, total_cents, created_at, updated_at
		FROM service_records WHERE garage_id=$1 ORDER BY start_time`, garageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ServiceRecord
	for rows.Next() {
		var r ServiceRecord
		var status string
		if err := rows.Scan(&r.ID, &r.UserID, &r.VehicleID, &r.GarageID, &status, &r.StartTime, &r.EndTime, &r.TotalCents, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.Status = RecordStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Accept: PENDING -> IN_PROGRESS oleh bengkel, sekalian set estimasi selesai.
// Flip-nya pakai row lock, sama seperti Finalize di orders.
func (s *PgStore) Accept(ctx context.Context, recordID, garageID string, estimatedEnd time.Time) (*ServiceRecord, error) {
	return s.transition(ctx, recordID, func(cur RecordStatus, owner, garage string) (RecordStatus, error) {
		if garage != garageID {
			return "", ErrWrongGarage
		}
		if cur != RecordPending {
			return "", &InvalidTransitionError{RecordID: recordID, From: cur, To: RecordInProgress}
		}
		return RecordInProgress, nil
	}, &estimatedEnd)
}

// Complete: IN_PROGRESS -> COMPLETED dengan waktu selesai aktual.
func (s *PgStore) Complete(ctx context.Context, recordID, garageID string, actualEnd time.Time) (*ServiceRecord, error) {
	return s.transition(ctx, recordID, func(cur RecordStatus, owner, garage string) (RecordStatus, error) {
		if garage != garageID {
			return "", ErrWrongGarage
		}
		if cur != RecordInProgress {
			return "", &InvalidTransitionError{RecordID: recordID, From: cur, To: RecordCompleted}
		}
		return RecordCompleted, nil
	}, &actualEnd)
}

// Cancel: customer batalin booking miliknya. Tidak ada counter yang perlu
// di-release; baris CANCELLED otomatis berhenti dihitung di cek bentrok.
func (s *PgStore) Cancel(ctx context.Context, recordID, userID string) (*ServiceRecord, error) {
	return s.transition(ctx, recordID, func(cur RecordStatus, owner, garage string) (RecordStatus, error) {
		if owner != userID {
			return "", ErrNotOwner
		}
		if !CanTransition(cur, RecordCancelled) {
			return "", &InvalidTransitionError{RecordID: recordID, From: cur, To: RecordCancelled}
		}
		return RecordCancelled, nil
	}, nil)
}

func (s *PgStore) transition(ctx context.Context, recordID string,
	decide func(cur RecordStatus, owner, garage string) (RecordStatus, error), endTime *time.Time) (*ServiceRecord, error) {

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var cur, owner, garage string
	err = tx.QueryRow(ctx, `SELECT status, user_id, garage_id FROM service_records WHERE id=$1 FOR UPDATE`,
		recordID).Scan(&cur, &owner, &garage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	next, err := decide(RecordStatus(cur), owner, garage)
	if err != nil {
		return nil, err
	}

	if endTime != nil {
		_, err = tx.Exec(ctx, `UPDATE service_records SET status=$2, end_time=$3, updated_at=now() WHERE id=$1`,
			recordID, string(next), *endTime)
	} else {
		_, err = tx.Exec(ctx, `UPDATE service_records SET status=$2, updated_at=now() WHERE id=$1`,
			recordID, string(next))
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.GetRecord(ctx, recordID)
}
