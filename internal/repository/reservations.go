package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"transit/internal/domain/trips"
)

type ReservationsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewReservationsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *ReservationsRepo {
	return &ReservationsRepo{
		db:     db,
		getter: getter,
	}
}

type reservationModel struct {
	PurchaseID uuid.UUID     `db:"purchase_id"`
	TripIDs    pq.Int64Array `db:"trip_ids"`
	Status     string        `db:"status"`
	Reason     string        `db:"reason"`
	CreatedAt  time.Time     `db:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at"`
}

func (m reservationModel) toDomain() trips.Reservation {
	return trips.Reservation{
		PurchaseID: m.PurchaseID,
		TripIDs:    m.TripIDs,
		Status:     trips.ReservationStatus(m.Status),
		Reason:     m.Reason,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (r *ReservationsRepo) Get(ctx context.Context, purchaseID uuid.UUID) (trips.Reservation, error) {
	var m reservationModel
	err := r.getter.DefaultTrOrDB(ctx, r.db).GetContext(ctx, &m, `
		SELECT purchase_id, trip_ids, status, reason, created_at, updated_at
		FROM reservations
		WHERE purchase_id = $1
	`, purchaseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return trips.Reservation{}, trips.ErrReservationNotFound
		}
		return trips.Reservation{}, fmt.Errorf("select reservation %s: %w", purchaseID, err)
	}

	return m.toDomain(), nil
}

// Add stores the outcome for a purchase. It returns false when an outcome was already stored.
func (r *ReservationsRepo) Add(ctx context.Context, reservation trips.Reservation) (bool, error) {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		INSERT INTO reservations (purchase_id, trip_ids, status, reason)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (purchase_id) DO NOTHING
	`, reservation.PurchaseID, pq.Int64Array(reservation.TripIDs), reservation.Status, reservation.Reason)
	if err != nil {
		return false, fmt.Errorf("insert reservation %s: %w", reservation.PurchaseID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkReleased moves a RESERVED reservation to RELEASED and reports whether this call changed it.
func (r *ReservationsRepo) MarkReleased(ctx context.Context, purchaseID uuid.UUID) (bool, error) {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		UPDATE reservations
		SET status = 'RELEASED', updated_at = NOW()
		WHERE purchase_id = $1 AND status = 'RESERVED'
	`, purchaseID)
	if err != nil {
		return false, fmt.Errorf("release reservation %s: %w", purchaseID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
