package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// CancelledTripsRepo is the tickets service's own record of trips announced as cancelled.
type CancelledTripsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewCancelledTripsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *CancelledTripsRepo {
	return &CancelledTripsRepo{
		db:     db,
		getter: getter,
	}
}

func (r *CancelledTripsRepo) Add(ctx context.Context, tripID int64, cancelledAt time.Time) error {
	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		INSERT INTO cancelled_trips (trip_id, cancelled_at)
		VALUES ($1, $2)
		ON CONFLICT (trip_id) DO NOTHING
	`, tripID, cancelledAt)
	if err != nil {
		return fmt.Errorf("insert cancelled trip %d: %w", tripID, err)
	}

	return nil
}

func (r *CancelledTripsRepo) AnyCancelled(ctx context.Context, tripIDs []int64) (bool, error) {
	var exists bool
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM cancelled_trips WHERE trip_id = ANY($1))
	`, pq.Int64Array(tripIDs)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("select cancelled trips: %w", err)
	}

	return exists, nil
}

// LockTrips takes a per-trip advisory lock held until the surrounding transaction ends.
// Ticket confirmation and trip cancellation both take it before reading each other's rows.
func (r *CancelledTripsRepo) LockTrips(ctx context.Context, tripIDs []int64) error {
	tr := r.getter.DefaultTrOrDB(ctx, nil)
	if tr == nil {
		return errors.New("trip locks require a transaction")
	}

	// sorted, so two transactions locking the same trips cannot deadlock
	ids := slices.Clone(tripIDs)
	slices.Sort(ids)
	for _, id := range slices.Compact(ids) {
		_, err := tr.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended('transit.trip', $1))`, id)
		if err != nil {
			return fmt.Errorf("lock trip %d: %w", id, err)
		}
	}

	return nil
}
