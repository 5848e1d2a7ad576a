package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"transit/internal/domain/trips"
)

type TripsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewTripsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *TripsRepo {
	return &TripsRepo{
		db:     db,
		getter: getter,
	}
}

const tripColumns = `id, departure_time, capacity, available_seats, status, created_at, updated_at`

func (r *TripsRepo) Create(ctx context.Context, trip trips.Trip) (trips.Trip, error) {
	var created trips.Trip
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO trips (departure_time, capacity, available_seats, status)
		VALUES ($1, $2, $3, $4)
		RETURNING `+tripColumns,
		trip.DepartureTime, trip.Capacity, trip.AvailableSeats, trip.Status,
	).StructScan(&created)
	if err != nil {
		return trips.Trip{}, fmt.Errorf("insert trip: %w", err)
	}

	return created, nil
}

func (r *TripsRepo) Get(ctx context.Context, id int64) (trips.Trip, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate locks the trip row until the end of the transaction.
func (r *TripsRepo) GetForUpdate(ctx context.Context, id int64) (trips.Trip, error) {
	return r.get(ctx, id, true)
}

func (r *TripsRepo) get(ctx context.Context, id int64, lock bool) (trips.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var trip trips.Trip
	err := r.getter.DefaultTrOrDB(ctx, r.db).GetContext(ctx, &trip, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return trips.Trip{}, trips.ErrTripNotFound
		}
		return trips.Trip{}, fmt.Errorf("select trip %d: %w", id, err)
	}

	return trip, nil
}

func (r *TripsRepo) GetMany(ctx context.Context, ids []int64) ([]trips.Trip, error) {
	var result []trips.Trip
	err := r.getter.DefaultTrOrDB(ctx, r.db).SelectContext(ctx, &result, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE id = ANY($1)
	`, pq.Int64Array(ids))
	if err != nil {
		return nil, fmt.Errorf("select trips: %w", err)
	}

	return result, nil
}

// List returns trips ordered by departure. When day is set only trips departing that UTC day are returned.
func (r *TripsRepo) List(ctx context.Context, day *time.Time) ([]trips.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips`
	var args []any
	if day != nil {
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		query += ` WHERE departure_time >= $1 AND departure_time < $2`
		args = append(args, start, start.AddDate(0, 0, 1))
	}
	query += ` ORDER BY departure_time, id`

	result := []trips.Trip{}
	err := r.getter.DefaultTrOrDB(ctx, r.db).SelectContext(ctx, &result, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select trips: %w", err)
	}

	return result, nil
}

// ListUpcoming returns trips departing at or after from that are not cancelled, ordered by departure.
func (r *TripsRepo) ListUpcoming(ctx context.Context, from time.Time) ([]trips.Trip, error) {
	result := []trips.Trip{}
	err := r.getter.DefaultTrOrDB(ctx, r.db).SelectContext(ctx, &result, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE departure_time >= $1 AND status <> 'CANCELLED'
		ORDER BY departure_time, id
	`, from.UTC())
	if err != nil {
		return nil, fmt.Errorf("select upcoming trips: %w", err)
	}

	return result, nil
}

func (r *TripsRepo) Update(ctx context.Context, trip trips.Trip) (trips.Trip, error) {
	var updated trips.Trip
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		UPDATE trips
		SET departure_time = $2, capacity = $3, available_seats = $4, status = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+tripColumns,
		trip.ID, trip.DepartureTime, trip.Capacity, trip.AvailableSeats, trip.Status,
	).StructScan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return trips.Trip{}, trips.ErrTripNotFound
		}
		return trips.Trip{}, fmt.Errorf("update trip %d: %w", trip.ID, err)
	}

	return updated, nil
}

// TakeSeats takes one seat on every listed trip that is bookable and returns the number of trips updated.
func (r *TripsRepo) TakeSeats(ctx context.Context, ids []int64) (int64, error) {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		UPDATE trips
		SET available_seats = available_seats - 1, updated_at = NOW()
		WHERE id = ANY($1) AND available_seats > 0 AND status <> 'CANCELLED'
	`, pq.Int64Array(ids))
	if err != nil {
		return 0, fmt.Errorf("take seats: %w", err)
	}

	return res.RowsAffected()
}

// ReleaseSeats gives one seat back on every listed trip. With clamp the count never exceeds capacity.
// It returns the ids of trips that were already full.
func (r *TripsRepo) ReleaseSeats(ctx context.Context, ids []int64, clamp bool) ([]int64, error) {
	tx := r.getter.DefaultTrOrDB(ctx, r.db)

	var full pq.Int64Array
	err := tx.QueryRowxContext(ctx, `
		SELECT COALESCE(array_agg(id), '{}')
		FROM trips
		WHERE id = ANY($1) AND available_seats >= capacity
	`, pq.Int64Array(ids)).Scan(&full)
	if err != nil {
		return nil, fmt.Errorf("select full trips: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE trips
		SET available_seats = CASE WHEN $2::BOOLEAN THEN LEAST(available_seats + 1, capacity) ELSE available_seats + 1 END,
			updated_at = NOW()
		WHERE id = ANY($1)
	`, pq.Int64Array(ids), clamp)
	if err != nil {
		return nil, fmt.Errorf("release seats: %w", err)
	}

	return full, nil
}

// Cancel moves the trip to CANCELLED and reports whether this call changed it.
func (r *TripsRepo) Cancel(ctx context.Context, id int64) (bool, error) {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		UPDATE trips
		SET status = 'CANCELLED', updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('CANCELLED', 'COMPLETED')
	`, id)
	if err != nil {
		return false, fmt.Errorf("cancel trip %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
