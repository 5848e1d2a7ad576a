package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// TripDeparturesRepo keeps the last departure time the tickets service heard of for each trip.
type TripDeparturesRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewTripDeparturesRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *TripDeparturesRepo {
	return &TripDeparturesRepo{
		db:     db,
		getter: getter,
	}
}

// Record stores departures aligned with tripIDs. A departure observed before the stored one is ignored.
func (r *TripDeparturesRepo) Record(ctx context.Context, tripIDs []int64, departures []time.Time, observedAt time.Time) error {
	for i, id := range tripIDs {
		if i >= len(departures) || departures[i].IsZero() {
			continue
		}

		_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
			INSERT INTO trip_departures (trip_id, departure_time, observed_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (trip_id) DO UPDATE
			SET departure_time = EXCLUDED.departure_time, observed_at = EXCLUDED.observed_at
			WHERE trip_departures.observed_at < EXCLUDED.observed_at
		`, id, departures[i].UTC(), observedAt.UTC())
		if err != nil {
			return fmt.Errorf("upsert departure of trip %d: %w", id, err)
		}
	}

	return nil
}

// FirstDeparture returns the earliest known departure of the trips, zero when none is known.
func (r *TripDeparturesRepo) FirstDeparture(ctx context.Context, tripIDs []int64) (time.Time, error) {
	var first sql.NullTime
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		SELECT MIN(departure_time) FROM trip_departures WHERE trip_id = ANY($1)
	`, pq.Int64Array(tripIDs)).Scan(&first)
	if err != nil {
		return time.Time{}, fmt.Errorf("select first departure: %w", err)
	}

	return first.Time, nil
}
