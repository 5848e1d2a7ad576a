package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var routeSchema = []string{`
CREATE TABLE IF NOT EXISTS trips (
	id BIGSERIAL PRIMARY KEY,
	departure_time TIMESTAMP WITH TIME ZONE NOT NULL,
	capacity INTEGER NOT NULL CHECK (capacity > 0),
	available_seats INTEGER NOT NULL CHECK (available_seats >= 0),
	status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);`, `
CREATE INDEX IF NOT EXISTS trips_departure_time_idx ON trips (departure_time);`, `
CREATE TABLE IF NOT EXISTS reservations (
	purchase_id UUID PRIMARY KEY,
	trip_ids BIGINT[] NOT NULL,
	status VARCHAR(16) NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);`,
}

var ticketsSchema = []string{`
CREATE TABLE IF NOT EXISTS purchases (
	purchase_id UUID PRIMARY KEY,
	user_id VARCHAR(255) NOT NULL,
	trip_ids BIGINT[] NOT NULL,
	round_trip BOOLEAN NOT NULL,
	price NUMERIC(10, 2) NOT NULL,
	status VARCHAR(16) NOT NULL,
	ticket_id UUID,
	reason TEXT NOT NULL DEFAULT '',
	idempotency_key VARCHAR(255),
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS purchases_idempotency_idx
	ON purchases (user_id, idempotency_key) WHERE idempotency_key IS NOT NULL;`, `
CREATE INDEX IF NOT EXISTS purchases_status_idx ON purchases (status, updated_at);`, `
CREATE TABLE IF NOT EXISTS tickets (
	ticket_id UUID PRIMARY KEY,
	purchase_id UUID NOT NULL UNIQUE,
	user_id VARCHAR(255) NOT NULL,
	round_trip BOOLEAN NOT NULL,
	price NUMERIC(10, 2) NOT NULL,
	trip_ids BIGINT[] NOT NULL,
	purchased_at TIMESTAMP WITH TIME ZONE NOT NULL,
	first_departure TIMESTAMP WITH TIME ZONE NOT NULL,
	cancelled BOOLEAN NOT NULL DEFAULT FALSE,
	cancellation_reason TEXT,
	cancelled_at TIMESTAMP WITH TIME ZONE
);`, `
CREATE INDEX IF NOT EXISTS tickets_user_idx ON tickets (user_id, purchased_at DESC);`, `
CREATE INDEX IF NOT EXISTS tickets_trip_ids_idx ON tickets USING GIN (trip_ids);`, `
CREATE TABLE IF NOT EXISTS cancelled_trips (
	trip_id BIGINT PRIMARY KEY,
	cancelled_at TIMESTAMP WITH TIME ZONE NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS trip_departures (
	trip_id BIGINT PRIMARY KEY,
	departure_time TIMESTAMP WITH TIME ZONE NOT NULL,
	observed_at TIMESTAMP WITH TIME ZONE NOT NULL
);`,
}

// InitializeRouteSchema creates the tables owned by the route service.
func InitializeRouteSchema(ctx context.Context, db *sqlx.DB) error {
	return execAll(ctx, db, routeSchema)
}

// InitializeTicketsSchema creates the tables owned by the tickets service.
func InitializeTicketsSchema(ctx context.Context, db *sqlx.DB) error {
	return execAll(ctx, db, ticketsSchema)
}

func execAll(ctx context.Context, db *sqlx.DB, statements []string) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
