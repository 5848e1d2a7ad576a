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

	"transit/internal/domain/tickets"
)

type TicketsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewTicketsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *TicketsRepo {
	return &TicketsRepo{
		db:     db,
		getter: getter,
	}
}

type ticketModel struct {
	TicketID           uuid.UUID      `db:"ticket_id"`
	PurchaseID         uuid.UUID      `db:"purchase_id"`
	UserID             string         `db:"user_id"`
	RoundTrip          bool           `db:"round_trip"`
	Price              float64        `db:"price"`
	TripIDs            pq.Int64Array  `db:"trip_ids"`
	PurchasedAt        time.Time      `db:"purchased_at"`
	FirstDeparture     time.Time      `db:"first_departure"`
	Cancelled          bool           `db:"cancelled"`
	CancellationReason sql.NullString `db:"cancellation_reason"`
	CancelledAt        sql.NullTime   `db:"cancelled_at"`
}

func (m ticketModel) toDomain() tickets.Ticket {
	t := tickets.Ticket{
		ID:             m.TicketID,
		PurchaseID:     m.PurchaseID,
		UserID:         m.UserID,
		RoundTrip:      m.RoundTrip,
		Price:          m.Price,
		TripIDs:        m.TripIDs,
		PurchasedAt:    m.PurchasedAt,
		FirstDeparture: m.FirstDeparture,
		Cancelled:      m.Cancelled,
	}
	if m.CancelledAt.Valid {
		t.Cancellation = &tickets.Cancellation{
			Reason:      m.CancellationReason.String,
			CancelledAt: m.CancelledAt.Time,
		}
	}
	return t
}

const ticketColumns = `ticket_id, purchase_id, user_id, round_trip, price, trip_ids, purchased_at, first_departure,
	cancelled, cancellation_reason, cancelled_at`

// Add stores the ticket. A ticket already stored for the same purchase is left untouched.
func (r *TicketsRepo) Add(ctx context.Context, t tickets.Ticket) error {
	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		INSERT INTO tickets (ticket_id, purchase_id, user_id, round_trip, price, trip_ids, purchased_at, first_departure)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (purchase_id) DO NOTHING
	`, t.ID, t.PurchaseID, t.UserID, t.RoundTrip, t.Price, pq.Int64Array(t.TripIDs), t.PurchasedAt, t.FirstDeparture)
	if err != nil {
		return fmt.Errorf("insert ticket %s: %w", t.ID, err)
	}

	return nil
}

func (r *TicketsRepo) Get(ctx context.Context, id uuid.UUID) (tickets.Ticket, error) {
	return r.get(ctx, id, false)
}

func (r *TicketsRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (tickets.Ticket, error) {
	return r.get(ctx, id, true)
}

func (r *TicketsRepo) get(ctx context.Context, id uuid.UUID, lock bool) (tickets.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var m ticketModel
	err := r.getter.DefaultTrOrDB(ctx, r.db).GetContext(ctx, &m, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tickets.Ticket{}, tickets.ErrTicketNotFound
		}
		return tickets.Ticket{}, fmt.Errorf("select ticket %s: %w", id, err)
	}

	return m.toDomain(), nil
}

// ListByUser returns the user's tickets, newest first.
func (r *TicketsRepo) ListByUser(ctx context.Context, userID string) ([]tickets.Ticket, error) {
	return r.list(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE user_id = $1
		ORDER BY purchased_at DESC
	`, userID)
}

// ListActiveByTrip returns ids of non-cancelled tickets that include the trip.
func (r *TicketsRepo) ListActiveByTrip(ctx context.Context, tripID int64) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.getter.DefaultTrOrDB(ctx, r.db).SelectContext(ctx, &ids, `
		SELECT ticket_id
		FROM tickets
		WHERE NOT cancelled AND trip_ids @> ARRAY[$1::BIGINT]
		ORDER BY purchased_at
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("select tickets of trip %d: %w", tripID, err)
	}

	return ids, nil
}

// HasActive reports whether the user holds a non-cancelled ticket for any of the trips.
func (r *TicketsRepo) HasActive(ctx context.Context, userID string, tripIDs []int64) (bool, error) {
	var exists bool
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM tickets
			WHERE user_id = $1 AND NOT cancelled AND trip_ids && $2
		)
	`, userID, pq.Int64Array(tripIDs)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("select active tickets: %w", err)
	}

	return exists, nil
}

// MarkCancelled stores the cancellation and reports whether this call changed the ticket.
func (r *TicketsRepo) MarkCancelled(ctx context.Context, id uuid.UUID, c tickets.Cancellation) (bool, error) {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		UPDATE tickets
		SET cancelled = TRUE, cancellation_reason = $2, cancelled_at = $3
		WHERE ticket_id = $1 AND NOT cancelled
	`, id, c.Reason, c.CancelledAt)
	if err != nil {
		return false, fmt.Errorf("cancel ticket %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *TicketsRepo) list(ctx context.Context, query string, args ...any) ([]tickets.Ticket, error) {
	var models []ticketModel
	err := r.getter.DefaultTrOrDB(ctx, r.db).SelectContext(ctx, &models, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select tickets: %w", err)
	}

	result := make([]tickets.Ticket, 0, len(models))
	for _, m := range models {
		result = append(result, m.toDomain())
	}
	return result, nil
}

// RefreshFirstDeparture recomputes the first departure of active tickets using the trip
// from the recorded trip departures. It returns the number of tickets changed.
func (r *TicketsRepo) RefreshFirstDeparture(ctx context.Context, tripID int64) (int64, error) {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		UPDATE tickets t
		SET first_departure = d.first_departure
		FROM (
			SELECT tk.ticket_id, MIN(td.departure_time) AS first_departure
			FROM tickets tk
			JOIN trip_departures td ON td.trip_id = ANY(tk.trip_ids)
			WHERE tk.trip_ids @> ARRAY[$1::BIGINT] AND NOT tk.cancelled
			GROUP BY tk.ticket_id
		) d
		WHERE t.ticket_id = d.ticket_id AND t.first_departure <> d.first_departure
	`, tripID)
	if err != nil {
		return 0, fmt.Errorf("refresh first departure for trip %d: %w", tripID, err)
	}

	return res.RowsAffected()
}
