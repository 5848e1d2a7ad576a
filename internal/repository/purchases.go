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

	"transit/internal/domain/purchases"
)

type PurchasesRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewPurchasesRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *PurchasesRepo {
	return &PurchasesRepo{
		db:     db,
		getter: getter,
	}
}

type purchaseModel struct {
	PurchaseID     uuid.UUID      `db:"purchase_id"`
	UserID         string         `db:"user_id"`
	TripIDs        pq.Int64Array  `db:"trip_ids"`
	RoundTrip      bool           `db:"round_trip"`
	Price          float64        `db:"price"`
	Status         string         `db:"status"`
	TicketID       *uuid.UUID     `db:"ticket_id"`
	Reason         string         `db:"reason"`
	IdempotencyKey sql.NullString `db:"idempotency_key"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (m purchaseModel) toDomain() purchases.Purchase {
	return purchases.Purchase{
		ID:             m.PurchaseID,
		UserID:         m.UserID,
		TripIDs:        m.TripIDs,
		RoundTrip:      m.RoundTrip,
		Price:          m.Price,
		Status:         purchases.Status(m.Status),
		TicketID:       m.TicketID,
		Reason:         m.Reason,
		IdempotencyKey: m.IdempotencyKey.String,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

const purchaseColumns = `purchase_id, user_id, trip_ids, round_trip, price, status, ticket_id, reason, idempotency_key, created_at, updated_at`

func (r *PurchasesRepo) Add(ctx context.Context, p purchases.Purchase) error {
	key := sql.NullString{String: p.IdempotencyKey, Valid: p.IdempotencyKey != ""}

	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		INSERT INTO purchases (purchase_id, user_id, trip_ids, round_trip, price, status, reason, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.UserID, pq.Int64Array(p.TripIDs), p.RoundTrip, p.Price, p.Status, p.Reason, key, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert purchase %s: %w", p.ID, err)
	}

	return nil
}

func (r *PurchasesRepo) Get(ctx context.Context, id uuid.UUID) (purchases.Purchase, error) {
	return r.getOne(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE purchase_id = $1`, id)
}

func (r *PurchasesRepo) GetByIdempotencyKey(ctx context.Context, userID, key string) (purchases.Purchase, error) {
	return r.getOne(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE user_id = $1 AND idempotency_key = $2
	`, userID, key)
}

func (r *PurchasesRepo) getOne(ctx context.Context, query string, args ...any) (purchases.Purchase, error) {
	var m purchaseModel
	err := r.getter.DefaultTrOrDB(ctx, r.db).GetContext(ctx, &m, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return purchases.Purchase{}, purchases.ErrPurchaseNotFound
		}
		return purchases.Purchase{}, fmt.Errorf("select purchase: %w", err)
	}

	return m.toDomain(), nil
}

// UpdateByID locks the purchase, applies updateFn and stores the result.
func (r *PurchasesRepo) UpdateByID(
	ctx context.Context,
	id uuid.UUID,
	updateFn func(p purchases.Purchase) (purchases.Purchase, error),
) (purchases.Purchase, error) {
	tx := r.getter.DefaultTrOrDB(ctx, r.db)

	var m purchaseModel
	err := tx.GetContext(ctx, &m, `SELECT `+purchaseColumns+` FROM purchases WHERE purchase_id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return purchases.Purchase{}, purchases.ErrPurchaseNotFound
		}
		return purchases.Purchase{}, fmt.Errorf("select purchase %s: %w", id, err)
	}

	p, err := updateFn(m.toDomain())
	if err != nil {
		return purchases.Purchase{}, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE purchases
		SET status = $2, ticket_id = $3, reason = $4, updated_at = $5
		WHERE purchase_id = $1
	`, p.ID, p.Status, p.TicketID, p.Reason, p.UpdatedAt)
	if err != nil {
		return purchases.Purchase{}, fmt.Errorf("update purchase %s: %w", id, err)
	}

	return p, nil
}

// HasInFlight reports whether the user has a purchase awaiting its reservation for any of the trips.
func (r *PurchasesRepo) HasInFlight(ctx context.Context, userID string, tripIDs []int64) (bool, error) {
	var exists bool
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM purchases
			WHERE user_id = $1 AND status IN ('INITIATED', 'RESERVING') AND trip_ids && $2
		)
	`, userID, pq.Int64Array(tripIDs)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("select in-flight purchases: %w", err)
	}

	return exists, nil
}

// ListStale returns ids of purchases stuck in RESERVING since before olderThan.
func (r *PurchasesRepo) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.getter.DefaultTrOrDB(ctx, r.db).SelectContext(ctx, &ids, `
		SELECT purchase_id
		FROM purchases
		WHERE status = 'RESERVING' AND updated_at < $1
		ORDER BY updated_at
		LIMIT $2
	`, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("select stale purchases: %w", err)
	}

	return ids, nil
}
