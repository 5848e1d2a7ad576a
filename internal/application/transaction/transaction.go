package transaction

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/settings"
	"github.com/lib/pq"
)

type Manager interface {
	DoWithSettings(ctx context.Context, s trm.Settings, fn func(ctx context.Context) error) error
}

func ReadCommitted() trm.Settings {
	return trmsql.MustSettings(
		settings.Must(settings.WithCancelable(true)),
		trmsql.WithTxOptions(&sql.TxOptions{Isolation: sql.LevelReadCommitted}),
	)
}

func Serializable() trm.Settings {
	return trmsql.MustSettings(
		settings.Must(settings.WithCancelable(true)),
		trmsql.WithTxOptions(&sql.TxOptions{Isolation: sql.LevelSerializable}),
	)
}

const DefaultAttempts = 5

// Retryable reports serialization failures and deadlocks.
func Retryable(err error) bool {
	var pgErr *pq.Error
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

func WithRetry(attempts int, f func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		var lastErr error
		for i := 0; i < attempts; i++ {
			err := f(ctx)
			if err == nil {
				return nil
			}

			if !Retryable(err) {
				return err
			}

			log.FromContext(ctx).
				WithField("attempt", i+1).
				WithError(err).
				Warn("Transaction conflict, retrying")
			lastErr = err

			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		return lastErr
	}
}

// Do runs fn in a transaction, retrying on conflicts.
func Do(ctx context.Context, m Manager, s trm.Settings, fn func(ctx context.Context) error) error {
	return WithRetry(DefaultAttempts, func(ctx context.Context) error {
		return m.DoWithSettings(ctx, s, fn)
	})(ctx)
}
