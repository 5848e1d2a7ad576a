package outbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"

	"transit/internal/interfaces/message/events"
)

var ErrNoTransaction = errors.New("outbox publish outside of a transaction")

// EventBus publishes events through the outbox of the transaction carried by ctx.
type EventBus struct {
	getter *trmsqlx.CtxGetter
	logger watermill.LoggerAdapter
}

func NewEventBus(getter *trmsqlx.CtxGetter, logger watermill.LoggerAdapter) *EventBus {
	return &EventBus{
		getter: getter,
		logger: logger,
	}
}

func (b *EventBus) Publish(ctx context.Context, event any) error {
	tr := b.getter.DefaultTrOrDB(ctx, nil)
	if tr == nil {
		return ErrNoTransaction
	}

	publisher, err := NewPublisher(tr, b.logger)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}

	eb, err := events.NewEventBus(publisher, b.logger)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}

	return eb.Publish(ctx, event)
}
