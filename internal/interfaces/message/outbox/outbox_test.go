package outbox_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit/internal/entities"
	"transit/internal/interfaces/message/events"
	"transit/internal/interfaces/message/outbox"
	"transit/internal/testenv"
)

func newIntent() entities.PurchaseIntent_v1 {
	return entities.PurchaseIntent_v1{
		Header:     entities.NewEventHeader(),
		PurchaseID: uuid.New(),
		UserID:     "user-1",
		TripIDs:    []int64{10},
		Price:      5,
	}
}

func TestOutbox_ForwardsCommittedEventsOnly(t *testing.T) {
	db := testenv.Postgres(t)
	logger := watermill.NopLogger{}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, logger)
	messages, err := pubSub.Subscribe(ctx, entities.Topic(entities.PurchaseIntent_v1{}))
	require.NoError(t, err)

	fwd, err := outbox.NewForwarder(db, pubSub, 50*time.Millisecond, logger)
	require.NoError(t, err)
	go func() {
		_ = fwd.Run(ctx)
	}()
	<-fwd.Running()

	bus := outbox.NewEventBus(trmsqlx.DefaultCtxGetter, logger)
	trManager := manager.Must(trmsqlx.NewDefaultFactory(db))

	assert.ErrorIs(t, bus.Publish(ctx, newIntent()), outbox.ErrNoTransaction)

	errRollback := errors.New("rollback")
	err = trManager.Do(ctx, func(ctx context.Context) error {
		if err := bus.Publish(ctx, newIntent()); err != nil {
			return err
		}
		return errRollback
	})
	require.ErrorIs(t, err, errRollback)

	committed := newIntent()
	require.NoError(t, trManager.Do(ctx, func(ctx context.Context) error {
		return bus.Publish(ctx, committed)
	}))

	select {
	case msg := <-messages:
		msg.Ack()

		var got entities.PurchaseIntent_v1
		require.NoError(t, events.Marshaler.Unmarshal(msg, &got))
		assert.Equal(t, committed.PurchaseID, got.PurchaseID)
		assert.NotEmpty(t, msg.Metadata.Get(events.CorrelationIDMetadataKey))
	case <-time.After(10 * time.Second):
		t.Fatal("committed event was not forwarded")
	}

	select {
	case msg := <-messages:
		t.Fatalf("unexpected message forwarded: %s", msg.Payload)
	case <-time.After(500 * time.Millisecond):
	}
}
