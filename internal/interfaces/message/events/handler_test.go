package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit/internal/entities"
	"transit/internal/interfaces/message/events"
	"transit/internal/interfaces/message/events/mocks"
)

func TestHandler_DelegatesToServices(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	inventory := mocks.NewMockInventoryService(ctrl)
	ledger := mocks.NewMockLedgerService(ctrl)
	h := events.NewHandler(inventory, ledger)

	intent := entities.PurchaseIntent_v1{
		Header:     entities.NewEventHeader(),
		PurchaseID: uuid.New(),
		UserID:     "user-1",
		TripIDs:    []int64{10},
		Price:      12,
	}
	inventory.EXPECT().ReserveSeats(gomock.Any(), intent).Return(nil)
	require.NoError(t, h.ReserveSeatsHandler().Handle(ctx, &intent))

	cancelled := entities.TicketCancelled_v1{PurchaseID: intent.PurchaseID, TripIDs: []int64{10}}
	inventory.EXPECT().ReleaseSeats(gomock.Any(), cancelled).Return(nil)
	require.NoError(t, h.ReleaseSeatsHandler().Handle(ctx, &cancelled))

	reply := entities.ReservationReplied_v1{PurchaseID: intent.PurchaseID, Success: true}
	ledger.EXPECT().OnReservationReply(gomock.Any(), reply).Return(errors.New("db down"))
	assert.Error(t, h.ReservationReplyHandler().Handle(ctx, &reply))

	tripCancelled := entities.TripCancelled_v1{TripID: 10, CancelledAt: time.Now()}
	ledger.EXPECT().OnTripCancelled(gomock.Any(), tripCancelled).Return(nil)
	require.NoError(t, h.TripCancelledHandler().Handle(ctx, &tripCancelled))

	rescheduled := entities.TripRescheduled_v1{TripID: 10, DepartureTime: time.Now().Add(time.Hour)}
	ledger.EXPECT().OnTripRescheduled(gomock.Any(), rescheduled).Return(nil)
	require.NoError(t, h.TripRescheduledHandler().Handle(ctx, &rescheduled))
}

func TestHandler_EventsHaveTopics(t *testing.T) {
	h := events.NewHandler(nil, nil)

	names := map[string]struct{}{}
	for _, handler := range append(h.RouteHandlers(), h.TicketsHandlers()...) {
		event, ok := handler.NewEvent().(entities.Event)
		require.True(t, ok, "handler %s", handler.HandlerName())
		assert.NotEmpty(t, entities.Topic(event))

		_, duplicated := names[handler.HandlerName()]
		assert.False(t, duplicated, "handler %s", handler.HandlerName())
		names[handler.HandlerName()] = struct{}{}
	}
	assert.Len(t, names, 5)
}

func TestMarshaler_MalformedPayload(t *testing.T) {
	msg := message.NewMessage(uuid.NewString(), []byte("{not json"))

	var intent entities.PurchaseIntent_v1
	err := events.Marshaler.Unmarshal(msg, &intent)

	assert.ErrorIs(t, err, events.ErrJsonUnmarshal)
}

func TestCorrelationIDMiddleware(t *testing.T) {
	var got string
	handler := events.CorrelationIDMiddleware(func(msg *message.Message) ([]*message.Message, error) {
		got = log.CorrelationIDFromContext(msg.Context())
		return nil, nil
	})

	msg := message.NewMessage(uuid.NewString(), nil)
	msg.Metadata.Set(events.CorrelationIDMetadataKey, "corr-1")
	_, err := handler(msg)
	require.NoError(t, err)
	assert.Equal(t, "corr-1", got)

	_, err = handler(message.NewMessage(uuid.NewString(), nil))
	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.NotEqual(t, "corr-1", got)
}

func TestConsumerGroup(t *testing.T) {
	assert.Equal(t, "svc-route.reserve_seats", events.ConsumerGroup("route.reserve_seats"))
}
