package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"transit/internal/entities"
)

//go:generate mockgen -destination=mocks/inventory_service_mock.go -package=mocks . InventoryService
type InventoryService interface {
	ReserveSeats(ctx context.Context, intent entities.PurchaseIntent_v1) error
	ReleaseSeats(ctx context.Context, event entities.TicketCancelled_v1) error
}

//go:generate mockgen -destination=mocks/ledger_service_mock.go -package=mocks . LedgerService
type LedgerService interface {
	OnReservationReply(ctx context.Context, reply entities.ReservationReplied_v1) error
	OnTripCancelled(ctx context.Context, event entities.TripCancelled_v1) error
	OnTripRescheduled(ctx context.Context, event entities.TripRescheduled_v1) error
}

type Handler struct {
	inventory InventoryService
	ledger    LedgerService
}

func NewHandler(
	inventory InventoryService,
	ledger LedgerService,
) *Handler {
	return &Handler{
		inventory: inventory,
		ledger:    ledger,
	}
}

// RouteHandlers are consumed by the route service.
func (h *Handler) RouteHandlers() []cqrs.EventHandler {
	return []cqrs.EventHandler{
		h.ReserveSeatsHandler(),
		h.ReleaseSeatsHandler(),
	}
}

// TicketsHandlers are consumed by the tickets service.
func (h *Handler) TicketsHandlers() []cqrs.EventHandler {
	return []cqrs.EventHandler{
		h.ReservationReplyHandler(),
		h.TripCancelledHandler(),
		h.TripRescheduledHandler(),
	}
}

func (h *Handler) ReserveSeatsHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"route.reserve_seats",
		func(ctx context.Context, event *entities.PurchaseIntent_v1) error {
			return h.inventory.ReserveSeats(ctx, *event)
		},
	)
}

func (h *Handler) ReleaseSeatsHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"route.release_seats",
		func(ctx context.Context, event *entities.TicketCancelled_v1) error {
			return h.inventory.ReleaseSeats(ctx, *event)
		},
	)
}

func (h *Handler) ReservationReplyHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"tickets.on_reservation_reply",
		func(ctx context.Context, event *entities.ReservationReplied_v1) error {
			return h.ledger.OnReservationReply(ctx, *event)
		},
	)
}

func (h *Handler) TripCancelledHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"tickets.on_trip_cancelled",
		func(ctx context.Context, event *entities.TripCancelled_v1) error {
			return h.ledger.OnTripCancelled(ctx, *event)
		},
	)
}

func (h *Handler) TripRescheduledHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"tickets.on_trip_rescheduled",
		func(ctx context.Context, event *entities.TripRescheduled_v1) error {
			return h.ledger.OnTripRescheduled(ctx, *event)
		},
	)
}
