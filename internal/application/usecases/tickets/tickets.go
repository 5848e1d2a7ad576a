package tickets

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"transit/internal/application/transaction"
	"transit/internal/domain"
	"transit/internal/domain/purchases"
	tdomain "transit/internal/domain/tickets"
)

type PurchasesRepo interface {
	Add(ctx context.Context, p purchases.Purchase) error
	Get(ctx context.Context, id uuid.UUID) (purchases.Purchase, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (purchases.Purchase, error)
	UpdateByID(
		ctx context.Context,
		id uuid.UUID,
		updateFn func(p purchases.Purchase) (purchases.Purchase, error),
	) (purchases.Purchase, error)
	HasInFlight(ctx context.Context, userID string, tripIDs []int64) (bool, error)
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]uuid.UUID, error)
}

type TicketsRepo interface {
	Add(ctx context.Context, t tdomain.Ticket) error
	Get(ctx context.Context, id uuid.UUID) (tdomain.Ticket, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (tdomain.Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]tdomain.Ticket, error)
	ListActiveByTrip(ctx context.Context, tripID int64) ([]uuid.UUID, error)
	HasActive(ctx context.Context, userID string, tripIDs []int64) (bool, error)
	MarkCancelled(ctx context.Context, id uuid.UUID, c tdomain.Cancellation) (bool, error)
	RefreshFirstDeparture(ctx context.Context, tripID int64) (int64, error)
}

type CancelledTripsRepo interface {
	Add(ctx context.Context, tripID int64, cancelledAt time.Time) error
	AnyCancelled(ctx context.Context, tripIDs []int64) (bool, error)
	LockTrips(ctx context.Context, tripIDs []int64) error
}

type TripDeparturesRepo interface {
	Record(ctx context.Context, tripIDs []int64, departures []time.Time, observedAt time.Time) error
	FirstDeparture(ctx context.Context, tripIDs []int64) (time.Time, error)
}

type EventBus interface {
	Publish(ctx context.Context, event any) error
}

// TicketsUsecase owns purchases and tickets.
type TicketsUsecase struct {
	purchases      PurchasesRepo
	tickets        TicketsRepo
	cancelledTrips CancelledTripsRepo
	departures     TripDeparturesRepo
	eventBus       EventBus
	trManager      transaction.Manager

	purchaseTimeout time.Duration
	now             func() time.Time
}

func NewTicketsUsecase(
	purchasesRepo PurchasesRepo,
	ticketsRepo TicketsRepo,
	cancelledTripsRepo CancelledTripsRepo,
	departuresRepo TripDeparturesRepo,
	eventBus EventBus,
	trManager transaction.Manager,
	purchaseTimeout time.Duration,
) *TicketsUsecase {
	return &TicketsUsecase{
		purchases:       purchasesRepo,
		tickets:         ticketsRepo,
		cancelledTrips:  cancelledTripsRepo,
		departures:      departuresRepo,
		eventBus:        eventBus,
		trManager:       trManager,
		purchaseTimeout: purchaseTimeout,
		now:             time.Now,
	}
}

func (u *TicketsUsecase) GetTicket(ctx context.Context, id uuid.UUID) (tdomain.Ticket, error) {
	return u.tickets.Get(ctx, id)
}

// ListTickets returns the user's tickets, newest first.
func (u *TicketsUsecase) ListTickets(ctx context.Context, userID string) ([]tdomain.Ticket, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.NewValidationError("userId", "is required")
	}
	return u.tickets.ListByUser(ctx, userID)
}

func (u *TicketsUsecase) GetPurchase(ctx context.Context, id uuid.UUID) (purchases.Purchase, error) {
	return u.purchases.Get(ctx, id)
}
