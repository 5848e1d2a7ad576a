package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"

	"transit/internal/application/transaction"
	"transit/internal/domain"
	"transit/internal/domain/purchases"
	tdomain "transit/internal/domain/tickets"
	"transit/internal/entities"
	"transit/internal/observability"
)

// CancelTicket cancels the ticket on the user's request and releases its seats.
// Cancelling a cancelled ticket returns it unchanged.
func (u *TicketsUsecase) CancelTicket(ctx context.Context, id uuid.UUID, reason string) (tdomain.Ticket, error) {
	if strings.TrimSpace(reason) == "" {
		return tdomain.Ticket{}, domain.NewValidationError("reason", "is required")
	}

	var ticket tdomain.Ticket
	err := transaction.Do(ctx, u.trManager, transaction.ReadCommitted(), func(ctx context.Context) error {
		var err error
		ticket, err = u.cancelTicket(ctx, id, reason, true)
		return err
	})
	if err != nil {
		return tdomain.Ticket{}, err
	}

	return ticket, nil
}

func (u *TicketsUsecase) cancelTicket(ctx context.Context, id uuid.UUID, reason string, byUser bool) (tdomain.Ticket, error) {
	logger := log.FromContext(ctx).WithField("ticket_id", id)

	ticket, err := u.tickets.GetForUpdate(ctx, id)
	if err != nil {
		return tdomain.Ticket{}, err
	}

	changed, err := ticket.Cancel(reason, byUser, u.now())
	if err != nil {
		return tdomain.Ticket{}, err
	}
	if !changed {
		logger.Info("Ticket already cancelled")
		return ticket, nil
	}

	if _, err := u.tickets.MarkCancelled(ctx, id, *ticket.Cancellation); err != nil {
		return tdomain.Ticket{}, err
	}

	_, err = u.purchases.UpdateByID(ctx, ticket.PurchaseID, func(p purchases.Purchase) (purchases.Purchase, error) {
		err := p.TransitionTo(purchases.StatusCancelled, u.now())
		return p, err
	})
	switch {
	case errors.Is(err, purchases.ErrPurchaseNotFound), errors.Is(err, purchases.ErrInvalidTransition):
		logger.WithError(err).Warn("Purchase of the cancelled ticket not updated")
	case err != nil:
		return tdomain.Ticket{}, err
	}

	err = u.eventBus.Publish(ctx, entities.TicketCancelled_v1{
		Header:     entities.NewEventHeaderWithIdempotencyKey("ticket-cancelled-" + id.String()),
		PurchaseID: ticket.PurchaseID,
		TicketID:   ticket.ID,
		TripIDs:    ticket.TripIDs,
		Reason:     reason,
	})
	if err != nil {
		return tdomain.Ticket{}, fmt.Errorf("failed to publish ticket cancelled: %w", err)
	}

	origin := "user"
	if !byUser {
		origin = "system"
	}
	observability.TicketsCancelledTotal.WithLabelValues(origin).Inc()
	logger.WithField("reason", reason).Info("Ticket cancelled")

	return ticket, nil
}

// OnTripCancelled cancels every active ticket using the trip. A ticket that cannot be
// cancelled is logged and skipped.
func (u *TicketsUsecase) OnTripCancelled(ctx context.Context, event entities.TripCancelled_v1) error {
	logger := log.FromContext(ctx).WithField("trip_id", event.TripID)

	cancelledAt := event.CancelledAt
	if cancelledAt.IsZero() {
		cancelledAt = u.now().UTC()
	}

	var ids []uuid.UUID
	err := transaction.Do(ctx, u.trManager, transaction.ReadCommitted(), func(ctx context.Context) error {
		if err := u.cancelledTrips.LockTrips(ctx, []int64{event.TripID}); err != nil {
			return err
		}
		if err := u.cancelledTrips.Add(ctx, event.TripID, cancelledAt); err != nil {
			return err
		}

		var err error
		ids, err = u.tickets.ListActiveByTrip(ctx, event.TripID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to record cancelled trip %d: %w", event.TripID, err)
	}

	var failed int
	for _, id := range ids {
		err := transaction.Do(ctx, u.trManager, transaction.ReadCommitted(), func(ctx context.Context) error {
			_, err := u.cancelTicket(ctx, id, tdomain.TripCancelledReason, false)
			return err
		})
		if err != nil {
			failed++
			observability.CompensationFailuresTotal.Inc()
			logger.WithField("ticket_id", id).WithError(err).Error("Failed to cancel ticket of cancelled trip")
		}
	}

	logger.
		WithField("tickets", len(ids)).
		WithField("failed", failed).
		Info("Tickets of cancelled trip handled")

	return nil
}
