package tickets

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"

	"transit/internal/application/transaction"
	"transit/internal/domain/purchases"
	tdomain "transit/internal/domain/tickets"
	"transit/internal/entities"
	"transit/internal/observability"
)

type replyOutcome int

const (
	replyIgnored replyOutcome = iota
	replyConfirmed
	replyRejected
	replyCompensate
)

// OnReservationReply moves the purchase according to the route service's answer.
// Seats reserved for a purchase that can no longer be confirmed are given back.
func (u *TicketsUsecase) OnReservationReply(ctx context.Context, reply entities.ReservationReplied_v1) error {
	logger := log.FromContext(ctx).
		WithField("purchase_id", reply.PurchaseID).
		WithField("success", reply.Success)

	err := transaction.Do(ctx, u.trManager, transaction.ReadCommitted(), func(ctx context.Context) error {
		var (
			outcome = replyIgnored
			ticket  tdomain.Ticket
		)

		purchase, err := u.purchases.UpdateByID(ctx, reply.PurchaseID, func(p purchases.Purchase) (purchases.Purchase, error) {
			outcome = replyIgnored
			now := u.now()

			if p.Status == purchases.StatusInitiated {
				if err := p.TransitionTo(purchases.StatusReserving, now); err != nil {
					return p, err
				}
			}

			switch {
			case p.Status == purchases.StatusReserving && reply.Success:
				ticket = tdomain.FromReservation(reply, now)
				outcome = replyConfirmed
				err := p.Confirm(ticket.ID, now)
				return p, err
			case p.Status == purchases.StatusReserving:
				outcome = replyRejected
				err := p.Reject(reply.Reason, now)
				return p, err
			case reply.Success && p.Status != purchases.StatusConfirmed:
				outcome = replyCompensate
			}
			return p, nil
		})
		if errors.Is(err, purchases.ErrPurchaseNotFound) {
			if !reply.Success {
				logger.Warn("Reply for unknown purchase, ignoring")
				return nil
			}
			logger.Warn("Seats reserved for unknown purchase, releasing")
			outcome = replyCompensate
		} else if err != nil {
			return err
		}

		switch outcome {
		case replyConfirmed:
			return u.confirm(ctx, ticket, reply)
		case replyRejected:
			logger.WithField("reason", reply.Reason).Info("Purchase rejected")
			observability.PurchasesTotal.WithLabelValues(string(purchases.StatusRejected)).Inc()
			return u.eventBus.Publish(ctx, newPurchaseRejected(purchase))
		case replyCompensate:
			logger.WithField("status", purchase.Status).Info("Late reservation, releasing seats")
			return u.eventBus.Publish(ctx, entities.TicketCancelled_v1{
				Header:     entities.NewEventHeaderWithIdempotencyKey("compensation-" + reply.PurchaseID.String()),
				PurchaseID: reply.PurchaseID,
				TripIDs:    reply.TripIDs,
				Reason:     "reservation arrived after the purchase ended",
			})
		}

		logger.WithField("status", purchase.Status).Info("Reply does not change the purchase")
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to handle reservation reply: %w", err)
	}

	return nil
}

func (u *TicketsUsecase) confirm(ctx context.Context, ticket tdomain.Ticket, reply entities.ReservationReplied_v1) error {
	// held until commit, so a trip cancelled or rescheduled meanwhile sees this ticket
	if err := u.cancelledTrips.LockTrips(ctx, ticket.TripIDs); err != nil {
		return err
	}

	if err := u.departures.Record(ctx, reply.TripIDs, reply.Departures, reply.Header.PublishedAt); err != nil {
		return err
	}
	first, err := u.departures.FirstDeparture(ctx, ticket.TripIDs)
	if err != nil {
		return err
	}
	if !first.IsZero() {
		ticket.FirstDeparture = first.UTC()
	}

	if err := u.tickets.Add(ctx, ticket); err != nil {
		return err
	}

	err = u.eventBus.Publish(ctx, entities.TicketCreated_v1{
		Header: entities.NewEventHeaderWithIdempotencyKey("ticket-created-" + ticket.ID.String()),
		Ticket: ticket.ToEntity(),
	})
	if err != nil {
		return err
	}

	log.FromContext(ctx).
		WithField("ticket_id", ticket.ID).
		WithField("purchase_id", ticket.PurchaseID).
		Info("Ticket created")
	observability.PurchasesTotal.WithLabelValues(string(purchases.StatusConfirmed)).Inc()

	// The trip may have been cancelled while the reservation was in flight.
	cancelled, err := u.cancelledTrips.AnyCancelled(ctx, ticket.TripIDs)
	if err != nil {
		return err
	}
	if cancelled {
		_, err = u.cancelTicket(ctx, ticket.ID, tdomain.TripCancelledReason, false)
		return err
	}

	return nil
}

func newPurchaseRejected(p purchases.Purchase) entities.PurchaseRejected_v1 {
	return entities.PurchaseRejected_v1{
		Header:     entities.NewEventHeaderWithIdempotencyKey("purchase-rejected-" + p.ID.String()),
		PurchaseID: p.ID,
		UserID:     p.UserID,
		TripIDs:    p.TripIDs,
		Reason:     p.Reason,
	}
}
