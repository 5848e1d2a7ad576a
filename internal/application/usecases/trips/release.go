package trips

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"

	"transit/internal/application/transaction"
	"transit/internal/domain/trips"
	"transit/internal/entities"
	"transit/internal/observability"
)

// ReleaseSeats gives back the seats of a cancelled ticket.
// A reservation is released at most once; payloads without a known purchase release the listed trips.
func (u *TripsUsecase) ReleaseSeats(ctx context.Context, event entities.TicketCancelled_v1) error {
	logger := log.FromContext(ctx).
		WithField("purchase_id", event.PurchaseID).
		WithField("ticket_id", event.TicketID)

	err := transaction.Do(ctx, u.trManager, transaction.ReadCommitted(), func(ctx context.Context) error {
		ids := event.TripIDs

		if event.PurchaseID != uuid.Nil {
			reservation, err := u.reservations.Get(ctx, event.PurchaseID)
			switch {
			case isNotFound(err):
				logger.Warn("No reservation stored for purchase, releasing listed trips")
			case err != nil:
				return err
			default:
				released, err := u.reservations.MarkReleased(ctx, event.PurchaseID)
				if err != nil {
					return err
				}
				if !released {
					logger.WithField("status", reservation.Status).Info("Reservation not held, nothing to release")
					return nil
				}
				ids = reservation.TripIDs
			}
		}

		ids = trips.DistinctIDs(ids)
		if len(ids) == 0 {
			logger.Warn("Ticket cancellation without trips")
			return nil
		}

		full, err := u.trips.ReleaseSeats(ctx, ids, u.clampRelease)
		if err != nil {
			return err
		}
		if len(full) > 0 {
			observability.SeatsReleaseClampedTotal.Add(float64(len(full)))
			logger.
				WithField("trip_ids", full).
				WithField("clamped", u.clampRelease).
				Warn("Released seats on trips already at capacity")
		}

		observability.SeatsReleasedTotal.Inc()
		logger.WithField("trip_ids", ids).Info("Seats released")
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}

	return nil
}
