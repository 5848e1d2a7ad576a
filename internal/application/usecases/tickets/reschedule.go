package tickets

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"

	"transit/internal/application/transaction"
	"transit/internal/entities"
)

// OnTripRescheduled moves the first departure of active tickets using the trip, so the
// departure check on cancellation follows the new schedule.
func (u *TicketsUsecase) OnTripRescheduled(ctx context.Context, event entities.TripRescheduled_v1) error {
	var updated int64
	err := transaction.Do(ctx, u.trManager, transaction.ReadCommitted(), func(ctx context.Context) error {
		if err := u.cancelledTrips.LockTrips(ctx, []int64{event.TripID}); err != nil {
			return err
		}

		err := u.departures.Record(ctx, []int64{event.TripID}, []time.Time{event.DepartureTime}, event.RescheduledAt)
		if err != nil {
			return err
		}

		updated, err = u.tickets.RefreshFirstDeparture(ctx, event.TripID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to reschedule tickets of trip %d: %w", event.TripID, err)
	}

	log.FromContext(ctx).
		WithField("trip_id", event.TripID).
		WithField("departure_time", event.DepartureTime).
		WithField("tickets", updated).
		Info("Tickets of rescheduled trip updated")

	return nil
}
