package trips

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"

	"transit/internal/application/transaction"
	"transit/internal/domain/trips"
	"transit/internal/entities"
	"transit/internal/observability"
)

var errOutcomeAlreadyStored = errors.New("reservation outcome stored concurrently")

type rejectionError struct {
	reason string
}

func (e *rejectionError) Error() string {
	return "reservation rejected: " + e.reason
}

// ReserveSeats takes one seat on every trip of the intent, or none, and always replies.
// The purchase id makes it idempotent: a redelivered intent gets the stored outcome again.
func (u *TripsUsecase) ReserveSeats(ctx context.Context, intent entities.PurchaseIntent_v1) error {
	logger := log.FromContext(ctx).WithField("purchase_id", intent.PurchaseID)

	err := transaction.Do(ctx, u.trManager, transaction.ReadCommitted(), func(ctx context.Context) error {
		stored, err := u.reservations.Get(ctx, intent.PurchaseID)
		if err == nil {
			logger.WithField("status", stored.Status).Info("Purchase intent already handled, replaying outcome")
			return u.replayOutcome(ctx, intent, stored)
		}
		if !isNotFound(err) {
			return err
		}

		ids := trips.DistinctIDs(intent.TripIDs)
		if len(ids) == 0 || len(ids) > 2 || len(ids) != len(intent.TripIDs) {
			return &rejectionError{reason: trips.ReasonInvalidTripList}
		}

		found, err := u.trips.GetMany(ctx, ids)
		if err != nil {
			return err
		}
		if reason := unavailableReason(ids, found); reason != "" {
			return &rejectionError{reason: reason}
		}

		updated, err := u.trips.TakeSeats(ctx, ids)
		if err != nil {
			return err
		}
		if updated != int64(len(ids)) {
			// rolls back the seats taken on the other trips
			return &rejectionError{reason: trips.ReasonNoSeats}
		}

		added, err := u.reservations.Add(ctx, trips.Reservation{
			PurchaseID: intent.PurchaseID,
			TripIDs:    intent.TripIDs,
			Status:     trips.ReservationReserved,
		})
		if err != nil {
			return err
		}
		if !added {
			return errOutcomeAlreadyStored
		}

		logger.WithField("trip_ids", intent.TripIDs).Info("Seats reserved")
		observability.ReservationsTotal.WithLabelValues("reserved").Inc()

		return u.eventBus.Publish(ctx, newReservationReply(intent, true, "", departures(intent.TripIDs, found)))
	})

	var rejection *rejectionError
	if errors.As(err, &rejection) {
		return u.reject(ctx, intent, rejection.reason)
	}
	if err != nil {
		return fmt.Errorf("failed to reserve seats for purchase %s: %w", intent.PurchaseID, err)
	}

	return nil
}

func (u *TripsUsecase) reject(ctx context.Context, intent entities.PurchaseIntent_v1, reason string) error {
	logger := log.FromContext(ctx).WithField("purchase_id", intent.PurchaseID)

	err := transaction.Do(ctx, u.trManager, transaction.ReadCommitted(), func(ctx context.Context) error {
		added, err := u.reservations.Add(ctx, trips.Reservation{
			PurchaseID: intent.PurchaseID,
			TripIDs:    intent.TripIDs,
			Status:     trips.ReservationRejected,
			Reason:     reason,
		})
		if err != nil {
			return err
		}

		if !added {
			stored, err := u.reservations.Get(ctx, intent.PurchaseID)
			if err != nil {
				return err
			}
			return u.replayOutcome(ctx, intent, stored)
		}

		logger.WithField("reason", reason).Info("Reservation rejected")
		observability.ReservationsTotal.WithLabelValues("rejected").Inc()

		return u.eventBus.Publish(ctx, newReservationReply(intent, false, reason, nil))
	})
	if err != nil {
		return fmt.Errorf("failed to reject purchase %s: %w", intent.PurchaseID, err)
	}

	return nil
}

func (u *TripsUsecase) replayOutcome(ctx context.Context, intent entities.PurchaseIntent_v1, stored trips.Reservation) error {
	observability.ReservationsTotal.WithLabelValues("duplicate").Inc()

	if !stored.Succeeded() {
		return u.eventBus.Publish(ctx, newReservationReply(intent, false, stored.Reason, nil))
	}

	found, err := u.trips.GetMany(ctx, stored.TripIDs)
	if err != nil {
		return err
	}

	return u.eventBus.Publish(ctx, newReservationReply(intent, true, "", departures(stored.TripIDs, found)))
}

func unavailableReason(ids []int64, found []trips.Trip) string {
	byID := make(map[int64]trips.Trip, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}

	for _, id := range ids {
		t, ok := byID[id]
		switch {
		case !ok:
			return trips.ReasonTripNotFound
		case t.Status == trips.StatusCancelled:
			return trips.ReasonTripCancelled
		case t.AvailableSeats <= 0:
			return trips.ReasonNoSeats
		}
	}
	return ""
}
