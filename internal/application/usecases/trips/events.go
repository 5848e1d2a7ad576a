package trips

import (
	"fmt"
	"time"

	"transit/internal/domain/trips"
	"transit/internal/entities"
)

func newTripCancelled(id int64, now time.Time) entities.TripCancelled_v1 {
	return entities.TripCancelled_v1{
		Header:      entities.NewEventHeaderWithIdempotencyKey(fmt.Sprintf("trip-cancelled-%d", id)),
		TripID:      id,
		CancelledAt: now.UTC(),
	}
}

func newTripRescheduled(trip trips.Trip, now time.Time) entities.TripRescheduled_v1 {
	return entities.TripRescheduled_v1{
		Header:        entities.NewEventHeaderWithIdempotencyKey(fmt.Sprintf("trip-rescheduled-%d-%d", trip.ID, trip.DepartureTime.UnixNano())),
		TripID:        trip.ID,
		DepartureTime: trip.DepartureTime,
		RescheduledAt: now.UTC(),
	}
}

func newReservationReply(intent entities.PurchaseIntent_v1, success bool, reason string, departures []time.Time) entities.ReservationReplied_v1 {
	return entities.ReservationReplied_v1{
		Header:     entities.NewEventHeaderWithIdempotencyKey("reservation-reply-" + intent.PurchaseID.String()),
		Success:    success,
		Reason:     reason,
		PurchaseID: intent.PurchaseID,
		UserID:     intent.UserID,
		TripIDs:    intent.TripIDs,
		RoundTrip:  intent.RoundTrip,
		Price:      intent.Price,
		Departures: departures,
	}
}

// departures returns departure times aligned with ids.
func departures(ids []int64, found []trips.Trip) []time.Time {
	byID := make(map[int64]time.Time, len(found))
	for _, t := range found {
		byID[t.ID] = t.DepartureTime
	}

	result := make([]time.Time, 0, len(ids))
	for _, id := range ids {
		result = append(result, byID[id])
	}
	return result
}
