package tickets

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"transit/internal/domain"
	"transit/internal/entities"
)

var ErrTicketNotFound = fmt.Errorf("ticket %w", domain.ErrNotFound)

// TripCancelledReason is attached to tickets cancelled because one of their trips was cancelled.
const TripCancelledReason = "The trip was cancelled!"

type Cancellation struct {
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type Ticket struct {
	ID             uuid.UUID     `json:"id"`
	PurchaseID     uuid.UUID     `json:"purchase_id"`
	UserID         string        `json:"user_id"`
	RoundTrip      bool          `json:"round_trip"`
	Price          float64       `json:"price"`
	TripIDs        []int64       `json:"trip_ids"`
	PurchasedAt    time.Time     `json:"purchased_at"`
	FirstDeparture time.Time     `json:"first_departure"`
	Cancelled      bool          `json:"cancelled"`
	Cancellation   *Cancellation `json:"cancellation,omitempty"`
}

// FromReservation builds the ticket for a purchase whose seats were reserved.
func FromReservation(reply entities.ReservationReplied_v1, now time.Time) Ticket {
	return Ticket{
		ID:             uuid.New(),
		PurchaseID:     reply.PurchaseID,
		UserID:         reply.UserID,
		RoundTrip:      reply.RoundTrip,
		Price:          reply.Price,
		TripIDs:        reply.TripIDs,
		PurchasedAt:    now.UTC(),
		FirstDeparture: reply.FirstDeparture().UTC(),
	}
}

// Cancel marks the ticket cancelled. It returns false when the ticket already was.
// User cancellations are refused once the first trip has departed.
func (t *Ticket) Cancel(reason string, byUser bool, now time.Time) (bool, error) {
	if t.Cancelled {
		return false, nil
	}
	if byUser && !t.FirstDeparture.IsZero() && !now.Before(t.FirstDeparture) {
		return false, domain.NewValidationError("ticket", "cannot cancel a ticket after departure")
	}

	t.Cancelled = true
	t.Cancellation = &Cancellation{
		Reason:      reason,
		CancelledAt: now.UTC(),
	}
	return true, nil
}

func (t Ticket) ToEntity() entities.Ticket {
	return entities.Ticket{
		TicketID:       t.ID,
		PurchaseID:     t.PurchaseID,
		UserID:         t.UserID,
		TripIDs:        t.TripIDs,
		RoundTrip:      t.RoundTrip,
		Price:          t.Price,
		PurchasedAt:    t.PurchasedAt,
		FirstDeparture: t.FirstDeparture,
	}
}
