package entities

import (
	"time"

	"github.com/google/uuid"
)

const TopicPrefix = "transit."

// Logical queues shared by the route and tickets services.
const (
	QueuePurchaseIntent   = "purchase-intent"
	QueueReservationReply = "reservation-reply"
	QueueTicketCancelled  = "ticket-cancelled"
	QueueTripCancelled    = "trip-cancelled"
	QueueTripRescheduled  = "trip-rescheduled"
	QueueTicketCreated    = "ticket-created"
	QueuePurchaseRejected = "purchase-rejected"
)

type Event interface {
	Queue() string
}

func Topic(e Event) string {
	return TopicPrefix + e.Queue()
}

type PurchaseIntent_v1 struct {
	Header EventHeader `json:"header"`

	PurchaseID uuid.UUID `json:"purchase_id"`
	UserID     string    `json:"user_id"`
	TripIDs    []int64   `json:"trip_ids"`
	RoundTrip  bool      `json:"round_trip"`
	Price      float64   `json:"price"`
}

func (PurchaseIntent_v1) Queue() string {
	return QueuePurchaseIntent
}

type ReservationReplied_v1 struct {
	Header EventHeader `json:"header"`

	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`

	PurchaseID uuid.UUID `json:"purchase_id"`
	UserID     string    `json:"user_id"`
	TripIDs    []int64   `json:"trip_ids"`
	RoundTrip  bool      `json:"round_trip"`
	Price      float64   `json:"price"`

	// Departures is aligned with TripIDs, set on success only.
	Departures []time.Time `json:"departures,omitempty"`
}

func (ReservationReplied_v1) Queue() string {
	return QueueReservationReply
}

// FirstDeparture returns the earliest departure of the reserved trips.
func (r ReservationReplied_v1) FirstDeparture() time.Time {
	var first time.Time
	for _, d := range r.Departures {
		if first.IsZero() || d.Before(first) {
			first = d
		}
	}
	return first
}

type TicketCancelled_v1 struct {
	Header EventHeader `json:"header"`

	// PurchaseID is uuid.Nil for payloads carrying trip ids only.
	PurchaseID uuid.UUID `json:"purchase_id"`
	TicketID   uuid.UUID `json:"ticket_id"`
	TripIDs    []int64   `json:"trip_ids"`
	Reason     string    `json:"reason,omitempty"`
}

func (TicketCancelled_v1) Queue() string {
	return QueueTicketCancelled
}

type TripCancelled_v1 struct {
	Header EventHeader `json:"header"`

	TripID      int64     `json:"trip_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

func (TripCancelled_v1) Queue() string {
	return QueueTripCancelled
}

type TripRescheduled_v1 struct {
	Header EventHeader `json:"header"`

	TripID        int64     `json:"trip_id"`
	DepartureTime time.Time `json:"departure_time"`
	RescheduledAt time.Time `json:"rescheduled_at"`
}

func (TripRescheduled_v1) Queue() string {
	return QueueTripRescheduled
}

type Ticket struct {
	TicketID       uuid.UUID `json:"ticket_id"`
	PurchaseID     uuid.UUID `json:"purchase_id"`
	UserID         string    `json:"user_id"`
	TripIDs        []int64   `json:"trip_ids"`
	RoundTrip      bool      `json:"round_trip"`
	Price          float64   `json:"price"`
	PurchasedAt    time.Time `json:"purchased_at"`
	FirstDeparture time.Time `json:"first_departure"`
}

type TicketCreated_v1 struct {
	Header EventHeader `json:"header"`

	Ticket Ticket `json:"ticket"`
}

func (TicketCreated_v1) Queue() string {
	return QueueTicketCreated
}

type PurchaseRejected_v1 struct {
	Header EventHeader `json:"header"`

	PurchaseID uuid.UUID `json:"purchase_id"`
	UserID     string    `json:"user_id"`
	TripIDs    []int64   `json:"trip_ids"`
	Reason     string    `json:"reason"`
}

func (PurchaseRejected_v1) Queue() string {
	return QueuePurchaseRejected
}
