package trips

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"transit/internal/domain"
)

var (
	ErrTripNotFound        = fmt.Errorf("trip %w", domain.ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", domain.ErrNotFound)
	ErrInvalidTransition   = errors.New("invalid trip status transition")
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether the status may move to next.
// Setting the current status again is allowed for non-terminal statuses.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case StatusCancelled:
		return true
	case StatusPending:
		return s == StatusPending
	case StatusInProgress:
		return s == StatusPending || s == StatusInProgress
	case StatusCompleted:
		return s == StatusInProgress
	}
	return false
}

type Trip struct {
	ID             int64     `json:"id" db:"id"`
	DepartureTime  time.Time `json:"departure_time" db:"departure_time"`
	Capacity       int       `json:"capacity" db:"capacity"`
	AvailableSeats int       `json:"available_seats" db:"available_seats"`
	Status         Status    `json:"status" db:"status"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

func NewTrip(departure time.Time, capacity int) (Trip, error) {
	verr := &domain.ValidationError{}
	if departure.IsZero() {
		verr.Add("departure_time", "is required")
	}
	if capacity <= 0 {
		verr.Add("capacity", "must be greater than 0")
	}
	if err := verr.OrNil(); err != nil {
		return Trip{}, err
	}

	return Trip{
		DepartureTime:  departure.UTC(),
		Capacity:       capacity,
		AvailableSeats: capacity,
		Status:         StatusPending,
	}, nil
}

// Update describes a partial change of a trip. Nil fields are left untouched.
type Update struct {
	Status        *Status
	DepartureTime *time.Time
	Capacity      *int
}

// Apply changes everything but a cancellation, which has its own flow.
func (t *Trip) Apply(u Update) error {
	if t.Status.Terminal() && (u.DepartureTime != nil || u.Capacity != nil) {
		return domain.NewValidationError("status", fmt.Sprintf("trip is %s", t.Status))
	}

	if u.Status != nil && *u.Status != StatusCancelled && *u.Status != t.Status {
		if !u.Status.Valid() {
			return domain.NewValidationError("status", fmt.Sprintf("unknown status %q", *u.Status))
		}
		if !t.Status.CanTransitionTo(*u.Status) {
			return fmt.Errorf("%s -> %s: %w", t.Status, *u.Status, ErrInvalidTransition)
		}
		t.Status = *u.Status
	}

	if u.DepartureTime != nil {
		if u.DepartureTime.IsZero() {
			return domain.NewValidationError("departure_time", "is required")
		}
		t.DepartureTime = u.DepartureTime.UTC()
	}

	if u.Capacity != nil {
		if *u.Capacity <= 0 {
			return domain.NewValidationError("capacity", "must be greater than 0")
		}
		reserved := t.Capacity - t.AvailableSeats
		if *u.Capacity < reserved {
			return domain.NewValidationError("capacity", fmt.Sprintf("%d seats are already reserved", reserved))
		}
		t.Capacity = *u.Capacity
		t.AvailableSeats = *u.Capacity - reserved
	}

	return nil
}

type ReservationStatus string

const (
	ReservationReserved ReservationStatus = "RESERVED"
	ReservationRejected ReservationStatus = "REJECTED"
	ReservationReleased ReservationStatus = "RELEASED"
)

// Reservation is the outcome of one purchase intent on the route side.
type Reservation struct {
	PurchaseID uuid.UUID
	TripIDs    []int64
	Status     ReservationStatus
	Reason     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Succeeded reports whether seats were taken for the purchase, even if released since.
func (r Reservation) Succeeded() bool {
	return r.Status == ReservationReserved || r.Status == ReservationReleased
}

// Rejection reasons sent back to the tickets service.
const (
	ReasonTripNotFound    = "trip not found"
	ReasonTripCancelled   = "trip cancelled"
	ReasonNoSeats         = "no seats available"
	ReasonInvalidTripList = "invalid trip list"
)

// DistinctIDs returns ids without duplicates, keeping the first occurrence order.
func DistinctIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
