package purchases

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"transit/internal/domain"
)

var (
	ErrPurchaseNotFound  = fmt.Errorf("purchase %w", domain.ErrNotFound)
	ErrInvalidTransition = errors.New("invalid purchase status transition")
	ErrAlreadyInProgress = errors.New("user already holds a ticket or a pending purchase for this trip")
)

type Status string

const (
	StatusInitiated Status = "INITIATED"
	StatusReserving Status = "RESERVING"
	StatusConfirmed Status = "CONFIRMED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusInitiated: {StatusReserving, StatusRejected},
	StatusReserving: {StatusConfirmed, StatusRejected},
	StatusConfirmed: {StatusCancelled},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InFlight reports whether the reservation outcome is still unknown.
func (s Status) InFlight() bool {
	return s == StatusInitiated || s == StatusReserving
}

const ReasonTimeout = "timeout"

type Purchase struct {
	ID             uuid.UUID
	UserID         string
	TripIDs        []int64
	RoundTrip      bool
	Price          float64
	Status         Status
	TicketID       *uuid.UUID
	Reason         string
	IdempotencyKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Request struct {
	UserID         string
	TripIDs        []int64
	RoundTrip      bool
	Price          float64
	IdempotencyKey string
}

func (r Request) Validate() error {
	verr := &domain.ValidationError{}

	if strings.TrimSpace(r.UserID) == "" {
		verr.Add("userId", "is required")
	}
	if r.Price <= 0 {
		verr.Add("price", "must be greater than 0")
	}
	for _, id := range r.TripIDs {
		if id <= 0 {
			verr.Add("tripIds", "must contain positive ids")
			break
		}
	}

	switch {
	case r.RoundTrip && len(r.TripIDs) != 2:
		verr.Add("tripIds", "a round trip needs exactly 2 trips")
	case r.RoundTrip && r.TripIDs[0] == r.TripIDs[1]:
		verr.Add("tripIds", "a round trip needs 2 different trips")
	case !r.RoundTrip && len(r.TripIDs) != 1:
		verr.Add("tripIds", "a one-way ticket needs exactly 1 trip")
	}

	return verr.OrNil()
}

func New(r Request, now time.Time) (Purchase, error) {
	if err := r.Validate(); err != nil {
		return Purchase{}, err
	}

	return Purchase{
		ID:             uuid.New(),
		UserID:         strings.TrimSpace(r.UserID),
		TripIDs:        r.TripIDs,
		RoundTrip:      r.RoundTrip,
		Price:          r.Price,
		Status:         StatusInitiated,
		IdempotencyKey: r.IdempotencyKey,
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}, nil
}

func (p *Purchase) TransitionTo(next Status, now time.Time) error {
	if !p.Status.CanTransitionTo(next) {
		return fmt.Errorf("purchase %s: %s -> %s: %w", p.ID, p.Status, next, ErrInvalidTransition)
	}
	p.Status = next
	p.UpdatedAt = now.UTC()
	return nil
}

func (p *Purchase) Confirm(ticketID uuid.UUID, now time.Time) error {
	if err := p.TransitionTo(StatusConfirmed, now); err != nil {
		return err
	}
	p.TicketID = &ticketID
	return nil
}

func (p *Purchase) Reject(reason string, now time.Time) error {
	if err := p.TransitionTo(StatusRejected, now); err != nil {
		return err
	}
	p.Reason = reason
	return nil
}
