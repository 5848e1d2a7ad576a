package trips

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"

	"transit/internal/application/transaction"
	"transit/internal/domain"
	"transit/internal/domain/trips"
)

type TripsRepo interface {
	Create(ctx context.Context, trip trips.Trip) (trips.Trip, error)
	Get(ctx context.Context, id int64) (trips.Trip, error)
	GetForUpdate(ctx context.Context, id int64) (trips.Trip, error)
	GetMany(ctx context.Context, ids []int64) ([]trips.Trip, error)
	List(ctx context.Context, day *time.Time) ([]trips.Trip, error)
	ListUpcoming(ctx context.Context, from time.Time) ([]trips.Trip, error)
	Update(ctx context.Context, trip trips.Trip) (trips.Trip, error)
	TakeSeats(ctx context.Context, ids []int64) (int64, error)
	ReleaseSeats(ctx context.Context, ids []int64, clamp bool) ([]int64, error)
	Cancel(ctx context.Context, id int64) (bool, error)
}

type ReservationsRepo interface {
	Get(ctx context.Context, purchaseID uuid.UUID) (trips.Reservation, error)
	Add(ctx context.Context, reservation trips.Reservation) (bool, error)
	MarkReleased(ctx context.Context, purchaseID uuid.UUID) (bool, error)
}

type EventBus interface {
	Publish(ctx context.Context, event any) error
}

// TripsUsecase owns seat inventory: trip management, reservations and releases.
type TripsUsecase struct {
	trips        TripsRepo
	reservations ReservationsRepo
	eventBus     EventBus
	trManager    transaction.Manager

	clampRelease bool
	now          func() time.Time
}

func NewTripsUsecase(
	tripsRepo TripsRepo,
	reservationsRepo ReservationsRepo,
	eventBus EventBus,
	trManager transaction.Manager,
	clampRelease bool,
) *TripsUsecase {
	return &TripsUsecase{
		trips:        tripsRepo,
		reservations: reservationsRepo,
		eventBus:     eventBus,
		trManager:    trManager,
		clampRelease: clampRelease,
		now:          time.Now,
	}
}

func (u *TripsUsecase) CreateTrip(ctx context.Context, departure time.Time, capacity int) (trips.Trip, error) {
	trip, err := trips.NewTrip(departure, capacity)
	if err != nil {
		return trips.Trip{}, err
	}

	trip, err = u.trips.Create(ctx, trip)
	if err != nil {
		return trips.Trip{}, fmt.Errorf("failed to create trip: %w", err)
	}

	log.FromContext(ctx).WithField("trip_id", trip.ID).Info("Trip created")
	return trip, nil
}

func (u *TripsUsecase) GetTrip(ctx context.Context, id int64) (trips.Trip, error) {
	return u.trips.Get(ctx, id)
}

func (u *TripsUsecase) ListTrips(ctx context.Context, day *time.Time) ([]trips.Trip, error) {
	return u.trips.List(ctx, day)
}

// GetTrips returns the listed trips ordered by departure. Unknown ids are skipped.
func (u *TripsUsecase) GetTrips(ctx context.Context, ids []int64) ([]trips.Trip, error) {
	if len(ids) == 0 {
		return nil, domain.NewValidationError("ids", "at least one trip id is required")
	}
	for _, id := range ids {
		if id <= 0 {
			return nil, domain.NewValidationError("ids", "must be positive integers")
		}
	}

	found, err := u.trips.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]trips.Trip, 0, len(found))
	result = append(result, found...)
	slices.SortStableFunc(result, func(a, b trips.Trip) int {
		if c := a.DepartureTime.Compare(b.DepartureTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return result, nil
}

// ListUpcomingTrips returns trips departing at or after from, without cancelled ones.
func (u *TripsUsecase) ListUpcomingTrips(ctx context.Context, from time.Time) ([]trips.Trip, error) {
	return u.trips.ListUpcoming(ctx, from)
}

// UpdateTrip applies a partial update. Moving the trip to CANCELLED goes through CancelTrip.
func (u *TripsUsecase) UpdateTrip(ctx context.Context, id int64, update trips.Update) (trips.Trip, error) {
	var updated trips.Trip
	err := transaction.Do(ctx, u.trManager, transaction.ReadCommitted(), func(ctx context.Context) error {
		trip, err := u.trips.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if update.DepartureTime != nil || update.Capacity != nil ||
			(update.Status != nil && *update.Status != trips.StatusCancelled) {
			departure := trip.DepartureTime
			if err := trip.Apply(update); err != nil {
				return err
			}
			trip, err = u.trips.Update(ctx, trip)
			if err != nil {
				return err
			}

			if !trip.DepartureTime.Equal(departure) {
				log.FromContext(ctx).
					WithField("trip_id", id).
					WithField("departure_time", trip.DepartureTime).
					Info("Trip rescheduled")

				if err := u.eventBus.Publish(ctx, newTripRescheduled(trip, u.now())); err != nil {
					return err
				}
			}
		}

		if update.Status != nil && *update.Status == trips.StatusCancelled {
			if err := u.cancelTrip(ctx, id); err != nil {
				return err
			}
			trip, err = u.trips.Get(ctx, id)
			if err != nil {
				return err
			}
		}

		updated = trip
		return nil
	})
	if err != nil {
		return trips.Trip{}, err
	}

	return updated, nil
}

// CancelTrip marks the trip CANCELLED and announces it. Cancelling a cancelled trip does nothing.
func (u *TripsUsecase) CancelTrip(ctx context.Context, id int64) error {
	return transaction.Do(ctx, u.trManager, transaction.ReadCommitted(), func(ctx context.Context) error {
		return u.cancelTrip(ctx, id)
	})
}

func (u *TripsUsecase) cancelTrip(ctx context.Context, id int64) error {
	changed, err := u.trips.Cancel(ctx, id)
	if err != nil {
		return err
	}

	if !changed {
		trip, err := u.trips.Get(ctx, id)
		if err != nil {
			return err
		}
		if trip.Status == trips.StatusCancelled {
			log.FromContext(ctx).WithField("trip_id", id).Info("Trip already cancelled")
			return nil
		}
		return fmt.Errorf("trip %d is %s: %w", id, trip.Status, trips.ErrInvalidTransition)
	}

	log.FromContext(ctx).WithField("trip_id", id).Info("Trip cancelled")

	return u.eventBus.Publish(ctx, newTripCancelled(id, u.now()))
}

func isNotFound(err error) bool {
	return errors.Is(err, trips.ErrTripNotFound) || errors.Is(err, trips.ErrReservationNotFound)
}
