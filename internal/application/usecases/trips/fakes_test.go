package trips_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/google/uuid"

	domain "transit/internal/domain/trips"
)

// store keeps everything a transaction may touch so a failed one can be rolled back.
type store struct {
	mu sync.Mutex

	nextID       int64
	trips        map[int64]domain.Trip
	reservations map[uuid.UUID]domain.Reservation
	published    []any
}

func newStore() *store {
	return &store{
		trips:        map[int64]domain.Trip{},
		reservations: map[uuid.UUID]domain.Reservation{},
	}
}

func (s *store) addTrip(capacity, available int, status domain.Status) int64 {
	s.nextID++
	s.trips[s.nextID] = domain.Trip{
		ID:             s.nextID,
		DepartureTime:  time.Now().Add(24 * time.Hour).UTC(),
		Capacity:       capacity,
		AvailableSeats: available,
		Status:         status,
	}
	return s.nextID
}

func (s *store) seats(id int64) int {
	return s.trips[id].AvailableSeats
}

type txManager struct {
	s *store
}

func (m txManager) DoWithSettings(ctx context.Context, _ trm.Settings, fn func(ctx context.Context) error) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	tripsBefore := make(map[int64]domain.Trip, len(m.s.trips))
	for k, v := range m.s.trips {
		tripsBefore[k] = v
	}
	reservationsBefore := make(map[uuid.UUID]domain.Reservation, len(m.s.reservations))
	for k, v := range m.s.reservations {
		reservationsBefore[k] = v
	}
	publishedBefore := len(m.s.published)

	if err := fn(ctx); err != nil {
		m.s.trips = tripsBefore
		m.s.reservations = reservationsBefore
		m.s.published = m.s.published[:publishedBefore]
		return err
	}
	return nil
}

type eventBus struct {
	s *store
}

func (b eventBus) Publish(_ context.Context, event any) error {
	b.s.published = append(b.s.published, event)
	return nil
}

type tripsRepo struct {
	s *store
}

func (r tripsRepo) Create(_ context.Context, trip domain.Trip) (domain.Trip, error) {
	r.s.nextID++
	trip.ID = r.s.nextID
	r.s.trips[trip.ID] = trip
	return trip, nil
}

func (r tripsRepo) Get(_ context.Context, id int64) (domain.Trip, error) {
	trip, ok := r.s.trips[id]
	if !ok {
		return domain.Trip{}, domain.ErrTripNotFound
	}
	return trip, nil
}

func (r tripsRepo) GetForUpdate(ctx context.Context, id int64) (domain.Trip, error) {
	return r.Get(ctx, id)
}

func (r tripsRepo) GetMany(_ context.Context, ids []int64) ([]domain.Trip, error) {
	var found []domain.Trip
	for _, id := range ids {
		if trip, ok := r.s.trips[id]; ok {
			found = append(found, trip)
		}
	}
	return found, nil
}

func (r tripsRepo) List(_ context.Context, _ *time.Time) ([]domain.Trip, error) {
	var all []domain.Trip
	for _, trip := range r.s.trips {
		all = append(all, trip)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (r tripsRepo) ListUpcoming(_ context.Context, from time.Time) ([]domain.Trip, error) {
	upcoming := []domain.Trip{}
	for _, trip := range r.s.trips {
		if !trip.DepartureTime.Before(from) && trip.Status != domain.StatusCancelled {
			upcoming = append(upcoming, trip)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].DepartureTime.Before(upcoming[j].DepartureTime) })
	return upcoming, nil
}

func (r tripsRepo) Update(_ context.Context, trip domain.Trip) (domain.Trip, error) {
	if _, ok := r.s.trips[trip.ID]; !ok {
		return domain.Trip{}, domain.ErrTripNotFound
	}
	r.s.trips[trip.ID] = trip
	return trip, nil
}

func (r tripsRepo) TakeSeats(_ context.Context, ids []int64) (int64, error) {
	var updated int64
	for _, id := range ids {
		trip, ok := r.s.trips[id]
		if !ok || trip.AvailableSeats <= 0 || trip.Status == domain.StatusCancelled {
			continue
		}
		trip.AvailableSeats--
		r.s.trips[id] = trip
		updated++
	}
	return updated, nil
}

func (r tripsRepo) ReleaseSeats(_ context.Context, ids []int64, clamp bool) ([]int64, error) {
	var full []int64
	for _, id := range ids {
		trip, ok := r.s.trips[id]
		if !ok {
			continue
		}
		if trip.AvailableSeats >= trip.Capacity {
			full = append(full, id)
			if clamp {
				continue
			}
		}
		trip.AvailableSeats++
		r.s.trips[id] = trip
	}
	return full, nil
}

func (r tripsRepo) Cancel(_ context.Context, id int64) (bool, error) {
	trip, ok := r.s.trips[id]
	if !ok || trip.Status.Terminal() {
		return false, nil
	}
	trip.Status = domain.StatusCancelled
	r.s.trips[id] = trip
	return true, nil
}

type reservationsRepo struct {
	s *store
}

func (r reservationsRepo) Get(_ context.Context, purchaseID uuid.UUID) (domain.Reservation, error) {
	reservation, ok := r.s.reservations[purchaseID]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return reservation, nil
}

func (r reservationsRepo) Add(_ context.Context, reservation domain.Reservation) (bool, error) {
	if _, ok := r.s.reservations[reservation.PurchaseID]; ok {
		return false, nil
	}
	r.s.reservations[reservation.PurchaseID] = reservation
	return true, nil
}

func (r reservationsRepo) MarkReleased(_ context.Context, purchaseID uuid.UUID) (bool, error) {
	reservation, ok := r.s.reservations[purchaseID]
	if !ok || reservation.Status != domain.ReservationReserved {
		return false, nil
	}
	reservation.Status = domain.ReservationReleased
	r.s.reservations[purchaseID] = reservation
	return true, nil
}
