package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit/internal/domain/purchases"
	"transit/internal/domain/tickets"
	"transit/internal/domain/trips"
	"transit/internal/repository"
	"transit/internal/testenv"
)

var schemaOnce sync.Once

func getDb(t *testing.T) *sqlx.DB {
	t.Helper()

	db := testenv.Postgres(t)
	schemaOnce.Do(func() {
		ctx := context.Background()
		require.NoError(t, repository.InitializeRouteSchema(ctx, db))
		require.NoError(t, repository.InitializeTicketsSchema(ctx, db))
	})
	return db
}

func createTrip(t *testing.T, repo *repository.TripsRepo, departure time.Time, capacity, available int) trips.Trip {
	t.Helper()

	trip, err := trips.NewTrip(departure, capacity)
	require.NoError(t, err)
	trip.AvailableSeats = available

	created, err := repo.Create(context.Background(), trip)
	require.NoError(t, err)
	return created
}

func TestTripsRepo_Integration(t *testing.T) {
	db := getDb(t)
	ctx := context.Background()
	repo := repository.NewTripsRepo(db, trmsqlx.DefaultCtxGetter)

	t.Run("take seats only where available", func(t *testing.T) {
		free := createTrip(t, repo, time.Now().Add(time.Hour), 2, 2)
		full := createTrip(t, repo, time.Now().Add(time.Hour), 2, 0)

		updated, err := repo.TakeSeats(ctx, []int64{free.ID, full.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), updated)

		got, err := repo.Get(ctx, free.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.AvailableSeats)
	})

	t.Run("release clamps at capacity", func(t *testing.T) {
		trip := createTrip(t, repo, time.Now().Add(time.Hour), 2, 2)

		full, err := repo.ReleaseSeats(ctx, []int64{trip.ID}, true)
		require.NoError(t, err)
		assert.Equal(t, []int64{trip.ID}, full)

		got, err := repo.Get(ctx, trip.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.AvailableSeats)

		_, err = repo.ReleaseSeats(ctx, []int64{trip.ID}, false)
		require.NoError(t, err)
		got, err = repo.Get(ctx, trip.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.AvailableSeats)
	})

	t.Run("cancel once", func(t *testing.T) {
		trip := createTrip(t, repo, time.Now().Add(time.Hour), 2, 2)

		changed, err := repo.Cancel(ctx, trip.ID)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = repo.Cancel(ctx, trip.ID)
		require.NoError(t, err)
		assert.False(t, changed)

		updated, err := repo.TakeSeats(ctx, []int64{trip.ID})
		require.NoError(t, err)
		assert.Zero(t, updated)
	})

	t.Run("list by day", func(t *testing.T) {
		day := time.Date(2031, 3, 14, 0, 0, 0, 0, time.UTC)
		inside := createTrip(t, repo, day.Add(10*time.Hour), 5, 5)
		createTrip(t, repo, day.Add(30*time.Hour), 5, 5)

		list, err := repo.List(ctx, &day)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, inside.ID, list[0].ID)
	})

	t.Run("unknown trip", func(t *testing.T) {
		_, err := repo.Get(ctx, -1)
		assert.ErrorIs(t, err, trips.ErrTripNotFound)
	})
}

func TestTripsRepo_LastSeatTakenOnce(t *testing.T) {
	db := getDb(t)
	ctx := context.Background()
	repo := repository.NewTripsRepo(db, trmsqlx.DefaultCtxGetter)
	trManager := manager.Must(trmsqlx.NewDefaultFactory(db))

	trip := createTrip(t, repo, time.Now().Add(time.Hour), 1, 1)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		taken int64
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := trManager.Do(ctx, func(ctx context.Context) error {
				n, err := repo.TakeSeats(ctx, []int64{trip.ID})
				if err != nil {
					return err
				}
				mu.Lock()
				taken += n
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), taken)
	got, err := repo.Get(ctx, trip.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AvailableSeats)
}

func TestReservationsRepo_Integration(t *testing.T) {
	db := getDb(t)
	ctx := context.Background()
	repo := repository.NewReservationsRepo(db, trmsqlx.DefaultCtxGetter)

	reservation := trips.Reservation{
		PurchaseID: uuid.New(),
		TripIDs:    []int64{1, 2},
		Status:     trips.ReservationReserved,
	}

	added, err := repo.Add(ctx, reservation)
	require.NoError(t, err)
	assert.True(t, added)

	reservation.Status = trips.ReservationRejected
	added, err = repo.Add(ctx, reservation)
	require.NoError(t, err)
	assert.False(t, added)

	released, err := repo.MarkReleased(ctx, reservation.PurchaseID)
	require.NoError(t, err)
	assert.True(t, released)

	released, err = repo.MarkReleased(ctx, reservation.PurchaseID)
	require.NoError(t, err)
	assert.False(t, released)

	got, err := repo.Get(ctx, reservation.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, trips.ReservationReleased, got.Status)
	assert.Equal(t, []int64{1, 2}, got.TripIDs)

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, trips.ErrReservationNotFound)
}

func TestPurchasesRepo_Integration(t *testing.T) {
	db := getDb(t)
	ctx := context.Background()
	repo := repository.NewPurchasesRepo(db, trmsqlx.DefaultCtxGetter)
	trManager := manager.Must(trmsqlx.NewDefaultFactory(db))

	userID := "user-" + uuid.NewString()
	p, err := purchases.New(purchases.Request{
		UserID:         userID,
		TripIDs:        []int64{100, 101},
		RoundTrip:      true,
		Price:          19.99,
		IdempotencyKey: "key-1",
	}, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Add(ctx, p))

	t.Run("idempotency key is unique per user", func(t *testing.T) {
		duplicate := p
		duplicate.ID = uuid.New()

		err := repo.Add(ctx, duplicate)
		var pqErr *pq.Error
		require.True(t, errors.As(err, &pqErr))
		assert.Equal(t, pq.ErrorCode("23505"), pqErr.Code)

		got, err := repo.GetByIdempotencyKey(ctx, userID, "key-1")
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
		assert.InDelta(t, 19.99, got.Price, 0.001)
	})

	t.Run("in flight", func(t *testing.T) {
		inFlight, err := repo.HasInFlight(ctx, userID, []int64{101})
		require.NoError(t, err)
		assert.True(t, inFlight)

		inFlight, err = repo.HasInFlight(ctx, userID, []int64{102})
		require.NoError(t, err)
		assert.False(t, inFlight)
	})

	t.Run("update in transaction", func(t *testing.T) {
		err := trManager.Do(ctx, func(ctx context.Context) error {
			_, err := repo.UpdateByID(ctx, p.ID, func(p purchases.Purchase) (purchases.Purchase, error) {
				err := p.TransitionTo(purchases.StatusReserving, time.Now().Add(-time.Hour))
				return p, err
			})
			return err
		})
		require.NoError(t, err)

		stale, err := repo.ListStale(ctx, time.Now().Add(-time.Minute), 1000)
		require.NoError(t, err)
		assert.Contains(t, stale, p.ID)

		ticketID := uuid.New()
		updated, err := repo.UpdateByID(ctx, p.ID, func(p purchases.Purchase) (purchases.Purchase, error) {
			err := p.Confirm(ticketID, time.Now())
			return p, err
		})
		require.NoError(t, err)
		assert.Equal(t, purchases.StatusConfirmed, updated.Status)

		got, err := repo.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, purchases.StatusConfirmed, got.Status)
		require.NotNil(t, got.TicketID)
		assert.Equal(t, ticketID, *got.TicketID)
	})

	t.Run("failed update is not stored", func(t *testing.T) {
		_, err := repo.UpdateByID(ctx, p.ID, func(p purchases.Purchase) (purchases.Purchase, error) {
			err := p.TransitionTo(purchases.StatusReserving, time.Now())
			return p, err
		})
		assert.ErrorIs(t, err, purchases.ErrInvalidTransition)

		got, err := repo.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, purchases.StatusConfirmed, got.Status)
	})

	t.Run("unknown purchase", func(t *testing.T) {
		_, err := repo.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, purchases.ErrPurchaseNotFound)
	})
}

func TestTicketsRepo_Integration(t *testing.T) {
	db := getDb(t)
	ctx := context.Background()
	repo := repository.NewTicketsRepo(db, trmsqlx.DefaultCtxGetter)
	cancelledTrips := repository.NewCancelledTripsRepo(db, trmsqlx.DefaultCtxGetter)

	tripID := time.Now().UnixNano()
	userID := "user-" + uuid.NewString()
	ticket := tickets.Ticket{
		ID:             uuid.New(),
		PurchaseID:     uuid.New(),
		UserID:         userID,
		RoundTrip:      true,
		Price:          30,
		TripIDs:        []int64{tripID, tripID + 1},
		PurchasedAt:    time.Now().UTC().Truncate(time.Microsecond),
		FirstDeparture: time.Now().Add(24 * time.Hour).UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Add(ctx, ticket))

	t.Run("one ticket per purchase", func(t *testing.T) {
		duplicate := ticket
		duplicate.ID = uuid.New()
		require.NoError(t, repo.Add(ctx, duplicate))

		list, err := repo.ListByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, ticket.ID, list[0].ID)
		assert.True(t, ticket.FirstDeparture.Equal(list[0].FirstDeparture))
	})

	t.Run("active by trip", func(t *testing.T) {
		ids, err := repo.ListActiveByTrip(ctx, tripID+1)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{ticket.ID}, ids)

		held, err := repo.HasActive(ctx, userID, []int64{tripID})
		require.NoError(t, err)
		assert.True(t, held)
	})

	t.Run("cancelled once", func(t *testing.T) {
		cancellation := tickets.Cancellation{Reason: tickets.TripCancelledReason, CancelledAt: time.Now().UTC()}

		changed, err := repo.MarkCancelled(ctx, ticket.ID, cancellation)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = repo.MarkCancelled(ctx, ticket.ID, tickets.Cancellation{Reason: "again", CancelledAt: time.Now()})
		require.NoError(t, err)
		assert.False(t, changed)

		got, err := repo.Get(ctx, ticket.ID)
		require.NoError(t, err)
		assert.True(t, got.Cancelled)
		require.NotNil(t, got.Cancellation)
		assert.Equal(t, tickets.TripCancelledReason, got.Cancellation.Reason)

		ids, err := repo.ListActiveByTrip(ctx, tripID)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("cancelled trips", func(t *testing.T) {
		require.NoError(t, cancelledTrips.Add(ctx, tripID, time.Now()))
		require.NoError(t, cancelledTrips.Add(ctx, tripID, time.Now()))

		cancelled, err := cancelledTrips.AnyCancelled(ctx, []int64{tripID + 1, tripID})
		require.NoError(t, err)
		assert.True(t, cancelled)

		cancelled, err = cancelledTrips.AnyCancelled(ctx, []int64{tripID + 1})
		require.NoError(t, err)
		assert.False(t, cancelled)
	})
}

func TestCancelledTripsRepo_LockTrips(t *testing.T) {
	db := getDb(t)
	ctx := context.Background()
	repo := repository.NewCancelledTripsRepo(db, trmsqlx.DefaultCtxGetter)
	trManager := manager.Must(trmsqlx.NewDefaultFactory(db))
	tripID := time.Now().UnixNano()

	t.Run("outside a transaction", func(t *testing.T) {
		assert.Error(t, repo.LockTrips(ctx, []int64{tripID}))
	})

	t.Run("second transaction waits", func(t *testing.T) {
		locked := make(chan struct{})
		release := make(chan struct{})
		firstDone := make(chan error, 1)
		go func() {
			firstDone <- trManager.Do(ctx, func(ctx context.Context) error {
				if err := repo.LockTrips(ctx, []int64{tripID + 1, tripID, tripID}); err != nil {
					return err
				}
				close(locked)
				<-release
				return nil
			})
		}()
		<-locked

		secondDone := make(chan error, 1)
		go func() {
			secondDone <- trManager.Do(ctx, func(ctx context.Context) error {
				return repo.LockTrips(ctx, []int64{tripID})
			})
		}()

		select {
		case err := <-secondDone:
			t.Fatalf("lock taken twice: %v", err)
		case <-time.After(200 * time.Millisecond):
		}

		close(release)
		require.NoError(t, <-firstDone)
		require.NoError(t, <-secondDone)
	})
}

func TestTripDeparturesRepo_Integration(t *testing.T) {
	db := getDb(t)
	ctx := context.Background()
	repo := repository.NewTripDeparturesRepo(db, trmsqlx.DefaultCtxGetter)
	ticketsRepo := repository.NewTicketsRepo(db, trmsqlx.DefaultCtxGetter)

	tripID := time.Now().UnixNano()
	now := time.Now().UTC().Truncate(time.Microsecond)
	first := now.Add(24 * time.Hour)
	second := now.Add(48 * time.Hour)

	require.NoError(t, repo.Record(ctx, []int64{tripID, tripID + 1}, []time.Time{first, second}, now))

	t.Run("first departure", func(t *testing.T) {
		got, err := repo.FirstDeparture(ctx, []int64{tripID, tripID + 1})
		require.NoError(t, err)
		assert.True(t, first.Equal(got))

		got, err = repo.FirstDeparture(ctx, []int64{-1})
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})

	t.Run("older observation ignored", func(t *testing.T) {
		require.NoError(t, repo.Record(ctx, []int64{tripID}, []time.Time{now.Add(time.Hour)}, now.Add(-time.Minute)))

		got, err := repo.FirstDeparture(ctx, []int64{tripID})
		require.NoError(t, err)
		assert.True(t, first.Equal(got))
	})

	t.Run("tickets follow a reschedule", func(t *testing.T) {
		ticket := tickets.Ticket{
			ID:             uuid.New(),
			PurchaseID:     uuid.New(),
			UserID:         "user-" + uuid.NewString(),
			Price:          10,
			TripIDs:        []int64{tripID, tripID + 1},
			PurchasedAt:    now,
			FirstDeparture: first,
		}
		require.NoError(t, ticketsRepo.Add(ctx, ticket))

		earlier := now.Add(time.Hour)
		require.NoError(t, repo.Record(ctx, []int64{tripID + 1}, []time.Time{earlier}, now.Add(time.Minute)))

		changed, err := ticketsRepo.RefreshFirstDeparture(ctx, tripID+1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), changed)

		got, err := ticketsRepo.Get(ctx, ticket.ID)
		require.NoError(t, err)
		assert.True(t, earlier.Equal(got.FirstDeparture))

		changed, err = ticketsRepo.RefreshFirstDeparture(ctx, tripID+1)
		require.NoError(t, err)
		assert.Zero(t, changed)
	})
}

func TestTripsRepo_ListUpcoming(t *testing.T) {
	db := getDb(t)
	ctx := context.Background()
	repo := repository.NewTripsRepo(db, trmsqlx.DefaultCtxGetter)

	from := time.Date(2033, 7, 1, 0, 0, 0, 0, time.UTC)
	createTrip(t, repo, from.Add(-time.Hour), 5, 5)
	later := createTrip(t, repo, from.Add(48*time.Hour), 5, 5)
	sooner := createTrip(t, repo, from.Add(time.Hour), 5, 5)
	cancelled := createTrip(t, repo, from.Add(2*time.Hour), 5, 5)
	_, err := repo.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)

	list, err := repo.ListUpcoming(ctx, from)
	require.NoError(t, err)

	var ids []int64
	for _, trip := range list {
		if trip.DepartureTime.Before(from.Add(72 * time.Hour)) {
			ids = append(ids, trip.ID)
		}
	}
	assert.Equal(t, []int64{sooner.ID, later.ID}, ids)
}
