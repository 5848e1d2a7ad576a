package tickets_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/google/uuid"

	"transit/internal/domain/purchases"
	tdomain "transit/internal/domain/tickets"
)

type store struct {
	mu sync.Mutex

	purchases      map[uuid.UUID]purchases.Purchase
	tickets        map[uuid.UUID]tdomain.Ticket
	cancelledTrips map[int64]time.Time
	departures     map[int64]departure
	published      []any

	// injected failures
	listActiveErr error
	updateErr     map[uuid.UUID]error
}

type departure struct {
	at         time.Time
	observedAt time.Time
}

func newStore() *store {
	return &store{
		purchases:      map[uuid.UUID]purchases.Purchase{},
		tickets:        map[uuid.UUID]tdomain.Ticket{},
		cancelledTrips: map[int64]time.Time{},
		departures:     map[int64]departure{},
		updateErr:      map[uuid.UUID]error{},
	}
}

func clone[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func overlaps(a, b []int64) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

type txManager struct {
	s *store
}

func (m txManager) DoWithSettings(ctx context.Context, _ trm.Settings, fn func(ctx context.Context) error) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	purchasesBefore := clone(m.s.purchases)
	ticketsBefore := clone(m.s.tickets)
	cancelledTripsBefore := clone(m.s.cancelledTrips)
	departuresBefore := clone(m.s.departures)
	publishedBefore := len(m.s.published)

	if err := fn(ctx); err != nil {
		m.s.purchases = purchasesBefore
		m.s.tickets = ticketsBefore
		m.s.cancelledTrips = cancelledTripsBefore
		m.s.departures = departuresBefore
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

type purchasesRepo struct {
	s *store
}

func (r purchasesRepo) Add(_ context.Context, p purchases.Purchase) error {
	r.s.purchases[p.ID] = p
	return nil
}

func (r purchasesRepo) Get(_ context.Context, id uuid.UUID) (purchases.Purchase, error) {
	p, ok := r.s.purchases[id]
	if !ok {
		return purchases.Purchase{}, purchases.ErrPurchaseNotFound
	}
	return p, nil
}

func (r purchasesRepo) GetByIdempotencyKey(_ context.Context, userID, key string) (purchases.Purchase, error) {
	for _, p := range r.s.purchases {
		if p.UserID == userID && p.IdempotencyKey == key {
			return p, nil
		}
	}
	return purchases.Purchase{}, purchases.ErrPurchaseNotFound
}

func (r purchasesRepo) UpdateByID(
	ctx context.Context,
	id uuid.UUID,
	updateFn func(p purchases.Purchase) (purchases.Purchase, error),
) (purchases.Purchase, error) {
	if err := r.s.updateErr[id]; err != nil {
		return purchases.Purchase{}, err
	}

	p, err := r.Get(ctx, id)
	if err != nil {
		return purchases.Purchase{}, err
	}

	p, err = updateFn(p)
	if err != nil {
		return purchases.Purchase{}, err
	}

	r.s.purchases[id] = p
	return p, nil
}

func (r purchasesRepo) HasInFlight(_ context.Context, userID string, tripIDs []int64) (bool, error) {
	for _, p := range r.s.purchases {
		if p.UserID == userID && p.Status.InFlight() && overlaps(p.TripIDs, tripIDs) {
			return true, nil
		}
	}
	return false, nil
}

func (r purchasesRepo) ListStale(_ context.Context, olderThan time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, p := range r.s.purchases {
		if p.Status.InFlight() && p.UpdatedAt.Before(olderThan) && len(ids) < limit {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

type ticketsRepo struct {
	s *store
}

func (r ticketsRepo) Add(_ context.Context, t tdomain.Ticket) error {
	for _, existing := range r.s.tickets {
		if existing.PurchaseID == t.PurchaseID {
			return nil
		}
	}
	r.s.tickets[t.ID] = t
	return nil
}

func (r ticketsRepo) Get(_ context.Context, id uuid.UUID) (tdomain.Ticket, error) {
	t, ok := r.s.tickets[id]
	if !ok {
		return tdomain.Ticket{}, tdomain.ErrTicketNotFound
	}
	return t, nil
}

func (r ticketsRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (tdomain.Ticket, error) {
	return r.Get(ctx, id)
}

func (r ticketsRepo) ListByUser(_ context.Context, userID string) ([]tdomain.Ticket, error) {
	var out []tdomain.Ticket
	for _, t := range r.s.tickets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchasedAt.After(out[j].PurchasedAt) })
	return out, nil
}

func (r ticketsRepo) ListActiveByTrip(_ context.Context, tripID int64) ([]uuid.UUID, error) {
	if r.s.listActiveErr != nil {
		return nil, r.s.listActiveErr
	}

	var ids []uuid.UUID
	for _, t := range r.s.tickets {
		if !t.Cancelled && overlaps(t.TripIDs, []int64{tripID}) {
			ids = append(ids, t.ID)
		}
	}
	return ids, nil
}

func (r ticketsRepo) HasActive(_ context.Context, userID string, tripIDs []int64) (bool, error) {
	for _, t := range r.s.tickets {
		if t.UserID == userID && !t.Cancelled && overlaps(t.TripIDs, tripIDs) {
			return true, nil
		}
	}
	return false, nil
}

func (r ticketsRepo) MarkCancelled(_ context.Context, id uuid.UUID, c tdomain.Cancellation) (bool, error) {
	t, ok := r.s.tickets[id]
	if !ok || t.Cancelled {
		return false, nil
	}
	t.Cancelled = true
	t.Cancellation = &c
	r.s.tickets[id] = t
	return true, nil
}

func (r ticketsRepo) RefreshFirstDeparture(_ context.Context, tripID int64) (int64, error) {
	var updated int64
	for id, t := range r.s.tickets {
		if t.Cancelled || !overlaps(t.TripIDs, []int64{tripID}) {
			continue
		}
		first, _ := departuresRepo{r.s}.FirstDeparture(context.Background(), t.TripIDs)
		if first.IsZero() || first.Equal(t.FirstDeparture) {
			continue
		}
		t.FirstDeparture = first
		r.s.tickets[id] = t
		updated++
	}
	return updated, nil
}

type cancelledTripsRepo struct {
	s *store
}

func (r cancelledTripsRepo) Add(_ context.Context, tripID int64, cancelledAt time.Time) error {
	if _, ok := r.s.cancelledTrips[tripID]; !ok {
		r.s.cancelledTrips[tripID] = cancelledAt
	}
	return nil
}

func (r cancelledTripsRepo) AnyCancelled(_ context.Context, tripIDs []int64) (bool, error) {
	for _, id := range tripIDs {
		if _, ok := r.s.cancelledTrips[id]; ok {
			return true, nil
		}
	}
	return false, nil
}

// LockTrips has nothing to do, transactions of the fake already run one at a time.
func (r cancelledTripsRepo) LockTrips(_ context.Context, _ []int64) error {
	return nil
}

type departuresRepo struct {
	s *store
}

func (r departuresRepo) Record(_ context.Context, tripIDs []int64, departures []time.Time, observedAt time.Time) error {
	for i, id := range tripIDs {
		if i >= len(departures) || departures[i].IsZero() {
			continue
		}
		if stored, ok := r.s.departures[id]; ok && !stored.observedAt.Before(observedAt) {
			continue
		}
		r.s.departures[id] = departure{at: departures[i].UTC(), observedAt: observedAt}
	}
	return nil
}

func (r departuresRepo) FirstDeparture(_ context.Context, tripIDs []int64) (time.Time, error) {
	var first time.Time
	for _, id := range tripIDs {
		d, ok := r.s.departures[id]
		if ok && (first.IsZero() || d.at.Before(first)) {
			first = d.at
		}
	}
	return first, nil
}
