package tickets

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/lib/pq"

	"transit/internal/application/transaction"
	"transit/internal/domain"
	"transit/internal/domain/purchases"
	"transit/internal/entities"
)

// InitiatePurchase records the purchase and sends the purchase intent to the route service.
// The outcome arrives asynchronously; the returned purchase is RESERVING.
func (u *TicketsUsecase) InitiatePurchase(ctx context.Context, req purchases.Request) (purchases.Purchase, error) {
	p, err := purchases.New(req, u.now())
	if err != nil {
		return purchases.Purchase{}, err
	}

	if p.IdempotencyKey != "" {
		existing, err := u.purchases.GetByIdempotencyKey(ctx, p.UserID, p.IdempotencyKey)
		if err == nil {
			log.FromContext(ctx).WithField("purchase_id", existing.ID).Info("Purchase already initiated with this key")
			return existing, nil
		}
		if !errors.Is(err, purchases.ErrPurchaseNotFound) {
			return purchases.Purchase{}, err
		}
	}

	// Not atomic across replicas: two concurrent requests may both pass.
	if err := u.checkNotHeld(ctx, p); err != nil {
		return purchases.Purchase{}, err
	}

	var initiated purchases.Purchase
	err = transaction.Do(ctx, u.trManager, transaction.ReadCommitted(), func(ctx context.Context) error {
		if err := u.purchases.Add(ctx, p); err != nil {
			return err
		}

		err := u.eventBus.Publish(ctx, entities.PurchaseIntent_v1{
			Header:     entities.NewEventHeaderWithIdempotencyKey(p.ID.String()),
			PurchaseID: p.ID,
			UserID:     p.UserID,
			TripIDs:    p.TripIDs,
			RoundTrip:  p.RoundTrip,
			Price:      p.Price,
		})
		if err != nil {
			return fmt.Errorf("failed to publish purchase intent: %w", err)
		}

		initiated, err = u.purchases.UpdateByID(ctx, p.ID, func(p purchases.Purchase) (purchases.Purchase, error) {
			err := p.TransitionTo(purchases.StatusReserving, u.now())
			return p, err
		})
		return err
	})
	if isUniqueViolation(err) && p.IdempotencyKey != "" {
		return u.purchases.GetByIdempotencyKey(ctx, p.UserID, p.IdempotencyKey)
	}
	if err != nil {
		return purchases.Purchase{}, fmt.Errorf("failed to initiate purchase: %w", err)
	}

	log.FromContext(ctx).
		WithField("purchase_id", initiated.ID).
		WithField("trip_ids", initiated.TripIDs).
		Info("Purchase initiated")

	return initiated, nil
}

func (u *TicketsUsecase) checkNotHeld(ctx context.Context, p purchases.Purchase) error {
	held, err := u.tickets.HasActive(ctx, p.UserID, p.TripIDs)
	if err != nil {
		return err
	}
	if !held {
		held, err = u.purchases.HasInFlight(ctx, p.UserID, p.TripIDs)
		if err != nil {
			return err
		}
	}
	if held {
		return &domain.ValidationError{Details: []domain.FieldError{{
			Field:   "tripIds",
			Message: purchases.ErrAlreadyInProgress.Error(),
		}}}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pq.Error
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
