package tickets

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"

	"transit/internal/application/transaction"
	"transit/internal/domain/purchases"
	"transit/internal/observability"
)

const sweepBatchSize = 100

// ExpireStalePurchases rejects purchases that waited for their reservation longer than the timeout.
// A purchase that cannot be expired is logged and skipped.
func (u *TicketsUsecase) ExpireStalePurchases(ctx context.Context) (int, error) {
	ids, err := u.purchases.ListStale(ctx, u.now().Add(-u.purchaseTimeout), sweepBatchSize)
	if err != nil {
		return 0, err
	}

	var expired, failed int
	for _, id := range ids {
		var rejected bool
		err := transaction.Do(ctx, u.trManager, transaction.ReadCommitted(), func(ctx context.Context) error {
			rejected = false
			p, err := u.purchases.UpdateByID(ctx, id, func(p purchases.Purchase) (purchases.Purchase, error) {
				if p.Status != purchases.StatusReserving {
					return p, nil
				}
				rejected = true
				err := p.Reject(purchases.ReasonTimeout, u.now())
				return p, err
			})
			if err != nil || !rejected {
				return err
			}

			return u.eventBus.Publish(ctx, newPurchaseRejected(p))
		})
		if err != nil {
			failed++
			log.FromContext(ctx).WithField("purchase_id", id).WithError(err).Error("Failed to expire purchase")
			continue
		}

		if rejected {
			expired++
			observability.PurchasesTotal.WithLabelValues(string(purchases.StatusRejected)).Inc()
			log.FromContext(ctx).WithField("purchase_id", id).Warn("Purchase timed out waiting for reservation")
		}
	}

	if failed > 0 && expired == 0 {
		return 0, fmt.Errorf("failed to expire %d stale purchases", failed)
	}

	return expired, nil
}

// RunTimeoutSweeper expires stale purchases every interval until ctx is done.
func (u *TicketsUsecase) RunTimeoutSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := u.ExpireStalePurchases(ctx)
			if err != nil {
				log.FromContext(ctx).WithError(err).Error("Purchase timeout sweep failed")
				continue
			}
			if n > 0 {
				log.FromContext(ctx).WithField("expired", n).Info("Purchase timeout sweep done")
			}
		}
	}
}
