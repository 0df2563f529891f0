package jobs

import (
	"context"
	"log"

	"github.com/KanishKumar11/UNextDoor-sub005/pkg/domain"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/payment"
)

// PendingSweeper settles pending orders left behind by clients that never
// came back after a payment attempt. It runs with a service credential,
// so the cron schedule can settle orders without a user session.
type PendingSweeper struct {
	payments     *payment.Service
	store        domain.PendingOrderStore
	serviceToken string
	logger       *log.Logger
}

// NewPendingSweeper creates a new pending-order sweeper
func NewPendingSweeper(payments *payment.Service, store domain.PendingOrderStore, serviceToken string, logger *log.Logger) *PendingSweeper {
	if logger == nil {
		logger = log.Default()
	}

	return &PendingSweeper{
		payments:     payments,
		store:        store,
		serviceToken: serviceToken,
		logger:       logger,
	}
}

// Run sweeps every user with a pending order. Per-user failures are
// logged and skipped so one stuck order cannot block the rest.
func (s *PendingSweeper) Run(ctx context.Context) (int, error) {
	userIDs, err := s.store.PendingUserIDs(ctx)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return recovered, ctx.Err()
		}

		result, err := s.payments.Recover(ctx, userID, s.serviceToken)
		if err != nil {
			s.logger.Printf("⚠️ Sweep failed for user %d: %v", userID, err)
			continue
		}

		if result.Recovered {
			recovered++
		}
	}

	return recovered, nil
}
