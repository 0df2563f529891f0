package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/KanishKumar11/UNextDoor-sub005/pkg/catalog"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/domain"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/logger"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/models"
)

// Settlement statuses from the verify-payment endpoint that count as success
const (
	StatusCompleted = "completed"
	StatusRecovered = "recovered"
)

// Refresher drops the cached subscription read model after a payment
// settles. Settlement may run under the user's own token or the sweep's
// service token, so the hook only invalidates; the next read rebuilds the
// model under the user's own credentials.
type Refresher interface {
	InvalidateState(ctx context.Context, userID int) error
}

// MetricsRecorder abstracts payment metrics
type MetricsRecorder interface {
	RecordPaymentInitiated(planID string)
	RecordPaymentRecovered(status string)
}

// Service orchestrates payment sessions against the payments backend.
//
// Initiation and recovery for the same user are serialized through a
// per-user Redis lock, so the pending-order slot has a single writer.
type Service struct {
	api       domain.PaymentsAPI
	store     domain.PendingOrderStore
	catalog   *catalog.Service
	cache     domain.CacheRepository
	logger    logger.Logger
	lockTTL   time.Duration
	refresher Refresher
	metrics   MetricsRecorder
}

// NewService creates a new payment service
func NewService(api domain.PaymentsAPI, store domain.PendingOrderStore, cat *catalog.Service, cache domain.CacheRepository, lockTTL time.Duration, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	if lockTTL == 0 {
		lockTTL = 30 * time.Second
	}
	return &Service{
		api:     api,
		store:   store,
		catalog: cat,
		cache:   cache,
		logger:  log,
		lockTTL: lockTTL,
	}
}

// SetRefresher sets the read-model invalidation hook invoked after settlement.
func (s *Service) SetRefresher(r Refresher) {
	s.refresher = r
}

// SetMetrics sets the metrics recorder for payment events.
func (s *Service) SetMetrics(m MetricsRecorder) {
	s.metrics = m
}

func lockKey(userID int) string {
	return fmt.Sprintf("payment:lock:%d", userID)
}

// acquireLock takes the per-user payment lock. Returns false when another
// initiation or recovery holds it.
func (s *Service) acquireLock(ctx context.Context, userID int) (bool, error) {
	return s.cache.SetNX(ctx, lockKey(userID), "1", s.lockTTL)
}

func (s *Service) releaseLock(ctx context.Context, userID int) {
	if err := s.cache.Delete(ctx, lockKey(userID)); err != nil {
		s.logger.Warn("failed to release payment lock", "user_id", userID, "error", err)
	}
}

// Initiate creates a recurring payment order for the plan.
//
// The order id is persisted to the pending slot before the payment URL is
// handed back, so a client crash mid-payment is recoverable. The selected
// plan's currency must match the resolved currency; a mismatch aborts the
// flow, guarding against a stale catalog after a currency change.
func (s *Service) Initiate(ctx context.Context, userID int, token string, cur models.Currency, planID string) (*models.OrderDetails, error) {
	ok, err := s.acquireLock(ctx, userID)
	if err != nil {
		return nil, domain.NewUnknownError("failed to acquire payment lock", err)
	}
	if !ok {
		return nil, domain.NewConflictError("A payment is already in progress. Please wait a moment and try again.")
	}
	defer s.releaseLock(ctx, userID)

	plans, err := s.catalog.FetchPlans(ctx, token, cur.Code)
	if err != nil {
		return nil, err
	}

	plan, found := catalog.FindPlan(plans, planID)
	if !found {
		return nil, domain.NewNotFoundError("plan")
	}

	if plan.Currency != cur.Code {
		return nil, domain.NewValidationError(fmt.Sprintf(
			"Plan is priced in %s but your billing currency is %s. Please reload the plan list.",
			plan.Currency, cur.Code))
	}

	order, err := s.api.CreateRecurringOrder(ctx, token, planID, cur.Code)
	if err != nil {
		return nil, err
	}

	// Persist before returning the payment URL; a crash from here on is
	// recoverable through the pending slot.
	if err := s.store.Put(ctx, userID, order.OrderID); err != nil {
		return nil, domain.NewUnknownError("failed to persist pending order", err)
	}

	order.PlanName = plan.Name

	if s.metrics != nil {
		s.metrics.RecordPaymentInitiated(planID)
	}
	s.logger.Info("payment order created",
		"user_id", userID,
		"plan_id", planID,
		"order_id", order.OrderID,
		"currency", cur.Code)

	return order, nil
}

// Recover reconciles a pending payment left over from an interrupted
// session. Statuses "completed" and "recovered" both count as settled:
// the slot is cleared and the cached read model invalidated exactly once.
// A not-found order is no longer relevant and clears the slot silently.
// Any other failure is returned to the caller.
func (s *Service) Recover(ctx context.Context, userID int, token string) (*models.RecoveryResponse, error) {
	ok, err := s.acquireLock(ctx, userID)
	if err != nil {
		return nil, domain.NewUnknownError("failed to acquire payment lock", err)
	}
	if !ok {
		// An initiation is running; the next focus or sweep will retry.
		s.logger.Debug("recovery skipped, payment lock held", "user_id", userID)
		return &models.RecoveryResponse{Recovered: false}, nil
	}
	defer s.releaseLock(ctx, userID)

	orderID, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, domain.NewUnknownError("failed to read pending order", err)
	}
	if orderID == "" {
		return &models.RecoveryResponse{Recovered: false}, nil
	}

	status, err := s.api.VerifyPayment(ctx, token, orderID)
	if err != nil {
		if domain.IsNotFound(err) {
			// Order no longer exists server-side; drop the stale slot.
			if _, clearErr := s.store.CompareAndClear(ctx, userID, orderID); clearErr != nil {
				s.logger.Warn("failed to clear stale pending order",
					"user_id", userID, "order_id", orderID, "error", clearErr)
			}
			return &models.RecoveryResponse{Recovered: false, OrderID: orderID, Status: "not_found"}, nil
		}
		return nil, err
	}

	if status != StatusCompleted && status != StatusRecovered {
		s.logger.Info("pending payment not settled yet",
			"user_id", userID, "order_id", orderID, "status", status)
		return &models.RecoveryResponse{Recovered: false, OrderID: orderID, Status: status}, nil
	}

	cleared, err := s.store.CompareAndClear(ctx, userID, orderID)
	if err != nil {
		return nil, domain.NewUnknownError("failed to clear pending order", err)
	}

	// Invalidate only on the transition that cleared the slot, so a
	// settled order drops the read model exactly once.
	if cleared {
		if s.refresher != nil {
			if err := s.refresher.InvalidateState(ctx, userID); err != nil {
				s.logger.Warn("post-payment state invalidation failed",
					"user_id", userID, "order_id", orderID, "error", err)
			}
		}
		if s.metrics != nil {
			s.metrics.RecordPaymentRecovered(status)
		}
		s.logger.Info("pending payment settled",
			"user_id", userID, "order_id", orderID, "status", status)
	}

	return &models.RecoveryResponse{Recovered: true, OrderID: orderID, Status: status}, nil
}
