package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/KanishKumar11/UNextDoor-sub005/pkg/cache"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/domain"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/logger"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/models"
)

// Features gated by subscription tier
const (
	FeatureLessons    = "lessons"
	FeatureAISessions = "ai_sessions"
)

// Unlimited marks a feature without a usage ceiling
const Unlimited = -1

// freeLessonLimit is the lesson ceiling on the free tier
const freeLessonLimit = 5

// planTable maps raw plan ids to display name and tier
var planTable = map[string]models.PlanInfo{
	"free":               {ID: "free", Name: "Free", Tier: "free"},
	"basic_monthly":      {ID: "basic_monthly", Name: "Basic", Tier: "basic"},
	"standard_quarterly": {ID: "standard_quarterly", Name: "Standard", Tier: "standard"},
	"pro_yearly":         {ID: "pro_yearly", Name: "Pro", Tier: "pro"},
}

// freePlan is the fallback for unrecognized plan ids
var freePlan = planTable["free"]

// MetricsRecorder abstracts subscription metrics
type MetricsRecorder interface {
	RecordUnknownPlan(planID string)
}

// Service aggregates subscription, usage, and feature flags into a single
// read model. The model is cached until explicitly refreshed.
type Service struct {
	api      domain.PaymentsAPI
	cache    domain.CacheRepository
	logger   logger.Logger
	cacheTTL time.Duration
	metrics  MetricsRecorder
}

// NewService creates a new subscription state service
func NewService(api domain.PaymentsAPI, c domain.CacheRepository, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		api:      api,
		cache:    c,
		logger:   log,
		cacheTTL: 5 * time.Minute,
	}
}

// SetMetrics sets the metrics recorder.
func (s *Service) SetMetrics(m MetricsRecorder) {
	s.metrics = m
}

func stateKey(userID int) string {
	return fmt.Sprintf("subscription:state:%d", userID)
}

// PlanInfoFor maps a raw plan id through the static name/tier table.
// Unrecognized ids default to the Free tier; the default is logged and
// counted so catalog drift is visible in monitoring.
func (s *Service) PlanInfoFor(planID string) models.PlanInfo {
	if planID == "" {
		return freePlan
	}
	if info, ok := planTable[planID]; ok {
		return info
	}

	s.logger.Warn("unknown plan id, defaulting to free tier", "plan_id", planID)
	if s.metrics != nil {
		s.metrics.RecordUnknownPlan(planID)
	}
	return freePlan
}

// State returns the aggregated subscription read model, served from cache
// when available.
func (s *Service) State(ctx context.Context, userID int, token string) (*models.SubscriptionState, error) {
	if raw, err := s.cache.Get(ctx, stateKey(userID)); err == nil {
		var state models.SubscriptionState
		if err := json.Unmarshal([]byte(raw), &state); err == nil {
			return &state, nil
		}
		// Corrupted cache entry; fall through to a fresh fetch.
		if err := s.cache.Delete(ctx, stateKey(userID)); err != nil {
			s.logger.Warn("failed to drop corrupted state cache", "user_id", userID, "error", err)
		}
	} else if !cache.IsNil(err) {
		s.logger.Warn("state cache read failed", "user_id", userID, "error", err)
	}

	return s.fetch(ctx, userID, token)
}

// InvalidateState drops the cached read model without refetching. Payment
// settlement uses this: it may run under the sweep's service token, and a
// refetch under that identity would cache the wrong account's state. The
// next State call rebuilds the model under the user's own credentials.
func (s *Service) InvalidateState(ctx context.Context, userID int) error {
	return s.invalidate(ctx, userID)
}

// Refresh drops the cached read model and refetches subscription and
// usage from the backend. Callers must pass the user's own token.
func (s *Service) Refresh(ctx context.Context, userID int, token string) error {
	if err := s.cache.Delete(ctx, stateKey(userID)); err != nil {
		return domain.NewUnknownError("failed to invalidate state cache", err)
	}
	_, err := s.fetch(ctx, userID, token)
	return err
}

// fetch assembles the read model from the backend and caches it
func (s *Service) fetch(ctx context.Context, userID int, token string) (*models.SubscriptionState, error) {
	sub, active, err := s.api.GetCurrentSubscription(ctx, token)
	if err != nil {
		return nil, err
	}

	usage, features, err := s.api.GetFeatureUsage(ctx, token)
	if err != nil {
		return nil, err
	}

	planID := ""
	if sub != nil {
		planID = sub.PlanID
	}
	info := s.PlanInfoFor(planID)

	var rawUsage models.UsageInfo
	if usage != nil {
		rawUsage = *usage
	}

	state := &models.SubscriptionState{
		Subscription:          sub,
		HasActiveSubscription: active,
		CurrentPlan:           info,
		Usage:                 normalizeUsage(rawUsage, info.Tier),
		Features:              features,
	}

	if buf, err := json.Marshal(state); err == nil {
		if err := s.cache.Set(ctx, stateKey(userID), buf, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache subscription state", "user_id", userID, "error", err)
		}
	}

	return state, nil
}

// normalizeUsage applies the tier ceilings to raw usage counters
func normalizeUsage(usage models.UsageInfo, tier string) models.UsageInfo {
	usage.Lessons.Limit = LimitFor(tier, FeatureLessons)
	usage.AISessions.Limit = LimitFor(tier, FeatureAISessions)
	return usage
}

// LimitFor returns the usage ceiling for a feature on a tier.
// Only the free tier caps lessons; AI sessions are unlimited everywhere.
func LimitFor(tier, feature string) int {
	switch feature {
	case FeatureLessons:
		if tier == "free" {
			return freeLessonLimit
		}
		return Unlimited
	case FeatureAISessions:
		return Unlimited
	default:
		return Unlimited
	}
}

// CanAccess reports whether the state grants access to a feature
func CanAccess(state *models.SubscriptionState, feature string) bool {
	for _, f := range state.Features {
		if f == feature {
			return true
		}
	}
	// Lessons are available on every tier, including free.
	return feature == FeatureLessons
}

// HasReachedLimit reports whether the feature's usage ceiling is exhausted
func HasReachedLimit(state *models.SubscriptionState, feature string) bool {
	var u models.FeatureUsage
	switch feature {
	case FeatureLessons:
		u = state.Usage.Lessons
	case FeatureAISessions:
		u = state.Usage.AISessions
	default:
		return false
	}

	if u.Limit == Unlimited {
		return false
	}
	return u.Used >= u.Limit
}

// Cancel cancels the subscription at period end and invalidates the cache
func (s *Service) Cancel(ctx context.Context, userID int, token string) error {
	if err := s.api.CancelSubscription(ctx, token); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

// Reactivate reverts a pending cancellation and invalidates the cache
func (s *Service) Reactivate(ctx context.Context, userID int, token string) error {
	if err := s.api.ReactivateSubscription(ctx, token); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

// SetAutoRenewal toggles auto-renewal and invalidates the cache
func (s *Service) SetAutoRenewal(ctx context.Context, userID int, token string, enabled bool) error {
	if err := s.api.SetAutoRenewal(ctx, token, enabled); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

// ScheduleDowngrade schedules a downgrade effective at period end.
// Downgrades never touch the payment flow.
func (s *Service) ScheduleDowngrade(ctx context.Context, userID int, token, targetPlanID string) error {
	if err := s.api.ScheduleDowngrade(ctx, token, targetPlanID); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

func (s *Service) invalidate(ctx context.Context, userID int) error {
	if err := s.cache.Delete(ctx, stateKey(userID)); err != nil {
		s.logger.Warn("failed to invalidate state cache", "user_id", userID, "error", err)
	}
	return nil
}
