package catalog

import (
	"context"

	"github.com/KanishKumar11/UNextDoor-sub005/pkg/domain"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/logger"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/models"
)

// ChangeKind classifies a plan change
type ChangeKind string

const (
	ChangeDowngrade   ChangeKind = "downgrade"
	ChangeNewPurchase ChangeKind = "new_purchase"
	ChangeUpgrade     ChangeKind = "upgrade"
)

// planOrdinals is the fixed plan hierarchy. A change is a downgrade iff the
// target's ordinal is strictly less than the current one's.
var planOrdinals = map[string]int{
	"free":               0,
	"basic_monthly":      1,
	"standard_quarterly": 2,
	"pro_yearly":         3,
}

// Ordinal returns the hierarchy position for a plan id. Unknown ids rank as
// free, matching the subscription read model's default.
func Ordinal(planID string) int {
	return planOrdinals[planID]
}

// KnownPlan reports whether the plan id appears in the hierarchy table.
// Handlers use it to reject change targets before classification, since
// Classify ranks unknown ids as free.
func KnownPlan(planID string) bool {
	_, ok := planOrdinals[planID]
	return ok
}

// Classify returns the change kind for moving from currentPlanID to
// targetPlanID. An empty currentPlanID means no active subscription.
func Classify(currentPlanID, targetPlanID string) ChangeKind {
	cur := Ordinal(currentPlanID)
	tgt := Ordinal(targetPlanID)

	switch {
	case tgt < cur:
		return ChangeDowngrade
	case currentPlanID == "" || cur == 0:
		return ChangeNewPurchase
	default:
		return ChangeUpgrade
	}
}

// Service fetches the plan catalog and evaluates plan changes
type Service struct {
	api    domain.PaymentsAPI
	logger logger.Logger
}

// NewService creates a new catalog service
func NewService(api domain.PaymentsAPI, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		api:    api,
		logger: log,
	}
}

// FetchPlans retrieves available plans priced in the given currency.
// A plain request/response with no retries.
func (s *Service) FetchPlans(ctx context.Context, token, currencyCode string) ([]models.Plan, error) {
	plans, err := s.api.GetPlans(ctx, token, currencyCode)
	if err != nil {
		return nil, err
	}
	return plans, nil
}

// FindPlan locates a plan by id in a fetched catalog
func FindPlan(plans []models.Plan, planID string) (models.Plan, bool) {
	for _, p := range plans {
		if p.ID == planID {
			return p, true
		}
	}
	return models.Plan{}, false
}

// EvaluateChange classifies the plan change and, for upgrades, requests a
// proration preview. A failed preview call degrades to a nil preview rather
// than blocking the flow.
func (s *Service) EvaluateChange(ctx context.Context, token, currentPlanID, targetPlanID, currencyCode string) (*models.ClassifyResponse, error) {
	kind := Classify(currentPlanID, targetPlanID)

	resp := &models.ClassifyResponse{Change: string(kind)}

	if kind == ChangeUpgrade {
		preview, err := s.api.UpgradePreview(ctx, token, targetPlanID, currencyCode)
		if err != nil {
			s.logger.Warn("proration preview failed, continuing without preview",
				"target_plan", targetPlanID,
				"currency", currencyCode,
				"error", err)
		} else {
			resp.Preview = preview
		}
	}

	return resp, nil
}
