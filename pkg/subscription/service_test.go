package subscription

import (
	"context"
	"testing"

	"github.com/KanishKumar11/UNextDoor-sub005/pkg/cache"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	subscription *models.Subscription
	active       bool
	usage        models.UsageInfo
	features     []string

	subCalls    int
	cancelCalls int
	renewalSet  *bool
	downgradeTo string
}

func (m *mockAPI) GetCurrentSubscription(ctx context.Context, token string) (*models.Subscription, bool, error) {
	m.subCalls++
	return m.subscription, m.active, nil
}

func (m *mockAPI) GetFeatureUsage(ctx context.Context, token string) (*models.UsageInfo, []string, error) {
	return &m.usage, m.features, nil
}

func (m *mockAPI) CancelSubscription(ctx context.Context, token string) error {
	m.cancelCalls++
	return nil
}

func (m *mockAPI) SetAutoRenewal(ctx context.Context, token string, enabled bool) error {
	m.renewalSet = &enabled
	return nil
}

func (m *mockAPI) ScheduleDowngrade(ctx context.Context, token, planID string) error {
	m.downgradeTo = planID
	return nil
}

func (m *mockAPI) GetCurrencyPreference(ctx context.Context, token string) (string, error) {
	return "", nil
}

func (m *mockAPI) SaveCurrencyPreference(ctx context.Context, token, code string) error {
	return nil
}

func (m *mockAPI) GetPlans(ctx context.Context, token, currencyCode string) ([]models.Plan, error) {
	return nil, nil
}

func (m *mockAPI) UpgradePreview(ctx context.Context, token, planID, currencyCode string) (*models.ProrationPreview, error) {
	return nil, nil
}

func (m *mockAPI) CreateRecurringOrder(ctx context.Context, token, planID, currencyCode string) (*models.OrderDetails, error) {
	return nil, nil
}

func (m *mockAPI) VerifyPayment(ctx context.Context, token, orderID string) (string, error) {
	return "", nil
}

func (m *mockAPI) ReactivateSubscription(ctx context.Context, token string) error { return nil }

type unknownPlanCounter struct {
	plans []string
}

func (c *unknownPlanCounter) RecordUnknownPlan(planID string) {
	c.plans = append(c.plans, planID)
}

func setupService(t *testing.T, api *mockAPI) (*Service, *cache.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := cache.NewClient("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewService(api, client, nil), client
}

func TestPlanInfoFor(t *testing.T) {
	s, _ := setupService(t, &mockAPI{})

	tests := []struct {
		planID   string
		wantName string
		wantTier string
	}{
		{"free", "Free", "free"},
		{"basic_monthly", "Basic", "basic"},
		{"standard_quarterly", "Standard", "standard"},
		{"pro_yearly", "Pro", "pro"},
		{"", "Free", "free"},
	}

	for _, tt := range tests {
		info := s.PlanInfoFor(tt.planID)
		assert.Equal(t, tt.wantName, info.Name)
		assert.Equal(t, tt.wantTier, info.Tier)
	}
}

func TestPlanInfoFor_UnknownDefaultsToFree(t *testing.T) {
	s, _ := setupService(t, &mockAPI{})
	counter := &unknownPlanCounter{}
	s.SetMetrics(counter)

	info := s.PlanInfoFor("legacy_gold_plan")
	assert.Equal(t, "Free", info.Name)
	assert.Equal(t, "free", info.Tier)
	assert.Equal(t, []string{"legacy_gold_plan"}, counter.plans)
}

func TestLimitFor(t *testing.T) {
	assert.Equal(t, 5, LimitFor("free", FeatureLessons))
	assert.Equal(t, Unlimited, LimitFor("basic", FeatureLessons))
	assert.Equal(t, Unlimited, LimitFor("pro", FeatureLessons))
	assert.Equal(t, Unlimited, LimitFor("free", FeatureAISessions))
	assert.Equal(t, Unlimited, LimitFor("pro", FeatureAISessions))
}

func TestState_AssemblesReadModel(t *testing.T) {
	api := &mockAPI{
		subscription: &models.Subscription{PlanID: "pro_yearly", Amount: 2999},
		active:       true,
		usage: models.UsageInfo{
			Lessons:    models.FeatureUsage{Used: 12},
			AISessions: models.FeatureUsage{Used: 30},
		},
		features: []string{"lessons", "ai_sessions"},
	}
	s, _ := setupService(t, api)

	state, err := s.State(context.Background(), 1, "tok")
	require.NoError(t, err)

	assert.True(t, state.HasActiveSubscription)
	assert.Equal(t, "Pro", state.CurrentPlan.Name)
	assert.Equal(t, Unlimited, state.Usage.Lessons.Limit)
	assert.Equal(t, Unlimited, state.Usage.AISessions.Limit)
	assert.Equal(t, 12, state.Usage.Lessons.Used)
}

func TestState_FreeTierLimits(t *testing.T) {
	api := &mockAPI{
		subscription: nil,
		active:       false,
		usage: models.UsageInfo{
			Lessons: models.FeatureUsage{Used: 3},
		},
	}
	s, _ := setupService(t, api)

	state, err := s.State(context.Background(), 1, "tok")
	require.NoError(t, err)

	assert.False(t, state.HasActiveSubscription)
	assert.Equal(t, "free", state.CurrentPlan.Tier)
	assert.Equal(t, 5, state.Usage.Lessons.Limit)
	assert.Equal(t, Unlimited, state.Usage.AISessions.Limit)
}

func TestState_ServedFromCache(t *testing.T) {
	api := &mockAPI{
		subscription: &models.Subscription{PlanID: "basic_monthly"},
		active:       true,
	}
	s, _ := setupService(t, api)
	ctx := context.Background()

	_, err := s.State(ctx, 1, "tok")
	require.NoError(t, err)
	_, err = s.State(ctx, 1, "tok")
	require.NoError(t, err)

	assert.Equal(t, 1, api.subCalls)
}

func TestRefresh_InvalidatesCache(t *testing.T) {
	api := &mockAPI{
		subscription: &models.Subscription{PlanID: "basic_monthly"},
		active:       true,
	}
	s, _ := setupService(t, api)
	ctx := context.Background()

	_, err := s.State(ctx, 1, "tok")
	require.NoError(t, err)

	require.NoError(t, s.Refresh(ctx, 1, "tok"))

	// Refresh refetched; a later State call is served from the new cache
	assert.Equal(t, 2, api.subCalls)
	_, err = s.State(ctx, 1, "tok")
	require.NoError(t, err)
	assert.Equal(t, 2, api.subCalls)
}

func TestCanAccess(t *testing.T) {
	state := &models.SubscriptionState{
		Features: []string{"ai_sessions"},
	}

	assert.True(t, CanAccess(state, FeatureAISessions))
	assert.True(t, CanAccess(state, FeatureLessons), "lessons are always accessible")
	assert.False(t, CanAccess(state, "offline_mode"))
}

func TestHasReachedLimit(t *testing.T) {
	state := &models.SubscriptionState{
		Usage: models.UsageInfo{
			Lessons:    models.FeatureUsage{Used: 5, Limit: 5},
			AISessions: models.FeatureUsage{Used: 900, Limit: Unlimited},
		},
	}

	assert.True(t, HasReachedLimit(state, FeatureLessons))
	assert.False(t, HasReachedLimit(state, FeatureAISessions))

	state.Usage.Lessons.Used = 4
	assert.False(t, HasReachedLimit(state, FeatureLessons))
}

func TestCancel_InvalidatesCache(t *testing.T) {
	api := &mockAPI{
		subscription: &models.Subscription{PlanID: "basic_monthly"},
		active:       true,
	}
	s, _ := setupService(t, api)
	ctx := context.Background()

	_, err := s.State(ctx, 1, "tok")
	require.NoError(t, err)

	require.NoError(t, s.Cancel(ctx, 1, "tok"))
	assert.Equal(t, 1, api.cancelCalls)

	// The next State call refetches
	_, err = s.State(ctx, 1, "tok")
	require.NoError(t, err)
	assert.Equal(t, 2, api.subCalls)
}

func TestSetAutoRenewal(t *testing.T) {
	api := &mockAPI{subscription: &models.Subscription{PlanID: "basic_monthly"}}
	s, _ := setupService(t, api)

	require.NoError(t, s.SetAutoRenewal(context.Background(), 1, "tok", false))
	require.NotNil(t, api.renewalSet)
	assert.False(t, *api.renewalSet)
}

func TestScheduleDowngrade(t *testing.T) {
	api := &mockAPI{subscription: &models.Subscription{PlanID: "pro_yearly"}}
	s, _ := setupService(t, api)

	require.NoError(t, s.ScheduleDowngrade(context.Background(), 1, "tok", "basic_monthly"))
	assert.Equal(t, "basic_monthly", api.downgradeTo)
}
