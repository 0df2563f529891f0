package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/KanishKumar11/UNextDoor-sub005/pkg/cache"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/catalog"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/domain"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/models"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/payment"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sweepAPI verifies every order as settled or failing, keyed by order id
type sweepAPI struct {
	statuses map[string]string
	failing  map[string]bool
}

func (m *sweepAPI) VerifyPayment(ctx context.Context, token, orderID string) (string, error) {
	if m.failing[orderID] {
		return "", domain.NewNetworkError(context.DeadlineExceeded)
	}
	return m.statuses[orderID], nil
}

func (m *sweepAPI) GetCurrencyPreference(ctx context.Context, token string) (string, error) {
	return "", nil
}

func (m *sweepAPI) SaveCurrencyPreference(ctx context.Context, token, code string) error {
	return nil
}

func (m *sweepAPI) GetPlans(ctx context.Context, token, currencyCode string) ([]models.Plan, error) {
	return nil, nil
}

func (m *sweepAPI) GetCurrentSubscription(ctx context.Context, token string) (*models.Subscription, bool, error) {
	return nil, false, nil
}

func (m *sweepAPI) GetFeatureUsage(ctx context.Context, token string) (*models.UsageInfo, []string, error) {
	return &models.UsageInfo{}, nil, nil
}

func (m *sweepAPI) UpgradePreview(ctx context.Context, token, planID, currencyCode string) (*models.ProrationPreview, error) {
	return nil, nil
}

func (m *sweepAPI) CreateRecurringOrder(ctx context.Context, token, planID, currencyCode string) (*models.OrderDetails, error) {
	return nil, nil
}

func (m *sweepAPI) CancelSubscription(ctx context.Context, token string) error { return nil }

func (m *sweepAPI) ReactivateSubscription(ctx context.Context, token string) error { return nil }

func (m *sweepAPI) SetAutoRenewal(ctx context.Context, token string, enabled bool) error {
	return nil
}

func (m *sweepAPI) ScheduleDowngrade(ctx context.Context, token, planID string) error { return nil }

func TestPendingSweeper_Run(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := cache.NewClient("redis://" + mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	api := &sweepAPI{
		statuses: map[string]string{
			"order_a": "completed",
			"order_b": "pending",
			"order_c": "recovered",
		},
		failing: map[string]bool{"order_d": true},
	}

	store := payment.NewPendingStore(client, time.Hour)
	cat := catalog.NewService(api, nil)
	svc := payment.NewService(api, store, cat, client, 30*time.Second, nil)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, 1, "order_a"))
	require.NoError(t, store.Put(ctx, 2, "order_b"))
	require.NoError(t, store.Put(ctx, 3, "order_c"))
	require.NoError(t, store.Put(ctx, 4, "order_d"))

	sweeper := NewPendingSweeper(svc, store, "service-token", nil)

	recovered, err := sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, recovered)

	// Settled slots cleared, unsettled and failed retained
	a, _ := store.Get(ctx, 1)
	b, _ := store.Get(ctx, 2)
	c, _ := store.Get(ctx, 3)
	d, _ := store.Get(ctx, 4)
	assert.Empty(t, a)
	assert.Equal(t, "order_b", b)
	assert.Empty(t, c)
	assert.Equal(t, "order_d", d)
}

func TestPendingSweeper_EmptyKeyspace(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := cache.NewClient("redis://" + mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	api := &sweepAPI{}
	store := payment.NewPendingStore(client, time.Hour)
	svc := payment.NewService(api, store, catalog.NewService(api, nil), client, 30*time.Second, nil)

	sweeper := NewPendingSweeper(svc, store, "service-token", nil)

	recovered, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, recovered)
}

func TestPendingSweeper_CancelledContext(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := cache.NewClient("redis://" + mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	api := &sweepAPI{statuses: map[string]string{"order_a": "completed"}}
	store := payment.NewPendingStore(client, time.Hour)
	svc := payment.NewService(api, store, catalog.NewService(api, nil), client, 30*time.Second, nil)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, 1, "order_a"))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	sweeper := NewPendingSweeper(svc, store, "service-token", nil)
	_, err = sweeper.Run(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}
