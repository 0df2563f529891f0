package domain

import (
	"context"
	"time"

	"github.com/KanishKumar11/UNextDoor-sub005/pkg/models"
)

// CacheRepository defines the key-value operations backing local persisted state
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
	Close() error
}

// PaymentsAPI defines the operations this service consumes from the external
// payments backend. All errors returned are DomainErrors classified at the
// transport boundary.
type PaymentsAPI interface {
	GetCurrencyPreference(ctx context.Context, token string) (string, error)
	SaveCurrencyPreference(ctx context.Context, token, code string) error
	GetPlans(ctx context.Context, token, currencyCode string) ([]models.Plan, error)
	GetCurrentSubscription(ctx context.Context, token string) (*models.Subscription, bool, error)
	GetFeatureUsage(ctx context.Context, token string) (*models.UsageInfo, []string, error)
	UpgradePreview(ctx context.Context, token, planID, currencyCode string) (*models.ProrationPreview, error)
	CreateRecurringOrder(ctx context.Context, token, planID, currencyCode string) (*models.OrderDetails, error)
	VerifyPayment(ctx context.Context, token, orderID string) (string, error)
	CancelSubscription(ctx context.Context, token string) error
	ReactivateSubscription(ctx context.Context, token string) error
	SetAutoRenewal(ctx context.Context, token string, enabled bool) error
	ScheduleDowngrade(ctx context.Context, token, planID string) error
}

// CurrencyResolver resolves the billing currency for a user
type CurrencyResolver interface {
	Resolve(ctx context.Context, userID int, token, deviceTimezone string) (models.Currency, error)
	Select(ctx context.Context, userID int, token, code string) (models.Currency, error)
}

// PendingOrderStore is the single-slot per-user store for in-flight payment
// order ids
type PendingOrderStore interface {
	Put(ctx context.Context, userID int, orderID string) error
	Get(ctx context.Context, userID int) (string, error)
	CompareAndClear(ctx context.Context, userID int, orderID string) (bool, error)
	PendingUserIDs(ctx context.Context) ([]int, error)
}

// TokenBlacklist defines JWT token blacklist operations
type TokenBlacklist interface {
	Add(ctx context.Context, token string, expiration time.Duration) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}
