package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/KanishKumar11/UNextDoor-sub005/pkg/domain"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/logger"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/models"
)

// ErrSelectionRequired is returned when no resolution step produced a
// currency and the user must pick one manually.
var ErrSelectionRequired = errors.New("currency selection required")

// indianTimezones are the IANA zone names that resolve to INR
var indianTimezones = map[string]bool{
	"Asia/Kolkata":  true,
	"Asia/Calcutta": true,
}

// MetricsRecorder abstracts resolution metrics for the resolver
type MetricsRecorder interface {
	RecordCurrencyResolution(source string)
}

// Resolver determines the user's billing currency.
//
// Resolution order: backend-stored preference, locally cached preference,
// timezone heuristic, manual selection. Network failures during the backend
// check are swallowed and treated as "no preference found".
type Resolver struct {
	api     domain.PaymentsAPI
	cache   domain.CacheRepository
	logger  logger.Logger
	metrics MetricsRecorder
}

// NewResolver creates a new currency resolver
func NewResolver(api domain.PaymentsAPI, cache domain.CacheRepository, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.Default()
	}
	return &Resolver{
		api:    api,
		cache:  cache,
		logger: log,
	}
}

// SetMetrics sets the metrics recorder for resolution outcomes.
func (r *Resolver) SetMetrics(m MetricsRecorder) {
	r.metrics = m
}

func cacheKey(userID int) string {
	return fmt.Sprintf("currency:pref:%d", userID)
}

// Resolve determines the billing currency for the user. Returns
// ErrSelectionRequired when no automatic step succeeds; the caller then
// presents the supported table and calls Select with the user's choice.
func (r *Resolver) Resolve(ctx context.Context, userID int, token, deviceTimezone string) (models.Currency, error) {
	// 1. Backend-stored preference. Any failure here is treated as
	// "no preference found" and never surfaced to the user.
	code, err := r.api.GetCurrencyPreference(ctx, token)
	if err != nil {
		r.logger.Debug("currency preference check failed, falling through",
			"user_id", userID, "error", err)
	} else if code != "" {
		if cur, ok := Lookup(code); ok {
			r.record("backend")
			r.cacheLocally(ctx, userID, cur)
			return cur, nil
		}
		r.logger.Warn("backend returned unsupported currency code, ignoring",
			"user_id", userID, "code", code)
	}

	// 2. Locally cached preference, discarding structurally invalid entries.
	if cur, ok := r.cached(ctx, userID); ok {
		r.record("cache")
		return cur, nil
	}

	// 3. Timezone heuristic. An empty timezone gives no signal, so the
	// user has to choose manually.
	if deviceTimezone != "" {
		cur := Default
		if indianTimezones[deviceTimezone] {
			cur = Supported[0]
		}
		r.record("timezone")
		r.cacheLocally(ctx, userID, cur)
		return cur, nil
	}

	return models.Currency{}, ErrSelectionRequired
}

// Select records a manual currency choice as authoritative. Local
// persistence must succeed; backend persistence is best-effort and a
// failure there is only logged.
func (r *Resolver) Select(ctx context.Context, userID int, token, code string) (models.Currency, error) {
	cur, ok := Lookup(code)
	if !ok {
		return models.Currency{}, domain.NewValidationError(fmt.Sprintf("unsupported currency: %s", code))
	}

	buf, err := json.Marshal(cur)
	if err != nil {
		return models.Currency{}, domain.NewUnknownError("failed to encode currency", err)
	}
	if err := r.cache.Set(ctx, cacheKey(userID), buf, 0); err != nil {
		return models.Currency{}, domain.NewUnknownError("failed to persist currency selection", err)
	}

	if err := r.api.SaveCurrencyPreference(ctx, token, cur.Code); err != nil {
		r.logger.Warn("failed to save currency preference on backend",
			"user_id", userID, "code", cur.Code, "error", err)
	}

	r.record("manual")
	return cur, nil
}

// cached returns the locally cached currency when present and structurally
// valid. Invalid entries are cleared so they are not retried forever.
func (r *Resolver) cached(ctx context.Context, userID int) (models.Currency, bool) {
	raw, err := r.cache.Get(ctx, cacheKey(userID))
	if err != nil {
		return models.Currency{}, false
	}

	var cur models.Currency
	if err := json.Unmarshal([]byte(raw), &cur); err != nil || !cur.Valid() || !IsValidISO(cur.Code) {
		r.logger.Warn("clearing invalid cached currency", "user_id", userID)
		if delErr := r.cache.Delete(ctx, cacheKey(userID)); delErr != nil {
			r.logger.Warn("failed to clear invalid cached currency",
				"user_id", userID, "error", delErr)
		}
		return models.Currency{}, false
	}

	return cur, true
}

func (r *Resolver) cacheLocally(ctx context.Context, userID int, cur models.Currency) {
	buf, err := json.Marshal(cur)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, cacheKey(userID), buf, 0); err != nil {
		r.logger.Warn("failed to cache resolved currency",
			"user_id", userID, "error", err)
	}
}

func (r *Resolver) record(source string) {
	if r.metrics != nil {
		r.metrics.RecordCurrencyResolution(source)
	}
}
