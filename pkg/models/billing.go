package models

// Currency represents a billing currency selected from the fixed table
type Currency struct {
	Code         string  `json:"code"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Country      string  `json:"country,omitempty"`
	ExchangeRate float64 `json:"exchange_rate"`
}

// Valid reports whether the currency is structurally usable. Cached entries
// missing code or symbol are discarded by the resolver.
func (c Currency) Valid() bool {
	return c.Code != "" && c.Symbol != ""
}

// Plan represents a subscription plan priced in a specific currency
type Plan struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Tier           string   `json:"tier"`
	Price          float64  `json:"price"`
	Currency       string   `json:"currency"`
	CurrencySymbol string   `json:"currency_symbol"`
	Interval       string   `json:"interval"`
	IntervalCount  int      `json:"interval_count"`
	Features       []string `json:"features"`
	Popular        bool     `json:"popular"`
}

// Subscription is the server-owned subscription record; this service only
// holds a read-only copy fetched from the payments backend
type Subscription struct {
	PlanID            string  `json:"plan_id"`
	Amount            float64 `json:"amount"`
	Interval          string  `json:"interval"`
	IntervalCount     int     `json:"interval_count"`
	CurrentPeriodEnd  string  `json:"current_period_end"`
	CancelAtPeriodEnd bool    `json:"cancel_at_period_end"`
	AutoRenewal       bool    `json:"auto_renewal"`
	SubscriptionID    string  `json:"subscription_id"`
}

// PlanInfo is the display name/tier mapping derived from a raw plan id
type PlanInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tier string `json:"tier"`
}

// ProrationPreview holds the backend-computed mid-cycle upgrade preview
type ProrationPreview struct {
	OriginalPrice   float64 `json:"original_price"`
	ProrationCredit float64 `json:"proration_credit"`
	FinalPrice      float64 `json:"final_price"`
	RemainingDays   int     `json:"remaining_days"`
}

// OrderDetails describes a freshly created recurring payment order
type OrderDetails struct {
	OrderID    string  `json:"order_id"`
	PaymentURL string  `json:"payment_url"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	PlanID     string  `json:"plan_id"`
	PlanName   string  `json:"plan_name"`
}

// FeatureUsage holds a single feature's usage counter and ceiling.
// Limit -1 means unlimited.
type FeatureUsage struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// UsageInfo aggregates per-feature usage counters
type UsageInfo struct {
	Lessons    FeatureUsage `json:"lessons"`
	AISessions FeatureUsage `json:"ai_sessions"`
}

// SubscriptionState is the aggregated read model consumed by the app
type SubscriptionState struct {
	Subscription          *Subscription `json:"subscription"`
	HasActiveSubscription bool          `json:"has_active_subscription"`
	CurrentPlan           PlanInfo      `json:"current_plan"`
	Usage                 UsageInfo     `json:"usage"`
	Features              []string      `json:"features"`
}

// Request types

// SelectCurrencyRequest is the body for a manual currency selection
type SelectCurrencyRequest struct {
	Code string `json:"code" validate:"required,oneof=INR USD"`
}

// ClassifyRequest asks for a plan-change classification and, for upgrades,
// a proration preview
type ClassifyRequest struct {
	TargetPlanID string `json:"target_plan_id" validate:"required"`
}

// InitiatePaymentRequest is the body for starting a payment session
type InitiatePaymentRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
}

// ScheduleDowngradeRequest schedules a downgrade effective at period end
type ScheduleDowngradeRequest struct {
	TargetPlanID string `json:"target_plan_id" validate:"required"`
}

// AutoRenewalRequest toggles subscription auto-renewal
type AutoRenewalRequest struct {
	Enabled bool `json:"enabled"`
}

// Response envelopes

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse represents a generic success API response
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ClassifyResponse carries the change kind and optional proration preview
type ClassifyResponse struct {
	Change  string            `json:"change"`
	Preview *ProrationPreview `json:"preview,omitempty"`
}

// RecoveryResponse reports the outcome of a pending-payment recovery pass
type RecoveryResponse struct {
	Recovered bool   `json:"recovered"`
	OrderID   string `json:"order_id,omitempty"`
	Status    string `json:"status,omitempty"`
}
