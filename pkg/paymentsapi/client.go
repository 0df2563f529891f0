package paymentsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/KanishKumar11/UNextDoor-sub005/pkg/domain"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/logger"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/models"
)

// MetricsRecorder records backend request outcomes
type MetricsRecorder interface {
	RecordBackendRequest(operation, kind string, duration time.Duration)
}

// Client is a typed HTTP client for the payments backend. Every failure is
// classified here, once, into a domain error kind; callers never inspect
// HTTP statuses themselves.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
	metrics    MetricsRecorder
}

// Config holds payments backend client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new payments backend client
func NewClient(cfg Config, log logger.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if log == nil {
		log = logger.Default()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log,
	}
}

// SetMetrics sets the metrics recorder for backend request outcomes.
func (c *Client) SetMetrics(m MetricsRecorder) {
	c.metrics = m
}

// envelope is the standard response wrapper used by the payments backend
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do performs a named request, recording its duration and outcome kind
func (c *Client) do(ctx context.Context, op, method, path, token string, body interface{}) (json.RawMessage, error) {
	start := time.Now()
	data, err := c.send(ctx, method, path, token, body)

	if c.metrics != nil {
		kind := "ok"
		if err != nil {
			kind = domain.Kind(err)
		}
		c.metrics.RecordBackendRequest(op, kind, time.Since(start))
	}

	return data, err
}

// send performs a request and decodes the response envelope, classifying
// failures into domain error kinds.
func (c *Client) send(ctx context.Context, method, path, token string, body interface{}) (json.RawMessage, error) {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, domain.NewUnknownError("failed to encode request", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, domain.NewUnknownError("failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewNetworkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, domain.NewNetworkError(err)
	}

	var env envelope
	if len(raw) > 0 {
		// A malformed body on an error status still classifies by status below
		_ = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if !env.Success {
			return nil, domain.NewUnknownError(env.Message, nil)
		}
		return env.Data, nil
	}

	return nil, c.classifyStatus(resp.StatusCode, env.Message, method, path)
}

// classifyStatus maps an HTTP error status to a domain error kind
func (c *Client) classifyStatus(status int, message, method, path string) error {
	c.logger.Debug("payments backend error",
		"method", method,
		"path", path,
		"status", status,
		"message", message)

	switch {
	case status == http.StatusServiceUnavailable:
		return domain.NewServerDisabledError()
	case status == http.StatusNotFound:
		return domain.NewNotFoundError("resource")
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.NewUnauthorizedError()
	case status == http.StatusConflict:
		return domain.NewConflictError(message)
	case status >= 400 && status < 500:
		if message == "" {
			message = "Invalid request"
		}
		return domain.NewValidationError(message)
	default:
		return domain.NewUnknownError(message, fmt.Errorf("unexpected status %d", status))
	}
}

// GetCurrencyPreference returns the backend-stored currency code, or empty
// when no preference is saved
func (c *Client) GetCurrencyPreference(ctx context.Context, token string) (string, error) {
	data, err := c.do(ctx, "get_preferences", http.MethodGet, "/auth/preferences", token, nil)
	if err != nil {
		return "", err
	}

	var payload struct {
		Preferences struct {
			Currency string `json:"currency"`
		} `json:"preferences"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", domain.NewUnknownError("failed to decode preferences", err)
	}

	return payload.Preferences.Currency, nil
}

// SaveCurrencyPreference persists the currency code on the user's backend profile
func (c *Client) SaveCurrencyPreference(ctx context.Context, token, code string) error {
	body := map[string]interface{}{
		"preferences": map[string]string{"currency": code},
	}
	_, err := c.do(ctx, "save_preferences", http.MethodPut, "/auth/preferences", token, body)
	return err
}

// GetPlans fetches the plan catalog priced in the given currency
func (c *Client) GetPlans(ctx context.Context, token, currencyCode string) ([]models.Plan, error) {
	path := "/subscriptions/plans?currency=" + url.QueryEscape(currencyCode)
	data, err := c.do(ctx, "get_plans", http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Plans []models.Plan `json:"plans"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, domain.NewUnknownError("failed to decode plans", err)
	}

	return payload.Plans, nil
}

// GetCurrentSubscription returns the user's subscription and whether it is active
func (c *Client) GetCurrentSubscription(ctx context.Context, token string) (*models.Subscription, bool, error) {
	data, err := c.do(ctx, "get_current_subscription", http.MethodGet, "/subscriptions/current", token, nil)
	if err != nil {
		return nil, false, err
	}

	var payload struct {
		Subscription          *models.Subscription `json:"subscription"`
		HasActiveSubscription bool                 `json:"hasActiveSubscription"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, false, domain.NewUnknownError("failed to decode subscription", err)
	}

	return payload.Subscription, payload.HasActiveSubscription, nil
}

// GetFeatureUsage returns the user's usage counters and enabled feature flags
func (c *Client) GetFeatureUsage(ctx context.Context, token string) (*models.UsageInfo, []string, error) {
	data, err := c.do(ctx, "get_feature_usage", http.MethodGet, "/features/user", token, nil)
	if err != nil {
		return nil, nil, err
	}

	var payload struct {
		Usage    models.UsageInfo `json:"usage"`
		Features []string         `json:"features"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, nil, domain.NewUnknownError("failed to decode feature usage", err)
	}

	return &payload.Usage, payload.Features, nil
}

// UpgradePreview requests a proration preview for upgrading to planID
func (c *Client) UpgradePreview(ctx context.Context, token, planID, currencyCode string) (*models.ProrationPreview, error) {
	path := "/subscriptions/upgrade-preview/" + url.PathEscape(planID)
	body := map[string]string{"currency": currencyCode}

	data, err := c.do(ctx, "upgrade_preview", http.MethodPost, path, token, body)
	if err != nil {
		return nil, err
	}

	var preview models.ProrationPreview
	if err := json.Unmarshal(data, &preview); err != nil {
		return nil, domain.NewUnknownError("failed to decode proration preview", err)
	}

	return &preview, nil
}

// CreateRecurringOrder creates a recurring-subscription payment order
func (c *Client) CreateRecurringOrder(ctx context.Context, token, planID, currencyCode string) (*models.OrderDetails, error) {
	body := map[string]string{
		"planId":   planID,
		"currency": currencyCode,
	}

	data, err := c.do(ctx, "create_order", http.MethodPost, "/subscriptions/create-recurring", token, body)
	if err != nil {
		return nil, err
	}

	var order struct {
		OrderID    string  `json:"orderId"`
		PaymentURL string  `json:"paymentUrl"`
		Amount     float64 `json:"amount"`
		Currency   string  `json:"currency"`
	}
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, domain.NewUnknownError("failed to decode order", err)
	}

	return &models.OrderDetails{
		OrderID:    order.OrderID,
		PaymentURL: order.PaymentURL,
		Amount:     order.Amount,
		Currency:   order.Currency,
		PlanID:     planID,
	}, nil
}

// VerifyPayment returns the settlement status of a payment order
func (c *Client) VerifyPayment(ctx context.Context, token, orderID string) (string, error) {
	path := "/subscriptions/verify-payment/" + url.PathEscape(orderID)
	data, err := c.do(ctx, "verify_payment", http.MethodGet, path, token, nil)
	if err != nil {
		return "", err
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", domain.NewUnknownError("failed to decode payment status", err)
	}

	return payload.Status, nil
}

// CancelSubscription cancels the user's subscription at period end
func (c *Client) CancelSubscription(ctx context.Context, token string) error {
	_, err := c.do(ctx, "cancel_subscription", http.MethodPost, "/subscriptions/cancel", token, nil)
	return err
}

// ReactivateSubscription reverts a pending cancellation
func (c *Client) ReactivateSubscription(ctx context.Context, token string) error {
	_, err := c.do(ctx, "reactivate_subscription", http.MethodPost, "/subscriptions/reactivate", token, nil)
	return err
}

// SetAutoRenewal toggles subscription auto-renewal
func (c *Client) SetAutoRenewal(ctx context.Context, token string, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	_, err := c.do(ctx, "set_auto_renewal", http.MethodPost, "/subscriptions/auto-renewal", token, body)
	return err
}

// ScheduleDowngrade schedules a downgrade to planID effective at period end
func (c *Client) ScheduleDowngrade(ctx context.Context, token, planID string) error {
	body := map[string]string{"planId": planID}
	_, err := c.do(ctx, "schedule_downgrade", http.MethodPost, "/subscriptions/schedule-downgrade", token, body)
	return err
}
