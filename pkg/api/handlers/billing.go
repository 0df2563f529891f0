package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/KanishKumar11/UNextDoor-sub005/pkg/api/errors"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/catalog"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/currency"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/models"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/payment"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/subscription"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// BillingHandler handles plan, payment, and subscription endpoints
type BillingHandler struct {
	resolver     *currency.Resolver
	catalog      *catalog.Service
	payments     *payment.Service
	subscription *subscription.Service
	validator    *validator.Validate
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(resolver *currency.Resolver, cat *catalog.Service, pay *payment.Service, sub *subscription.Service) *BillingHandler {
	return &BillingHandler{
		resolver:     resolver,
		catalog:      cat,
		payments:     pay,
		subscription: sub,
		validator:    validator.New(),
	}
}

// identity pulls the authenticated user and forwarding token from context
func identity(c echo.Context) (int, string, bool) {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return 0, "", false
	}
	token, _ := c.Get("token").(string)
	return userID, token, true
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error: "unauthorized",
	})
}

// resolveCurrency resolves the display currency for the request, reading
// the device timezone header. ErrSelectionRequired is surfaced as a 409
// so the client prompts for a manual choice before retrying.
//
// When resolution fails the error response has already been written and
// ok is false; the caller must stop and return err as-is. A nil error
// cannot signal this because c.JSON returns nil on a successful write.
func (h *BillingHandler) resolveCurrency(c echo.Context, userID int, token string) (cur models.Currency, ok bool, err error) {
	deviceTimezone := c.Request().Header.Get("X-Device-Timezone")
	cur, rerr := h.resolver.Resolve(c.Request().Context(), userID, token, deviceTimezone)
	if rerr != nil {
		if errors.Is(rerr, currency.ErrSelectionRequired) {
			return models.Currency{}, false, c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "currency_selection_required",
				Message: "Select a currency before continuing.",
			})
		}
		return models.Currency{}, false, apierrors.Respond(c, rerr)
	}
	return cur, true, nil
}

// ListPlans returns the plan catalog priced in the user's currency
func (h *BillingHandler) ListPlans(c echo.Context) error {
	userID, token, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}

	cur, ok, err := h.resolveCurrency(c, userID, token)
	if !ok {
		return err
	}

	plans, err := h.catalog.FetchPlans(c.Request().Context(), token, cur.Code)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"currency": cur,
		"plans":    plans,
	})
}

// ClassifyChange classifies a prospective plan change and, for upgrades,
// attaches a proration preview when the backend can supply one
func (h *BillingHandler) ClassifyChange(c echo.Context) error {
	userID, token, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}

	var req models.ClassifyRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	if !catalog.KnownPlan(req.TargetPlanID) {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Unknown target plan.",
		})
	}

	state, err := h.subscription.State(c.Request().Context(), userID, token)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	currentPlanID := ""
	if state.Subscription != nil {
		currentPlanID = state.Subscription.PlanID
	}

	cur, ok, err := h.resolveCurrency(c, userID, token)
	if !ok {
		return err
	}

	resp, err := h.catalog.EvaluateChange(c.Request().Context(), token, currentPlanID, req.TargetPlanID, cur.Code)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// InitiatePayment starts a payment session for a plan
func (h *BillingHandler) InitiatePayment(c echo.Context) error {
	userID, token, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}

	var req models.InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	cur, ok, err := h.resolveCurrency(c, userID, token)
	if !ok {
		return err
	}

	order, err := h.payments.Initiate(c.Request().Context(), userID, token, cur, req.PlanID)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, order)
}

// RecoverPending checks the user's pending order against the backend and
// settles or clears it
func (h *BillingHandler) RecoverPending(c echo.Context) error {
	userID, token, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}

	result, err := h.payments.Recover(c.Request().Context(), userID, token)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// GetState returns the aggregated subscription read model
func (h *BillingHandler) GetState(c echo.Context) error {
	userID, token, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}

	state, err := h.subscription.State(c.Request().Context(), userID, token)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, state)
}

// RefreshState drops the cached read model and refetches it
func (h *BillingHandler) RefreshState(c echo.Context) error {
	userID, token, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.subscription.Refresh(c.Request().Context(), userID, token); err != nil {
		return apierrors.Respond(c, err)
	}

	state, err := h.subscription.State(c.Request().Context(), userID, token)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, state)
}

// CancelSubscription cancels the subscription at period end
func (h *BillingHandler) CancelSubscription(c echo.Context) error {
	userID, token, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.subscription.Cancel(c.Request().Context(), userID, token); err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Subscription will be canceled at the end of the billing period.",
	})
}

// ReactivateSubscription reverts a pending cancellation
func (h *BillingHandler) ReactivateSubscription(c echo.Context) error {
	userID, token, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.subscription.Reactivate(c.Request().Context(), userID, token); err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Subscription reactivated.",
	})
}

// SetAutoRenewal toggles auto-renewal
func (h *BillingHandler) SetAutoRenewal(c echo.Context) error {
	userID, token, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}

	var req models.AutoRenewalRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	if err := h.subscription.SetAutoRenewal(c.Request().Context(), userID, token, req.Enabled); err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// ScheduleDowngrade schedules a downgrade effective at period end.
// Downgrades are rejected when the target is not actually lower than
// the current plan.
func (h *BillingHandler) ScheduleDowngrade(c echo.Context) error {
	userID, token, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}

	var req models.ScheduleDowngradeRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	// An id outside the hierarchy table would rank as free and classify
	// as a downgrade; reject it before it reaches the backend.
	if !catalog.KnownPlan(req.TargetPlanID) {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Unknown target plan.",
		})
	}

	state, err := h.subscription.State(c.Request().Context(), userID, token)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	currentPlanID := ""
	if state.Subscription != nil {
		currentPlanID = state.Subscription.PlanID
	}

	if catalog.Classify(currentPlanID, req.TargetPlanID) != catalog.ChangeDowngrade {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Target plan is not a downgrade from the current plan.",
		})
	}

	if err := h.subscription.ScheduleDowngrade(c.Request().Context(), userID, token, req.TargetPlanID); err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Downgrade scheduled for the end of the billing period.",
	})
}
