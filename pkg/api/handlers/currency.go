package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/KanishKumar11/UNextDoor-sub005/pkg/api/errors"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/currency"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CurrencyHandler handles currency resolution endpoints
type CurrencyHandler struct {
	resolver  *currency.Resolver
	validator *validator.Validate
}

// NewCurrencyHandler creates a new currency handler
func NewCurrencyHandler(resolver *currency.Resolver) *CurrencyHandler {
	return &CurrencyHandler{
		resolver:  resolver,
		validator: validator.New(),
	}
}

// Resolve returns the user's display currency. The device timezone is
// taken from the X-Device-Timezone header; when it is absent and no
// other source decides, the response asks the client to prompt for a
// manual selection.
func (h *CurrencyHandler) Resolve(c echo.Context) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error: "unauthorized",
		})
	}
	token, _ := c.Get("token").(string)

	deviceTimezone := c.Request().Header.Get("X-Device-Timezone")

	cur, err := h.resolver.Resolve(c.Request().Context(), userID, token, deviceTimezone)
	if err != nil {
		if errors.Is(err, currency.ErrSelectionRequired) {
			return c.JSON(http.StatusOK, map[string]interface{}{
				"selection_required": true,
				"supported":          currency.Supported,
			})
		}
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"selection_required": false,
		"currency":           cur,
	})
}

// Select records a manual currency choice
func (h *CurrencyHandler) Select(c echo.Context) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error: "unauthorized",
		})
	}
	token, _ := c.Get("token").(string)

	var req models.SelectCurrencyRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	cur, err := h.resolver.Select(c.Request().Context(), userID, token, req.Code)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"currency": cur,
	})
}
