package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/KanishKumar11/UNextDoor-sub005/config"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/auth"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/models"
	"github.com/labstack/echo/v4"
)

// AuthHandler handles session endpoints. Tokens are issued by the main
// application backend; this service only validates and revokes them.
type AuthHandler struct {
	blacklist *auth.TokenBlacklist
	config    *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(blacklist *auth.TokenBlacklist, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		blacklist: blacklist,
		config:    cfg,
	}
}

// Logout revokes the current token
func (h *AuthHandler) Logout(c echo.Context) error {
	token, ok := c.Get("token").(string)
	if !ok || token == "" {
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "missing_token",
			Message: "No token found in request",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Blacklist TTL matches the token lifetime so entries expire on their own
	expiration := time.Duration(h.config.JWTExpirationHours) * time.Hour
	if err := h.blacklist.Add(ctx, token, expiration); err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "logout_error",
			Message: "Failed to revoke token",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Successfully logged out",
	})
}
