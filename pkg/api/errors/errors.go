package errors

import (
	"log"
	"net/http"

	"github.com/KanishKumar11/UNextDoor-sub005/pkg/domain"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/models"
	"github.com/labstack/echo/v4"
)

// kindStatus maps domain error kinds to HTTP statuses. The kind set is
// closed, so every branch is listed here; anything unclassified falls
// through to 500.
var kindStatus = map[string]int{
	domain.ErrKindNetwork:        http.StatusBadGateway,
	domain.ErrKindNotFound:       http.StatusNotFound,
	domain.ErrKindServerDisabled: http.StatusServiceUnavailable,
	domain.ErrKindValidation:     http.StatusBadRequest,
	domain.ErrKindUnauthorized:   http.StatusUnauthorized,
	domain.ErrKindConflict:       http.StatusConflict,
	domain.ErrKindUnknown:        http.StatusInternalServerError,
}

// kindCode maps domain error kinds to wire error codes
var kindCode = map[string]string{
	domain.ErrKindNetwork:        "network_error",
	domain.ErrKindNotFound:       "not_found",
	domain.ErrKindServerDisabled: "server_disabled",
	domain.ErrKindValidation:     "validation_error",
	domain.ErrKindUnauthorized:   "unauthorized",
	domain.ErrKindConflict:       "conflict",
	domain.ErrKindUnknown:        "internal_error",
}

// Respond translates a domain error into an HTTP response
func Respond(c echo.Context, err error) error {
	kind := domain.Kind(err)

	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	code, ok := kindCode[kind]
	if !ok {
		code = "internal_error"
	}

	if status >= http.StatusInternalServerError {
		log.Printf("[API ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)
	}

	return c.JSON(status, models.ErrorResponse{
		Error:   code,
		Message: domain.UserMessage(err),
	})
}

// ValidationError returns a generic validation error without exposing internal details
func ValidationError(c echo.Context, err error) error {
	log.Printf("[VALIDATION ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid request data. Please check your input and try again.",
	})
}
