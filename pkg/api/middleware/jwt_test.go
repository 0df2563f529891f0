package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KanishKumar11/UNextDoor-sub005/pkg/auth"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/cache"
	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func runMiddleware(t *testing.T, authHeader string, blacklist *auth.TokenBlacklist) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JWTMiddlewareWithBlacklist(testSecret, blacklist)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))

	return rec, c
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	token, err := auth.GenerateJWT(42, "user@example.com", testSecret, 1)
	require.NoError(t, err)

	rec, c := runMiddleware(t, "Bearer "+token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 42, c.Get("user_id"))
	assert.Equal(t, "user@example.com", c.Get("user_email"))
	assert.Equal(t, token, c.Get("token"))
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	rec, _ := runMiddleware(t, "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_token")
}

func TestJWTMiddleware_MalformedHeader(t *testing.T) {
	rec, _ := runMiddleware(t, "Token abc123", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_token_format")
}

func TestJWTMiddleware_InvalidToken(t *testing.T) {
	rec, _ := runMiddleware(t, "Bearer not.a.jwt", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_token")
}

func TestJWTMiddleware_BlacklistedToken(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := cache.NewClient("redis://" + mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	blacklist := auth.NewTokenBlacklist(client)

	token, err := auth.GenerateJWT(42, "user@example.com", testSecret, 1)
	require.NoError(t, err)
	require.NoError(t, blacklist.Add(context.Background(), token, time.Hour))

	rec, _ := runMiddleware(t, "Bearer "+token, blacklist)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_token")
}
