package auth

import (
	"context"
	"testing"
	"time"

	"github.com/KanishKumar11/UNextDoor-sub005/pkg/cache"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndValidateJWT(t *testing.T) {
	token, err := GenerateJWT(42, "user@example.com", testSecret, 24)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT(42, "user@example.com", testSecret, 24)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestValidateJWT_Garbage(t *testing.T) {
	_, err := ValidateJWT("not.a.token", testSecret)
	assert.Error(t, err)
}

func TestValidateJWTWithBlacklist(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := cache.NewClient("redis://" + mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	blacklist := NewTokenBlacklist(client)
	ctx := context.Background()

	token, err := GenerateJWT(42, "user@example.com", testSecret, 24)
	require.NoError(t, err)

	// Valid before revocation
	claims, err := ValidateJWTWithBlacklist(ctx, token, testSecret, blacklist)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)

	// Revoked after blacklisting
	require.NoError(t, blacklist.Add(ctx, token, time.Hour))
	_, err = ValidateJWTWithBlacklist(ctx, token, testSecret, blacklist)
	assert.ErrorContains(t, err, "revoked")
}

func TestValidateJWTWithBlacklist_NilBlacklist(t *testing.T) {
	token, err := GenerateJWT(1, "a@b.c", testSecret, 24)
	require.NoError(t, err)

	claims, err := ValidateJWTWithBlacklist(context.Background(), token, testSecret, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, claims.UserID)
}
