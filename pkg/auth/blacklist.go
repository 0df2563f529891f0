package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/KanishKumar11/UNextDoor-sub005/pkg/domain"
)

// TokenBlacklist manages revoked JWT tokens
type TokenBlacklist struct {
	cache domain.CacheRepository
}

// NewTokenBlacklist creates a new token blacklist
func NewTokenBlacklist(cache domain.CacheRepository) *TokenBlacklist {
	return &TokenBlacklist{
		cache: cache,
	}
}

// Add adds a token to the blacklist with expiration.
// Tokens are hashed before storage so raw tokens never land in Redis.
func (b *TokenBlacklist) Add(ctx context.Context, token string, expiration time.Duration) error {
	key := fmt.Sprintf("jwt:blacklist:%s", b.hashToken(token))
	return b.cache.Set(ctx, key, "revoked", expiration)
}

// IsBlacklisted checks if a token is blacklisted
func (b *TokenBlacklist) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	key := fmt.Sprintf("jwt:blacklist:%s", b.hashToken(token))
	return b.cache.Exists(ctx, key)
}

func (b *TokenBlacklist) hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
