package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

const (
	// identityPrefix namespaces API-key identity entries.
	identityPrefix = "auth:key:"
	// identityTTL bounds staleness for entries that were never explicitly
	// invalidated. Key rotation deletes the entry directly, so the old key
	// stops resolving immediately rather than after the TTL.
	identityTTL = 5 * time.Minute
)

// identityCacheKey hashes the API key so the plaintext secret never lands
// in Redis.
func identityCacheKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return identityPrefix + hex.EncodeToString(sum[:])
}

// GetIdentity returns the cached user ID for an API key, or "" on a miss.
// Cache errors are treated as misses.
func (c *Cache) GetIdentity(ctx context.Context, apiKey string) (string, error) {
	userID, err := c.client.Get(ctx, identityCacheKey(apiKey)).Result()
	if err != nil {
		return "", nil //nolint:nilerr
	}
	return userID, nil
}

// SetIdentity caches the user ID resolved for an API key.
func (c *Cache) SetIdentity(ctx context.Context, apiKey, userID string) error {
	return c.client.Set(ctx, identityCacheKey(apiKey), userID, identityTTL).Err()
}

// DeleteIdentity drops the cache entry for an API key. Called when the key
// is rotated so the replaced value cannot authenticate from cache.
func (c *Cache) DeleteIdentity(ctx context.Context, apiKey string) error {
	return c.client.Del(ctx, identityCacheKey(apiKey)).Err()
}
