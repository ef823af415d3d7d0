package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// ResultCache stores JSON encoded listing results under a key prefix.
type ResultCache struct {
	redis  *RedisClient
	prefix string
}

// NewResultCache creates a ResultCache writing keys under prefix.
func NewResultCache(redis *RedisClient, prefix string) *ResultCache {
	return &ResultCache{redis: redis, prefix: prefix}
}

// Get decodes the cached value for key into dest. It reports false on a miss.
func (c *ResultCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.redis.Get(ctx, c.prefix+key)
	if IsMiss(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key for ttl.
func (c *ResultCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cached %s: %w", key, err)
	}
	return c.redis.Set(ctx, c.prefix+key, string(raw), ttl)
}

// Key builds "<namespace>:<identity>:<digest>" where digest covers the
// encoded params. url.Values.Encode sorts by name, so parameter order does
// not change the key.
func Key(namespace, identity string, params url.Values) string {
	sum := sha256.Sum256([]byte(params.Encode()))
	return fmt.Sprintf("%s:%s:%s", namespace, identity, hex.EncodeToString(sum[:16]))
}
