// Package data provides data access layer implementations.
package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache key prefixes
const (
	// CacheKeyQuote is the prefix for quote caches: quote:{symbol}
	CacheKeyQuote = "quote"
	// CacheKeyAccount is the prefix for exchange account caches: account:{id}
	CacheKeyAccount = "account"
	// CacheKeyAlerts is the prefix for active alert list caches: alerts:{symbol}
	CacheKeyAlerts = "alerts"
)

// Cache TTL durations
const (
	// TTLQuote keeps quotes fresh enough for display while shielding the
	// exchange API from repeated identical lookups
	TTLQuote = 5 * time.Second
	// TTLAccount is the TTL for exchange account caches
	TTLAccount = 5 * time.Minute
	// TTLAlerts is the TTL for active alert list caches
	TTLAlerts = 1 * time.Minute
)

// ErrCacheNotFound is returned when a cache key does not exist
var ErrCacheNotFound = errors.New("cache: key not found")

// CacheClient defines the interface for cache operations.
// Implementations must be thread-safe and handle serialization/deserialization.
type CacheClient interface {
	// Get retrieves a value from cache and deserializes it into dest.
	// Returns ErrCacheNotFound if key doesn't exist.
	Get(ctx context.Context, key string, dest interface{}) error

	// Set stores a value in cache with the specified TTL.
	// The value is serialized to JSON before storage.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes a key from cache.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists in cache.
	Exists(ctx context.Context, key string) (bool, error)
}

// QuoteCacheKey builds a cache key for a symbol quote.
func QuoteCacheKey(symbol string) string {
	return fmt.Sprintf("%s:%s", CacheKeyQuote, symbol)
}

// AccountCacheKey builds a cache key for an exchange account.
func AccountCacheKey(id int64) string {
	return fmt.Sprintf("%s:%d", CacheKeyAccount, id)
}

// AlertsCacheKey builds a cache key for the active alerts of a symbol.
func AlertsCacheKey(symbol string) string {
	return fmt.Sprintf("%s:%s", CacheKeyAlerts, symbol)
}

// redisCache is the Redis-based implementation of CacheClient.
type redisCache struct {
	client *redis.Client
}

// NewCacheClient creates a new Redis-based cache client.
// If the Redis client is nil, cache operations will gracefully fail.
func NewCacheClient(rdb *redis.Client) CacheClient {
	return &redisCache{
		client: rdb,
	}
}

// Get retrieves a value from cache and deserializes it into dest.
// Returns ErrCacheNotFound if the key doesn't exist (redis.Nil).
func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return errors.New("cache: redis client is nil")
	}

	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache: failed to get key %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("cache: failed to unmarshal value for key %s: %w", key, err)
	}

	return nil
}

// Set stores a value in cache with the specified TTL.
func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return errors.New("cache: redis client is nil")
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: failed to marshal value for key %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache: failed to set key %s: %w", key, err)
	}

	return nil
}

// Delete removes a key from cache.
func (c *redisCache) Delete(ctx context.Context, key string) error {
	if c.client == nil {
		return errors.New("cache: redis client is nil")
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache: failed to delete key %s: %w", key, err)
	}

	return nil
}

// Exists checks if a key exists in cache.
func (c *redisCache) Exists(ctx context.Context, key string) (bool, error) {
	if c.client == nil {
		return false, errors.New("cache: redis client is nil")
	}

	count, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("cache: failed to check key %s: %w", key, err)
	}

	return count > 0, nil
}
