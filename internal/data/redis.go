// Package data provides data access layer implementations.
package data

import (
	"context"
	"time"

	"TradeSentry/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates a new Redis client with connection pool configuration.
// It returns the client, a cleanup function, and an error.
// Connection failure does not prevent application startup (graceful degradation);
// the resilience layer fails open when its store is unreachable.
func NewRedisClient(c *conf.Data, logger log.Logger) (*redis.Client, func(), error) {
	helper := log.NewHelper(logger)

	if c == nil || c.Redis == nil {
		helper.Warn("Redis configuration is nil, skipping Redis initialization")
		return nil, func() {}, nil
	}

	addr := c.Redis.Addr
	if addr == "" {
		helper.Warn("Redis address is empty, skipping Redis initialization")
		return nil, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:            addr,
		Password:        "", // No password for local development
		DB:              0,
		PoolSize:        100,
		MinIdleConns:    10,
		DialTimeout:     3 * time.Second,
		ReadTimeout:     c.Redis.ReadTimeout.AsDuration(),
		WriteTimeout:    c.Redis.WriteTimeout.AsDuration(),
		ConnMaxIdleTime: 5 * time.Minute,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		// go-redis dials lazily, so the client stays usable once the
		// server comes back.
		helper.Warnf("Failed to connect to Redis at %s: %v (application will continue without Redis)", addr, err)
		return rdb, func() {
			helper.Info("Closing Redis client (connection was unavailable)")
			_ = rdb.Close()
		}, nil
	}

	helper.Infof("Successfully connected to Redis at %s", addr)

	cleanup := func() {
		helper.Info("Closing Redis client")
		if err := rdb.Close(); err != nil {
			helper.Errorf("Failed to close Redis client: %v", err)
		}
	}

	return rdb, cleanup, nil
}
