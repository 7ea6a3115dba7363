// Package redisstore implements the resilience coordination store on Redis.
// All shared mutations go through single-key atomic primitives (SET NX,
// server-side Lua scripts), which is all the data model needs: there are no
// cross-key invariants.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"TradeSentry/pkg/resilience"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

// Store adapts a go-redis client to the resilience.Store interface.
type Store struct {
	rdb    *redis.Client
	logger *log.Helper

	// scripts caches compiled scripts by name so the body is transmitted
	// once and subsequent calls run by SHA. go-redis re-sends the body
	// automatically when Redis answers NOSCRIPT after a restart.
	scripts sync.Map // string -> *redis.Script
}

// New creates a Redis-backed coordination store.
func New(rdb *redis.Client, logger log.Logger) *Store {
	return &Store{
		rdb:    rdb,
		logger: log.NewHelper(logger),
	}
}

// Get retrieves the string value for key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if s.rdb == nil {
		return "", false, errors.New("redisstore: redis client is nil")
	}

	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redisstore: failed to get key %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key with the given TTL.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if s.rdb == nil {
		return errors.New("redisstore: redis client is nil")
	}

	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: failed to set key %s: %w", key, err)
	}
	return nil
}

// SetIfAbsent stores value only when key does not exist (SET NX).
func (s *Store) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if s.rdb == nil {
		return false, errors.New("redisstore: redis client is nil")
	}

	ok, err := s.rdb.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: failed to setnx key %s: %w", key, err)
	}
	return ok, nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s.rdb == nil {
		return errors.New("redisstore: redis client is nil")
	}

	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redisstore: failed to delete key %s: %w", key, err)
	}
	return nil
}

// Eval runs script atomically on the server. The first run for each script
// name loads the body; later runs go by SHA (EVALSHA) with a one-shot
// reload when the script cache was flushed.
func (s *Store) Eval(ctx context.Context, script resilience.Script, keys []string, args ...interface{}) (interface{}, error) {
	if s.rdb == nil {
		return nil, errors.New("redisstore: redis client is nil")
	}

	compiled := s.compiled(script)
	res, err := compiled.Run(ctx, s.rdb, keys, args...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redisstore: script %s failed: %w", script.Name, err)
	}
	return res, nil
}

func (s *Store) compiled(script resilience.Script) *redis.Script {
	if cached, ok := s.scripts.Load(script.Name); ok {
		return cached.(*redis.Script)
	}

	compiled := redis.NewScript(script.Body)
	actual, _ := s.scripts.LoadOrStore(script.Name, compiled)
	return actual.(*redis.Script)
}
