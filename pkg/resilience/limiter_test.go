package resilience_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"TradeSentry/pkg/resilience"
	"TradeSentry/pkg/resilience/redisstore"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *redisstore.Store {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return redisstore.New(rdb, log.DefaultLogger)
}

func TestLimiter_BurstThenDenied(t *testing.T) {
	store := newTestStore(t)
	l := resilience.NewTokenBucketLimiter("exchange-api", store, resilience.RateLimitConfig{
		Rate:  8,
		Burst: 15,
	}, log.DefaultLogger)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		require.True(t, l.Acquire(ctx, 1), "acquisition %d within burst must succeed", i+1)
	}

	assert.False(t, l.Acquire(ctx, 1), "16th immediate acquisition must be denied")

	// One token refills after 1/8 second.
	time.Sleep(150 * time.Millisecond)
	assert.True(t, l.Acquire(ctx, 1))
}

func TestLimiter_ConcurrentAcquiresNeverExceedBurst(t *testing.T) {
	store := newTestStore(t)
	// Negligible refill rate so only the initial burst is grantable.
	l := resilience.NewTokenBucketLimiter("exchange-api", store, resilience.RateLimitConfig{
		Rate:  0.001,
		Burst: 10,
	}, log.DefaultLogger)
	ctx := context.Background()

	var granted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Acquire(ctx, 1) {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), granted.Load())
}

func TestLimiter_MultiTokenAcquire(t *testing.T) {
	store := newTestStore(t)
	l := resilience.NewTokenBucketLimiter("exchange-api", store, resilience.RateLimitConfig{
		Rate:  0.001,
		Burst: 5,
	}, log.DefaultLogger)
	ctx := context.Background()

	assert.True(t, l.Acquire(ctx, 3))
	assert.False(t, l.Acquire(ctx, 3), "only 2 tokens remain")
	assert.True(t, l.Acquire(ctx, 2))
}

func TestLimiter_WaitForTokenSucceedsAfterRefill(t *testing.T) {
	store := newTestStore(t)
	l := resilience.NewTokenBucketLimiter("exchange-api", store, resilience.RateLimitConfig{
		Rate:         20,
		Burst:        1,
		PollInterval: 20 * time.Millisecond,
	}, log.DefaultLogger)
	ctx := context.Background()

	require.True(t, l.Acquire(ctx, 1))

	// Bucket is empty; a token refills within 50ms at rate 20/s.
	err := l.WaitForToken(ctx, 1, time.Second)
	assert.NoError(t, err)
}

func TestLimiter_WaitForTokenTimesOut(t *testing.T) {
	store := newTestStore(t)
	l := resilience.NewTokenBucketLimiter("exchange-api", store, resilience.RateLimitConfig{
		Rate:         0.001,
		Burst:        1,
		PollInterval: 20 * time.Millisecond,
	}, log.DefaultLogger)
	ctx := context.Background()

	require.True(t, l.Acquire(ctx, 1))

	err := l.WaitForToken(ctx, 1, 100*time.Millisecond)
	assert.ErrorIs(t, err, resilience.ErrTokenWaitTimeout)
}

func TestLimiter_FailsOpenWhenStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := redisstore.New(rdb, log.DefaultLogger)

	l := resilience.NewTokenBucketLimiter("exchange-api", store, resilience.RateLimitConfig{
		Rate:  1,
		Burst: 1,
	}, log.DefaultLogger)
	ctx := context.Background()

	// Simulate a store outage: requests must be granted, not blocked.
	mr.Close()

	assert.True(t, l.Acquire(ctx, 1))
	assert.True(t, l.Acquire(ctx, 1))
}

func TestLimiter_BucketRecreatedFullAfterIdleExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := redisstore.New(rdb, log.DefaultLogger)

	l := resilience.NewTokenBucketLimiter("exchange-api", store, resilience.RateLimitConfig{
		Rate:      0.001,
		Burst:     2,
		BucketTTL: time.Second,
	}, log.DefaultLogger)
	ctx := context.Background()

	require.True(t, l.Acquire(ctx, 2))
	require.False(t, l.Acquire(ctx, 1))

	// An idle bucket expires from the store and the next use starts full.
	mr.FastForward(2 * time.Second)

	assert.True(t, l.Acquire(ctx, 2))
}
