package data

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (CacheClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheClient(client), mr
}

func TestCacheClient_SetGetRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	quote := &Quote{Symbol: "BTCUSDT", Price: 63250.5, Volume: 1200, ObservedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, cache.Set(ctx, QuoteCacheKey("BTCUSDT"), quote, TTLQuote))

	var got Quote
	require.NoError(t, cache.Get(ctx, QuoteCacheKey("BTCUSDT"), &got))
	assert.Equal(t, quote.Symbol, got.Symbol)
	assert.Equal(t, quote.Price, got.Price)
}

func TestCacheClient_GetMissing(t *testing.T) {
	cache, _ := newTestCache(t)

	var got Quote
	err := cache.Get(context.Background(), QuoteCacheKey("ETHUSDT"), &got)
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestCacheClient_TTLExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, QuoteCacheKey("BTCUSDT"), &Quote{Symbol: "BTCUSDT"}, TTLQuote))

	mr.FastForward(TTLQuote + time.Second)

	var got Quote
	assert.ErrorIs(t, cache.Get(ctx, QuoteCacheKey("BTCUSDT"), &got), ErrCacheNotFound)
}

func TestCacheClient_DeleteAndExists(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	key := AccountCacheKey(7)
	require.NoError(t, cache.Set(ctx, key, map[string]string{"name": "main"}, TTLAccount))

	exists, err := cache.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, cache.Delete(ctx, key))

	exists, err = cache.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCacheClient_NilClient(t *testing.T) {
	cache := NewCacheClient(nil)
	ctx := context.Background()

	var got Quote
	assert.Error(t, cache.Get(ctx, "k", &got))
	assert.Error(t, cache.Set(ctx, "k", &got, time.Second))
	assert.Error(t, cache.Delete(ctx, "k"))
	_, err := cache.Exists(ctx, "k")
	assert.Error(t, err)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "quote:BTCUSDT", QuoteCacheKey("BTCUSDT"))
	assert.Equal(t, "account:42", AccountCacheKey(42))
	assert.Equal(t, "alerts:ETHUSDT", AlertsCacheKey("ETHUSDT"))
}
