package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteCache_AddGet(t *testing.T) {
	cache := NewQuoteCache()

	quote := &Quote{Symbol: "BTCUSDT", Price: 63250.5, ObservedAt: time.Now()}
	cache.Add("BTCUSDT", quote)

	got, ok := cache.Get("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, quote, got)
	assert.Equal(t, 1, cache.Len())
}

func TestQuoteCache_Miss(t *testing.T) {
	cache := NewQuoteCache()

	_, ok := cache.Get("ETHUSDT")
	assert.False(t, ok)
}

func TestQuoteCache_Remove(t *testing.T) {
	cache := NewQuoteCache()
	cache.Add("BTCUSDT", &Quote{Symbol: "BTCUSDT", Price: 63250.5})

	cache.Remove("BTCUSDT")

	_, ok := cache.Get("BTCUSDT")
	assert.False(t, ok)
	assert.Zero(t, cache.Len())
}

func TestQuoteCache_OverwriteKeepsLatest(t *testing.T) {
	cache := NewQuoteCache()
	cache.Add("BTCUSDT", &Quote{Symbol: "BTCUSDT", Price: 63250.5})
	cache.Add("BTCUSDT", &Quote{Symbol: "BTCUSDT", Price: 63300.0})

	got, ok := cache.Get("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, 63300.0, got.Price)
	assert.Equal(t, 1, cache.Len())
}
