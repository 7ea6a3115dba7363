package data

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Quote is the cached view of a symbol's current price.
type Quote struct {
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	Volume     float64   `json:"volume"`
	ObservedAt time.Time `json:"observed_at"`
}

// quoteCacheSize bounds the in-process cache; trading sessions rarely touch
// more than a few hundred symbols.
const quoteCacheSize = 512

// QuoteCache is a small in-process LRU in front of the Redis quote cache.
// Entries expire after TTLQuote so a process-local hit can never be staler
// than a Redis hit.
type QuoteCache struct {
	lru *expirable.LRU[string, *Quote]
}

// NewQuoteCache creates the in-process quote cache.
func NewQuoteCache() *QuoteCache {
	return &QuoteCache{
		lru: expirable.NewLRU[string, *Quote](quoteCacheSize, nil, TTLQuote),
	}
}

// Get returns the cached quote for a symbol, if present and fresh.
func (c *QuoteCache) Get(symbol string) (*Quote, bool) {
	return c.lru.Get(symbol)
}

// Add stores a quote.
func (c *QuoteCache) Add(symbol string, quote *Quote) {
	c.lru.Add(symbol, quote)
}

// Remove evicts a symbol, used when a fresher tick invalidates the entry.
func (c *QuoteCache) Remove(symbol string) {
	c.lru.Remove(symbol)
}

// Len returns the number of cached symbols.
func (c *QuoteCache) Len() int {
	return c.lru.Len()
}
