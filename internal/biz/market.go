package biz

import (
	"context"
	"errors"
	"time"

	"TradeSentry/internal/data"
	"TradeSentry/pkg/resilience"

	"github.com/go-kratos/kratos/v2/log"
)

// MarketUsecase serves quotes through a two-level cache (in-process LRU,
// then Redis) in front of the pipeline-guarded exchange call, and records
// every fresh quote as a price tick.
type MarketUsecase struct {
	prices PriceRepo
	market MarketGateway
	guards *resilience.Registry
	local  *data.QuoteCache
	cache  data.CacheClient
	logger *log.Helper
}

// NewMarketUsecase creates the market data usecase.
func NewMarketUsecase(
	prices PriceRepo,
	market MarketGateway,
	guards *resilience.Registry,
	local *data.QuoteCache,
	cache data.CacheClient,
	logger log.Logger,
) *MarketUsecase {
	return &MarketUsecase{
		prices: prices,
		market: market,
		guards: guards,
		local:  local,
		cache:  cache,
		logger: log.NewHelper(logger),
	}
}

// GetQuote returns the current quote for a symbol.
// Lookup order: process-local LRU, Redis cache, then the exchange through
// the exchange-quotes pipeline. Fresh quotes are written back to both
// caches and persisted as a tick.
func (uc *MarketUsecase) GetQuote(ctx context.Context, symbol string) (*data.Quote, error) {
	if quote, ok := uc.local.Get(symbol); ok {
		return quote, nil
	}

	var cached data.Quote
	err := uc.cache.Get(ctx, data.QuoteCacheKey(symbol), &cached)
	if err == nil {
		uc.local.Add(symbol, &cached)
		return &cached, nil
	}
	if !errors.Is(err, data.ErrCacheNotFound) {
		uc.logger.Warnw("msg", "quote cache read failed", "symbol", symbol, "error", err)
	}

	result, err := uc.guards.Pipeline(GuardExchangeQuotes).Do(ctx, func(ctx context.Context) (interface{}, error) {
		return uc.market.GetTicker(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}

	ticker := result.(*data.TickerResponse)
	quote := &data.Quote{
		Symbol:     ticker.Symbol,
		Price:      ticker.Price,
		Volume:     ticker.Volume,
		ObservedAt: time.UnixMilli(ticker.Time).UTC(),
	}

	uc.local.Add(symbol, quote)
	if err := uc.cache.Set(ctx, data.QuoteCacheKey(symbol), quote, data.TTLQuote); err != nil {
		uc.logger.Warnw("msg", "quote cache write failed", "symbol", symbol, "error", err)
	}

	if err := uc.prices.SaveTick(ctx, &data.PriceTick{
		Symbol:     quote.Symbol,
		Price:      quote.Price,
		Volume:     quote.Volume,
		ObservedAt: quote.ObservedAt,
	}); err != nil {
		// History is best-effort; the quote itself is still good
		uc.logger.Warnw("msg", "failed to persist price tick", "symbol", symbol, "error", err)
	}

	return quote, nil
}

// History returns stored ticks for a symbol, newest first.
func (uc *MarketUsecase) History(ctx context.Context, symbol string, limit int) ([]*data.PriceTick, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return uc.prices.History(ctx, symbol, limit)
}

// CleanupStaleTicks removes ticks older than the retention window.
// Called from the hourly cron job.
func (uc *MarketUsecase) CleanupStaleTicks(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	deleted, err := uc.prices.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		uc.logger.Infow("msg", "stale price ticks removed", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}
