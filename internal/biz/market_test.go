package biz

import (
	"context"
	"io"
	"testing"
	"time"

	"TradeSentry/internal/data"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPriceRepo is a mock implementation of PriceRepo.
type MockPriceRepo struct {
	mock.Mock
}

func (m *MockPriceRepo) SaveTick(ctx context.Context, tick *data.PriceTick) error {
	args := m.Called(ctx, tick)
	return args.Error(0)
}

func (m *MockPriceRepo) History(ctx context.Context, symbol string, limit int) ([]*data.PriceTick, error) {
	args := m.Called(ctx, symbol, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*data.PriceTick), args.Error(1)
}

func (m *MockPriceRepo) Latest(ctx context.Context, symbol string) (*data.PriceTick, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*data.PriceTick), args.Error(1)
}

func (m *MockPriceRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func newTestMarketUsecase(t *testing.T) (*MarketUsecase, *MockPriceRepo, *MockMarketGateway, *data.QuoteCache, data.CacheClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	prices := new(MockPriceRepo)
	market := new(MockMarketGateway)
	local := data.NewQuoteCache()
	cache := data.NewCacheClient(rdb)
	registry, _ := newTestGuards(t)
	uc := NewMarketUsecase(prices, market, registry, local, cache, log.NewStdLogger(io.Discard))
	return uc, prices, market, local, cache
}

func TestGetQuote_FetchesAndPopulatesCaches(t *testing.T) {
	uc, prices, market, local, cache := newTestMarketUsecase(t)
	ctx := context.Background()

	observed := time.Now().UnixMilli()
	market.On("GetTicker", mock.Anything, "BTCUSDT").Return(&data.TickerResponse{
		Symbol: "BTCUSDT", Price: 50123.45, Volume: 321.5, Time: observed,
	}, nil).Once()
	prices.On("SaveTick", mock.Anything, mock.AnythingOfType("*data.PriceTick")).Return(nil).Once()

	quote, err := uc.GetQuote(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 50123.45, quote.Price)

	// Both cache levels hold the quote now.
	cached, ok := local.Get("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, quote.Price, cached.Price)

	var fromRedis data.Quote
	require.NoError(t, cache.Get(ctx, data.QuoteCacheKey("BTCUSDT"), &fromRedis))
	assert.Equal(t, quote.Price, fromRedis.Price)

	market.AssertExpectations(t)
	prices.AssertExpectations(t)
}

func TestGetQuote_LocalCacheHitSkipsEverything(t *testing.T) {
	uc, prices, market, local, _ := newTestMarketUsecase(t)
	ctx := context.Background()

	local.Add("ETHUSDT", &data.Quote{Symbol: "ETHUSDT", Price: 3000})

	quote, err := uc.GetQuote(ctx, "ETHUSDT")
	require.NoError(t, err)
	assert.Equal(t, 3000.0, quote.Price)

	market.AssertNotCalled(t, "GetTicker")
	prices.AssertNotCalled(t, "SaveTick")
}

func TestGetQuote_RedisHitPopulatesLocal(t *testing.T) {
	uc, prices, market, local, cache := newTestMarketUsecase(t)
	ctx := context.Background()

	stored := &data.Quote{Symbol: "SOLUSDT", Price: 150.25, ObservedAt: time.Now().UTC()}
	require.NoError(t, cache.Set(ctx, data.QuoteCacheKey("SOLUSDT"), stored, data.TTLQuote))

	quote, err := uc.GetQuote(ctx, "SOLUSDT")
	require.NoError(t, err)
	assert.Equal(t, 150.25, quote.Price)

	_, ok := local.Get("SOLUSDT")
	assert.True(t, ok)
	market.AssertNotCalled(t, "GetTicker")
	prices.AssertNotCalled(t, "SaveTick")
}

func TestGetQuote_ExchangeFailurePropagates(t *testing.T) {
	uc, _, market, _, _ := newTestMarketUsecase(t)
	ctx := context.Background()

	apiErr := &data.MarketAPIError{Status: 404, Code: -1121, Message: "unknown symbol"}
	market.On("GetTicker", mock.Anything, "NOPEUSDT").Return(nil, apiErr).Once()

	_, err := uc.GetQuote(ctx, "NOPEUSDT")
	require.Error(t, err)
	var got *data.MarketAPIError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 404, got.Status)
	// Client fault, so no retry happened.
	market.AssertNumberOfCalls(t, "GetTicker", 1)
}

func TestGetQuote_TickPersistenceBestEffort(t *testing.T) {
	uc, prices, market, _, _ := newTestMarketUsecase(t)
	ctx := context.Background()

	market.On("GetTicker", mock.Anything, "BTCUSDT").Return(&data.TickerResponse{
		Symbol: "BTCUSDT", Price: 50000, Time: time.Now().UnixMilli(),
	}, nil).Once()
	prices.On("SaveTick", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	quote, err := uc.GetQuote(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 50000.0, quote.Price)
}

func TestHistory_LimitDefaults(t *testing.T) {
	uc, prices, _, _, _ := newTestMarketUsecase(t)
	ctx := context.Background()

	prices.On("History", mock.Anything, "BTCUSDT", 100).Return([]*data.PriceTick{}, nil).Twice()
	_, err := uc.History(ctx, "BTCUSDT", 0)
	require.NoError(t, err)
	_, err = uc.History(ctx, "BTCUSDT", 5000)
	require.NoError(t, err)
	prices.AssertExpectations(t)
}

func TestCleanupStaleTicks(t *testing.T) {
	uc, prices, _, _, _ := newTestMarketUsecase(t)
	ctx := context.Background()

	prices.On("DeleteOlderThan", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(12), nil).Once()
	deleted, err := uc.CleanupStaleTicks(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(12), deleted)
}
