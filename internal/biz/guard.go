package biz

import (
	"errors"

	"TradeSentry/internal/conf"
	"TradeSentry/internal/data"
	"TradeSentry/pkg/resilience"
	"TradeSentry/pkg/resilience/redisstore"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

// Guard names for the two protected exchange dependencies. Every pipeline
// fetched from the registry shares limiter and breaker per name.
const (
	GuardExchangeOrders = "exchange-orders"
	GuardExchangeQuotes = "exchange-quotes"
)

// NewGuardStore creates the Redis-backed coordination store shared by the
// rate limiter and the idempotency coordinator.
func NewGuardStore(rdb *redis.Client, logger log.Logger) resilience.Store {
	return redisstore.New(rdb, logger)
}

// pipelineConfig translates the guard configuration into resilience configs.
func pipelineConfig(c *conf.Guard) resilience.PipelineConfig {
	cfg := resilience.PipelineConfig{}
	if c == nil {
		return cfg
	}

	if b := c.Breaker; b != nil {
		cfg.Breaker = resilience.BreakerConfig{
			FailureThreshold:         int(b.FailureThreshold),
			RecoveryTimeout:          b.RecoveryTimeout.AsDuration(),
			HalfOpenSuccessThreshold: int(b.HalfOpenSuccessThreshold),
			IsFailure:                isExchangeFailure,
		}
	}
	if r := c.Retry; r != nil {
		cfg.Retry = resilience.RetryConfig{
			MaxAttempts:     int(r.MaxAttempts),
			InitialDelay:    r.InitialDelay.AsDuration(),
			MaxDelay:        r.MaxDelay.AsDuration(),
			ExponentialBase: r.ExponentialBase,
			Jitter:          r.Jitter,
			RetryIf:         isExchangeFailure,
		}
	}
	if rl := c.RateLimit; rl != nil {
		cfg.RateLimit = resilience.RateLimitConfig{
			Rate:      rl.Rate,
			Burst:     int(rl.Burst),
			BucketTTL: rl.BucketTtl.AsDuration(),
		}
	}
	if c.MaxTokenWait != nil {
		cfg.MaxTokenWait = c.MaxTokenWait.AsDuration()
	}

	return cfg
}

// isExchangeFailure classifies errors for both the breaker and the retry
// handler: exchange outages and rate limiting count, request faults (4xx
// other than 429) do not.
func isExchangeFailure(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *data.MarketAPIError
	if errors.As(err, &apiErr) {
		return !apiErr.IsClientFault()
	}
	// Network errors, timeouts, decode failures: all count
	return true
}

// NewGuardRegistry creates the shared pipeline registry from configuration.
func NewGuardRegistry(c *conf.Guard, store resilience.Store, metrics *data.GuardMetrics, logger log.Logger) *resilience.Registry {
	return resilience.NewRegistry(store, metrics, pipelineConfig(c), logger)
}

// NewIdempotencyCoordinator creates the idempotency coordinator from
// configuration.
func NewIdempotencyCoordinator(c *conf.Guard, store resilience.Store, logger log.Logger) *resilience.Coordinator {
	cfg := resilience.IdempotencyConfig{}
	if c != nil && c.Idempotency != nil {
		cfg.ResultTTL = c.Idempotency.ResultTtl.AsDuration()
		cfg.LockTTL = c.Idempotency.LockTtl.AsDuration()
		cfg.InProgressWait = c.Idempotency.InProgressWait.AsDuration()
	}
	return resilience.NewCoordinator(store, cfg, logger)
}
