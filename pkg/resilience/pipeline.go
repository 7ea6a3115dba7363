package resilience

import (
	"context"
	"time"
)

// PipelineConfig bundles the per-dependency component configs plus the
// maximum time Do waits for rate-limit budget before giving up.
type PipelineConfig struct {
	Breaker   BreakerConfig
	Retry     RetryConfig
	RateLimit RateLimitConfig

	// MaxTokenWait bounds the rate-limit wait inside Do. Default: 5s.
	MaxTokenWait time.Duration
}

// Pipeline composes the protection layers around a call in their canonical
// order: rate limiter, then circuit breaker, then retry handler, then the
// operation itself. It is constructed explicitly at call sites (or fetched
// from a Registry) rather than hiding behind decorators.
type Pipeline struct {
	name         string
	limiter      *TokenBucketLimiter
	breaker      *CircuitBreaker
	retry        *Retry
	maxTokenWait time.Duration
}

// NewPipeline assembles a pipeline from its components. Any of limiter,
// breaker or retry may be nil to skip that layer.
func NewPipeline(name string, limiter *TokenBucketLimiter, breaker *CircuitBreaker, retry *Retry, maxTokenWait time.Duration) *Pipeline {
	if maxTokenWait <= 0 {
		maxTokenWait = 5 * time.Second
	}
	return &Pipeline{
		name:         name,
		limiter:      limiter,
		breaker:      breaker,
		retry:        retry,
		maxTokenWait: maxTokenWait,
	}
}

// Name returns the protected dependency name.
func (p *Pipeline) Name() string { return p.name }

// Breaker exposes the pipeline's circuit breaker for introspection and
// explicit reset. May be nil.
func (p *Pipeline) Breaker() *CircuitBreaker { return p.breaker }

// Limiter exposes the pipeline's rate limiter. May be nil.
func (p *Pipeline) Limiter() *TokenBucketLimiter { return p.limiter }

// Do runs op through the full protection chain.
func (p *Pipeline) Do(ctx context.Context, op Operation) (interface{}, error) {
	if p.limiter != nil {
		if err := p.limiter.WaitForToken(ctx, 1, p.maxTokenWait); err != nil {
			return nil, err
		}
	}

	inner := op
	if p.retry != nil {
		retried := inner
		inner = func(ctx context.Context) (interface{}, error) {
			return p.retry.Execute(ctx, retried)
		}
	}

	if p.breaker != nil {
		return p.breaker.Call(ctx, inner)
	}
	return inner(ctx)
}
