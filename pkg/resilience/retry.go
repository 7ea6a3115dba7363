package resilience

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// RetryConfig configures retry behavior. A RetryConfig is immutable once
// handed to NewRetry.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Default: 3.
	MaxAttempts int

	// InitialDelay is the base delay before the first retry. Default: 1s.
	InitialDelay time.Duration

	// MaxDelay caps the computed delay before jitter. Default: 60s.
	MaxDelay time.Duration

	// ExponentialBase is the backoff multiplier base. Default: 2.0.
	ExponentialBase float64

	// Jitter adds up to 10% randomness to each delay to avoid thundering
	// herds. The configuration layer defaults this to true.
	Jitter bool

	// RetryIf decides whether a failure is worth retrying. Errors it
	// rejects propagate immediately without further attempts or delay.
	// Default: every non-nil error is retryable.
	RetryIf func(err error) bool
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 60 * time.Second
	}
	if c.ExponentialBase <= 0 {
		c.ExponentialBase = 2.0
	}
	if c.RetryIf == nil {
		c.RetryIf = func(err error) bool { return err != nil }
	}
	return c
}

// Retry invokes operations under a retry policy with exponential backoff.
// It holds no per-call state: one instance can be shared across calls.
type Retry struct {
	cfg    RetryConfig
	logger *log.Helper
}

// NewRetry creates a retry handler.
func NewRetry(cfg RetryConfig, logger log.Logger) *Retry {
	return &Retry{
		cfg:    cfg.withDefaults(),
		logger: log.NewHelper(logger),
	}
}

// Execute runs op, retrying retryable failures with backoff until success,
// a non-retryable failure, attempt exhaustion, or context cancellation.
// After the final attempt the last failure is returned unchanged.
func (r *Retry) Execute(ctx context.Context, op Operation) (interface{}, error) {
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if !r.cfg.RetryIf(err) {
			return nil, err
		}
		lastErr = err

		if attempt == r.cfg.MaxAttempts {
			break
		}

		delay := Backoff(attempt, r.cfg)
		r.logger.Warnw("retrying after failure",
			"attempt", attempt,
			"max_attempts", r.cfg.MaxAttempts,
			"delay", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	r.logger.Warnw("retry attempts exhausted",
		"max_attempts", r.cfg.MaxAttempts,
		"error", lastErr)

	return nil, lastErr
}
