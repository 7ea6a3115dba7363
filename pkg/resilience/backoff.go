package resilience

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff computes the delay to sleep after the attempt-th failed attempt
// (1-indexed): min(MaxDelay, InitialDelay * ExponentialBase^(attempt-1)),
// plus up to 10% uniform jitter when enabled. It is a pure function of its
// inputs apart from the jitter draw.
func Backoff(attempt int, cfg RetryConfig) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(cfg.InitialDelay) * math.Pow(cfg.ExponentialBase, float64(attempt-1))
	if max := float64(cfg.MaxDelay); delay > max {
		delay = max
	}

	if cfg.Jitter && delay > 0 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += rand.Float64() * 0.1 * delay
	}

	return time.Duration(delay)
}
