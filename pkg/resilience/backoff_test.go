package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_ExponentialGrowth(t *testing.T) {
	cfg := RetryConfig{
		InitialDelay:    time.Second,
		MaxDelay:        60 * time.Second,
		ExponentialBase: 2.0,
		Jitter:          false,
	}

	assert.Equal(t, time.Second, Backoff(1, cfg))
	assert.Equal(t, 2*time.Second, Backoff(2, cfg))
	assert.Equal(t, 4*time.Second, Backoff(3, cfg))
	assert.Equal(t, 8*time.Second, Backoff(4, cfg))
}

func TestBackoff_CappedAtMaxDelay(t *testing.T) {
	cfg := RetryConfig{
		InitialDelay:    time.Second,
		MaxDelay:        5 * time.Second,
		ExponentialBase: 2.0,
		Jitter:          false,
	}

	assert.Equal(t, 5*time.Second, Backoff(10, cfg))
}

func TestBackoff_JitterStaysWithinTenPercent(t *testing.T) {
	cfg := RetryConfig{
		InitialDelay:    time.Second,
		MaxDelay:        60 * time.Second,
		ExponentialBase: 2.0,
		Jitter:          true,
	}

	for i := 0; i < 100; i++ {
		d := Backoff(2, cfg)
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.Less(t, d, 2200*time.Millisecond)
	}
}

func TestBackoff_InvalidAttemptTreatedAsFirst(t *testing.T) {
	cfg := RetryConfig{
		InitialDelay:    time.Second,
		MaxDelay:        60 * time.Second,
		ExponentialBase: 2.0,
		Jitter:          false,
	}

	assert.Equal(t, Backoff(1, cfg), Backoff(0, cfg))
	assert.Equal(t, Backoff(1, cfg), Backoff(-3, cfg))
}
