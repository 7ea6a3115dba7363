package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("connection reset")

func newTestRetry(cfg RetryConfig) *Retry {
	return NewRetry(cfg, log.DefaultLogger)
}

func TestRetry_SucceedsOnThirdAttempt(t *testing.T) {
	r := newTestRetry(RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    20 * time.Millisecond,
		MaxDelay:        time.Second,
		ExponentialBase: 2.0,
		Jitter:          false,
	})

	attempts := 0
	var attemptTimes []time.Time
	result, err := r.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		attempts++
		attemptTimes = append(attemptTimes, time.Now())
		if attempts < 3 {
			return nil, errTransient
		}
		return "filled", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "filled", result)
	require.Equal(t, 3, attempts)

	// Two sleeps, the second at least as long as the first.
	firstGap := attemptTimes[1].Sub(attemptTimes[0])
	secondGap := attemptTimes[2].Sub(attemptTimes[1])
	assert.GreaterOrEqual(t, firstGap, 20*time.Millisecond)
	assert.GreaterOrEqual(t, secondGap, firstGap)
}

func TestRetry_ExhaustionReturnsLastError(t *testing.T) {
	r := newTestRetry(RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    time.Millisecond,
		ExponentialBase: 2.0,
	})

	attempts := 0
	_, err := r.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		attempts++
		return nil, errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, attempts)
}

func TestRetry_NonRetryablePropagatesImmediately(t *testing.T) {
	errBadRequest := errors.New("insufficient funds")
	r := newTestRetry(RetryConfig{
		MaxAttempts:     5,
		InitialDelay:    time.Second,
		ExponentialBase: 2.0,
		RetryIf: func(err error) bool {
			return !errors.Is(err, errBadRequest)
		},
	})

	attempts := 0
	start := time.Now()
	_, err := r.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		attempts++
		return nil, errBadRequest
	})

	assert.ErrorIs(t, err, errBadRequest)
	assert.Equal(t, 1, attempts)
	// No backoff sleep happened.
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	r := newTestRetry(RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    time.Second,
		ExponentialBase: 2.0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	attempts := 0
	_, err := r.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		attempts++
		return nil, errTransient
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, attempts)
}

func TestRetry_FirstAttemptSuccessSkipsBackoff(t *testing.T) {
	r := newTestRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Second})

	start := time.Now()
	result, err := r.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
