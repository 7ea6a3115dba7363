package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// BreakerState represents the circuit breaker state machine position.
type BreakerState int32

const (
	// StateClosed means calls flow through normally.
	StateClosed BreakerState = iota
	// StateOpen means calls fail fast without invoking the operation.
	StateOpen
	// StateHalfOpen means a limited probe is testing whether the dependency
	// has recovered.
	StateHalfOpen
)

// String returns the lowercase state name used in logs and metrics.
func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a CircuitBreaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive counted failures in
	// CLOSED state that trips the circuit. Default: 5.
	FailureThreshold int

	// RecoveryTimeout is how long the circuit stays OPEN before admitting a
	// probe. Default: 60s.
	RecoveryTimeout time.Duration

	// HalfOpenSuccessThreshold is the number of consecutive probe successes
	// required to close the circuit again. Default: 3.
	HalfOpenSuccessThreshold int

	// IsFailure decides whether an error counts toward the failure
	// threshold. Errors it rejects propagate to the caller without touching
	// breaker state (logic errors are not availability failures).
	// Default: every non-nil error counts.
	IsFailure func(err error) bool
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.RecoveryTimeout <= 0 {
		c.RecoveryTimeout = 60 * time.Second
	}
	if c.HalfOpenSuccessThreshold <= 0 {
		c.HalfOpenSuccessThreshold = 3
	}
	if c.IsFailure == nil {
		c.IsFailure = func(err error) bool { return err != nil }
	}
	return c
}

// CircuitBreaker wraps an operation with a failure-count-driven state
// machine. State is process-local and guarded by a mutex; one breaker
// instance is created per protected dependency and lives for the process
// lifetime.
//
// HALF_OPEN admits exactly one probe at a time; other concurrent callers
// fail fast with ErrCircuitOpen until the probe completes.
type CircuitBreaker struct {
	name    string
	cfg     BreakerConfig
	metrics MetricsSink
	logger  *log.Helper

	mu              sync.Mutex
	state           BreakerState
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	probeInFlight   bool
}

// NewCircuitBreaker creates a circuit breaker for the named dependency.
func NewCircuitBreaker(name string, cfg BreakerConfig, metrics MetricsSink, logger log.Logger) *CircuitBreaker {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &CircuitBreaker{
		name:    name,
		cfg:     cfg.withDefaults(),
		metrics: metrics,
		logger:  log.NewHelper(logger),
		state:   StateClosed,
	}
}

// Name returns the dependency name this breaker protects.
func (b *CircuitBreaker) Name() string { return b.name }

// Call executes op under failure protection. When the circuit is OPEN and
// the recovery window has not elapsed, it returns ErrCircuitOpen without
// invoking op.
func (b *CircuitBreaker) Call(ctx context.Context, op Operation) (interface{}, error) {
	if err := b.beforeCall(); err != nil {
		return nil, err
	}

	result, err := op(ctx)
	b.afterCall(err)
	return result, err
}

// State returns the current state. The OPEN to HALF_OPEN transition only
// happens on Call, so an idle breaker reports OPEN until the next caller
// arrives after the recovery window.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Counts returns the current failure and success counters for
// introspection endpoints.
func (b *CircuitBreaker) Counts() (failures, successes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount, b.successCount
}

// Reset forces the breaker back to CLOSED with all counters cleared.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	old := b.state
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
	b.probeInFlight = false

	if old != StateClosed {
		b.metrics.RecordStateChange(b.name, old, StateClosed)
		b.logger.Infow("circuit breaker reset",
			"breaker", b.name,
			"old_state", old.String())
	}
}

func (b *CircuitBreaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil

	case StateOpen:
		if time.Since(b.lastFailureTime) < b.cfg.RecoveryTimeout {
			return ErrCircuitOpen
		}
		// Recovery window elapsed: this caller becomes the probe.
		b.transitionLocked(StateHalfOpen)
		b.successCount = 0
		b.probeInFlight = true
		return nil

	case StateHalfOpen:
		if b.probeInFlight {
			return ErrCircuitOpen
		}
		b.probeInFlight = true
		return nil

	default:
		return nil
	}
}

func (b *CircuitBreaker) afterCall(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	counted := err != nil && b.cfg.IsFailure(err)

	switch b.state {
	case StateClosed:
		if err == nil {
			b.failureCount = 0
			return
		}
		if !counted {
			return
		}
		b.failureCount++
		b.lastFailureTime = time.Now()
		b.metrics.RecordFailure(b.name)
		if b.failureCount >= b.cfg.FailureThreshold {
			b.transitionLocked(StateOpen)
			b.metrics.RecordOpenEvent(b.name)
		}

	case StateHalfOpen:
		b.probeInFlight = false
		if err == nil {
			b.successCount++
			if b.successCount >= b.cfg.HalfOpenSuccessThreshold {
				b.transitionLocked(StateClosed)
				b.failureCount = 0
				b.successCount = 0
			}
			return
		}
		if !counted {
			return
		}
		b.lastFailureTime = time.Now()
		b.successCount = 0
		b.metrics.RecordFailure(b.name)
		b.transitionLocked(StateOpen)
		b.metrics.RecordOpenEvent(b.name)
	}
}

// transitionLocked moves the breaker to state and emits the transition.
// Callers must hold b.mu.
func (b *CircuitBreaker) transitionLocked(state BreakerState) {
	old := b.state
	if old == state {
		return
	}
	b.state = state
	b.metrics.RecordStateChange(b.name, old, state)
	b.logger.Infow("circuit breaker state changed",
		"breaker", b.name,
		"old_state", old.String(),
		"new_state", state.String(),
		"failure_count", b.failureCount,
		"success_count", b.successCount)
}
