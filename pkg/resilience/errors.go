package resilience

import "errors"

var (
	// ErrCircuitOpen is returned when the circuit is OPEN and the recovery
	// window has not elapsed. The dependency is presumed down; callers should
	// not retry immediately.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrTokenWaitTimeout is returned by WaitForToken when no budget became
	// available within the allowed wait window.
	ErrTokenWaitTimeout = errors.New("resilience: timed out waiting for rate limit token")

	// ErrExecutionInProgress is returned when a concurrent execution for the
	// same idempotency key is in flight. Callers should retry after a short
	// delay.
	ErrExecutionInProgress = errors.New("resilience: operation with this idempotency key is in progress")
)
