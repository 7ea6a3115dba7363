// Package resilience protects outbound calls to flaky dependencies (the
// exchange API, the shared database and cache) against cascading failure.
// It provides a per-dependency circuit breaker, an exponential-backoff retry
// handler, a distributed token-bucket rate limiter and an idempotency
// coordinator, composed explicitly through Pipeline.
//
// The circuit breaker keeps its state in-process; the rate limiter and the
// idempotency coordinator share state across worker processes through a
// coordination Store (Redis in production, see the redisstore sub-package).
package resilience

import "context"

// Operation is a protected callable. Components invoke it at most once per
// attempt and never retain it. The result must be JSON-serializable when the
// operation runs under the idempotency Coordinator.
type Operation func(ctx context.Context) (interface{}, error)
