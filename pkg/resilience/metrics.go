package resilience

// MetricsSink receives circuit breaker state-transition and failure events
// for observability. Implementations must be safe for concurrent use and
// must not block: events are emitted while the breaker lock is held.
type MetricsSink interface {
	// RecordStateChange is called on every breaker state transition.
	RecordStateChange(name string, oldState, newState BreakerState)

	// RecordFailure is called for every failure counted toward the breaker's
	// failure threshold.
	RecordFailure(name string)

	// RecordOpenEvent is called each time the breaker trips to OPEN.
	RecordOpenEvent(name string)
}

// NopMetrics discards all events.
type NopMetrics struct{}

func (NopMetrics) RecordStateChange(string, BreakerState, BreakerState) {}
func (NopMetrics) RecordFailure(string)                                 {}
func (NopMetrics) RecordOpenEvent(string)                               {}
