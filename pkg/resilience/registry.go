package resilience

import (
	"sync"

	"github.com/go-kratos/kratos/v2/log"
)

// Registry owns one Pipeline per protected dependency name. It replaces
// per-dependency global singletons: the process's dependency-injection root
// constructs a single Registry and hands it to whoever needs protection.
type Registry struct {
	store   Store
	metrics MetricsSink
	logger  log.Logger
	cfg     PipelineConfig

	mu        sync.Mutex
	pipelines map[string]*Pipeline
}

// NewRegistry creates a registry that builds pipelines lazily from cfg.
func NewRegistry(store Store, metrics MetricsSink, cfg PipelineConfig, logger log.Logger) *Registry {
	return &Registry{
		store:     store,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		pipelines: make(map[string]*Pipeline),
	}
}

// Pipeline returns the pipeline for name, creating it on first use. The
// breaker and limiter instances live for the process lifetime.
func (r *Registry) Pipeline(name string) *Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pipelines[name]; ok {
		return p
	}

	p := NewPipeline(name,
		NewTokenBucketLimiter(name, r.store, r.cfg.RateLimit, r.logger),
		NewCircuitBreaker(name, r.cfg.Breaker, r.metrics, r.logger),
		NewRetry(r.cfg.Retry, r.logger),
		r.cfg.MaxTokenWait,
	)
	r.pipelines[name] = p
	return p
}

// Names returns the currently registered dependency names.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.pipelines))
	for name := range r.pipelines {
		names = append(names, name)
	}
	return names
}

// Breaker returns the breaker registered under name, or nil.
func (r *Registry) Breaker(name string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pipelines[name]; ok {
		return p.Breaker()
	}
	return nil
}

// Reset resets the named breaker to CLOSED. Returns false when no pipeline
// is registered under name.
func (r *Registry) Reset(name string) bool {
	b := r.Breaker(name)
	if b == nil {
		return false
	}
	b.Reset()
	return true
}
