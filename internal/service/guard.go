package service

import (
	"context"
	"sort"

	"TradeSentry/internal/biz"
	"TradeSentry/internal/data"
	"TradeSentry/pkg/resilience"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// GuardReply describes one protection pipeline's live state.
type GuardReply struct {
	Name             string `json:"name"`
	BreakerState     string `json:"breaker_state"`
	RecentFailures   int    `json:"recent_failures"`
	RecentSuccesses  int    `json:"recent_successes"`
	FailuresRecorded int64  `json:"failures_recorded"`
	OpensRecorded    int64  `json:"opens_recorded"`
}

// ListGuardsReply holds all known guards.
type ListGuardsReply struct {
	Guards []*GuardReply `json:"guards"`
}

// ResetGuardReply confirms an operator reset.
type ResetGuardReply struct {
	Name  string `json:"name"`
	Reset bool   `json:"reset"`
}

// GuardService exposes breaker introspection and operator resets.
type GuardService struct {
	registry *resilience.Registry
	metrics  *data.GuardMetrics
	audit    biz.AuditLogger
	logger   *log.Helper
}

// NewGuardService creates a new GuardService instance.
func NewGuardService(registry *resilience.Registry, metrics *data.GuardMetrics, audit biz.AuditLogger, logger log.Logger) *GuardService {
	return &GuardService{
		registry: registry,
		metrics:  metrics,
		audit:    audit,
		logger:   log.NewHelper(logger),
	}
}

// ListGuards reports the state of every instantiated pipeline.
func (s *GuardService) ListGuards(ctx context.Context) (*ListGuardsReply, error) {
	names := s.registry.Names()
	sort.Strings(names)

	guards := make([]*GuardReply, 0, len(names))
	for _, name := range names {
		reply, err := s.guardReply(ctx, name)
		if err != nil {
			return nil, err
		}
		guards = append(guards, reply)
	}
	return &ListGuardsReply{Guards: guards}, nil
}

// GetGuard reports one pipeline's state.
func (s *GuardService) GetGuard(ctx context.Context, name string) (*GuardReply, error) {
	if s.registry.Breaker(name) == nil {
		return nil, kerrors.New(404, "GUARD_NOT_FOUND", "unknown guard: "+name)
	}
	return s.guardReply(ctx, name)
}

// ResetGuard closes a breaker by operator request. The reset is audited.
func (s *GuardService) ResetGuard(ctx context.Context, name string) (*ResetGuardReply, error) {
	if !s.registry.Reset(name) {
		return nil, kerrors.New(404, "GUARD_NOT_FOUND", "unknown guard: "+name)
	}
	s.logger.Warnw("msg", "breaker manually reset", "type", "breaker", "guard", name)
	s.audit.LogBreakerReset(ctx, name)
	return &ResetGuardReply{Name: name, Reset: true}, nil
}

func (s *GuardService) guardReply(ctx context.Context, name string) (*GuardReply, error) {
	breaker := s.registry.Breaker(name)
	failures, successes := breaker.Counts()

	recordedFailures, recordedOpens, err := s.metrics.Counters(ctx, name)
	if err != nil {
		s.logger.Warnw("msg", "guard counters unavailable", "guard", name, "error", err)
	}

	return &GuardReply{
		Name:             name,
		BreakerState:     breaker.State().String(),
		RecentFailures:   failures,
		RecentSuccesses:  successes,
		FailuresRecorded: recordedFailures,
		OpensRecorded:    recordedOpens,
	}, nil
}
