package data

import (
	"context"
	"fmt"
	"time"

	"TradeSentry/internal/model"
	"TradeSentry/pkg/resilience"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

// metricsTTL bounds guard counters; a day of history is enough for the
// introspection endpoint and dashboards scrape more often than that.
const metricsTTL = 24 * time.Hour

// GuardMetrics implements resilience.MetricsSink. Counters live in Redis so
// every service instance reports into the same totals, and breaker
// transitions land in the audit log.
//
// Counter writes go through a buffered channel like the audit logger's:
// the breaker emits sink events while holding its lock, so the hot path
// must never wait on Redis.
type GuardMetrics struct {
	rdb     *redis.Client
	audit   *AuditLoggerImpl
	keyChan chan string
	logger  *log.Helper
}

// NewGuardMetrics creates the Redis-backed metrics sink.
func NewGuardMetrics(rdb *redis.Client, audit *AuditLoggerImpl, logger log.Logger) *GuardMetrics {
	g := &GuardMetrics{
		rdb:     rdb,
		audit:   audit,
		keyChan: make(chan string, 256),
		logger:  log.NewHelper(logger),
	}

	go g.start()

	return g
}

// start processes counter increments from the channel.
func (g *GuardMetrics) start() {
	for key := range g.keyChan {
		g.apply(key)
	}
}

// RecordStateChange records a breaker transition.
func (g *GuardMetrics) RecordStateChange(name string, oldState, newState resilience.BreakerState) {
	g.audit.LogGuardTransition(context.Background(), &model.GuardStateChangedEvent{
		Guard:     name,
		OldState:  oldState.String(),
		NewState:  newState.String(),
		ChangedAt: time.Now(),
	})
}

// RecordFailure increments the failure counter for a guard.
func (g *GuardMetrics) RecordFailure(name string) {
	g.increment(guardMetricKey(name, "failures"))
}

// RecordOpenEvent increments the open-transition counter for a guard.
func (g *GuardMetrics) RecordOpenEvent(name string) {
	g.increment(guardMetricKey(name, "opens"))
}

// increment hands the key to the background writer without blocking; a full
// channel drops the increment with a warning.
func (g *GuardMetrics) increment(key string) {
	if g.rdb == nil {
		return
	}

	select {
	case g.keyChan <- key:
	default:
		g.logger.Warnw("msg", "guard metric channel full, dropping increment", "key", key)
	}
}

// apply bumps a counter, setting the TTL on first increment.
func (g *GuardMetrics) apply(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	count, err := g.rdb.Incr(ctx, key).Result()
	if err != nil {
		g.logger.Warnw("msg", "failed to increment guard metric", "key", key, "error", err)
		return
	}
	if count == 1 {
		if err := g.rdb.Expire(ctx, key, metricsTTL).Err(); err != nil {
			g.logger.Warnw("msg", "failed to set guard metric TTL", "key", key, "error", err)
		}
	}
}

// Counters returns the current failure and open counts for a guard.
// Missing keys read as zero.
func (g *GuardMetrics) Counters(ctx context.Context, name string) (failures, opens int64, err error) {
	if g.rdb == nil {
		return 0, 0, nil
	}

	failures, err = g.counter(ctx, guardMetricKey(name, "failures"))
	if err != nil {
		return 0, 0, err
	}
	opens, err = g.counter(ctx, guardMetricKey(name, "opens"))
	if err != nil {
		return 0, 0, err
	}
	return failures, opens, nil
}

func (g *GuardMetrics) counter(ctx context.Context, key string) (int64, error) {
	count, err := g.rdb.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read guard metric %s: %w", key, err)
	}
	return count, nil
}

func guardMetricKey(name, metric string) string {
	return fmt.Sprintf("guardmetrics:%s:%s", name, metric)
}
