package data

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	kratoslog "github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) (*GuardMetrics, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewGuardMetrics(client, nil, kratoslog.NewStdLogger(testWriter{t})), mr
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestGuardMetrics_FailureCounter(t *testing.T) {
	metrics, _ := newTestMetrics(t)

	metrics.RecordFailure("exchange-orders")
	metrics.RecordFailure("exchange-orders")
	metrics.RecordOpenEvent("exchange-orders")

	// Increments land via the background writer.
	assert.Eventually(t, func() bool {
		failures, opens, err := metrics.Counters(context.Background(), "exchange-orders")
		return err == nil && failures == 2 && opens == 1
	}, time.Second, 5*time.Millisecond)
}

func TestGuardMetrics_CountersDefaultToZero(t *testing.T) {
	metrics, _ := newTestMetrics(t)

	failures, opens, err := metrics.Counters(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Zero(t, failures)
	assert.Zero(t, opens)
}

func TestGuardMetrics_CounterTTLSet(t *testing.T) {
	metrics, mr := newTestMetrics(t)

	metrics.RecordFailure("exchange-quotes")

	assert.Eventually(t, func() bool {
		return mr.TTL(guardMetricKey("exchange-quotes", "failures")) == metricsTTL
	}, time.Second, 5*time.Millisecond)
}

func TestGuardMetrics_RecordReturnsWithoutWaitingOnRedis(t *testing.T) {
	// A listener that accepts connections and never answers stands in for a
	// stalled Redis. The sink is called under the breaker lock, so a record
	// that waits on Redis I/O would stall every call through that breaker.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			t.Cleanup(func() { _ = conn.Close() })
		}
	}()

	client := redis.NewClient(&redis.Options{Addr: ln.Addr().String()})
	t.Cleanup(func() { _ = client.Close() })
	metrics := NewGuardMetrics(client, nil, kratoslog.NewStdLogger(testWriter{t}))

	done := make(chan struct{})
	go func() {
		metrics.RecordFailure("exchange-orders")
		metrics.RecordOpenEvent("exchange-orders")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("recording a guard metric blocked on Redis")
	}
}

func TestGuardMetrics_NilRedisIsNoop(t *testing.T) {
	metrics := NewGuardMetrics(nil, nil, kratoslog.NewStdLogger(testWriter{t}))

	metrics.RecordFailure("exchange-orders")

	failures, opens, err := metrics.Counters(context.Background(), "exchange-orders")
	require.NoError(t, err)
	assert.Zero(t, failures)
	assert.Zero(t, opens)
}
