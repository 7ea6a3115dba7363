package log

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
)

// LogHelper extends Kratos log.Helper with typed convenience methods.
// Each method sets a "type" field which drives the EmojiConsoleEncoder
// mapping on console output.
type LogHelper struct {
	*log.Helper
}

// NewLogHelper creates an enriched log helper
func NewLogHelper(logger log.Logger) *LogHelper {
	return &LogHelper{
		Helper: log.NewHelper(logger),
	}
}

// API logs exchange API interaction events (🔗)
func (h *LogHelper) API(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "api")
	h.Infow(allKvs...)
}

// Request logs an inbound HTTP request (🌐 or status-colored)
func (h *LogHelper) Request(method, url string, status int, durationMs int64, kvs ...interface{}) {
	msg := fmt.Sprintf("%s %s - %d (%dms)", method, url, status, durationMs)
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs,
		"type", "request",
		"method", method,
		"url", url,
		"status", status,
		"duration_ms", durationMs,
	)
	h.Infow(allKvs...)
}

// Success logs a completed operation (✅)
func (h *LogHelper) Success(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "success")
	h.Infow(allKvs...)
}

// Database logs database operations (💾)
func (h *LogHelper) Database(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "database")
	h.Debugw(allKvs...)
}

// Redis logs Redis operations (📦)
func (h *LogHelper) Redis(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "redis")
	h.Debugw(allKvs...)
}

// RateLimit logs rate limiter denials and waits (🚦)
func (h *LogHelper) RateLimit(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "rate_limit")
	h.Warnw(allKvs...)
}

// Breaker logs circuit breaker state changes (🔌)
func (h *LogHelper) Breaker(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "breaker")
	h.Warnw(allKvs...)
}

// Order logs order lifecycle events (📈)
func (h *LogHelper) Order(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "order")
	h.Infow(allKvs...)
}

// Market logs market data events (💹)
func (h *LogHelper) Market(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "market")
	h.Debugw(allKvs...)
}

// Alert logs price alert events (🔔)
func (h *LogHelper) Alert(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "alert")
	h.Infow(allKvs...)
}

// Account logs exchange account events (👤)
func (h *LogHelper) Account(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "account")
	h.Infow(allKvs...)
}

// Scheduler logs cron job events (🎯)
func (h *LogHelper) Scheduler(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "scheduler")
	h.Infow(allKvs...)
}

// Startup logs service boot events (🚀)
func (h *LogHelper) Startup(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "startup")
	h.Infow(allKvs...)
}

// Security logs authentication and credential events (🔒)
func (h *LogHelper) Security(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "security")
	h.Warnw(allKvs...)
}

// OrderPlaced logs a successfully placed order with its key attributes
func (h *LogHelper) OrderPlaced(orderID, symbol, side string, quantity, price float64, kvs ...interface{}) {
	msg := fmt.Sprintf("Order placed - %s %s %s, Qty: %v, Price: %v",
		orderID, side, symbol, quantity, price)
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs,
		"order_id", orderID,
		"symbol", symbol,
		"side", side,
		"quantity", quantity,
		"price", price,
		"type", "order",
	)
	h.Infow(allKvs...)
}

// ========== Context-aware methods ==========
// These extract tracing fields (request ID, account, exchange) from the Context.

// SlowRequest warns about requests exceeding the threshold (🐌)
func (h *LogHelper) SlowRequest(ctx context.Context, method, url string, duration, threshold int64, kvs ...interface{}) {
	reqCtx := GetRequestContext(ctx)

	msg := fmt.Sprintf("[%s] Slow request detected | %s %s | %s (threshold: %dms)",
		reqCtx.RequestID, method, url, formatDuration(duration), threshold)

	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs,
		"request_id", reqCtx.RequestID,
		"account_id", reqCtx.AccountID,
		"method", method,
		"url", url,
		"duration_ms", duration,
		"threshold_ms", threshold,
		"type", "slow_request",
	)
	h.Warnw(allKvs...)
}

// RequestWithContext logs an inbound HTTP request with tracing fields and
// automatically flags slow requests (threshold 1000ms).
func (h *LogHelper) RequestWithContext(ctx context.Context, method, url string, status int, durationMs int64, kvs ...interface{}) {
	reqCtx := GetRequestContext(ctx)

	msg := fmt.Sprintf("%s %s - %d (%dms) | RequestID: %s",
		method, url, status, durationMs, reqCtx.RequestID)

	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs,
		"type", "request",
		"request_id", reqCtx.RequestID,
		"account_id", reqCtx.AccountID,
		"exchange", reqCtx.Exchange,
		"method", method,
		"url", url,
		"status", status,
		"duration_ms", durationMs,
	)
	h.Infow(allKvs...)

	if durationMs > 1000 {
		h.SlowRequest(ctx, method, url, durationMs, 1000)
	}
}

// GuardTrip logs a resilience guard rejection with tracing fields
func (h *LogHelper) GuardTrip(ctx context.Context, guardName, reason string, kvs ...interface{}) {
	reqCtx := GetRequestContext(ctx)

	msg := fmt.Sprintf("[%s] Guard rejected call - %s: %s", reqCtx.RequestID, guardName, reason)

	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs,
		"request_id", reqCtx.RequestID,
		"account_id", reqCtx.AccountID,
		"guard", guardName,
		"reason", reason,
		"type", "breaker",
	)
	h.Warnw(allKvs...)
}

// CacheStats logs cache utilisation statistics (🧹)
func (h *LogHelper) CacheStats(ctx context.Context, cacheName string, size, maxSize, hits, misses, evictions int64, kvs ...interface{}) {
	var hitRate float64
	total := hits + misses
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	msg := fmt.Sprintf("Cache stats - %s | Size: %d/%d, Hit Rate: %.2f%%, Evictions: %d",
		cacheName, size, maxSize, hitRate, evictions)

	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs,
		"cache_name", cacheName,
		"size", size,
		"max_size", maxSize,
		"hits", hits,
		"misses", misses,
		"evictions", evictions,
		"hit_rate", fmt.Sprintf("%.2f%%", hitRate),
		"total_requests", total,
		"type", "cache_stats",
	)
	h.Infow(allKvs...)
}

// APIWithContext logs an exchange API event with tracing fields
func (h *LogHelper) APIWithContext(ctx context.Context, msg string, kvs ...interface{}) {
	reqCtx := GetRequestContext(ctx)

	fullMsg := fmt.Sprintf("[%s] %s", reqCtx.RequestID, msg)

	allKvs := append([]interface{}{"msg", fullMsg}, kvs...)
	allKvs = append(allKvs,
		"request_id", reqCtx.RequestID,
		"exchange", reqCtx.Exchange,
		"type", "api",
	)
	h.Infow(allKvs...)
}
