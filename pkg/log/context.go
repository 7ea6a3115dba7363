package log

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// contextKey is the private key type for storing RequestContext
type contextKey string

const requestContextKey contextKey = "tradesentry_request_context"

// RequestContext carries per-request tracing information through the call
// chain, from the HTTP middleware down to the exchange client.
type RequestContext struct {
	RequestID string                 // short base36 request ID, e.g. mgrn0zfqda
	AccountID string                 // exchange account the request acts on
	Exchange  string                 // exchange name, e.g. binance
	StartTime time.Time              // request start time
	Metadata  map[string]interface{} // extension metadata
}

var (
	randSource  = rand.NewSource(time.Now().UnixNano())
	randMutex   sync.Mutex
	base36Chars = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// GenerateRequestID returns a 10-character random base36 request ID.
// Cheaper than a UUID and short enough to grep in console logs.
func GenerateRequestID() string {
	randMutex.Lock()
	defer randMutex.Unlock()

	b := make([]byte, 10)
	for i := range b {
		b[i] = base36Chars[randSource.Int63()%36]
	}
	return string(b)
}

// WithRequestContext injects a fresh RequestContext into the Context.
// Called from the HTTP middleware at the start of each request.
func WithRequestContext(ctx context.Context, requestID, accountID, exchange string) context.Context {
	reqCtx := &RequestContext{
		RequestID: requestID,
		AccountID: accountID,
		Exchange:  exchange,
		StartTime: time.Now(),
		Metadata:  make(map[string]interface{}),
	}
	return context.WithValue(ctx, requestContextKey, reqCtx)
}

// GetRequestContext extracts the RequestContext from the Context.
// Returns a placeholder context when none is present so callers never
// have to nil-check.
func GetRequestContext(ctx context.Context) *RequestContext {
	if ctx == nil {
		return &RequestContext{
			RequestID: "unknown",
			Metadata:  make(map[string]interface{}),
		}
	}

	if reqCtx, ok := ctx.Value(requestContextKey).(*RequestContext); ok {
		return reqCtx
	}

	return &RequestContext{
		RequestID: "unknown",
		Metadata:  make(map[string]interface{}),
	}
}

// GetRequestID extracts the request ID from the Context
func GetRequestID(ctx context.Context) string {
	return GetRequestContext(ctx).RequestID
}

// GetAccountID extracts the account ID from the Context
func GetAccountID(ctx context.Context) string {
	return GetRequestContext(ctx).AccountID
}

// GetExchange extracts the exchange name from the Context
func GetExchange(ctx context.Context) string {
	return GetRequestContext(ctx).Exchange
}

// SetMetadata attaches extra tracing metadata to the RequestContext
func SetMetadata(ctx context.Context, key string, value interface{}) {
	reqCtx := GetRequestContext(ctx)
	if reqCtx.Metadata == nil {
		reqCtx.Metadata = make(map[string]interface{})
	}
	reqCtx.Metadata[key] = value
}

// GetMetadata reads tracing metadata from the RequestContext
func GetMetadata(ctx context.Context, key string) (interface{}, bool) {
	reqCtx := GetRequestContext(ctx)
	if reqCtx.Metadata == nil {
		return nil, false
	}
	value, ok := reqCtx.Metadata[key]
	return value, ok
}

// GetElapsedTime returns milliseconds elapsed since the request started
func GetElapsedTime(ctx context.Context) int64 {
	reqCtx := GetRequestContext(ctx)
	if reqCtx.StartTime.IsZero() {
		return 0
	}
	return time.Since(reqCtx.StartTime).Milliseconds()
}
