package resilience

import (
	"context"
	"time"
)

// Script is a server-side atomic script identified by name. Store
// implementations may cache the script body by content hash and re-send it
// only when the backing store reports it missing (e.g. after a restart).
type Script struct {
	Name string
	Body string
}

// Store is the coordination store shared by all worker processes. The rate
// limiter and the idempotency coordinator mutate shared state only through
// these primitives; Eval must execute its script as a single atomic unit
// against the store.
//
// Any key-value store offering conditional set and server-side atomic
// scripting satisfies this contract.
type Store interface {
	// Get returns the value for key. The second return is false when the key
	// does not exist.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key with the given TTL. A zero TTL means no
	// expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetIfAbsent stores value under key only if the key does not exist.
	// Returns true when the value was stored.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Eval executes script atomically with the given keys and arguments.
	Eval(ctx context.Context, script Script, keys []string, args ...interface{}) (interface{}, error)
}
