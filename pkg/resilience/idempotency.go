package resilience

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// releaseLockScript deletes the lock only when it is still owned by the
// releasing caller. An unconditional DEL could drop a lock that expired and
// was re-acquired by another worker.
var releaseLockScript = Script{
	Name: "idempotency_release_lock",
	Body: `
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`,
}

// IdempotencyConfig configures a Coordinator.
type IdempotencyConfig struct {
	// ResultTTL is how long a completed result stays cached. Default: 1h.
	ResultTTL time.Duration

	// LockTTL bounds how long a crashed executor can hold the in-flight
	// lock before it expires. Default: 5m.
	LockTTL time.Duration

	// InProgressWait is how long a loser of the lock race waits before
	// re-checking for a cached result. Default: 200ms.
	InProgressWait time.Duration
}

func (c IdempotencyConfig) withDefaults() IdempotencyConfig {
	if c.ResultTTL <= 0 {
		c.ResultTTL = time.Hour
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 5 * time.Minute
	}
	if c.InProgressWait <= 0 {
		c.InProgressWait = 200 * time.Millisecond
	}
	return c
}

// Coordinator guarantees that the side effect of an operation occurs at
// most once per (operationName, idempotencyKey) pair, across concurrent and
// duplicate callers in any worker process, using the coordination store for
// locking and result caching.
//
// Failed executions are never cached, so a later call with the same key
// re-attempts the operation. Lock release happens on every exit path; the
// store-side TTL is the safety net when the process dies mid-flight.
type Coordinator struct {
	store  Store
	cfg    IdempotencyConfig
	logger *log.Helper
}

// NewCoordinator creates an idempotency coordinator on the given store.
func NewCoordinator(store Store, cfg IdempotencyConfig, logger log.Logger) *Coordinator {
	return &Coordinator{
		store:  store,
		cfg:    cfg.withDefaults(),
		logger: log.NewHelper(logger),
	}
}

// Execute runs op at most once for the given key and returns its
// JSON-serialized result. Callers that find a cached result get it without
// re-execution; callers that lose the lock race get the result once it
// lands, or ErrExecutionInProgress when the winner is still running.
func (c *Coordinator) Execute(ctx context.Context, operationName, idempotencyKey string, op Operation) (json.RawMessage, error) {
	cacheKey := CacheKey(operationName, idempotencyKey)
	resultKey := resultKey(cacheKey)
	lockKey := lockKey(cacheKey)

	// Fast path: a completed execution already cached its result.
	if cached, ok, err := c.store.Get(ctx, resultKey); err != nil {
		return nil, fmt.Errorf("idempotency: result lookup failed: %w", err)
	} else if ok {
		return json.RawMessage(cached), nil
	}

	owner, err := newOwnerToken()
	if err != nil {
		return nil, fmt.Errorf("idempotency: generating lock token: %w", err)
	}

	acquired, err := c.store.SetIfAbsent(ctx, lockKey, owner, c.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("idempotency: lock acquisition failed: %w", err)
	}

	if !acquired {
		// Another caller is executing. Wait briefly for its result to land,
		// then hand the retry decision back to the caller.
		timer := time.NewTimer(c.cfg.InProgressWait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		if cached, ok, err := c.store.Get(ctx, resultKey); err != nil {
			return nil, fmt.Errorf("idempotency: result re-check failed: %w", err)
		} else if ok {
			return json.RawMessage(cached), nil
		}
		return nil, ErrExecutionInProgress
	}

	defer c.releaseLock(lockKey, owner)

	// A previous winner may have cached its result between our fast-path
	// miss and the lock grant. Without this re-check the late lock winner
	// would execute the operation a second time.
	if cached, ok, err := c.store.Get(ctx, resultKey); err != nil {
		return nil, fmt.Errorf("idempotency: post-lock result lookup failed: %w", err)
	} else if ok {
		return json.RawMessage(cached), nil
	}

	result, err := op(ctx)
	if err != nil {
		// Nothing is cached on failure so a future retry can re-attempt.
		return nil, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("idempotency: serializing result: %w", err)
	}

	if err := c.store.Set(ctx, resultKey, string(payload), c.cfg.ResultTTL); err != nil {
		// The side effect already happened; surface the result and accept
		// that a duplicate caller may re-execute after the lock expires.
		c.logger.Warnw("failed to cache idempotency result",
			"operation", operationName,
			"error", err)
	}

	return payload, nil
}

// Clear removes the cached result and lock for a key. Used in tests and by
// operators to force re-execution.
func (c *Coordinator) Clear(ctx context.Context, operationName, idempotencyKey string) error {
	cacheKey := CacheKey(operationName, idempotencyKey)
	if err := c.store.Delete(ctx, resultKey(cacheKey)); err != nil {
		return fmt.Errorf("idempotency: clearing result: %w", err)
	}
	if err := c.store.Delete(ctx, lockKey(cacheKey)); err != nil {
		return fmt.Errorf("idempotency: clearing lock: %w", err)
	}
	return nil
}

// releaseLock releases on a background context so cancellation of the
// caller cannot leak the lock until TTL expiry.
func (c *Coordinator) releaseLock(lockKey, owner string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := c.store.Eval(ctx, releaseLockScript, []string{lockKey}, owner); err != nil {
		c.logger.Warnw("failed to release idempotency lock, relying on TTL expiry",
			"lock_key", lockKey,
			"error", err)
	}
}

// CacheKey derives the deterministic cache key for an
// (operationName, idempotencyKey) pair.
func CacheKey(operationName, idempotencyKey string) string {
	sum := sha256.Sum256([]byte(operationName + "\x00" + idempotencyKey))
	return hex.EncodeToString(sum[:])
}

// resultKey generates the store key for a cached result.
// Format: idempotency:{hash}:result
func resultKey(cacheKey string) string {
	return fmt.Sprintf("idempotency:%s:result", cacheKey)
}

// lockKey generates the store key for the in-flight lock.
// Format: idempotency:{hash}:lock
func lockKey(cacheKey string) string {
	return fmt.Sprintf("idempotency:%s:lock", cacheKey)
}

// newOwnerToken returns a random token identifying the lock holder.
func newOwnerToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
