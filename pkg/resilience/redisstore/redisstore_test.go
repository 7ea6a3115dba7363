package redisstore

import (
	"context"
	"testing"
	"time"

	"TradeSentry/pkg/resilience"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb, log.DefaultLogger), mr
}

func TestStore_GetSetRoundTrip(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	val, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)
}

func TestStore_SetRespectsTTL(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", time.Second))
	mr.FastForward(2 * time.Second)

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SetIfAbsent(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	ok, err := s.SetIfAbsent(ctx, "lock", "owner-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetIfAbsent(ctx, "lock", "owner-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	val, found, err := s.Get(ctx, "lock")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "owner-1", val)
}

func TestStore_Delete(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", 0))
	require.NoError(t, s.Delete(ctx, "k"))

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is not an error.
	assert.NoError(t, s.Delete(ctx, "k"))
}

func TestStore_EvalRunsAtomicScript(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	script := resilience.Script{
		Name: "incr_by",
		Body: `return redis.call('INCRBY', KEYS[1], ARGV[1])`,
	}

	res, err := s.Eval(ctx, script, []string{"counter"}, "5")
	require.NoError(t, err)
	assert.Equal(t, int64(5), res)

	// Second run goes through the cached script object.
	res, err = s.Eval(ctx, script, []string{"counter"}, "3")
	require.NoError(t, err)
	assert.Equal(t, int64(8), res)
}

func TestStore_NilClientFailsExplicitly(t *testing.T) {
	s := New(nil, log.DefaultLogger)
	ctx := context.Background()

	_, _, err := s.Get(ctx, "k")
	assert.Error(t, err)

	err = s.Set(ctx, "k", "v", 0)
	assert.Error(t, err)

	_, err = s.SetIfAbsent(ctx, "k", "v", 0)
	assert.Error(t, err)
}
