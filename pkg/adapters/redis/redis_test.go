package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/bngenvs/pkg/adapters/redis"
	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisIndex_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunIndexContract(t, redis.NewIndex(client))
}

func TestRedisIndex_Prefix(t *testing.T) {
	mr, client := newClient(t)
	idx := redis.NewIndex(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	err := idx.Put(ctx, domain.RunEntry{RunID: "r1", Env: "DragStripEnv", CreatedAt: time.Now()})
	require.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:run:r1"))
	assert.True(t, mr.Exists("custom:app:runs"))
	assert.True(t, mr.Exists("custom:app:runs:DragStripEnv"))
}

func TestRedisIndex_EnvChangeMovesEntry(t *testing.T) {
	_, client := newClient(t)
	idx := redis.NewIndex(client)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, idx.Put(ctx, domain.RunEntry{RunID: "r1", Env: "DragStripEnv", CreatedAt: now}))
	require.NoError(t, idx.Put(ctx, domain.RunEntry{RunID: "r1", Env: "CrashTestEnv", CreatedAt: now}))

	drag, err := idx.List(ctx, "DragStripEnv")
	require.NoError(t, err)
	assert.Empty(t, drag)

	crash, err := idx.List(ctx, "CrashTestEnv")
	require.NoError(t, err)
	assert.Len(t, crash, 1)
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.Dial("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Ping(context.Background()).Err())

	_, err = redis.Dial("http://nope")
	assert.Error(t, err)
}

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:lock:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "resource1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:lock:resource1"), "lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:lock:resource1"), "lock key should be removed after unlock")
}

func TestRedisLocker_TryLock(t *testing.T) {
	_, client := newClient(t)
	first := redis.NewLocker(client, "test:")
	second := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, ok, err := first.TryLock(ctx, "worker:localhost:58000", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = second.TryLock(ctx, "worker:localhost:58000", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, unlock(ctx))
	_, ok, err = second.TryLock(ctx, "worker:localhost:58000", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLocker_Contention(t *testing.T) {
	mr, client := newClient(t)
	locker1 := redis.NewLocker(client, "test:lock:")
	locker2 := redis.NewLocker(client, "test:lock:")
	ctx := context.Background()
	key := "shared-resource"

	unlock1, err := locker1.Lock(ctx, key, 5*time.Second)
	require.NoError(t, err)

	ctxTimeout, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = locker2.Lock(ctxTimeout, key, 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)

	require.NoError(t, unlock1(ctx))

	unlock2, err := locker2.Lock(ctx, key, 5*time.Second)
	require.NoError(t, err)
	defer unlock2(ctx)
	assert.True(t, mr.Exists("test:lock:lock:shared-resource"))
}

func TestRedisLocker_StaleUnlockKeepsNewOwner(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "k", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	_, ok, err := locker.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("test:lock:k"), "an expired holder must not release the new lease")
}
