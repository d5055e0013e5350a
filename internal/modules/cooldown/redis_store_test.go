package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedisStore(rdb)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	expiry := time.Now().Add(30 * time.Second).Truncate(time.Nanosecond)
	require.NoError(t, store.Set(ctx, 1, 100, expiry))

	got, ok, err := store.Get(ctx, 1, 100)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, expiry.UnixNano(), got.UnixNano())

	_, ok, err = store.Get(ctx, 1, 999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreOverwrite(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	first := time.Now().Add(5 * time.Minute)
	second := time.Now().Add(15 * time.Second)
	require.NoError(t, store.Set(ctx, 1, 100, first))
	require.NoError(t, store.Set(ctx, 1, 100, second))

	got, ok, err := store.Get(ctx, 1, 100)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second.UnixNano(), got.UnixNano())
}

func TestRedisStoreDelete(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	expiry := time.Now().Add(time.Minute)
	require.NoError(t, store.Set(ctx, 1, 100, expiry))
	require.NoError(t, store.Set(ctx, 1, 200, expiry))

	require.NoError(t, store.Delete(ctx, 1, 100))
	_, ok, _ := store.Get(ctx, 1, 100)
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, 1, 200)
	assert.True(t, ok)

	require.NoError(t, store.DeleteGame(ctx, 1))
	_, ok, _ = store.Get(ctx, 1, 200)
	assert.False(t, ok)
}

func TestSchedulerOnRedisStore(t *testing.T) {
	store := newRedisStore(t)
	s := NewScheduler(store)
	ctx := context.Background()

	require.NoError(t, s.StartAction(ctx, 7, 100, "call"))

	active, err := s.IsActive(ctx, 7, 100)
	require.NoError(t, err)
	assert.True(t, active)

	remaining, err := s.Remaining(ctx, 7, 100)
	require.NoError(t, err)
	assert.Greater(t, remaining, 29*time.Second)
}
