package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viralforge/trender/internal/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestConnectAcceptsURL(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Ping(context.Background()).Err())
}

func TestRedisCacheRoundTrip(t *testing.T) {
	mr, client := newTestClient(t)
	c := NewRedisCache(client)
	ctx := context.Background()

	got, err := c.Get(ctx, "trender:pool:p1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, c.Set(ctx, "trender:pool:p1", `{"PoolID":"p1"}`, time.Minute))
	got, err = c.Get(ctx, "trender:pool:p1")
	require.NoError(t, err)
	assert.Equal(t, `{"PoolID":"p1"}`, got)

	mr.FastForward(2 * time.Minute)
	got, err = c.Get(ctx, "trender:pool:p1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, c.Set(ctx, "a", "1", 0))
	require.NoError(t, c.Delete(ctx, "a"))
	assert.False(t, mr.Exists("a"))
	require.NoError(t, c.Delete(ctx))
}

func TestRedisPoolLockerSingleAttempt(t *testing.T) {
	mr, client := newTestClient(t)
	locker := NewRedisPoolLocker(client, 5*time.Second)
	ctx := context.Background()

	unlock, err := locker.TryLock(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(poolLockPrefix+"p1"))

	_, err = locker.TryLock(ctx, "p1")
	require.ErrorIs(t, err, domain.ErrPoolBusy)

	other, err := locker.TryLock(ctx, "p2")
	require.NoError(t, err)
	other()

	unlock()
	assert.False(t, mr.Exists(poolLockPrefix+"p1"))

	again, err := locker.TryLock(ctx, "p1")
	require.NoError(t, err)
	again()
}

func TestRedisPoolLockerExpires(t *testing.T) {
	mr, client := newTestClient(t)
	locker := NewRedisPoolLocker(client, time.Second)
	ctx := context.Background()

	_, err := locker.TryLock(ctx, "p1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	unlock, err := locker.TryLock(ctx, "p1")
	require.NoError(t, err)
	unlock()
}
