package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestScanLockMutualExclusion(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	lock := NewScanLock(client, time.Minute)

	ok, err := lock.Acquire(ctx, OverdueScanLockKey)
	require.NoError(t, err)
	require.True(t, ok)

	// A second holder is refused while the first one owns the key.
	ok, err = lock.Acquire(ctx, OverdueScanLockKey)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, lock.Release(ctx, OverdueScanLockKey))

	ok, err = lock.Acquire(ctx, OverdueScanLockKey)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestScanLockExpiresWithTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	lock := NewScanLock(client, time.Second)

	ok, err := lock.Acquire(ctx, OverdueScanLockKey)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	ok, err = lock.Acquire(ctx, OverdueScanLockKey)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestScanLockNilClientAlwaysAcquires(t *testing.T) {
	lock := NewScanLock(nil, time.Minute)
	ok, err := lock.Acquire(context.Background(), OverdueScanLockKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, lock.Release(context.Background(), OverdueScanLockKey))
}
