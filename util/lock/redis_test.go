package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T, opts ...RedisOption) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	l, err := NewRedis(client, opts...)
	require.NoError(t, err)
	return l, mr
}

func TestRedis_LockAndRelease(t *testing.T) {
	l, mr := newRedisLocker(t, WithPrefix("test"))
	ctx := context.Background()

	release, err := l.Lock(ctx, BookKey(7), BookKey(2))
	require.NoError(t, err)
	require.True(t, mr.Exists("test:book:7"))
	require.True(t, mr.Exists("test:book:2"))

	release()
	require.False(t, mr.Exists("test:book:7"))
	require.False(t, mr.Exists("test:book:2"))
}

func TestRedis_BlocksUntilDeadline(t *testing.T) {
	l, _ := newRedisLocker(t, WithRetry(5*time.Millisecond))
	release, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedis_WaiterAcquiresAfterRelease(t *testing.T) {
	l, _ := newRedisLocker(t, WithRetry(2*time.Millisecond))
	release, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	got := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		rel, err := l.Lock(ctx, "k")
		if err == nil {
			rel()
		}
		got <- err
	}()

	time.Sleep(10 * time.Millisecond)
	release()
	require.NoError(t, <-got)
}

func TestRedis_StaleReleaseKeepsNewOwner(t *testing.T) {
	l, mr := newRedisLocker(t, WithTTL(time.Second))
	ctx := context.Background()

	stale, err := l.Lock(ctx, "k")
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	fresh, err := l.Lock(ctx, "k")
	require.NoError(t, err)
	stale()
	require.True(t, mr.Exists("bookrental:lock:k"))

	fresh()
	require.False(t, mr.Exists("bookrental:lock:k"))
}

func TestNewRedis_Validation(t *testing.T) {
	_, err := NewRedis(nil)
	require.Error(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	_, err = NewRedis(client, WithTTL(0))
	require.Error(t, err)
}
