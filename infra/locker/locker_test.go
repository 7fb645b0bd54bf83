package locker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T) *RedisLocker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLocker(client, 5*time.Second)
}

func lockers(t *testing.T) map[string]Locker {
	return map[string]Locker{
		"memory": New(),
		"redis":  newRedisLocker(t),
	}
}

func TestTryLock(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			unlock, ok, err := l.TryLock(ctx, "trx:1")
			require.NoError(t, err)
			require.True(t, ok)

			_, ok, err = l.TryLock(ctx, "trx:1")
			require.NoError(t, err)
			assert.False(t, ok, "second claim must fail while held")

			other, ok, err := l.TryLock(ctx, "trx:2")
			require.NoError(t, err)
			assert.True(t, ok, "different keys are independent")
			other()

			unlock()
			unlock, ok, err = l.TryLock(ctx, "trx:1")
			require.NoError(t, err)
			assert.True(t, ok, "key is free again after unlock")
			unlock()
		})
	}
}

func TestWithLock_Exclusive(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var inside, maxInside int32
			var wg sync.WaitGroup

			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := l.WithLock(ctx, "ledger:7", func(ctx context.Context) error {
						n := atomic.AddInt32(&inside, 1)
						for {
							m := atomic.LoadInt32(&maxInside)
							if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
								break
							}
						}
						time.Sleep(5 * time.Millisecond)
						atomic.AddInt32(&inside, -1)
						return nil
					})
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(1), maxInside)
		})
	}
}

func TestMemoryLocker_WithLockHonorsContext(t *testing.T) {
	l := New()
	unlock, ok, _ := l.TryLock(context.Background(), "trx:9")
	require.True(t, ok)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	err := l.WithLock(ctx, "trx:9", func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
	assert.True(t, l.IsProcessing("trx:9"))
}
