package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"
)

const (
	lockKeyPrefix    = "payout:lock:"
	lockRetryDelay   = 50 * time.Millisecond
	maxLockWaitTries = 600
)

// RedisLocker is a Locker shared by every http_server and cron_server instance.
type RedisLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
}

func NewRedisLocker(client redis.UniversalClient, expiry time.Duration) *RedisLocker {
	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		expiry: expiry,
	}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	mutex := l.rs.NewMutex(lockKeyPrefix+key,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(1),
	)

	if err := mutex.TryLockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.As(err, &taken) || errors.Is(err, redsync.ErrFailed) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("try lock %s: %w", key, err)
	}

	return l.unlockFunc(mutex, key), true, nil
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	mutex := l.rs.NewMutex(lockKeyPrefix+key,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(maxLockWaitTries),
		redsync.WithRetryDelay(lockRetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	defer l.unlockFunc(mutex, key)()

	return fn(ctx)
}

func (l *RedisLocker) unlockFunc(mutex *redsync.Mutex, key string) func() {
	return func() {
		if ok, err := mutex.UnlockContext(context.Background()); err != nil || !ok {
			log.Warnf("[UNLOCK] key:%s released late or expired: %v", key, err)
		}
	}
}
