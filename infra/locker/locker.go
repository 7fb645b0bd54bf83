package locker

import (
	"context"
	"sync"
)

// Locker hands out keyed mutual exclusion. Keys look like "trx:42" or "ledger:7".
type Locker interface {
	// TryLock claims key without waiting; ok is false when the key is already held.
	TryLock(ctx context.Context, key string) (unlock func(), ok bool, err error)
	// WithLock runs fn while holding key, waiting for it until ctx is done.
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// MemoryLocker is the in-process Locker used by a single-instance deployment and in tests.
type MemoryLocker struct {
	mu           sync.Mutex
	inProcessMap map[string]chan struct{}
}

func New() *MemoryLocker {
	return &MemoryLocker{
		inProcessMap: make(map[string]chan struct{}),
	}
}

func (l *MemoryLocker) TryLock(_ context.Context, key string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.inProcessMap[key]; held {
		return nil, false, nil
	}
	l.inProcessMap[key] = make(chan struct{})
	return l.unlockFunc(key), true, nil
}

func (l *MemoryLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	for {
		l.mu.Lock()
		wait, held := l.inProcessMap[key]
		if !held {
			l.inProcessMap[key] = make(chan struct{})
			l.mu.Unlock()
			break
		}
		l.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	defer l.unlockFunc(key)()
	return fn(ctx)
}

// IsProcessing reports whether key is currently held.
func (l *MemoryLocker) IsProcessing(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, held := l.inProcessMap[key]
	return held
}

func (l *MemoryLocker) unlockFunc(key string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if done, held := l.inProcessMap[key]; held {
				delete(l.inProcessMap, key)
				close(done)
			}
		})
	}
}
