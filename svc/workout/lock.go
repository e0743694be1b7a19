package workout

import (
	"context"
	"sync"
)

// Locker serializes work on a key across goroutines and, for distributed
// implementations, processes. The returned func releases the lock.
// *redis.Locker from pkg/redis satisfies it.
type Locker interface {
	Lock(ctx context.Context, key string) (func() error, error)
}

func lockKey(userID string) string {
	return "workout:" + userID
}

// MemoryLocker is a per-key mutex for single-process deployments and tests.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

// NewMemoryLocker creates a MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*keyLock)}
}

// Lock blocks until the key is free or ctx is done.
func (m *MemoryLocker) Lock(ctx context.Context, key string) (func() error, error) {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{sem: make(chan struct{}, 1)}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		m.release(key, l)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() error {
		once.Do(func() {
			<-l.sem
			m.release(key, l)
		})
		return nil
	}, nil
}

func (m *MemoryLocker) release(key string, l *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
}
