package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker provides mutual exclusion across processes with SET NX PX.
// The TTL bounds how long a crashed holder can block others.
type Locker struct {
	db         redis.UniversalClient
	prefix     string
	ttl        time.Duration
	retryDelay time.Duration
}

// LockerOption configures a Locker.
type LockerOption func(*Locker)

// WithLockPrefix sets the key prefix for lock keys.
func WithLockPrefix(prefix string) LockerOption {
	return func(l *Locker) {
		if prefix != "" {
			l.prefix = prefix
		}
	}
}

// WithLockTTL sets how long a lock is held before Redis expires it.
func WithLockTTL(ttl time.Duration) LockerOption {
	return func(l *Locker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithLockRetryDelay sets the polling delay between acquisition attempts.
func WithLockRetryDelay(d time.Duration) LockerOption {
	return func(l *Locker) {
		if d > 0 {
			l.retryDelay = d
		}
	}
}

// NewLocker creates a Locker with a 10s TTL and 25ms retry delay.
func NewLocker(client redis.UniversalClient, opts ...LockerOption) *Locker {
	l := &Locker{
		db:         client,
		prefix:     "lock:",
		ttl:        10 * time.Second,
		retryDelay: 25 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock blocks until the key is acquired or ctx is done.
// The returned unlock func is safe to call once; it reports ErrLockLost when
// the TTL elapsed and someone else may have taken the key meanwhile.
func (l *Locker) Lock(ctx context.Context, key string) (func() error, error) {
	lockKey := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.db.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}

		t := time.NewTimer(l.retryDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, errors.Join(ErrLockNotAcquired, ctx.Err())
		case <-t.C:
		}
	}

	unlock := func() error {
		// Release must run even when the request context was canceled.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()

		n, err := releaseScript.Run(ctx, l.db, []string{lockKey}, token).Int()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrLockLost
		}
		return nil
	}

	return unlock, nil
}
