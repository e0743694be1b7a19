package workout

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTimeout is how long a session may live before it is discarded.
const DefaultSessionTimeout = 4 * time.Hour

// DefaultLockWait bounds how long an operation waits for the per-user lock.
const DefaultLockWait = 5 * time.Second

// Option configures a Manager.
type Option func(*Manager)

// WithLocker sets the per-user lock. Use a distributed lock when several
// processes share the session store.
func WithLocker(l Locker) Option {
	return func(m *Manager) {
		if l != nil {
			m.locker = l
		}
	}
}

// WithExpiryScheduler sets the scheduler for deferred session expiry.
func WithExpiryScheduler(s ExpiryScheduler) Option {
	return func(m *Manager) {
		m.expiry = s
	}
}

// WithEventPublisher publishes a SessionEvent after every change.
func WithEventPublisher(p EventPublisher) Option {
	return func(m *Manager) {
		m.events = p
	}
}

// WithSessionTimeout overrides DefaultSessionTimeout.
func WithSessionTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLockWait overrides DefaultLockWait.
func WithLockWait(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.lockWait = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIDGenerator replaces the generator of set detail ids.
func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) {
		if gen != nil {
			m.newID = gen
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithFinishHooks registers hooks run after a workout is flushed.
func WithFinishHooks(hooks ...FinishHook) Option {
	return func(m *Manager) {
		for _, h := range hooks {
			if h != nil {
				m.hooks = append(m.hooks, h)
			}
		}
	}
}

// WithConfig applies timeout and lock wait from cfg.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		WithSessionTimeout(cfg.SessionTimeout)(m)
		WithLockWait(cfg.LockWait)(m)
	}
}

func defaultIDGenerator() string {
	return uuid.NewString()
}
