package workout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultKeyPrefix prefixes session keys in the shared key/value store.
const DefaultKeyPrefix = "ongoingWorkout-"

// Store keeps at most one in-progress session per user.
// Get returns (nil, nil) when the user has no session. Failures to reach the
// backing store are reported as ErrStoreUnavailable.
type Store interface {
	Get(ctx context.Context, userID string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID string) error
	UserIDs(ctx context.Context) ([]string, error)
}

// KeyValue is the subset of a key/value client RedisStore needs.
// *redis.Storage from pkg/redis satisfies it.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, exp time.Duration) error
	Delete(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// RedisStore stores sessions as JSON under "<prefix><userID>" without a TTL;
// expiry is driven by the scheduler and the sweep.
type RedisStore struct {
	kv     KeyValue
	prefix string
}

// NewRedisStore creates a store over kv. An empty prefix falls back to DefaultKeyPrefix.
func NewRedisStore(kv KeyValue, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{kv: kv, prefix: prefix}
}

func (r *RedisStore) Get(ctx context.Context, userID string) (*Session, error) {
	data, err := r.kv.Get(ctx, r.key(userID))
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	if data == nil {
		return nil, nil
	}
	s, err := decodeSession(data)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	if s.UserID == "" {
		s.UserID = userID
	}
	return s, nil
}

func (r *RedisStore) Put(ctx context.Context, s *Session) error {
	data, err := encodeSession(s)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if err := r.kv.Set(ctx, r.key(s.UserID), data, 0); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := r.kv.Delete(ctx, r.key(userID)); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (r *RedisStore) UserIDs(ctx context.Context) ([]string, error) {
	keys, err := r.kv.Scan(ctx, r.prefix+"*")
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, fmt.Errorf("scan sessions: %w", err))
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if id, ok := strings.CutPrefix(k, r.prefix); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *RedisStore) key(userID string) string {
	return r.prefix + userID
}

// MemoryStore is a process-local Store. Sessions round-trip through JSON so
// callers never share memory with the stored record.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (*Session, error) {
	m.mu.RLock()
	data, ok := m.data[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	s, err := decodeSession(data)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return s, nil
}

func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	data, err := encodeSession(s)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	m.mu.Lock()
	m.data[s.UserID] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	delete(m.data, userID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) UserIDs(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}
