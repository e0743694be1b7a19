package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Storage is a thin string key/value wrapper over go-redis.
// Missing keys are reported as (nil, nil) so callers can branch on presence
// without inspecting redis.Nil.
type Storage struct {
	db            redis.UniversalClient
	scanBatchSize int64
}

// NewStorage creates a Storage with a default SCAN batch size of 500.
func NewStorage(client redis.UniversalClient) *Storage {
	return &Storage{
		db:            client,
		scanBatchSize: 500,
	}
}

// NewStorageWithConfig creates a Storage honoring cfg.ScanBatchSize.
func NewStorageWithConfig(client redis.UniversalClient, cfg Config) *Storage {
	s := NewStorage(client)
	if cfg.ScanBatchSize > 0 {
		s.scanBatchSize = cfg.ScanBatchSize
	}
	return s
}

// Get returns nil for missing values.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

// Set stores key-value with expiration. Zero duration means no expiration.
func (s *Storage) Set(ctx context.Context, key string, val []byte, exp time.Duration) error {
	return s.db.Set(ctx, key, val, exp).Err()
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.db.Del(ctx, key).Err()
}

// Scan returns every key matching pattern using SCAN to avoid blocking Redis.
func (s *Storage) Scan(ctx context.Context, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.db.Scan(ctx, cursor, pattern, s.scanBatchSize).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// Conn returns the underlying Redis client for advanced operations.
func (s *Storage) Conn() redis.UniversalClient {
	return s.db
}
