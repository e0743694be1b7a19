package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trakkr/pkg/redis"
)

func connect(t *testing.T) redis.Config {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	return redis.Config{
		ConnectionURL:  url,
		RetryAttempts:  1,
		RetryInterval:  10 * time.Millisecond,
		ConnectTimeout: 5 * time.Second,
		ScanBatchSize:  10,
	}
}

func TestConnectRejectsBadURL(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "http://not-redis",
		RetryAttempts:  1,
		ConnectTimeout: time.Second,
	})
	assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
}

func TestStorage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := connect(t)
	client, err := redis.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, redis.Healthcheck(client)(ctx))

	s := redis.NewStorageWithConfig(client, cfg)
	prefix := "test:" + uuid.NewString() + ":"

	got, err := s.Get(ctx, prefix+"missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, s.Set(ctx, prefix+k, []byte(k), time.Minute))
	}
	got, err = s.Get(ctx, prefix+"b")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)

	keys, err := s.Scan(ctx, prefix+"*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{prefix + "a", prefix + "b", prefix + "c"}, keys)

	for _, k := range keys {
		require.NoError(t, s.Delete(ctx, k))
	}
	require.NoError(t, s.Delete(ctx, prefix+"a"), "deleting a missing key is fine")
}

func TestLocker(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client, err := redis.Connect(ctx, connect(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	key := uuid.NewString()
	l := redis.NewLocker(client, redis.WithLockPrefix("test-lock:"), redis.WithLockRetryDelay(5*time.Millisecond))

	unlock, err := l.Lock(ctx, key)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(waitCtx, key)
	assert.ErrorIs(t, err, redis.ErrLockNotAcquired)

	require.NoError(t, unlock())
	assert.ErrorIs(t, unlock(), redis.ErrLockLost, "a released lock cannot be released again")

	unlock, err = l.Lock(ctx, key)
	require.NoError(t, err)
	require.NoError(t, unlock())

	short := redis.NewLocker(client, redis.WithLockPrefix("test-lock:"), redis.WithLockTTL(20*time.Millisecond))
	unlock, err = short.Lock(ctx, key+":ttl")
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.ErrorIs(t, unlock(), redis.ErrLockLost)
}
