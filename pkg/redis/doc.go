// Package redis provides helpers for connecting to Redis and using it as a
// fast key/value store.
//
// The package wraps the go-redis client and adds:
//
//   - Connect, which retries the connection using the supplied configuration.
//   - Storage, a context-aware key/value wrapper with SCAN based key listing.
//   - Locker, a SET NX PX based mutex shared by every process talking to the
//     same Redis instance.
//   - Healthcheck, for readiness probes.
//
// Configuration is described by Config whose fields are populated from
// environment variables via github.com/caarlos0/env.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	store := redis.NewStorageWithConfig(client, cfg)
//	if err := store.Set(ctx, "foo", []byte("bar"), 0); err != nil {
//	    return err
//	}
//
//	locker := redis.NewLocker(client, redis.WithLockTTL(5*time.Second))
//	unlock, err := locker.Lock(ctx, "user:42")
//	if err != nil {
//	    return err
//	}
//	defer unlock()
//
// # Errors
//
// Sentinel errors (e.g. ErrRedisNotReady, ErrLockNotAcquired) wrap the
// underlying go-redis errors using errors.Join.
package redis
