package redis

import "errors"

var (
	ErrFailedToParseRedisConnString = errors.New("redis: invalid connection url")
	ErrRedisNotReady                = errors.New("redis: server not ready before timeout")
	ErrHealthcheckFailed            = errors.New("redis: healthcheck failed")
	ErrLockNotAcquired              = errors.New("redis: lock not acquired before deadline")
	ErrLockLost                     = errors.New("redis: lock expired before release")
)
