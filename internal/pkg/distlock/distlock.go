// Package distlock provides distributed locking so that only one
// worker mutates a given segment or sends a given campaign at a time.
//
// Redis is the primary backend. When no Redis client is configured the
// package falls back to an in-process lock, which is correct for
// single-node deployments but does not coordinate across processes.
package distlock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistLock is a distributed lock that can be acquired and released.
type DistLock interface {
	// Acquire attempts to acquire the lock. Returns true if acquired,
	// false if the lock is held elsewhere.
	Acquire(ctx context.Context) (bool, error)

	// Release releases the lock. Only the holder that acquired the
	// lock can release it.
	Release(ctx context.Context) error
}

// NewLock creates a lock for the given key. Prefers Redis when a
// client is available, otherwise falls back to an in-process lock.
func NewLock(redisClient *redis.Client, key string, ttl time.Duration) DistLock {
	if redisClient != nil {
		return NewRedisLock(redisClient, key, ttl)
	}
	return newLocalLock(key)
}
