package distlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLock implements DistLock using Redis SET NX with a TTL.
// Each lock instance carries a random ownership value so that a lock
// expired and re-acquired by another holder cannot be released here.
type RedisLock struct {
	client *redis.Client
	key    string
	value  string
	ttl    time.Duration
}

// NewRedisLock creates a Redis-backed lock for the given key.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return &RedisLock{
		client: client,
		key:    "lock:" + key,
		value:  hex.EncodeToString(buf),
		ttl:    ttl,
	}
}

// Acquire attempts to take the lock. Returns false when another
// holder has it.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis lock acquire: %w", err)
	}
	return ok, nil
}

// releaseScript deletes the key only if this instance still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// Release releases the lock if still owned by this instance.
func (l *RedisLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.value).Err(); err != nil {
		return fmt.Errorf("redis lock release: %w", err)
	}
	return nil
}

// extendScript refreshes the TTL only if this instance still owns the key.
var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`)

// Extend refreshes the lock TTL for long-running operations.
func (l *RedisLock) Extend(ctx context.Context) error {
	if err := extendScript.Run(ctx, l.client, []string{l.key}, l.value, l.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("redis lock extend: %w", err)
	}
	return nil
}
