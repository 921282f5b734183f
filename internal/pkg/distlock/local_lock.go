package distlock

import (
	"context"
	"sync"
)

// localLocks tracks held in-process locks by key.
var localLocks = struct {
	mu   sync.Mutex
	held map[string]bool
}{held: make(map[string]bool)}

// localLock is the single-process fallback used when Redis is not
// configured. Acquire is a non-blocking try-lock, matching the Redis
// behavior.
type localLock struct {
	key string
}

func newLocalLock(key string) *localLock {
	return &localLock{key: key}
}

func (l *localLock) Acquire(ctx context.Context) (bool, error) {
	localLocks.mu.Lock()
	defer localLocks.mu.Unlock()
	if localLocks.held[l.key] {
		return false, nil
	}
	localLocks.held[l.key] = true
	return true, nil
}

func (l *localLock) Release(ctx context.Context) error {
	localLocks.mu.Lock()
	defer localLocks.mu.Unlock()
	delete(localLocks.held, l.key)
	return nil
}
