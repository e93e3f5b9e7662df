// Package cache provides the injected TTL cache used by the profile store,
// with an in-memory default and a Redis-backed implementation.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store is the cache contract the engine depends on. Entries expire after
// the TTL passed to Set; Get never returns an expired entry. Flush removes
// every entry (used by the hourly full invalidation).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Flush(ctx context.Context) error
	Close() error
}

// KeyedMutex serializes work per key. The profile store uses it to guarantee
// at most one in-flight build or recompute per user.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates an empty keyed mutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyLock)}
}

// Lock acquires the lock for key and returns the unlock function.
// Lock entries are reference-counted so the map does not grow unbounded.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
