// Package strategycache provides a cache mapping a comparable key, such as
// an InterceptionPoint, to lazily-created, long-lived strategy state (a
// *Bulkhead, a *CircuitBreaker, a *RateLimiter), so every lookup of the
// same key gets one shared instance. resilience.Builder does not use this
// cache: each Build creates its own strategy instances.
//
// Entries live for the process lifetime; there is no TTL or eviction —
// a strategy's state (a circuit breaker's rolling window, a bulkhead's
// active count) has no meaningful expiry, only a lifetime tied to the
// process.
package strategycache

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// StrategyCache maps a comparable key to a lazily-created value of type V,
// creating each value at most once even under concurrent first access to
// the same key.
type StrategyCache[K comparable, V any] struct {
	group singleflight.Group

	mu      sync.RWMutex
	entries map[K]V
}

// New creates an empty StrategyCache.
func New[K comparable, V any]() *StrategyCache[K, V] {
	return &StrategyCache[K, V]{entries: make(map[K]V)}
}

// GetOrCreate returns the value stored under key, calling create to
// produce it on a miss. Concurrent GetOrCreate calls for the same key that
// miss together block on a single create call via singleflight.
func (c *StrategyCache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	result, err, _ := c.group.Do(fmt.Sprint(key), func() (any, error) {
		c.mu.RLock()
		v, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return v, nil
		}

		v, err := create()
		if err != nil {
			return v, err
		}

		c.mu.Lock()
		c.entries[key] = v
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

// Get returns the value stored under key, if present.
func (c *StrategyCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Delete removes key's entry, if present. Idempotent.
func (c *StrategyCache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len reports the number of cached entries.
func (c *StrategyCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
