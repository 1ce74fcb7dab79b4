// Package cache provides a bounded, concurrency-safe cache of key material with lazy TTL expiry.
package cache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
	"github.com/allisson/kmi/internal/errors"
)

// Clock returns the current time. Tests substitute a controllable clock.
type Clock func() time.Time

type entry struct {
	value    []byte
	storedAt time.Time
}

// TTLCache maps string keys to byte values that stay valid for a fixed TTL after insertion.
//
// Expiry is checked on read: an entry older than the TTL is reported as absent and
// dropped, and nothing runs in the background. The entry count is capped with LRU
// eviction. Values are copied on the way in and out, and zeroed when they leave the cache.
type TTLCache struct {
	mu    sync.Mutex
	items *lru.Cache[string, *entry]
	ttl   time.Duration
	now   Clock
}

// New creates a TTLCache holding at most size entries. A nil clock means time.Now.
func New(size int, ttl time.Duration, clock Clock) (*TTLCache, error) {
	if ttl <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidConfiguration, "cache ttl must be positive, got %s", ttl)
	}
	if clock == nil {
		clock = time.Now
	}

	items, err := lru.NewWithEvict(size, func(_ string, e *entry) {
		cryptoDomain.Zero(e.value)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidConfiguration, err)
	}

	return &TTLCache{
		items: items,
		ttl:   ttl,
		now:   clock,
	}, nil
}

// Get returns a copy of the value stored under key if it has not expired.
func (c *TTLCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		c.items.Remove(key)
		return nil, false
	}

	return cryptoDomain.Clone(e.value), true
}

// Set stores a copy of value under key, replacing any previous entry.
func (c *TTLCache) Set(key string, value []byte) {
	v := cryptoDomain.Clone(value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.items.Peek(key); ok {
		cryptoDomain.Zero(old.value)
	}
	c.items.Add(key, &entry{value: v, storedAt: c.now()})
}

// Invalidate drops the entry stored under key, if any.
func (c *TTLCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items.Remove(key)
}

// Purge drops every entry.
func (c *TTLCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items.Purge()
}

// Len returns the number of entries, including expired ones not yet read.
func (c *TTLCache) Len() int {
	return c.items.Len()
}

// TTL returns the configured time to live.
func (c *TTLCache) TTL() time.Duration {
	return c.ttl
}
