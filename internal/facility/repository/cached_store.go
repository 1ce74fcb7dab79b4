package repository

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
	"github.com/allisson/kmi/internal/errors"
)

// Store is the backend contract CachedStore decorates.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, wrapped []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
	Contains(ctx context.Context, key string) (bool, error)
}

// CachedStore is a read-through cache of raw wrapped key bytes over any Store.
//
// Reads populate the cache, writes update the backend first and then the cache,
// and deletes evict from both. Entries do not expire: a wrapped key never changes
// for the lifetime of its KEK. The entry count is bounded by LRU eviction.
type CachedStore struct {
	next  Store
	cache *lru.Cache[string, []byte]
}

// NewCachedStore wraps next with an LRU holding at most size wrapped keys.
func NewCachedStore(next Store, size int) (*CachedStore, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidConfiguration, err)
	}
	return &CachedStore{next: next, cache: cache}, nil
}

// Get returns the cached bytes for key, reading through to the backend on a miss.
func (c *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	if wrapped, ok := c.cache.Get(key); ok {
		return cryptoDomain.Clone(wrapped), nil
	}

	wrapped, err := c.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cryptoDomain.Clone(wrapped))
	return wrapped, nil
}

// Set writes through to the backend and then refreshes the cache.
func (c *CachedStore) Set(ctx context.Context, key string, wrapped []byte) error {
	if err := c.next.Set(ctx, key, wrapped); err != nil {
		c.cache.Remove(key)
		return err
	}
	c.cache.Add(key, cryptoDomain.Clone(wrapped))
	return nil
}

// Delete removes key from the backend and then evicts it from the cache, whatever
// the backend answered. Evicting last drops an entry a concurrent Get may have
// cached while the backend delete was in progress.
func (c *CachedStore) Delete(ctx context.Context, key string) error {
	err := c.next.Delete(ctx, key)
	c.cache.Remove(key)
	return err
}

// List always asks the backend; other processes may have added keys.
func (c *CachedStore) List(ctx context.Context) ([]string, error) {
	return c.next.List(ctx)
}

// Contains answers from the cache when it can.
func (c *CachedStore) Contains(ctx context.Context, key string) (bool, error) {
	if c.cache.Contains(key) {
		return true, nil
	}
	return c.next.Contains(ctx, key)
}

// Len returns the number of cached wrapped keys.
func (c *CachedStore) Len() int {
	return c.cache.Len()
}
