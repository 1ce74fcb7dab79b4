package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
	"github.com/allisson/kmi/internal/errors"
	facilityDomain "github.com/allisson/kmi/internal/facility/domain"
)

// redisScanCount is the COUNT hint passed to SCAN while listing keys.
const redisScanCount = 100

// RedisStore keeps wrapped keys as plain Redis strings under a common prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store that namespaces its keys with prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Get reads the wrapped key stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return nil, err
	}

	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, facilityDomain.ErrKeyNotFound
		}
		return nil, errors.Wrap(err, "failed to get wrapped key")
	}
	return value, nil
}

// Set writes wrapped under key without expiry.
func (s *RedisStore) Set(ctx context.Context, key string, wrapped []byte) error {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.prefix+key, wrapped, 0).Err(); err != nil {
		return errors.Wrap(err, "failed to store wrapped key")
	}
	return nil
}

// Delete removes the wrapped key stored under key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return err
	}

	removed, err := s.client.Del(ctx, s.prefix+key).Result()
	if err != nil {
		return errors.Wrap(err, "failed to delete wrapped key")
	}
	if removed == 0 {
		return facilityDomain.ErrKeyNotFound
	}
	return nil
}

// List returns every stored lookup key in lexical order.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0)
	iter := s.client.Scan(ctx, 0, s.prefix+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		key := strings.TrimPrefix(iter.Val(), s.prefix)
		if cryptoDomain.ValidateLookupKey(key) != nil {
			continue
		}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to list wrapped keys")
	}

	sort.Strings(keys)
	return keys, nil
}

// Contains reports whether a wrapped key is stored under key.
func (s *RedisStore) Contains(ctx context.Context, key string) (bool, error) {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return false, err
	}

	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to check wrapped key")
	}
	return n > 0, nil
}
