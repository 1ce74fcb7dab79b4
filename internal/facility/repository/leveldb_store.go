package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
	"github.com/allisson/kmi/internal/errors"
	facilityDomain "github.com/allisson/kmi/internal/facility/domain"
)

// wrappedKeyPrefix namespaces wrapped keys inside the LevelDB keyspace.
const wrappedKeyPrefix = "wk/"

// LevelDBStore keeps wrapped keys in an embedded LevelDB database.
type LevelDBStore struct {
	db *leveldb.DB
}

// NewLevelDBStore opens (or creates) the database at path.
func NewLevelDBStore(path string) (*LevelDBStore, error) {
	if path == "" {
		return nil, errors.Wrap(errors.ErrInvalidConfiguration, "store path is required")
	}

	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open leveldb: %w", errors.ErrInvalidConfiguration, err)
	}
	return &LevelDBStore{db: db}, nil
}

// Get reads the wrapped key stored under key.
func (s *LevelDBStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return nil, err
	}

	value, err := s.db.Get(levelKey(key), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, facilityDomain.ErrKeyNotFound
		}
		return nil, errors.Wrap(err, "failed to get wrapped key")
	}
	return value, nil
}

// Set writes wrapped under key with a synced write.
func (s *LevelDBStore) Set(_ context.Context, key string, wrapped []byte) error {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return err
	}

	if err := s.db.Put(levelKey(key), wrapped, &opt.WriteOptions{Sync: true}); err != nil {
		return errors.Wrap(err, "failed to store wrapped key")
	}
	return nil
}

// Delete removes the wrapped key stored under key.
func (s *LevelDBStore) Delete(ctx context.Context, key string) error {
	ok, err := s.Contains(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return facilityDomain.ErrKeyNotFound
	}

	if err := s.db.Delete(levelKey(key), &opt.WriteOptions{Sync: true}); err != nil {
		return errors.Wrap(err, "failed to delete wrapped key")
	}
	return nil
}

// List returns every stored lookup key in lexical order.
func (s *LevelDBStore) List(_ context.Context) ([]string, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(wrappedKeyPrefix)), nil)
	defer iter.Release()

	keys := make([]string, 0)
	for iter.Next() {
		keys = append(keys, strings.TrimPrefix(string(iter.Key()), wrappedKeyPrefix))
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "failed to list wrapped keys")
	}
	return keys, nil
}

// Contains reports whether a wrapped key is stored under key.
func (s *LevelDBStore) Contains(_ context.Context, key string) (bool, error) {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return false, err
	}

	ok, err := s.db.Has(levelKey(key), nil)
	if err != nil {
		return false, errors.Wrap(err, "failed to check wrapped key")
	}
	return ok, nil
}

// Close releases the database files.
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}

func levelKey(key string) []byte {
	return []byte(wrappedKeyPrefix + key)
}
