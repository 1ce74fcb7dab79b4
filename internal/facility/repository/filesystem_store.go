// Package repository provides the WrappedKeyStore backends: a directory of files, LevelDB,
// Redis, PostgreSQL, MySQL and SQLite, plus a read-through cache that wraps any of them.
package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
	"github.com/allisson/kmi/internal/errors"
	facilityDomain "github.com/allisson/kmi/internal/facility/domain"
)

// FileSystemStore keeps one file per wrapped key inside a single directory.
//
// The file name is the lookup key. Writes go to a temporary file in the same
// directory that is renamed into place, so a reader sees either the old record or
// the new one. Concurrent writers to the same key are not coordinated.
type FileSystemStore struct {
	dir string
}

// NewFileSystemStore creates the directory if needed and checks it is writable.
func NewFileSystemStore(dir string) (*FileSystemStore, error) {
	if dir == "" {
		return nil, errors.Wrap(errors.ErrInvalidConfiguration, "store path is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidConfiguration, err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidConfiguration, err)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(errors.ErrInvalidConfiguration, "store path %q is not a directory", dir)
	}

	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return nil, fmt.Errorf("%w: store path is not writable: %w", errors.ErrInvalidConfiguration, err)
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	return &FileSystemStore{dir: dir}, nil
}

// Get reads the wrapped key stored under key.
func (s *FileSystemStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, facilityDomain.ErrKeyNotFound
		}
		return nil, errors.Wrap(err, "failed to read wrapped key")
	}
	return data, nil
}

// Set atomically writes wrapped under key.
func (s *FileSystemStore) Set(_ context.Context, key string, wrapped []byte) error {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+key+"-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(wrapped); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "failed to write wrapped key")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "failed to sync wrapped key")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "failed to close wrapped key")
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "failed to store wrapped key")
	}
	return nil
}

// Delete removes the wrapped key stored under key.
func (s *FileSystemStore) Delete(_ context.Context, key string) error {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return err
	}

	if err := os.Remove(s.path(key)); err != nil {
		if os.IsNotExist(err) {
			return facilityDomain.ErrKeyNotFound
		}
		return errors.Wrap(err, "failed to delete wrapped key")
	}
	return nil
}

// List returns every stored lookup key in lexical order.
// Temporary files and anything else that is not a lookup key are skipped.
func (s *FileSystemStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list wrapped keys")
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if cryptoDomain.ValidateLookupKey(entry.Name()) != nil {
			continue
		}
		keys = append(keys, entry.Name())
	}
	return keys, nil
}

// Contains reports whether a wrapped key is stored under key.
func (s *FileSystemStore) Contains(_ context.Context, key string) (bool, error) {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return false, err
	}

	_, err := os.Stat(s.path(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrap(err, "failed to stat wrapped key")
}

func (s *FileSystemStore) path(key string) string {
	return filepath.Join(s.dir, key)
}
