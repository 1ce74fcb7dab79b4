package repository

import (
	"context"
	"database/sql"
	"time"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
	"github.com/allisson/kmi/internal/errors"
	facilityDomain "github.com/allisson/kmi/internal/facility/domain"
)

// SQLiteStore implements wrapped key persistence on an embedded SQLite database.
// Unlike the server databases it creates its own table, so no migration step is needed.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the wrapped_keys table if it does not exist.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.createTables(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to create tables")
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS wrapped_keys (
		lookup_key TEXT PRIMARY KEY,
		wrapped_key BLOB NOT NULL,
		created_at TIMESTAMP NOT NULL
	);`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Get retrieves the wrapped key stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return nil, err
	}

	query := `SELECT wrapped_key FROM wrapped_keys WHERE lookup_key = ?`

	var wrapped []byte
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&wrapped); err != nil {
		if err == sql.ErrNoRows {
			return nil, facilityDomain.ErrKeyNotFound
		}
		return nil, errors.Wrap(err, "failed to get wrapped key")
	}
	return wrapped, nil
}

// Set inserts or replaces the wrapped key stored under key.
func (s *SQLiteStore) Set(ctx context.Context, key string, wrapped []byte) error {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return err
	}

	query := `INSERT INTO wrapped_keys (lookup_key, wrapped_key, created_at)
			  VALUES (?, ?, ?)
			  ON CONFLICT(lookup_key) DO UPDATE SET wrapped_key = excluded.wrapped_key`

	if _, err := s.db.ExecContext(ctx, query, key, wrapped, time.Now().UTC()); err != nil {
		return errors.Wrap(err, "failed to store wrapped key")
	}
	return nil
}

// Delete removes the wrapped key stored under key.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM wrapped_keys WHERE lookup_key = ?`, key)
	if err != nil {
		return errors.Wrap(err, "failed to delete wrapped key")
	}
	return checkDeleted(result)
}

// List returns every stored lookup key in lexical order.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	return listKeys(ctx, s.db, `SELECT lookup_key FROM wrapped_keys ORDER BY lookup_key`)
}

// Contains reports whether a wrapped key is stored under key.
func (s *SQLiteStore) Contains(ctx context.Context, key string) (bool, error) {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return false, err
	}

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM wrapped_keys WHERE lookup_key = ?)`
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check wrapped key")
	}
	return exists, nil
}
