package repository

import (
	"context"
	"database/sql"
	"time"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
	"github.com/allisson/kmi/internal/errors"
	facilityDomain "github.com/allisson/kmi/internal/facility/domain"
)

// MySQLStore implements wrapped key persistence for MySQL.
// The wrapped_keys table is created by the mysql migrations.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore creates a new MySQL wrapped key store.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// Get retrieves the wrapped key stored under key.
func (m *MySQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return nil, err
	}

	query := `SELECT wrapped_key FROM wrapped_keys WHERE lookup_key = ?`

	var wrapped []byte
	if err := m.db.QueryRowContext(ctx, query, key).Scan(&wrapped); err != nil {
		if err == sql.ErrNoRows {
			return nil, facilityDomain.ErrKeyNotFound
		}
		return nil, errors.Wrap(err, "failed to get wrapped key")
	}
	return wrapped, nil
}

// Set inserts or replaces the wrapped key stored under key.
func (m *MySQLStore) Set(ctx context.Context, key string, wrapped []byte) error {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return err
	}

	query := `INSERT INTO wrapped_keys (lookup_key, wrapped_key, created_at)
			  VALUES (?, ?, ?)
			  ON DUPLICATE KEY UPDATE wrapped_key = VALUES(wrapped_key)`

	if _, err := m.db.ExecContext(ctx, query, key, wrapped, time.Now().UTC()); err != nil {
		return errors.Wrap(err, "failed to store wrapped key")
	}
	return nil
}

// Delete removes the wrapped key stored under key.
func (m *MySQLStore) Delete(ctx context.Context, key string) error {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return err
	}

	query := `DELETE FROM wrapped_keys WHERE lookup_key = ?`

	result, err := m.db.ExecContext(ctx, query, key)
	if err != nil {
		return errors.Wrap(err, "failed to delete wrapped key")
	}
	return checkDeleted(result)
}

// List returns every stored lookup key in lexical order.
func (m *MySQLStore) List(ctx context.Context) ([]string, error) {
	query := `SELECT lookup_key FROM wrapped_keys ORDER BY lookup_key`
	return listKeys(ctx, m.db, query)
}

// Contains reports whether a wrapped key is stored under key.
func (m *MySQLStore) Contains(ctx context.Context, key string) (bool, error) {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return false, err
	}

	query := `SELECT EXISTS(SELECT 1 FROM wrapped_keys WHERE lookup_key = ?)`

	var exists bool
	if err := m.db.QueryRowContext(ctx, query, key).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check wrapped key")
	}
	return exists, nil
}
