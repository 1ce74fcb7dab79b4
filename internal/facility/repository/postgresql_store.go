package repository

import (
	"context"
	"database/sql"
	"time"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
	"github.com/allisson/kmi/internal/errors"
	facilityDomain "github.com/allisson/kmi/internal/facility/domain"
)

// PostgreSQLStore implements wrapped key persistence for PostgreSQL.
// The wrapped_keys table is created by the postgresql migrations.
type PostgreSQLStore struct {
	db *sql.DB
}

// NewPostgreSQLStore creates a new PostgreSQL wrapped key store.
func NewPostgreSQLStore(db *sql.DB) *PostgreSQLStore {
	return &PostgreSQLStore{db: db}
}

// Get retrieves the wrapped key stored under key.
func (p *PostgreSQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return nil, err
	}

	query := `SELECT wrapped_key FROM wrapped_keys WHERE lookup_key = $1`

	var wrapped []byte
	if err := p.db.QueryRowContext(ctx, query, key).Scan(&wrapped); err != nil {
		if err == sql.ErrNoRows {
			return nil, facilityDomain.ErrKeyNotFound
		}
		return nil, errors.Wrap(err, "failed to get wrapped key")
	}
	return wrapped, nil
}

// Set inserts or replaces the wrapped key stored under key.
func (p *PostgreSQLStore) Set(ctx context.Context, key string, wrapped []byte) error {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return err
	}

	query := `INSERT INTO wrapped_keys (lookup_key, wrapped_key, created_at)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (lookup_key) DO UPDATE SET wrapped_key = EXCLUDED.wrapped_key`

	if _, err := p.db.ExecContext(ctx, query, key, wrapped, time.Now().UTC()); err != nil {
		return errors.Wrap(err, "failed to store wrapped key")
	}
	return nil
}

// Delete removes the wrapped key stored under key.
func (p *PostgreSQLStore) Delete(ctx context.Context, key string) error {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return err
	}

	query := `DELETE FROM wrapped_keys WHERE lookup_key = $1`

	result, err := p.db.ExecContext(ctx, query, key)
	if err != nil {
		return errors.Wrap(err, "failed to delete wrapped key")
	}
	return checkDeleted(result)
}

// List returns every stored lookup key in lexical order.
func (p *PostgreSQLStore) List(ctx context.Context) ([]string, error) {
	query := `SELECT lookup_key FROM wrapped_keys ORDER BY lookup_key`
	return listKeys(ctx, p.db, query)
}

// Contains reports whether a wrapped key is stored under key.
func (p *PostgreSQLStore) Contains(ctx context.Context, key string) (bool, error) {
	if err := cryptoDomain.ValidateLookupKey(key); err != nil {
		return false, err
	}

	query := `SELECT EXISTS(SELECT 1 FROM wrapped_keys WHERE lookup_key = $1)`

	var exists bool
	if err := p.db.QueryRowContext(ctx, query, key).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check wrapped key")
	}
	return exists, nil
}

func checkDeleted(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return facilityDomain.ErrKeyNotFound
	}
	return nil
}

func listKeys(ctx context.Context, db *sql.DB, query string) (keys []string, err error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list wrapped keys")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "failed to close rows")
		}
	}()

	keys = make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.Wrap(err, "failed to scan lookup key")
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate lookup keys")
	}
	return keys, nil
}
