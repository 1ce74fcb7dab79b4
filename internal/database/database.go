// Package database opens the connection pools of the SQL-backed key stores.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	apperrors "github.com/allisson/kmi/internal/errors"
)

// SQLiteDriver is the database/sql name registered by go-sqlite3.
const SQLiteDriver = "sqlite3"

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPingInterval   = time.Second
)

// Config holds the pool settings of one store database.
type Config struct {
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	// PingAttempts is how many pings are tried before giving up. Values below 1 mean 1.
	PingAttempts int
	// PingInterval separates two ping attempts. Zero means one second.
	PingInterval time.Duration
}

// Connect is ConnectContext bounded by a ten second timeout per ping attempt.
func Connect(cfg Config) (*sql.DB, error) {
	attempts := max(cfg.PingAttempts, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(attempts)*defaultConnectTimeout)
	defer cancel()
	return ConnectContext(ctx, cfg)
}

// ConnectContext opens the pool and pings it until it answers, PingAttempts run out
// or ctx ends. A database that never answers is reported as ErrUnavailable so callers
// can tell a database that is down from a bad driver name.
func ConnectContext(ctx context.Context, cfg Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConnections
	if cfg.Driver == SQLiteDriver {
		// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := ping(ctx, db, cfg); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ping(ctx context.Context, db *sql.DB, cfg Config) error {
	attempts := max(cfg.PingAttempts, 1)
	interval := cfg.PingInterval
	if interval <= 0 {
		interval = defaultPingInterval
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: failed to ping database: %w", apperrors.ErrUnavailable, ctx.Err())
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("%w: failed to ping database after %d attempt(s): %w", apperrors.ErrUnavailable, attempts, err)
}
