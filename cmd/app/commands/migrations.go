package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// migrationDirs maps the SQL store drivers that need a schema to their directory
// under migrations/. The sqlite store creates its table on open and the key-value
// stores have no schema.
var migrationDirs = map[string]string{
	"postgres": "postgresql",
	"mysql":    "mysql",
}

// newMigrate returns nil, nil for drivers without migrations.
func newMigrate(dbDriver, dbConnectionString string) (*migrate.Migrate, error) {
	dir, ok := migrationDirs[dbDriver]
	if !ok {
		return nil, nil
	}

	m, err := migrate.New("file://migrations/"+dir, migrationURL(dbDriver, dbConnectionString))
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// RunMigrations applies every pending migration of the wrapped_keys schema.
// Having nothing to apply is not an error.
func RunMigrations(logger *slog.Logger, dbDriver string, dbConnectionString string) error {
	m, err := newMigrate(dbDriver, dbConnectionString)
	if err != nil {
		return err
	}
	if m == nil {
		logger.Info("store driver needs no migrations", slog.String("driver", dbDriver))
		return nil
	}
	defer closeMigrate(m, logger)

	logger.Info("running database migrations", slog.String("driver", dbDriver))

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("migrations completed successfully")
	return nil
}

// RunMigrationStatus prints the applied schema version and whether the last
// migration failed halfway.
func RunMigrationStatus(logger *slog.Logger, stdio IOTuple, dbDriver string, dbConnectionString string) error {
	m, err := newMigrate(dbDriver, dbConnectionString)
	if err != nil {
		return err
	}
	if m == nil {
		_, err := fmt.Fprintf(stdio.Writer, "driver %q has no migrations\n", dbDriver)
		return err
	}
	defer closeMigrate(m, logger)

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		_, err = fmt.Fprintln(stdio.Writer, "version: none")
		return err
	case err != nil:
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	_, err = fmt.Fprintf(stdio.Writer, "version: %d\ndirty: %t\n", version, dirty)
	return err
}

// migrationURL adds the scheme golang-migrate expects to a go-sql-driver/mysql DSN.
func migrationURL(dbDriver, dsn string) string {
	if dbDriver == "mysql" && !strings.HasPrefix(dsn, "mysql://") {
		return "mysql://" + dsn
	}
	return dsn
}
