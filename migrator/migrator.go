// Package migrator applies schema migrations from a directory before data is
// loaded with sqlhelper.
package migrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/metailurini/sqlhelper/apperrors"
)

// Config selects the migration driver and the directory holding
// NNN_name.up.sql / NNN_name.down.sql files.
type Config struct {
	Driver string
	Dir    string
}

// Migrator is the subset of *migrate.Migrate used by Run.
type Migrator interface {
	Up() error
	Close() (sourceErr, dbErr error)
}

// Factory builds a Migrator bound to db.
type Factory func(ctx context.Context, db *sql.DB, cfg Config) (Migrator, error)

// Runner applies migrations through its Factory.
type Runner struct {
	factory Factory
}

// NewRunner returns a Runner; a nil factory uses golang-migrate.
func NewRunner(factory Factory) *Runner {
	if factory == nil {
		factory = newMigrator
	}
	return &Runner{factory: factory}
}

// Run applies pending migrations with the default factory. Run closes db
// before returning, so callers open a dedicated handle for it.
func Run(ctx context.Context, db *sql.DB, cfg Config, logger *slog.Logger) error {
	return NewRunner(nil).Run(ctx, db, cfg, logger)
}

func newMigrator(_ context.Context, db *sql.DB, cfg Config) (Migrator, error) {
	var (
		driver database.Driver
		name   string
		err    error
	)
	switch strings.ToLower(cfg.Driver) {
	case "pgx", "postgres", "postgresql":
		name = "pgx5"
		driver, err = pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	case "sqlite", "sqlite3":
		name = "sqlite"
		driver, err = sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	default:
		return nil, fmt.Errorf("migration driver %q: %w", cfg.Driver, apperrors.ErrNotSupported)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s migration driver: %w", name, err)
	}

	source, err := iofs.New(os.DirFS(cfg.Dir), ".")
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("init migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, name, driver)
	if err != nil {
		_ = source.Close()
		_ = driver.Close()
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	return m, nil
}

// Run applies any pending migrations. It is safe to call multiple times with
// fresh handles. db is closed on every path; golang-migrate closes it on
// success and Run closes it again, which database/sql treats as a no-op.
func (r *Runner) Run(ctx context.Context, db *sql.DB, cfg Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close migration db handle", "err", err)
		}
	}()
	if cfg.Dir == "" {
		return fmt.Errorf("migrations directory is required: %w", apperrors.ErrNotConfigured)
	}

	m, err := r.factory(ctx, db, cfg)
	if err != nil {
		return err
	}
	defer func() {
		sourceErr, dbErr := m.Close()
		if sourceErr != nil {
			logger.Warn("failed to close migration source", "err", sourceErr)
		}
		if dbErr != nil {
			logger.Warn("failed to close migration db", "err", dbErr)
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	logger.Info("applying migrations", "dir", cfg.Dir, "driver", cfg.Driver)
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migrations to apply")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("migrations applied")
	return nil
}
