// Package dbconn opens the *sql.DB handles the sqlhelper CLI hands to the
// library. The library itself never opens or closes connections.
package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/metailurini/sqlhelper/apperrors"
)

// Supported driver names.
const (
	DriverPgx    = "pgx"
	DriverSQLite = "sqlite"
)

// Config describes how to open and size a database handle. Zero values take
// the defaults; MaxOpenConns is capped at math.MaxInt32 for pgxpool. The
// sqlite driver ignores MaxOpenConns and always uses a single connection.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 25
	}
	c.MaxOpenConns = min(c.MaxOpenConns, math.MaxInt32)
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = 5 * time.Minute
	}
	if c.ConnMaxIdleTime <= 0 {
		c.ConnMaxIdleTime = time.Minute
	}
	return c
}

// Open opens and pings a database handle for cfg.Driver.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required: %w", apperrors.ErrNotConfigured)
	}
	cfg = cfg.withDefaults()

	var (
		db  *sql.DB
		err error
	)
	switch strings.ToLower(cfg.Driver) {
	case DriverPgx, "postgres", "postgresql":
		db, err = openPgx(ctx, cfg)
	case DriverSQLite, "sqlite3":
		db, err = openSQLite(cfg)
	default:
		return nil, fmt.Errorf("driver %q: %w", cfg.Driver, apperrors.ErrNotSupported)
	}
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// openPgx builds a pgxpool sized from cfg and exposes it through
// database/sql. Closing the returned *sql.DB closes the pool.
func openPgx(ctx context.Context, cfg Config) (*sql.DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse pgx dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgxpool: %w", err)
	}
	db := stdlib.OpenDBFromPool(pool)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	return db, nil
}

func openSQLite(cfg Config) (*sql.DB, error) {
	path, _, _ := strings.Cut(cfg.DSN, "?")
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dir, err)
			}
		}
	}
	db, err := sql.Open(DriverSQLite, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; also keeps :memory: on one connection
	db.SetConnMaxLifetime(0)
	return db, nil
}
