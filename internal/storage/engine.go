// Package storage owns the DuckDB storage handles. Engines are shared
// per storage name through a Registry so concurrent consumers of the same
// logical store never race on schema initialization.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver

	"github.com/sealdb/sealdb/internal/errors"
)

const dbDirPerm = 0755

// Pool tunes the connection pool of engines a registry opens. Zero fields
// fall back to the defaults.
type Pool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultPool matches the documented configuration defaults
var DefaultPool = Pool{
	MaxOpenConns:    10,
	MaxIdleConns:    5,
	ConnMaxLifetime: 30 * time.Minute,
}

func (p Pool) withDefaults() Pool {
	if p.MaxOpenConns <= 0 {
		p.MaxOpenConns = DefaultPool.MaxOpenConns
	}

	if p.MaxIdleConns <= 0 {
		p.MaxIdleConns = DefaultPool.MaxIdleConns
	}

	if p.ConnMaxLifetime <= 0 {
		p.ConnMaxLifetime = DefaultPool.ConnMaxLifetime
	}

	return p
}

// Engine wraps one live DuckDB handle for a named logical store
type Engine struct {
	db   *sql.DB
	name string
	path string
}

// openEngine opens (or creates) the database file for a storage name.
// Engines are only constructed through Registry.Open.
func openEngine(name, dir string, pool Pool) (*Engine, error) {
	if err := os.MkdirAll(dir, dbDirPerm); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeStorage, "failed to create database directory")
	}

	path := filepath.Join(dir, name+".duckdb")

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeStorage, "failed to open database %s", path)
	}

	pool = pool.withDefaults()
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, errors.ErrTypeStorage, "failed to ping database %s", path)
	}

	return &Engine{db: db, name: name, path: path}, nil
}

// Name returns the logical storage name
func (e *Engine) Name() string { return e.name }

// Path returns the database file path
func (e *Engine) Path() string { return e.path }

// DB exposes the underlying handle for tests and stats
func (e *Engine) DB() *sql.DB { return e.db }

// ExecContext executes a statement against the engine
func (e *Engine) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return e.db.ExecContext(ctx, query, args...)
}

// QueryContext runs a query against the engine
func (e *Engine) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return e.db.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query against the engine
func (e *Engine) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return e.db.QueryRowContext(ctx, query, args...)
}

// SizeMB returns the approximate database file size in megabytes
func (e *Engine) SizeMB() float64 {
	info, err := os.Stat(e.path)
	if err != nil {
		return 0
	}

	return float64(info.Size()) / (1024 * 1024)
}

// Close closes the underlying handle
func (e *Engine) Close() error {
	if e.db != nil {
		return e.db.Close()
	}

	return nil
}

// String implements fmt.Stringer for log fields
func (e *Engine) String() string {
	return fmt.Sprintf("engine(%s)", e.name)
}
