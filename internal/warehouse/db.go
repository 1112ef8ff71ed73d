// Package warehouse owns the embedded DuckDB store: schema migrations, the
// idempotent merge layer, and the read/write repositories over the dimension
// and fact tables.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/rs/zerolog"

	"futures-six/internal/config"
)

// ErrNotConfigured indicates the store was opened without a database path.
var ErrNotConfigured = errors.New("warehouse: database path not configured")

// Store wraps the single-writer DuckDB handle.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (creating if needed) the warehouse for read-write use and applies
// pending migrations. The connection pool is pinned to one connection: the
// design assumes a single ingestion process holds write access, and DuckDB
// itself is a single-writer engine.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, ErrNotConfigured
	}

	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb at %s: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db, logger: logger.With().Str("component", "warehouse").Logger()}
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// OpenReadOnly opens the warehouse without write access. Concurrent readers
// (audits, canonical queries) run in this mode without coordinating with the
// writer.
func OpenReadOnly(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, ErrNotConfigured
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("database %s not found: %w", cfg.Path, err)
	}

	db, err := sql.Open("duckdb", cfg.Path+"?access_mode=read_only")
	if err != nil {
		return nil, fmt.Errorf("open duckdb read-only at %s: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	return &Store{db: db, logger: logger.With().Str("component", "warehouse").Logger()}, nil
}

// Close releases the underlying handle.
func (s *Store) Close() {
	if s == nil || s.db == nil {
		return
	}
	s.db.Close()
}

func (s *Store) getDB() (*sql.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConfigured
	}
	return s.db, nil
}
