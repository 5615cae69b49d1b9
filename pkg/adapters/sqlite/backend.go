// Package sqlite stores the notes under one row of a SQLite key-value table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/aretw0/stickies/pkg/adapters/sqlite/migrations"
	"github.com/aretw0/stickies/pkg/core"
)

// DriverName is the database/sql driver registered by go-sqlite3.
const DriverName = "sqlite3"

var gooseMu sync.Mutex // goose keeps its base FS and dialect in globals

// Backend implements core.Backend on a SQLite database.
type Backend struct {
	db     *sql.DB
	key    string
	logger *slog.Logger
}

// Config holds the configuration for the SQLite backend.
type Config struct {
	DSN    string // e.g. "file:/var/lib/stickies/notes.db"
	Key    string // defaults to core.DefaultKey
	Logger *slog.Logger
}

// Open connects to the database and applies pending migrations.
func Open(ctx context.Context, cfg Config) (*Backend, error) {
	db, err := sql.Open(DriverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return NewBackend(db, cfg.Key, cfg.Logger), nil
}

// NewBackend wraps an already migrated database.
func NewBackend(db *sql.DB, key string, logger *slog.Logger) *Backend {
	if key == "" {
		key = core.DefaultKey
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{db: db, key: key, logger: logger}
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Load returns the value stored under the key, or core.ErrNoState.
func (b *Backend) Load(ctx context.Context) ([]byte, error) {
	var value []byte
	err := b.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, b.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kv[%s]: %w", b.key, err)
	}
	return value, nil
}

// Save upserts the value under the key.
func (b *Backend) Save(ctx context.Context, data []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, b.key, data)
	if err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", b.key, err)
	}
	b.logger.Debug("saved", "backend", "sqlite", "key", b.key, "bytes", len(data))
	return nil
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

var _ core.Backend = (*Backend)(nil)
