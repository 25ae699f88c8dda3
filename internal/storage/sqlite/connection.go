// Package sqlite is the SQLite-backed implementation of queue.Store.
//
// It uses the pure-Go modernc.org/sqlite driver (no cgo, keeps queuectl a
// single static binary) and applies schema migrations through goose from
// an embedded migrations directory, the same connection pattern this
// package is adapted from.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Open creates (if needed) and connects to a SQLite database at path,
// applying migrations idempotently. path may be ":memory:" for tests.
func Open(ctx context.Context, path string) (*Store, error) {
	// _txlock=immediate makes every sql.Tx take SQLite's write lock at
	// BEGIN rather than on first write, so two concurrent claim
	// transactions serialize instead of racing to upgrade a shared lock —
	// the substitute for Postgres's SELECT ... FOR UPDATE SKIP LOCKED.
	dsn := path + "?_txlock=immediate"
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time regardless of connection
	// count; a single connection serializes this process's statements and
	// transactions. Each process (supervisor, CLI, worker) opens its own
	// Store, so this does not serialize access across processes.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	goose.SetBaseFS(embedMigrations)
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
