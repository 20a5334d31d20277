// Package store is Engram's embedded SQLite layer: schema migrations, a
// bounded connection pool, and the memory/graph/session/event tables that
// everything else in the core reads and writes through.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lazypower/engram/internal/apperr"
	"github.com/lazypower/engram/internal/clock"
)

// DB wraps a sql.DB connection to the engram SQLite database, applying the
// single-writer/multi-reader discipline of spec §4.1: WithConnection for
// reads over the shared pool, WithTransaction for the serialized writer.
type DB struct {
	*sql.DB
	Path  string
	Clock clock.Clock
}

// DefaultDBPath returns the default database path: ~/.engram/engram.db
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".engram", "engram.db"), nil
}

// Open opens (or creates) the SQLite database at the given path, configures
// pragmas, and runs migrations.
func Open(path string, maxReaders, busyTimeoutMs int) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return open(path, maxReaders, busyTimeoutMs)
}

// OpenMemory opens an in-memory SQLite database for testing.
func OpenMemory() (*DB, error) {
	return open(":memory:", 4, 5000)
}

func open(path string, maxReaders, busyTimeoutMs int) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if maxReaders <= 0 {
		maxReaders = 4
	}
	sqlDB.SetMaxOpenConns(maxReaders + 1) // readers + the serialized writer
	sqlDB.SetMaxIdleConns(maxReaders + 1)

	db := &DB{DB: sqlDB, Path: path, Clock: clock.Real{}}
	if err := db.configurePragmas(busyTimeoutMs); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *DB) configurePragmas(busyTimeoutMs int) error {
	if busyTimeoutMs <= 0 {
		busyTimeoutMs = 5000
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA mmap_size=268435456", // 256MB
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMs),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

// WithConnection runs f against the pool for a read. Reads never block one
// another; SQLite's own reader/writer lock handles concurrency.
func (db *DB) WithConnection(ctx context.Context, f func(*sql.Conn) error) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return apperr.TransientStorage("with_connection", "acquire reader connection", err)
	}
	defer conn.Close()
	return f(conn)
}

// WithTransaction runs f inside a transaction that commits on a nil return
// and rolls back on any error, including a panic unwinding through f (the
// panic is re-raised after rollback so the caller's own recover, if any,
// still observes it).
func (db *DB) WithTransaction(ctx context.Context, f func(*sql.Tx) error) (err error) {
	op := func() error {
		tx, txErr := db.BeginTx(ctx, nil)
		if txErr != nil {
			return apperr.TransientStorage("with_transaction", "begin", txErr)
		}
		defer func() {
			if p := recover(); p != nil {
				tx.Rollback()
				panic(p)
			}
		}()
		if fErr := f(tx); fErr != nil {
			tx.Rollback()
			return fErr
		}
		if cErr := tx.Commit(); cErr != nil {
			return apperr.TransientStorage("with_transaction", "commit", cErr)
		}
		return nil
	}
	return withBusyRetry(ctx, op)
}

// withBusyRetry retries op with exponential backoff and jitter on transient
// SQLITE_BUSY/SQLITE_LOCKED contention, per spec §4.1's failure-mode
// contract. Non-transient errors pass through immediately.
func withBusyRetry(ctx context.Context, op func() error) error {
	const maxAttempts = 5
	base := 10 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		lastErr = err
		delay := base * time.Duration(1<<attempt)
		delay += time.Duration(rand.Int63n(int64(delay) / 2))
		select {
		case <-ctx.Done():
			return apperr.Wrap(apperr.Cancelled, "with_transaction", "context done during busy retry", ctx.Err())
		case <-time.After(delay):
		}
	}
	return lastErr
}

func isTransient(err error) bool {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Transient
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
