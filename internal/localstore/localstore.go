// Package localstore is the on-device key-value storage used for saved
// credentials and for every document in demo mode. It is a single SQLite
// database with one table of string keys and string values, so it behaves
// like the browser-style local storage the rest of the client expects:
// synchronous, string-valued, and persistent across runs.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	// Pure-Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// DirPerms is used when creating the directory that holds the database.
const DirPerms = 0o700

// SQL statements for key-value operations.
const (
	sqlGet = `SELECT value FROM kv WHERE key = ?`

	sqlSet = `INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
		 value = excluded.value,
		 updated_at = excluded.updated_at`

	sqlDelete = `DELETE FROM kv WHERE key = ?`

	sqlKeys = `SELECT key FROM kv WHERE key LIKE ? ESCAPE '\' ORDER BY key`
)

// DB is a key-value store backed by SQLite. It is the sole writer to its
// database file.
type DB struct {
	db      *sql.DB
	path    string
	logger  *slog.Logger
	nowFunc func() time.Time // injectable for deterministic tests
}

// Open opens (creating if needed) the database at path and applies pending
// migrations. The database uses WAL mode with synchronous=FULL so a crash
// never leaves a half-written value behind.
func Open(ctx context.Context, path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if path == "" {
		return nil, errors.New("localstore: database path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), DirPerms); err != nil {
		return nil, fmt.Errorf("localstore: creating directory for %s: %w", path, err)
	}

	// DSN parameters ensure pragmas apply to every connection from the pool.
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"+
			"&_pragma=busy_timeout(5000)",
		path,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("localstore: opening database %s: %w", path, err)
	}

	// Sole-writer pattern: only one connection writes at a time.
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("local store opened", slog.String("db_path", path))

	return &DB{
		db:      db,
		path:    path,
		logger:  logger,
		nowFunc: time.Now,
	}, nil
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Get returns the value stored under key. The boolean is false when the key
// has never been set (or was deleted); that is not an error.
func (d *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var value string

	err := d.db.QueryRowContext(ctx, sqlGet, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("localstore: reading %q: %w", key, err)
	}

	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (d *DB) Set(ctx context.Context, key, value string) error {
	if _, err := d.db.ExecContext(ctx, sqlSet, key, value, d.nowFunc().UnixNano()); err != nil {
		return fmt.Errorf("localstore: writing %q: %w", key, err)
	}

	d.logger.Debug("local value written",
		slog.String("key", key),
		slog.Int("bytes", len(value)),
	)

	return nil
}

// Delete removes key. Deleting a missing key is a no-op.
func (d *DB) Delete(ctx context.Context, key string) error {
	if _, err := d.db.ExecContext(ctx, sqlDelete, key); err != nil {
		return fmt.Errorf("localstore: deleting %q: %w", key, err)
	}

	return nil
}

// Keys returns every key starting with prefix, sorted.
func (d *DB) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, sqlKeys, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("localstore: listing keys: %w", err)
	}
	defer rows.Close()

	var keys []string

	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("localstore: scanning key: %w", err)
		}

		keys = append(keys, k)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("localstore: listing keys: %w", err)
	}

	return keys, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("localstore: closing database: %w", err)
	}

	return nil
}

// escapeLike escapes LIKE wildcards so prefix matching is literal.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))

	for i := range len(s) {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}

		out = append(out, s[i])
	}

	return string(out)
}
