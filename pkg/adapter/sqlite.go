package adapter

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at REAL DEFAULT (unixepoch())
);
`

// SQLiteKV stores values in a local SQLite file. It backs the durable scope
// when no cloud backend is configured.
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV opens (and creates if needed) the database at path. Use
// ":memory:" for a throwaway database.
func NewSQLiteKV(ctx context.Context, path string) (*SQLiteKV, error) {
	params := url.Values{}
	params.Add("_busy_timeout", "5000")
	if path != ":memory:" {
		params.Add("_journal_mode", "WAL")
	}

	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&" + params.Encode()
	} else {
		dsn += "?" + params.Encode()
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("path", path))
	}
	// a single connection keeps ":memory:" databases alive and shared
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to ping sqlite database", goerr.V("path", path))
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to create kv table", goerr.V("path", path))
	}

	return &SQLiteKV{db: db}, nil
}

func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, goerr.Wrap(err, "failed to query kv", goerr.V("key", key))
	}
	return value, true, nil
}

func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO kv (key, value, updated_at) VALUES (?, ?, unixepoch())
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, key, value)
	if err != nil {
		return goerr.Wrap(err, "failed to upsert kv", goerr.V("key", key))
	}
	return nil
}

func (s *SQLiteKV) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return goerr.Wrap(err, "failed to delete kv", goerr.V("key", key))
	}
	return nil
}

// Close releases the database handle
func (s *SQLiteKV) Close() error {
	if err := s.db.Close(); err != nil {
		return goerr.Wrap(err, "failed to close sqlite database")
	}
	return nil
}
