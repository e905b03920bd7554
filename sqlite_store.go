package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements KVStore on a single SQLite table.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
type SQLiteStore struct {
	db    *sql.DB
	clock clockwork.Clock
}

// NewSQLiteStore opens the database and creates the kv table if needed.
// clock stamps updated_at on every write.
func NewSQLiteStore(dbPath string, clock clockwork.Clock) (*SQLiteStore, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// :memory: databases are per connection
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, clock: clock}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get reads the value stored under key
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", key, err)
	}
	return value, true, nil
}

// Set replaces the value stored under key
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	now := s.clock.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now,
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

