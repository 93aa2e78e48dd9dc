package db

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Sentinel errors surfaced by the cache store and registry. Callers use
// errors.Is to tell a configuration problem apart from a transient one; any
// other error from this package indicates unexpected local storage failure
// and is treated as fatal.
var (
	ErrIssueNotFound  = errors.New("issue not found in cache")
	ErrAlreadyTracked = errors.New("repository is already tracked")
	ErrNotTracked     = errors.New("repository is not tracked")
	ErrNoDefaultRepo  = errors.New("no default repository set")
)

// DB represents the cache database connection
type DB struct {
	*sql.DB
}

// New creates a new database connection. WAL mode keeps concurrent readers
// from observing torn writes when a sync runs in another process; the busy
// timeout covers short write contention between invocations.
func New(dbPath string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Initialize creates the database schema if it doesn't exist
func (db *DB) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS repositories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		full_name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		is_default BOOLEAN NOT NULL DEFAULT 0,
		added_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS issues (
		repository_id INTEGER NOT NULL,
		number INTEGER NOT NULL,
		title TEXT NOT NULL,
		body TEXT,
		state TEXT NOT NULL,
		author TEXT,
		labels TEXT,
		comment_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP,
		fetched_at TIMESTAMP NOT NULL,
		PRIMARY KEY (repository_id, number),
		FOREIGN KEY (repository_id) REFERENCES repositories(id)
	);

	CREATE TABLE IF NOT EXISTS sync_cursors (
		repository_id INTEGER PRIMARY KEY,
		last_synced_at TIMESTAMP NOT NULL,
		last_seen_update TIMESTAMP,
		FOREIGN KEY (repository_id) REFERENCES repositories(id)
	);

	CREATE TABLE IF NOT EXISTS notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		repository_id INTEGER NOT NULL,
		issue_number INTEGER NOT NULL,
		body TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (repository_id) REFERENCES repositories(id)
	);

	CREATE INDEX IF NOT EXISTS idx_issues_state ON issues(repository_id, state);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
