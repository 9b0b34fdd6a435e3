package localstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite is a Store backed by a single SQLite table.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("localstore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("localstore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("localstore: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Get returns the stored value for key.
func (s *SQLite) Get(key string) (string, bool, error) {
	var v string
	err := s.conn.QueryRow(`SELECT value FROM entries WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("localstore: get %s: %w", key, err)
	}
	return v, true, nil
}

// Set upserts value under key.
func (s *SQLite) Set(key, value string) error {
	_, err := s.conn.Exec(`
		INSERT INTO entries (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("localstore: set %s: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (s *SQLite) Remove(key string) error {
	if _, err := s.conn.Exec(`DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("localstore: remove %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}
