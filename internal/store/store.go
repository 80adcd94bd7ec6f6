// Package store provides SQLite storage for the Mohini capture index.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store owns the SQLite connection backing the capture index.
type Store struct {
	db   *sql.DB
	path string
}

// New opens the capture index at dbPath, creating it if needed, and
// brings the schema up to date. Capture rows are written from capture
// session callbacks while the HTTP API reads them, so the index runs
// in WAL mode with a busy timeout instead of failing on concurrent
// access.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture index: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// The journal_mode pragma reports the resulting mode as a row.
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode = WAL").Scan(&mode); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL journaling: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}
