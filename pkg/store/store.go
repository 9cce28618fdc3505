// Package store persists installed package records and repository definitions in SQLite.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cperrin88/mrpkg/pkg/errors"
	"github.com/cperrin88/mrpkg/pkg/fsutil"
)

//go:embed schema.sql
var schemaSQL string

// Store is the package database. Every mutation is committed before the call returns.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path, creating parent directories as needed.
//
// The database is configured with:
//   - WAL journal
//   - FULL synchronous mode so committed records survive a crash
//   - 5-second busy timeout for lock contention
//
// Open is idempotent. Any failure is reported as ErrStorageUnavailable.
func Open(path string) (*Store, error) {
	if err := fsutil.EnsureFileDir(path); err != nil {
		return nil, unavailable(fmt.Errorf("failed to create database directory: %w", err))
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, unavailable(fmt.Errorf("failed to open database: %w", err))
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, unavailable(fmt.Errorf("failed to connect to database: %w", err))
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, unavailable(fmt.Errorf("failed to apply pragmas: %w", err))
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, unavailable(fmt.Errorf("failed to apply schema: %w", err))
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func unavailable(err error) error {
	return errors.Classify(errors.ErrStorageUnavailable, err)
}
