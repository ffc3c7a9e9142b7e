// Package archonstore is the durable, synchronous, single-process SQLite
// persistence layer for cl-hive-archon: the identity singleton, bindings,
// polls, votes, and the store-and-forward outbox. It enforces the
// uniqueness invariants spec.md §3 describes in-schema rather than in
// application code.
package archonstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store is a single-writer SQLite database handle. Callers must not open
// more than one Store against the same db path concurrently from the same
// process; SetMaxOpenConns(1) below makes the single-writer guarantee hold
// even under concurrent Service calls (spec.md §5).
type Store struct {
	db *sql.DB
}

// Open creates (if absent) and opens the database at path, applies the
// schema, and returns a ready Store. Relative-path resolution against the
// node's lightning directory is the caller's responsibility (archonconfig).
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(30000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initialize() error {
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}
