package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps a single SQLite connection. SetMaxOpenConns(1) pushes the
// "single connection" requirement into the driver; txMu additionally
// guarantees that a multi-statement write (match + teams + bans +
// participants) is atomic from the caller's point of view even though the
// underlying driver would otherwise interleave separate Exec calls.
type Store struct {
	db   *sql.DB
	txMu sync.Mutex
}

// Open creates parent directories if needed, opens the database file and
// initializes the schema idempotently.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping is used as the /readyz probe: a schema-initialized store always
// answers a trivial query.
func (s *Store) Ping() error {
	var one int
	return s.db.QueryRow("SELECT 1").Scan(&one)
}
