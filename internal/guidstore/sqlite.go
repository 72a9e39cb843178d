// Package guidstore persists component GUID allocations in SQLite.
//
// The store makes GUIDs sticky across runs regardless of derivation policy:
// once a relative path has been assigned a GUID, later generations reuse it.
package guidstore

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements ids.GuidStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens a GUID store.
// Use ":memory:" for an in-memory database, or a file path for persistence.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS component_guids (
		rel_path TEXT PRIMARY KEY,
		guid TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Lookup returns the GUID previously stored for relPath, if any.
func (s *SQLiteStore) Lookup(relPath string) (uuid.UUID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRow("SELECT guid FROM component_guids WHERE rel_path = ?", relPath).Scan(&raw)
	if err == sql.ErrNoRows {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("query guid: %w", err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt guid for %s: %w", relPath, err)
	}
	return id, true, nil
}

// Store records a GUID for relPath. Existing entries are left untouched so
// the first allocation always wins.
func (s *SQLiteStore) Store(relPath string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO component_guids (rel_path, guid) VALUES (?, ?) ON CONFLICT(rel_path) DO NOTHING",
		relPath, id.String(),
	)
	if err != nil {
		return fmt.Errorf("insert guid: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
