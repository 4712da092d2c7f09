package main

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// StateStore is the durable key-value resource backing the cycle state
// and selection history. Saves are atomic per key: a reader never
// observes a partial write.
type StateStore interface {
	// Load returns the value for key, or nil if the key is absent.
	Load(key string) ([]byte, error)
	// Save durably replaces the value for key.
	Save(key string, value []byte) error
	Close() error
}

// StateStoreError marks durable-storage failures. These are the only
// errors fatal to a whole run.
type StateStoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StateStoreError) Error() string {
	return fmt.Sprintf("state store: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StateStoreError) Unwrap() error {
	return e.Err
}

const stateSchema = `
CREATE TABLE IF NOT EXISTS state (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// SQLiteStore provides SQLite-backed state persistence.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) the state database at
// dbPath.
func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, &StateStoreError{Op: "open", Key: dbPath, Err: err}
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, &StateStoreError{Op: "open", Key: dbPath, Err: err}
	}

	if _, err := db.Exec(stateSchema); err != nil {
		db.Close()
		return nil, &StateStoreError{Op: "migrate", Key: dbPath, Err: fmt.Errorf("running migrations: %w", err)}
	}

	return &SQLiteStore{db: db}, nil
}

// Load returns the stored value for key, or nil if absent.
func (s *SQLiteStore) Load(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StateStoreError{Op: "load", Key: key, Err: err}
	}
	return value, nil
}

// Save upserts the value for key. The single-statement upsert keeps the
// write atomic per key.
func (s *SQLiteStore) Save(key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return &StateStoreError{Op: "save", Key: key, Err: err}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// MemStore is an in-memory StateStore for tests and dry runs.
type MemStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string][]byte)}
}

func (s *MemStore) Load(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return nil, nil
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, nil
}

func (s *MemStore) Save(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(value))
	copy(copied, value)
	s.values[key] = copied
	return nil
}

func (s *MemStore) Close() error { return nil }
