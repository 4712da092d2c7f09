// Command migrate imports legacy JSON state files into the SQLite state
// database. The old pipeline kept cycle position in cycles.json and
// selection history in codebase_history.json; this folds both into the
// state table the briefing binary reads.
package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: migrate <state-db> <legacy-state-directory>")
	}

	dbPath := os.Args[1]
	legacyDir := os.Args[2]

	db, err := openStateDB(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := migrateCycle(db, filepath.Join(legacyDir, "cycles.json")); err != nil {
		log.Fatal(err)
	}
	if err := migrateHistory(db, filepath.Join(legacyDir, "codebase_history.json")); err != nil {
		log.Fatal(err)
	}
}

func openStateDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	schema := `CREATE TABLE IF NOT EXISTS state (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}
	return db, nil
}

func saveState(db *sql.DB, key string, value []byte) error {
	_, err := db.Exec(`INSERT INTO state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// migrateCycle copies the legacy cycle position. Field names carry over
// except state_index, which the new schema calls category_index.
func migrateCycle(db *sql.DB, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("No %s found, skipping cycle migration", filepath.Base(path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var legacy struct {
		Year        int    `json:"year"`
		StateIndex  int    `json:"state_index"`
		DaysLeft    int    `json:"days_left"`
		LastUpdated string `json:"last_updated"`
	}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	updated, err := time.Parse(time.RFC3339, legacy.LastUpdated)
	if err != nil {
		updated = time.Now()
	}

	state := map[string]any{
		"year":           legacy.Year,
		"category_index": legacy.StateIndex,
		"days_left":      legacy.DaysLeft,
		"last_updated":   updated.Format(time.RFC3339Nano),
	}
	value, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding cycle state: %w", err)
	}

	if err := saveState(db, "cycle_state", value); err != nil {
		return err
	}
	log.Printf("Migrated cycle state: year=%d index=%d days_left=%d",
		legacy.Year, legacy.StateIndex, legacy.DaysLeft)
	return nil
}

// migrateHistory keeps only the most recent codebase pick. The legacy
// file stored the full pick list, but repeat avoidance only ever looks
// one run back.
func migrateHistory(db *sql.DB, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("No %s found, skipping history migration", filepath.Base(path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var legacy struct {
		History []string `json:"history"`
	}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(legacy.History) == 0 {
		log.Printf("Legacy history is empty, nothing to migrate")
		return nil
	}

	last := legacy.History[len(legacy.History)-1]
	value, err := json.Marshal(map[string]string{"codebase": last})
	if err != nil {
		return fmt.Errorf("encoding selection history: %w", err)
	}

	if err := saveState(db, "selection_history", value); err != nil {
		return err
	}
	log.Printf("Migrated selection history: codebase=%s", last)
	return nil
}
