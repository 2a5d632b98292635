package macro

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const createMacrosTable = `
	CREATE TABLE IF NOT EXISTS macros (
		name     TEXT PRIMARY KEY,
		keys     TEXT NOT NULL,
		recorded TEXT NOT NULL
	)
`

// SQLiteStore keeps slots in a sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(createMacrosTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create macros table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(name string) (Slot, bool, error) {
	var slot Slot
	var recorded string
	err := s.db.QueryRow("SELECT name, keys, recorded FROM macros WHERE name = ?", name).
		Scan(&slot.Name, &slot.Keys, &recorded)
	if err == sql.ErrNoRows {
		return Slot{}, false, nil
	}
	if err != nil {
		return Slot{}, false, fmt.Errorf("failed to load macro %s: %w", name, err)
	}
	slot.Recorded = parseRecorded(recorded)
	return slot, true, nil
}

func (s *SQLiteStore) Put(slot Slot) error {
	_, err := s.db.Exec(`
		INSERT INTO macros (name, keys, recorded)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET keys = excluded.keys, recorded = excluded.recorded
	`, slot.Name, slot.Keys, slot.Recorded.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save macro %s: %w", slot.Name, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(name string) error {
	if _, err := s.db.Exec("DELETE FROM macros WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete macro %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) List() ([]Slot, error) {
	rows, err := s.db.Query("SELECT name, keys, recorded FROM macros ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query macros: %w", err)
	}
	defer rows.Close()

	var out []Slot
	for rows.Next() {
		var slot Slot
		var recorded string
		if err := rows.Scan(&slot.Name, &slot.Keys, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan macro: %w", err)
		}
		slot.Recorded = parseRecorded(recorded)
		out = append(out, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating macros: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func parseRecorded(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
