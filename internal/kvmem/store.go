// Package kvmem provides the agent's key-value memory: small facts the
// user asks the bot to remember, persisted in sqlite so they survive
// restarts (unlike conversation history, which is process-lifetime).
package kvmem

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Entry is one remembered key-value pair.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store manages memory persistence.
type Store struct {
	db *sql.DB
}

// NewStore creates a memory store at the given database path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS memory (
			id         TEXT PRIMARY KEY,
			key        TEXT NOT NULL UNIQUE,
			value      TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_memory_updated ON memory(updated_at DESC);
	`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Set creates or replaces the value for a key.
func (s *Store) Set(key, value string) (*Entry, error) {
	now := time.Now().UTC()
	id, _ := uuid.NewV7()

	_, err := s.db.Exec(`
		INSERT INTO memory (id, key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, id.String(), key, value, now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("set memory: %w", err)
	}

	return s.Get(key)
}

// Get returns the entry for a key, or (nil, nil) when absent.
func (s *Store) Get(key string) (*Entry, error) {
	row := s.db.QueryRow(`
		SELECT id, key, value, created_at, updated_at FROM memory WHERE key = ?
	`, key)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	return e, nil
}

// List returns all entries, most recently updated first.
func (s *Store) List() ([]*Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, key, value, created_at, updated_at
		FROM memory ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list memory: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM memory WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var id, created, updated string
	if err := row.Scan(&id, &e.Key, &e.Value, &created, &updated); err != nil {
		return nil, err
	}
	e.ID, _ = uuid.Parse(id)
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return &e, nil
}
