package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Sync state keys
const (
	SyncKeyLastDay = "last_ingested_day"
)

// Store is the local SQLite data layer. It can hold the state document
// itself (sqlite backend) and always keeps sync bookmarks and run history.
type Store struct {
	db *sql.DB
}

// newStore creates a Store from a database connection.
func newStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- State Document ---

// LoadState reads the state document. A database that has never been
// saved to yields an empty state.
func (s *Store) LoadState(ctx context.Context) (*State, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM state_document WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state document: %w", err)
	}

	var st State
	if err := json.Unmarshal([]byte(body), &st); err != nil {
		return nil, fmt.Errorf("decoding state document: %w", err)
	}
	st.Normalize()
	return &st, nil
}

// SaveState replaces the state document and returns what was stored.
func (s *Store) SaveState(ctx context.Context, st *State) (*State, error) {
	st.Normalize()
	body, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encoding state document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO state_document (id, body, updated_at)
		VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			body = excluded.body,
			updated_at = CURRENT_TIMESTAMP
	`, string(body))
	if err != nil {
		return nil, fmt.Errorf("writing state document: %w", err)
	}
	return st, nil
}

// --- Sync State Methods ---

// GetSyncState retrieves a sync state value by key.
// Returns empty string if key doesn't exist.
func (s *Store) GetSyncState(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM sync_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetSyncState sets a sync state value.
func (s *Store) SetSyncState(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO sync_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// --- Run History ---

// RecordRun stores a run history entry.
func (s *Store) RecordRun(r *Run) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, day, messages, records_added, posted, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.Day, r.Messages, r.RecordsAdded, boolToInt(r.Posted), r.FinishedAt.UTC().Format(time.RFC3339))
	return err
}

// GetRun returns a single run by id.
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT id, day, messages, records_added, posted, finished_at
		FROM runs WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return r, err
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, day, messages, records_added, posted, finished_at
		FROM runs
		ORDER BY finished_at DESC, day DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var posted int
	var finishedAt string
	if err := row.Scan(&r.ID, &r.Day, &r.Messages, &r.RecordsAdded, &posted, &finishedAt); err != nil {
		return nil, err
	}
	r.Posted = posted != 0

	t, err := time.Parse(time.RFC3339, finishedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing finished_at %q: %w", finishedAt, err)
	}
	r.FinishedAt = t
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
