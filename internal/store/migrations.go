package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Whole state document (singleton row)
		`CREATE TABLE IF NOT EXISTS state_document (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			body TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Sync State (key-value store for backfill bookmarks)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Run history (one row per processed day)
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			day TEXT NOT NULL,
			messages INTEGER NOT NULL,
			records_added INTEGER NOT NULL,
			posted INTEGER NOT NULL,
			finished_at TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_day ON runs(day)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_finished_at ON runs(finished_at)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
