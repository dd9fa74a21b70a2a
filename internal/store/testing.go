package store

import (
	"database/sql"
	"fmt"
)

// OpenMemory opens a migrated in-memory database.
// This is only intended for use in tests.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Each pooled connection would get its own empty :memory: database
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return newStore(db), nil
}
