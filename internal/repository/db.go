// Package repository implements data access gateways over SQLite.
// The business rules for what is fetched and written live in the
// services; this package owns the SQL.
package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	// Registers the pure-Go "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// NewDB opens a SQLite database at the given path and configures it for
// concurrent request handling. Pass a file path, or ":memory:" for an
// ephemeral database.
func NewDB(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("repository: opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress; the
	// busy timeout makes writers queue instead of failing immediately.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("repository: applying %q: %w", pragma, err)
		}
	}

	if path == ":memory:" {
		// Each pooled connection would otherwise see its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}

	return db, nil
}
