// Package sqlite implements the repository interfaces on SQLite through
// modernc.org/sqlite, a pure-Go driver, so the server stays a single static
// binary with no cgo toolchain needed.
//
// Use ":memory:" as the path for a throwaway database in tests.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// DB owns the connection pool and implements repository.ReportRepository.
type DB struct {
	conn *sql.DB
}

// New opens (creating if needed) the database at dbPath and migrates it.
// The parent directory is created when missing.
func New(dbPath string) (*DB, error) {
	if dbPath != memoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: creating database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every new connection to ":memory:" is a different, empty database.
	if dbPath == memoryPath {
		conn.SetMaxOpenConns(1)
	}

	// sql.Open is lazy; surface a bad path or permissions now, not on the
	// first request.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets report listings read while a student's report is being written.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent,
// so it runs on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS reports (
			id         TEXT PRIMARY KEY,
			day        INTEGER NOT NULL,
			school     TEXT NOT NULL DEFAULT '',
			student_id TEXT NOT NULL DEFAULT '',
			name       TEXT NOT NULL,
			problem    TEXT NOT NULL DEFAULT '',
			code       TEXT NOT NULL DEFAULT '',
			result     TEXT NOT NULL DEFAULT '',
			status     TEXT NOT NULL DEFAULT 'success',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
		CREATE INDEX IF NOT EXISTS idx_reports_day ON reports(day);
	`)
	if err != nil {
		return fmt.Errorf("creating reports table: %w", err)
	}
	return nil
}
