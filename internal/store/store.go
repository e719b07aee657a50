package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Journal schema versions, stored in PRAGMA user_version:
// 0 - tables only
// 1 - changes indexed by location for History
const currentSchemaVersion = 1

// migrations[v] upgrades a journal from version v to v+1.
var migrations = []func(*sql.Tx) error{
	func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			CREATE INDEX IF NOT EXISTS idx_changes_location
			ON changes(location, run_id)
		`)
		return err
	},
}

// Store is the merge journal. Each merge run appends one row to runs and
// its decisions to changes; nothing is updated in place.
type Store struct {
	db *sql.DB
}

// Open creates or opens the journal at path. ":memory:" opens a private
// in-memory journal.
//
// Connections are configured through the driver DSN so every connection
// gets the same settings:
//   - WAL mode, readers never block the single writer
//   - NORMAL synchronous mode
//   - 5-second busy timeout
//   - foreign key enforcement
//   - immediate transactions, concurrent merges appending to one journal
//     wait on the busy timeout instead of failing on lock upgrade
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	// A run is written in one transaction from one goroutine. A single
	// connection also keeps ":memory:" journals on one database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func dsn(path string) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_synchronous", "NORMAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "1")
	params.Set("_txlock", "immediate")
	return path + "?" + params.Encode()
}

// Close closes the journal.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// migrate creates the tables and brings the journal up to
// currentSchemaVersion, one version per transaction. Journals written by a
// newer release are refused rather than appended to.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("journal schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	for ; version < currentSchemaVersion; version++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migrate to v%d: %w", version+1, err)
		}
		if err := migrations[version](tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to v%d: %w", version+1, err)
		}
		// PRAGMA takes no bound parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to v%d: set version: %w", version+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate to v%d: commit: %w", version+1, err)
		}
	}
	return nil
}
