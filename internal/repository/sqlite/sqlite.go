// Package sqlite implements repository.Backend on an embedded SQLite file.
//
// WHY SQLITE?
// SQLite lives inside the binary as a single file: no database server to run
// for development or a single-node deployment, and ":memory:" for tests.
// modernc.org/sqlite is a pure Go translation, so no C compiler is needed.
//
// DOCUMENT LAYOUT:
// The record store is schemaless, so there is one table for every kind:
//
//	records(kind, id, doc, updated_at)   PRIMARY KEY (kind, id)
//
// doc is the record's JSON. Nothing inside it is indexed; callers list a
// kind and filter in Go, exactly as they would against a key-value service.
//
// sqlx (instead of bare database/sql) saves the Scan boilerplate:
// SelectContext fills a []string of documents in one call.
package sqlite

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sqlx connection pool.
type DB struct {
	conn *sqlx.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/openlecture.db" → file-based database (persistent)
//   - ":memory:"            → in-memory database (tests; lost on close)
func New(dbPath string) (*DB, error) {
	// sqlx.Connect = sql.Open + Ping, so a bad path fails here and not on
	// the first request.
	conn, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty
	// database. Pin the pool to one connection so they all see the same one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Concurrent requests write the same kinds; wait for the lock instead of
	// failing with SQLITE_BUSY straight away.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
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

// migrate creates the records table. CREATE ... IF NOT EXISTS makes it safe
// to run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			kind       TEXT NOT NULL,
			id         TEXT NOT NULL,
			doc        TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (kind, id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating records table: %w", err)
	}
	return nil
}
