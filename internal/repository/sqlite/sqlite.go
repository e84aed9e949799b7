// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite: no CGo, no C compiler, cross-compiles
// anywhere Go does. The whole store is one file on disk (or ":memory:" in tests).
//
// DATABASE/SQL OVERVIEW:
//   - sql.DB  : a connection pool (NOT a single connection!)
//   - sql.Row : a single result row
//   - sql.Rows: multiple result rows (must be closed!)
//
// SCHEMA MIGRATIONS:
// The schema lives in migrations/*.sql, embedded into the binary with go:embed
// and applied by pressly/goose on startup. goose records applied versions in
// its own goose_db_version table, so New is safe to call on an existing file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/newsroom/internal/repository"
)

//go:embed migrations/*.sql
var migrations embed.FS

// compile-time check that *DB is a complete store backend
var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and hands out the per-entity repositories.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and brings its schema up to date.
//
// dbPath examples:
//   - "data/newsroom.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests; lost on close)
func New(dbPath string) (*DB, error) {
	// "sqlite" is the driver name registered by modernc.org/sqlite's init().
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite allows one writer at a time. With a single pooled connection,
	// concurrent requests queue in database/sql instead of failing with
	// SQLITE_BUSY, and ":memory:" (a separate database per connection)
	// keeps every query on the migrated one.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// File databases get these from the DSN on every new connection. This
	// covers ":memory:", which takes no DSN parameters.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return &DB{conn: conn}, nil
}

// dsn adds per-connection pragmas to a file path:
//   - busy_timeout(5000): wait up to 5s for a lock held by another process
//   - foreign_keys(1):    preferences and bookmarks reference users(id)
//   - journal_mode(WAL):  readers proceed while a write is in progress
func dsn(dbPath string) string {
	if dbPath == ":memory:" {
		return dbPath
	}
	const pragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	if strings.Contains(dbPath, "?") {
		return dbPath + "&" + pragmas
	}
	return "file:" + dbPath + "?" + pragmas
}

func migrate(conn *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(conn, "migrations")
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable (used by /healthz).
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Users() repository.UserRepository {
	return &UserDB{conn: db.conn}
}

func (db *DB) Preferences() repository.PreferenceRepository {
	return &PreferenceDB{conn: db.conn}
}

func (db *DB) Bookmarks() repository.BookmarkRepository {
	return &BookmarkDB{conn: db.conn}
}

// isUniqueViolation reports whether err is SQLite rejecting a write because
// of a UNIQUE constraint (or a PRIMARY KEY collision).
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlitedriver.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// nullable maps "" to SQL NULL so optional UNIQUE columns (google_id,
// github_id) do not collide on the empty string.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
