// Package recordstore persists the document authority's flat record set in
// SQLite (default) or PostgreSQL.
package recordstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

var schemaSQL = []string{
	`CREATE TABLE IF NOT EXISTS files (
		id         TEXT PRIMARY KEY,
		parent_id  TEXT,
		title      TEXT NOT NULL,
		type       TEXT NOT NULL,
		content    TEXT,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_files_parent ON files(parent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_files_created ON files(created_at)`,
}

// DB wraps a sql.DB with record-specific operations.
type DB struct {
	conn   *sql.DB
	driver string
	now    func() time.Time
}

// Open opens (or creates) the database and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite:
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("recordstore: unsupported driver %q", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("recordstore: open db: %w", err)
	}
	if driver == DriverSQLite {
		// One writer keeps the delete transaction free of SQLITE_BUSY.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("recordstore: ping: %w", err)
	}
	for _, stmt := range schemaSQL {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("recordstore: apply schema: %w", err)
		}
	}
	return &DB{conn: conn, driver: driver, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
