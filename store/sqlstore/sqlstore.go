// Package sqlstore provides a database/sql implementation of nonce.Store for
// SQLite (github.com/mattn/go-sqlite3) and MySQL
// (github.com/go-sql-driver/mysql). Callers open the *sql.DB with the matching
// driver and pass the dialect to New.
//
// Expiry is stored as unix seconds plus a nanosecond column. On MySQL the name
// column is VARBINARY(767), so names longer than 767 bytes are rejected there.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/haukened/gonce/nonce"
)

var _ nonce.Store = (*Store)(nil)

// Dialect selects the SQL flavour used for schema and upserts.
type Dialect int

// Supported dialects.
const (
	SQLite Dialect = iota + 1
	MySQL
)

// ErrUnknownDialect is returned for an unsupported dialect.
var ErrUnknownDialect = errors.New("unknown sql dialect")

// ParseDialect maps a driver name ("sqlite3", "sqlite", "mysql") to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDialect, s)
}

// Driver returns the database/sql driver name registered for d.
func (d Dialect) Driver() string {
	switch d {
	case SQLite:
		return "sqlite3"
	case MySQL:
		return "mysql"
	}
	return ""
}

func (d Dialect) schema() string {
	if d == MySQL {
		return `CREATE TABLE IF NOT EXISTS nonces (
name VARBINARY(767) PRIMARY KEY,
value VARCHAR(1024) NOT NULL,
expires_at BIGINT NOT NULL,
expires_nsec INT NOT NULL
)`
	}
	return `CREATE TABLE IF NOT EXISTS nonces (
name TEXT PRIMARY KEY,
value TEXT NOT NULL,
expires_at INTEGER NOT NULL,
expires_nsec INTEGER NOT NULL
)`
}

func (d Dialect) upsert() string {
	if d == MySQL {
		return `INSERT INTO nonces (name, value, expires_at, expires_nsec) VALUES (?,?,?,?) ON DUPLICATE KEY UPDATE value=VALUES(value), expires_at=VALUES(expires_at), expires_nsec=VALUES(expires_nsec)`
	}
	return `INSERT INTO nonces (name, value, expires_at, expires_nsec) VALUES (?,?,?,?) ON CONFLICT(name) DO UPDATE SET value=excluded.value, expires_at=excluded.expires_at, expires_nsec=excluded.expires_nsec`
}

// Store implements nonce.Store on a SQL table. It is safe for concurrent use;
// database/sql manages connection pooling.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New constructs a Store, creating the nonces table if absent.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	if dialect != SQLite && dialect != MySQL {
		return nil, ErrUnknownDialect
	}
	s := &Store{db: db, dialect: dialect}
	if _, err := db.ExecContext(ctx, dialect.schema()); err != nil {
		return nil, fmt.Errorf("init nonce schema: %w", err)
	}
	return s, nil
}

// Has reports whether a row exists for name.
func (s *Store) Has(ctx context.Context, name string) (bool, error) {
	const q = `SELECT 1 FROM nonces WHERE name=? LIMIT 1`
	var one int
	err := s.db.QueryRowContext(ctx, q, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Get loads the row for name. Missing rows yield nonce.ErrNoRecord.
func (s *Store) Get(ctx context.Context, name string) (nonce.Record, error) {
	const q = `SELECT value, expires_at, expires_nsec FROM nonces WHERE name=?`
	var (
		rec         nonce.Record
		secs, nsecs int64
	)
	if err := s.db.QueryRowContext(ctx, q, name).Scan(&rec.Value, &secs, &nsecs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nonce.Record{}, nonce.ErrNoRecord
		}
		return nonce.Record{}, err
	}
	rec.ExpiresAt = time.Unix(secs, nsecs).UTC()
	return rec, nil
}

// Set upserts the row for name.
func (s *Store) Set(ctx context.Context, name string, rec nonce.Record) error {
	_, err := s.db.ExecContext(ctx, s.dialect.upsert(), name, rec.Value, rec.ExpiresAt.Unix(), rec.ExpiresAt.Nanosecond())
	return err
}

// Delete removes the row for name, if any.
func (s *Store) Delete(ctx context.Context, name string) error {
	const q = `DELETE FROM nonces WHERE name=?`
	_, err := s.db.ExecContext(ctx, q, name)
	return err
}

// Ping checks database connectivity; used for readiness probes.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
