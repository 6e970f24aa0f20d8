package sqlstore

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/gonce/internal/storetest"
	"github.com/haukened/gonce/nonce"
)

// openTestDB opens a transient SQLite database file in a temp dir with WAL enabled.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dir := t.TempDir()
	dsn := filepath.Join(dir, "test.db?_busy_timeout=5000&cache=shared")
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err = db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=FULL;"); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) nonce.Store {
		s, err := New(context.Background(), openTestDB(t), SQLite)
		require.NoError(t, err)
		return s
	})
}

// TestMySQLConformance runs only when GONCE_TEST_MYSQL_DSN points at a server.
func TestMySQLConformance(t *testing.T) {
	dsn := os.Getenv("GONCE_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("GONCE_TEST_MYSQL_DSN not set")
	}
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	storetest.Run(t, func(t *testing.T) nonce.Store {
		s, err := New(context.Background(), db, MySQL)
		require.NoError(t, err)
		_, err = db.Exec("DELETE FROM nonces")
		require.NoError(t, err)
		return s
	})
}

func TestNewIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s1, err := New(ctx, db, SQLite)
	require.NoError(t, err)
	exp := time.Unix(1700000000, 0).UTC()
	require.NoError(t, s1.Set(ctx, "form", nonce.Record{Value: "v", ExpiresAt: exp}))

	s2, err := New(ctx, db, SQLite)
	require.NoError(t, err)
	rec, err := s2.Get(ctx, "form")
	require.NoError(t, err)
	assert.Equal(t, "v", rec.Value)
}

func TestGetMissing(t *testing.T) {
	s, err := New(context.Background(), openTestDB(t), SQLite)
	require.NoError(t, err)
	_, err = s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, nonce.ErrNoRecord)
}

func TestNewUnknownDialect(t *testing.T) {
	_, err := New(context.Background(), openTestDB(t), Dialect(42))
	assert.ErrorIs(t, err, ErrUnknownDialect)
}

func TestClosedDBSurfacesErrors(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s, err := New(ctx, db, SQLite)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = s.Has(ctx, "a")
	assert.Error(t, err)
	assert.Error(t, s.Set(ctx, "a", nonce.Record{}))
	assert.Error(t, s.Delete(ctx, "a"))
	assert.Error(t, s.Ping(ctx))
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in   string
		want Dialect
		ok   bool
	}{
		{"sqlite3", SQLite, true},
		{"SQLite", SQLite, true},
		{" mysql ", MySQL, true},
		{"postgres", 0, false},
	}
	for _, tc := range tests {
		d, err := ParseDialect(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrUnknownDialect, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, d)
	}
	assert.Equal(t, "sqlite3", SQLite.Driver())
	assert.Equal(t, "mysql", MySQL.Driver())
}
