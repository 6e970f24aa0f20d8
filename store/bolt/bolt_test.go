package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/haukened/gonce/internal/storetest"
	"github.com/haukened/gonce/nonce"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sub", "nonces.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) nonce.Store { return openTest(t) })
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonces.db")
	ctx := context.Background()
	exp := time.Unix(1700000000, 42).UTC()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "form", nonce.Record{Value: "v", ExpiresAt: exp}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	rec, err := s.Get(ctx, "form")
	require.NoError(t, err)
	assert.Equal(t, nonce.Record{Value: "v", ExpiresAt: exp}, rec)
	assert.NoError(t, s.Ping(ctx))
}

func TestGetMissingAndCorrupt(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	_, err := s.Get(ctx, "nope")
	assert.ErrorIs(t, err, nonce.ErrNoRecord)

	require.NoError(t, s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketNonces).Put(key("bad"), []byte{0xff})
	}))
	_, err = s.Get(ctx, "bad")
	assert.Error(t, err)
}

func TestEmptyName(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "", nonce.Record{Value: "v"}))
	ok, err := s.Has(ctx, "")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Has(ctx, "n")
	require.NoError(t, err)
	assert.False(t, ok, "prefix must not make names collide")
	require.NoError(t, s.Delete(ctx, ""))
	ok, err = s.Has(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClosedDatabase(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "nonces.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	ctx := context.Background()
	_, err = s.Has(ctx, "a")
	assert.ErrorIs(t, err, bbolt.ErrDatabaseNotOpen)
	assert.ErrorIs(t, s.Set(ctx, "a", nonce.Record{}), bbolt.ErrDatabaseNotOpen)
}
