package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/haukened/gonce/internal/storetest"
	"github.com/haukened/gonce/nonce"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewClient(Config{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "", zaptest.NewLogger(t)), mr
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) nonce.Store {
		s, _ := newTestStore(t)
		return s
	})
}

func TestKeysArePrefixedAndHaveNoTTL(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "form", nonce.Record{Value: "v", ExpiresAt: time.Now().Add(-time.Hour)}))

	assert.True(t, mr.Exists("nonce:form"))
	assert.Equal(t, time.Duration(0), mr.TTL("nonce:form"), "expired records must persist until deleted")

	custom := New(s.client, "csrf", nil)
	require.NoError(t, custom.Set(ctx, "form", nonce.Record{Value: "w"}))
	assert.True(t, mr.Exists("csrf:form"))
}

func TestGetMissing(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, nonce.ErrNoRecord)
}

func TestServerDown(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))
	mr.Close()

	_, err := s.Has(ctx, "a")
	assert.Error(t, err)
	_, err = s.Get(ctx, "a")
	assert.Error(t, err)
	assert.Error(t, s.Set(ctx, "a", nonce.Record{}))
	assert.Error(t, s.Delete(ctx, "a"))
	assert.Error(t, s.Ping(ctx))
}

func TestManagerSurfacesBackendUnavailable(t *testing.T) {
	s, mr := newTestStore(t)
	m, err := nonce.New("redis-backed-secret", s)
	require.NoError(t, err)
	mr.Close()
	_, err = m.Create(context.Background(), "form")
	assert.ErrorIs(t, err, nonce.ErrBackendUnavailable)
}
