// Package storetest holds the conformance suite every nonce.Store backend
// runs from its own tests.
package storetest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/gonce/clock"
	"github.com/haukened/gonce/nonce"
)

const secret = "conformance-secret"

// Run exercises the Store contract and the Manager lifecycle against a fresh
// store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) nonce.Store) {
	t.Helper()

	t.Run("contract", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		exp := time.Unix(1700000000, 123456789).UTC()

		ok, err := s.Has(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Delete(ctx, "missing"), "delete of absent name must be a no-op")

		require.NoError(t, s.Set(ctx, "form", nonce.Record{Value: "first", ExpiresAt: exp}))
		ok, err = s.Has(ctx, "form")
		require.NoError(t, err)
		assert.True(t, ok)
		rec, err := s.Get(ctx, "form")
		require.NoError(t, err)
		assert.Equal(t, "first", rec.Value)
		assert.True(t, exp.Equal(rec.ExpiresAt), "expiry %v != %v", rec.ExpiresAt, exp)

		later := exp.Add(time.Hour)
		require.NoError(t, s.Set(ctx, "form", nonce.Record{Value: "second", ExpiresAt: later}))
		rec, err = s.Get(ctx, "form")
		require.NoError(t, err)
		assert.Equal(t, "second", rec.Value)
		assert.True(t, later.Equal(rec.ExpiresAt))

		require.NoError(t, s.Set(ctx, "other", nonce.Record{Value: "x", ExpiresAt: exp}))
		require.NoError(t, s.Delete(ctx, "form"))
		ok, err = s.Has(ctx, "form")
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = s.Has(ctx, "other")
		require.NoError(t, err)
		assert.True(t, ok, "delete must only affect its own name")
	})

	t.Run("names", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		exp := time.Unix(1700000000, 0).UTC()
		names := []string{"", "a/b", "../escape", "with space", "ünïcode", "colon:name", strings.Repeat("n", 700)}
		for _, n := range names {
			require.NoError(t, s.Set(ctx, n, nonce.Record{Value: n, ExpiresAt: exp}), n)
		}
		for _, n := range names {
			rec, err := s.Get(ctx, n)
			require.NoError(t, err, n)
			assert.Equal(t, n, rec.Value)
		}
	})

	t.Run("far future", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		exp := time.Date(2300, time.March, 1, 12, 0, 0, 5, time.UTC)
		require.NoError(t, s.Set(ctx, "far", nonce.Record{Value: "v", ExpiresAt: exp}))
		rec, err := s.Get(ctx, "far")
		require.NoError(t, err)
		assert.True(t, exp.Equal(rec.ExpiresAt), "expiry %v != %v", rec.ExpiresAt, exp)

		m, err := nonce.New(secret, s, nonce.WithClock(clock.NewFake(time.Unix(1700000000, 0).UTC())))
		require.NoError(t, err)
		v, err := m.CreateRaw(ctx, "longest", "9000000000", "")
		require.NoError(t, err)
		ok, err := m.Has(ctx, "longest")
		require.NoError(t, err)
		assert.True(t, ok, "a positive expiry must create an active nonce")
		valid, err := m.Verify(ctx, "longest", v)
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("manager", func(t *testing.T) {
		ctx := context.Background()
		fc := clock.NewFake(time.Unix(1700000000, 0).UTC())
		m, err := nonce.New(secret, newStore(t), nonce.WithClock(fc))
		require.NoError(t, err)

		v, err := m.Create(ctx, "form", nonce.Expiry(30*time.Second), nonce.Length(20))
		require.NoError(t, err)
		assert.Len(t, v, 20)

		got, ok, err := m.Get(ctx, "form")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, v, got)

		fc.Advance(30 * time.Second)
		ok, err = m.Has(ctx, "form")
		require.NoError(t, err)
		assert.False(t, ok, "nonce must expire exactly at its expiry instant")
		ok, err = m.Has(ctx, "form", nonce.AllowExpired())
		require.NoError(t, err)
		assert.True(t, ok)

		v, err = m.Create(ctx, "form")
		require.NoError(t, err)
		valid, err := m.Verify(ctx, "form", v)
		require.NoError(t, err)
		assert.True(t, valid)
		valid, err = m.Verify(ctx, "form", v)
		require.NoError(t, err)
		assert.False(t, valid, "clearing verify must be single use")
	})
}
