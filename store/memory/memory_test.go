package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/gonce/internal/storetest"
	"github.com/haukened/gonce/nonce"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(*testing.T) nonce.Store { return New() })
}

func TestZeroValueUsable(t *testing.T) {
	var s Store
	assert.Equal(t, 0, s.Len())
	require.NoError(t, s.Set(context.Background(), "a", nonce.Record{Value: "v"}))
	assert.Equal(t, 1, s.Len())
}

func TestGetMissing(t *testing.T) {
	_, err := New().Get(context.Background(), "nope")
	assert.ErrorIs(t, err, nonce.ErrNoRecord)
}

func TestCanceledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Has(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Set(ctx, "a", nonce.Record{}), context.Canceled)
	assert.ErrorIs(t, s.Delete(ctx, "a"), context.Canceled)
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a' + i))
			for j := 0; j < 100; j++ {
				_ = s.Set(ctx, name, nonce.Record{Value: name, ExpiresAt: time.Now()})
				_, _ = s.Has(ctx, name)
				_, _ = s.Get(ctx, name)
				if j%10 == 0 {
					_ = s.Delete(ctx, name)
				}
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, s.Len(), 16)
}
