package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealIsUTC(t *testing.T) {
	now := Real{}.Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.WithinDuration(t, time.Now(), now, time.Second)
}

func TestFakeAdvanceAndSet(t *testing.T) {
	start := time.Unix(1700000000, 0).UTC()
	f := NewFake(start)
	assert.Equal(t, start, f.Now())

	got := f.Advance(30 * time.Second)
	assert.Equal(t, start.Add(30*time.Second), got)
	assert.Equal(t, got, f.Now())

	f.Advance(-10 * time.Second)
	assert.Equal(t, start.Add(20*time.Second), f.Now())

	later := start.Add(time.Hour)
	f.Set(later)
	assert.Equal(t, later, f.Now())
}
