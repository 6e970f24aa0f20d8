// Package clock provides the time source used for nonce expiry and salt
// rotation. Production code uses Real; tests use Fake to move time forward
// deterministically instead of sleeping.
package clock

import (
	"sync"
	"time"
)

// Clock abstracts time to enable deterministic testing of expiry logic.
type Clock interface {
	// Now returns the current wall-clock time.
	Now() time.Time
}

// Real implements Clock using time.Now.
type Real struct{}

// Now returns the current time in UTC.
func (Real) Now() time.Time { return time.Now().UTC() }

// Fake is a manually driven Clock. It is safe for concurrent use.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake returns a Fake clock frozen at t.
func NewFake(t time.Time) *Fake { return &Fake{now: t} }

// Now returns the frozen instant.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set moves the clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// Advance moves the clock forward by d (backwards if d is negative) and
// returns the new instant.
func (f *Fake) Advance(d time.Duration) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	return f.now
}

var (
	_ Clock = Real{}
	_ Clock = (*Fake)(nil)
)
