// Package nonce manages named one-time tokens used to defend against
// cross-site request forgery. A Manager generates token values, attaches an
// absolute expiry and stores them through the Store port; callers later look
// them up or verify a supplied value against them.
//
// The package performs no I/O itself. All durable state lives behind Store,
// which the embedding application constructs and injects (see the store/...
// packages for ready-made backends).
package nonce

import (
	"context"
	"time"

	"github.com/haukened/gonce/clock"
)

// Record is the unit persisted per nonce name.
type Record struct {
	Value     string
	ExpiresAt time.Time
}

// Expired reports whether the record is no longer valid at now.
func (r Record) Expired(now time.Time) bool { return !now.Before(r.ExpiresAt) }

// Store is the storage port consumed by the Manager. Implementations hold
// opaque records keyed by name and carry no knowledge of expiry; expiry is
// interpreted by the Manager only.
//
// The Manager calls Get only after Has reported true, so implementations may
// return ErrNoRecord (or any error) for a name that was never set. The Manager
// does not make Has+Get or Get+Delete sequences atomic; backends shared by
// concurrent callers can observe interleaved writes between those calls.
type Store interface {
	// Has reports whether a record is stored under name.
	Has(ctx context.Context, name string) (bool, error)
	// Get returns the record stored under name.
	Get(ctx context.Context, name string) (Record, error)
	// Set stores rec under name, replacing any prior record.
	Set(ctx context.Context, name string, rec Record) error
	// Delete removes the record stored under name. Absent names are a no-op.
	Delete(ctx context.Context, name string) error
}

// Clock is the time source used for expiry decisions.
type Clock = clock.Clock
