// Package memory provides a process-scoped nonce.Store backed by a map. The
// map is allocated lazily on first use, so the zero value is ready to use and
// can be shared by every request handler in the process.
package memory

import (
	"context"
	"sync"

	"github.com/haukened/gonce/nonce"
)

var _ nonce.Store = (*Store)(nil)

// Store implements nonce.Store in memory. It is safe for concurrent use.
// Records are never evicted; expired entries stay until deleted or
// overwritten.
type Store struct {
	once    sync.Once
	mu      sync.RWMutex
	records map[string]nonce.Record
}

// New returns an empty Store.
func New() *Store { return &Store{} }

func (s *Store) init() {
	s.once.Do(func() { s.records = make(map[string]nonce.Record) })
}

// Has reports whether name is stored.
func (s *Store) Has(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.init()
	s.mu.RLock()
	_, ok := s.records[name]
	s.mu.RUnlock()
	return ok, nil
}

// Get returns the record for name or nonce.ErrNoRecord.
func (s *Store) Get(ctx context.Context, name string) (nonce.Record, error) {
	if err := ctx.Err(); err != nil {
		return nonce.Record{}, err
	}
	s.init()
	s.mu.RLock()
	rec, ok := s.records[name]
	s.mu.RUnlock()
	if !ok {
		return nonce.Record{}, nonce.ErrNoRecord
	}
	return rec, nil
}

// Set stores rec under name.
func (s *Store) Set(ctx context.Context, name string, rec nonce.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.init()
	s.mu.Lock()
	s.records[name] = rec
	s.mu.Unlock()
	return nil
}

// Delete removes name if present.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.init()
	s.mu.Lock()
	delete(s.records, name)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored records, expired ones included.
func (s *Store) Len() int {
	s.init()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
