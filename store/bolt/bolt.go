// Package bolt provides a nonce.Store persisted in a bbolt database file.
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/haukened/gonce/internal/codec"
	"github.com/haukened/gonce/nonce"
)

var bucketNonces = []byte("nonces")

// key prefixes name with a constant byte; bbolt rejects zero-length keys.
func key(name string) []byte {
	k := make([]byte, 0, len(name)+1)
	k = append(k, 'n')
	return append(k, name...)
}

var _ nonce.Store = (*Store)(nil)

// Store implements nonce.Store using bbolt. Records are cbor-encoded values
// keyed by the prefixed nonce name in a single bucket.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the database at path and ensures the bucket exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketNonces)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error { return s.db.Close() }

// Has reports whether name is stored.
func (s *Store) Has(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var ok bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		ok = tx.Bucket(bucketNonces).Get(key(name)) != nil
		return nil
	})
	return ok, err
}

// Get returns the record for name or nonce.ErrNoRecord.
func (s *Store) Get(ctx context.Context, name string) (nonce.Record, error) {
	if err := ctx.Err(); err != nil {
		return nonce.Record{}, err
	}
	var rec nonce.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketNonces).Get(key(name))
		if data == nil {
			return nonce.ErrNoRecord
		}
		var err error
		rec, err = codec.Unmarshal(data)
		return err
	})
	return rec, err
}

// Set stores rec under name.
func (s *Store) Set(ctx context.Context, name string, rec nonce.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := codec.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketNonces).Put(key(name), data)
	})
}

// Delete removes name if present.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketNonces).Delete(key(name))
	})
}

// Ping verifies the database can open a read transaction.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(*bbolt.Tx) error { return nil })
}
