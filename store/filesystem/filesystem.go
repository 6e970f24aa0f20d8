// Package filesystem provides a nonce.Store that keeps one file per nonce
// name under a root directory.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/haukened/gonce/internal/codec"
	"github.com/haukened/gonce/nonce"
)

var _ nonce.Store = (*Store)(nil)

const suffix = ".nonce"

// Store implements nonce.Store using the local filesystem. File names are the
// hex SHA-256 of the nonce name, so arbitrary names cannot escape the root.
// Writes go through a temp file and rename, so readers never see a partial
// record.
type Store struct {
	root string
}

// New returns a filesystem-backed store rooted at root. The directory must
// already exist (0700 recommended).
func New(root string) (*Store, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, errors.New("nonce root is not a directory")
	}
	return &Store{root: root}, nil
}

// path constructs the full path to the record file for name.
func (s *Store) path(name string) string {
	sum := sha256.Sum256([]byte(name))
	return filepath.Join(s.root, hex.EncodeToString(sum[:])+suffix)
}

// Has reports whether a record file exists for name.
func (s *Store) Has(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Get reads and decodes the record for name.
func (s *Store) Get(ctx context.Context, name string) (nonce.Record, error) {
	if err := ctx.Err(); err != nil {
		return nonce.Record{}, err
	}
	b, err := os.ReadFile(s.path(name)) // #nosec G304 path is root + hash
	if errors.Is(err, fs.ErrNotExist) {
		return nonce.Record{}, nonce.ErrNoRecord
	}
	if err != nil {
		return nonce.Record{}, err
	}
	return codec.Unmarshal(b)
}

// Set atomically replaces the record file for name.
func (s *Store) Set(ctx context.Context, name string, rec nonce.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := codec.Marshal(rec)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err = f.Write(b); err == nil {
		err = f.Sync()
	}
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err == nil {
		err = os.Rename(tmp, s.path(name))
	}
	if err != nil {
		// remove partial temp file on error
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Delete removes the record file for name; a missing file is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Ping checks that the root directory is still readable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := os.ReadDir(s.root)
	return err
}
