// Package valkey provides a nonce.Store backed by a Valkey server.
package valkey

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"
	"go.uber.org/zap"

	"github.com/haukened/gonce/internal/codec"
	"github.com/haukened/gonce/nonce"
)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "nonce"

// Store implements nonce.Store with valkey-go. Records are stored as cbor
// strings under "{prefix}:{name}" without a server-side expiry.
type Store struct {
	client valkey.Client
	prefix string
	logger *zap.Logger
}

var _ nonce.Store = (*Store)(nil)

// NewClient connects to the Valkey server at addr.
func NewClient(addr string) (valkey.Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("creating valkey client: %w", err)
	}
	return client, nil
}

// New wraps client. An empty prefix selects DefaultPrefix.
func New(client valkey.Client, prefix string, logger *zap.Logger) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, prefix: prefix, logger: logger}
}

func (s *Store) key(name string) string {
	return s.prefix + ":" + name
}

func (s *Store) Has(ctx context.Context, name string) (bool, error) {
	cmd := s.client.B().Exists().Key(s.key(name)).Build()
	exists, err := s.client.Do(ctx, cmd).AsBool()
	if err != nil {
		s.logger.Error("checking nonce", zap.String("name", name), zap.Error(err))
		return false, fmt.Errorf("checking if nonce exists in valkey: %w", err)
	}
	return exists, nil
}

func (s *Store) Get(ctx context.Context, name string) (nonce.Record, error) {
	cmd := s.client.B().Get().Key(s.key(name)).Build()
	data, err := s.client.Do(ctx, cmd).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nonce.Record{}, nonce.ErrNoRecord
	}
	if err != nil {
		s.logger.Error("reading nonce", zap.String("name", name), zap.Error(err))
		return nonce.Record{}, fmt.Errorf("reading nonce from valkey: %w", err)
	}
	return codec.Unmarshal(data)
}

func (s *Store) Set(ctx context.Context, name string, rec nonce.Record) error {
	data, err := codec.Marshal(rec)
	if err != nil {
		return err
	}
	cmd := s.client.B().Set().Key(s.key(name)).Value(valkey.BinaryString(data)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		s.logger.Error("storing nonce", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("storing nonce in valkey: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	cmd := s.client.B().Del().Key(s.key(name)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		s.logger.Error("deleting nonce", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("deleting nonce from valkey: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("valkey ping: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() {
	s.client.Close()
}
