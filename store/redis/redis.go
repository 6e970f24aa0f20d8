// Package redis provides a nonce.Store backed by Redis via go-redis.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/haukened/gonce/internal/codec"
	"github.com/haukened/gonce/nonce"
)

const (
	// DefaultPrefix is the key prefix used when none is configured.
	DefaultPrefix = "nonce"
)

// Config describes how to reach the Redis server.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient creates a go-redis client from cfg.
func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Store implements nonce.Store using Redis string keys holding cbor records.
// Keys carry no server-side TTL; expiry is interpreted by the nonce Manager.
type Store struct {
	client redis.UniversalClient
	prefix string
	logger *zap.Logger
}

// Compile-time interface compliance check
var _ nonce.Store = (*Store)(nil)

// New creates a Redis-backed store. An empty prefix selects DefaultPrefix; a
// nil logger disables logging.
func New(client redis.UniversalClient, prefix string, logger *zap.Logger) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, prefix: prefix, logger: logger}
}

// key builds a Redis key. Format: {prefix}:{name}
func (s *Store) key(name string) string {
	return s.prefix + ":" + name
}

// Has reports whether the key exists.
func (s *Store) Has(ctx context.Context, name string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(name)).Result()
	if err != nil {
		s.logger.Error("failed to check nonce", zap.String("name", name), zap.Error(err))
		return false, fmt.Errorf("check nonce: %w", err)
	}
	return n == 1, nil
}

// Get loads and decodes the record. Missing keys yield nonce.ErrNoRecord.
func (s *Store) Get(ctx context.Context, name string) (nonce.Record, error) {
	b, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nonce.Record{}, nonce.ErrNoRecord
	}
	if err != nil {
		s.logger.Error("failed to get nonce", zap.String("name", name), zap.Error(err))
		return nonce.Record{}, fmt.Errorf("get nonce: %w", err)
	}
	return codec.Unmarshal(b)
}

// Set writes the record without expiration.
func (s *Store) Set(ctx context.Context, name string, rec nonce.Record) error {
	b, err := codec.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(name), b, 0).Err(); err != nil {
		s.logger.Error("failed to store nonce", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("store nonce: %w", err)
	}
	s.logger.Debug("nonce stored", zap.String("name", name))
	return nil
}

// Delete removes the key.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.client.Del(ctx, s.key(name)).Err(); err != nil {
		s.logger.Error("failed to delete nonce", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("delete nonce: %w", err)
	}
	return nil
}

// Ping tests the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
