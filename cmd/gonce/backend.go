package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/haukened/gonce/internal/config"
	"github.com/haukened/gonce/nonce"
	"github.com/haukened/gonce/store/bolt"
	"github.com/haukened/gonce/store/filesystem"
	"github.com/haukened/gonce/store/memory"
	"github.com/haukened/gonce/store/redis"
	"github.com/haukened/gonce/store/sqlstore"
	"github.com/haukened/gonce/store/valkey"
)

// backend is an opened nonce.Store together with its probe and cleanup.
type backend struct {
	store nonce.Store
	ping  func(context.Context) error
	close func() error
}

func noClose() error { return nil }

// ensureDataDir creates dir if missing and fails if it is not a directory.
func ensureDataDir(dir string) error {
	st, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create data directory %s: %w", dir, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat data directory %s: %w", dir, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("data path %s is not a directory", dir)
	}
	return nil
}

// openBackend opens the store selected by cfg.Backend.
func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backend, error) {
	log := logger.With(zap.String("backend", cfg.Backend))
	switch cfg.Backend {
	case config.BackendMemory:
		return &backend{store: memory.New(), close: noClose}, nil

	case config.BackendSQLite, config.BackendMySQL:
		dialect, err := sqlstore.ParseDialect(cfg.Backend)
		if err != nil {
			return nil, err
		}
		dsn := cfg.DSN
		if dialect == sqlstore.SQLite && dsn == "" {
			if err := ensureDataDir(cfg.DataDir); err != nil {
				return nil, err
			}
			dsn = cfg.SQLiteDSN()
		}
		db, err := sql.Open(dialect.Driver(), dsn)
		if err != nil {
			return nil, fmt.Errorf("open %s driver: %w", cfg.Backend, err)
		}
		st, err := sqlstore.New(ctx, db, dialect)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("init %s schema: %w", cfg.Backend, err)
		}
		log.Debug("sql store ready")
		return &backend{store: st, ping: st.Ping, close: db.Close}, nil

	case config.BackendFilesystem:
		dir := cfg.NoncesDir()
		if err := ensureDataDir(dir); err != nil {
			return nil, err
		}
		st, err := filesystem.New(dir)
		if err != nil {
			return nil, err
		}
		return &backend{store: st, ping: st.Ping, close: noClose}, nil

	case config.BackendBolt:
		st, err := bolt.Open(cfg.BoltPath())
		if err != nil {
			return nil, err
		}
		return &backend{store: st, ping: st.Ping, close: st.Close}, nil

	case config.BackendRedis:
		client := redis.NewClient(redis.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		st := redis.New(client, cfg.KeyPrefix, log)
		if err := st.Ping(ctx); err != nil {
			client.Close()
			return nil, err
		}
		return &backend{store: st, ping: st.Ping, close: client.Close}, nil

	case config.BackendValkey:
		client, err := valkey.NewClient(cfg.ValkeyAddr)
		if err != nil {
			return nil, err
		}
		st := valkey.New(client, cfg.KeyPrefix, log)
		return &backend{store: st, ping: st.Ping, close: func() error { st.Close(); return nil }}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
