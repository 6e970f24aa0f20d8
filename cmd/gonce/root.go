package main

import (
	"context"
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/haukened/gonce/clock"
	"github.com/haukened/gonce/internal/config"
	"github.com/haukened/gonce/internal/logging"
	"github.com/haukened/gonce/nonce"
)

// cli holds state shared by every subcommand once PersistentPreRunE ran.
type cli struct {
	configPath string
	envFile    string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "gonce",
		Short:         "Named single-use nonces for CSRF protection",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd == cmd.Root() || cmd.Name() == "help" {
				return nil
			}
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "YAML config file")
	flags.StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	root.AddCommand(
		newCreateCmd(c),
		newGetCmd(c),
		newHasCmd(c),
		newDeleteCmd(c),
		newVerifyCmd(c),
		newServeCmd(c),
	)
	return root
}

// setup loads the dotenv file, the configuration and the logger.
func (c *cli) setup() error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logger
	return nil
}

// newManager builds a Manager over st from the loaded configuration.
func (c *cli) newManager(st nonce.Store) (*nonce.Manager, error) {
	return nonce.New(c.cfg.Secret, st,
		nonce.WithDefaultExpiry(c.cfg.DefaultExpiry),
		nonce.WithDefaultLength(c.cfg.DefaultLength),
		nonce.WithClock(clock.Real{}),
		nonce.WithLogger(c.logger),
	)
}

// errEphemeralBackend rejects one-shot commands on a store that dies with the process.
var errEphemeralBackend = errors.New("the memory backend does not persist between commands; use it with serve or pick a persistent backend")

// withManager opens the configured backend for the duration of fn.
func (c *cli) withManager(ctx context.Context, fn func(*nonce.Manager) error) error {
	if c.cfg.Backend == config.BackendMemory {
		return errEphemeralBackend
	}
	b, err := openBackend(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.close(); err != nil {
			c.logger.Warn("close backend", zap.Error(err))
		}
	}()
	m, err := c.newManager(b.store)
	if err != nil {
		return err
	}
	return fn(m)
}
