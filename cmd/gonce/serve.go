package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/haukened/gonce/internal/config"
	"github.com/haukened/gonce/internal/httpx"
	"github.com/haukened/gonce/internal/metrics"
	"github.com/haukened/gonce/nonce"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the nonce API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			b, err := openBackend(ctx, c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer b.close()
			m, err := c.newManager(b.store)
			if err != nil {
				return err
			}
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			srv := newServer(c.cfg, buildHandler(c.cfg, m, b.ping, reg, c.logger))
			return serve(ctx, srv, c.logger)
		},
	}
}

// buildHandler wires the instrumented manager into the HTTP router.
func buildHandler(cfg *config.Config, m *nonce.Manager, readiness func(context.Context) error, reg *prometheus.Registry, logger *zap.Logger) http.Handler {
	rec := metrics.New(reg)
	h := httpx.New(metrics.Instrument(m, rec), readiness, logger)
	h.Metrics = metrics.Handler(reg, cfg.MetricsToken)
	h.Observer = rec
	return h.Router()
}

func newServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{Addr: cfg.Addr, Handler: handler, ReadTimeout: 5 * time.Second, WriteTimeout: 10 * time.Second, IdleTimeout: 120 * time.Second}
}

// serve runs srv until ctx is canceled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.Int("pid", os.Getpid()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}
