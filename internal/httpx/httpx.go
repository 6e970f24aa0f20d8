// Package httpx is the HTTP delivery layer for gonce. It exposes the nonce
// manager as a small JSON API, offers a CSRF guard middleware for other
// handlers, and serves health, readiness and metrics endpoints.
// Handlers are split across files (nonces.go, protect.go, health.go, errors.go).
package httpx

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/haukened/gonce/nonce"
)

// DefaultMaxBody bounds form bodies parsed by the API handlers.
const DefaultMaxBody = 8 << 10

// ManagerPort abstracts the subset of *nonce.Manager used by the HTTP layer.
// It is satisfied by *nonce.Manager and by the metrics decorator.
type ManagerPort interface {
	CreateRaw(ctx context.Context, name, expiry, length string) (string, error)
	Has(ctx context.Context, name string, opts ...nonce.LookupOption) (bool, error)
	Get(ctx context.Context, name string, opts ...nonce.LookupOption) (string, bool, error)
	Inspect(ctx context.Context, name string) (nonce.Record, bool, error)
	Delete(ctx context.Context, name string) error
	Verify(ctx context.Context, name, supplied string, opts ...nonce.VerifyOption) (bool, error)
}

// RequestObserver receives the duration of every request served by Router.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// Handler wires HTTP endpoints to the nonce manager.
// It is safe for concurrent use. Zero-value is not valid; construct via New.
type Handler struct {
	Manager   ManagerPort
	Readiness func(context.Context) error // optional readiness probe
	Metrics   http.Handler                // optional /metrics handler
	Observer  RequestObserver             // optional request duration sink
	Logger    *zap.Logger
	MaxBody   int64
}

// New returns a configured Handler.
// readiness: optional probe function for /readyz (nil => always ready).
func New(m ManagerPort, readiness func(context.Context) error, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Manager: m, Readiness: readiness, Logger: logger, MaxBody: DefaultMaxBody}
}

// Router constructs and returns an http.Handler with all routes mounted and
// the correlation, logging and security header middleware applied.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/nonces/{name}", h.handleCreate)
	mux.HandleFunc("GET /api/nonces/{name}", h.handleGet)
	mux.HandleFunc("HEAD /api/nonces/{name}", h.handleHas)
	mux.HandleFunc("DELETE /api/nonces/{name}", h.handleDelete)
	mux.HandleFunc("POST /api/nonces/{name}/verify", h.handleVerify)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /readyz", h.handleReady)
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}
	return CorrelationIDMiddleware(h.logRequests(h.secureHeaders(mux)))
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
