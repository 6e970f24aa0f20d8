package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/haukened/gonce/internal/logging"
	"github.com/haukened/gonce/nonce"
)

// writeJSON writes v as a JSON body with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body with given status code.
func writeError(ctx context.Context, w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, struct {
		Error string `json:"error"`
	}{Error: msg})
	logging.FromContext(ctx).Debug("wrote error response", zap.Int("status", code), zap.String("msg", msg))
}

// mapError maps nonce errors to HTTP responses.
func mapError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logging.FromContext(ctx)
	var argErr *nonce.ArgumentError
	switch {
	case errors.As(err, &argErr):
		log.Info("request error", zap.String("code", "invalid_argument"), zap.String("arg", argErr.Arg))
		writeError(ctx, w, http.StatusBadRequest, "invalid "+argErr.Arg)
	case errors.Is(err, nonce.ErrInvalidArgument):
		log.Info("request error", zap.String("code", "invalid_argument"))
		writeError(ctx, w, http.StatusBadRequest, "invalid argument")
	case errors.Is(err, nonce.ErrBackendUnavailable):
		log.Warn("request error", zap.String("code", "backend_unavailable"), zap.Error(err))
		writeError(ctx, w, http.StatusServiceUnavailable, "backend unavailable")
	default:
		log.Error("unhandled error", zap.String("code", "unhandled"), zap.Error(err))
		writeError(ctx, w, http.StatusInternalServerError, "internal")
	}
}
