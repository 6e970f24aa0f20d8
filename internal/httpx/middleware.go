package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/haukened/gonce/internal/logging"
)

// correlationIDCtxKey is the unexported context key type to avoid collisions.
type correlationIDCtxKey struct{}

var cidKey = correlationIDCtxKey{}

// CorrelationIDHeader is the HTTP header used for inbound/outbound correlation IDs.
const CorrelationIDHeader = "X-Correlation-ID"

// maxCorrelationIDLen caps trusted inbound IDs; longer ones are replaced.
const maxCorrelationIDLen = 128

// CorrelationIDMiddleware injects a per-request correlation ID into the request
// context and response headers. If the incoming request already supplies
// X-Correlation-ID it is trusted. If absent a new UUID v4 is generated.
// Downstream handlers can retrieve the value via GetCorrelationID.
func CorrelationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(CorrelationIDHeader)
		if cid == "" || len(cid) > maxCorrelationIDLen {
			cid = uuid.New().String()
		}
		ctx := context.WithValue(r.Context(), cidKey, cid)
		w.Header().Set(CorrelationIDHeader, cid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCorrelationID extracts the correlation ID from the context. The second
// boolean return reports whether a value was present.
func GetCorrelationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(cidKey).(string)
	return id, ok
}

// secureHeaders middleware adds standard security & cache control headers.
// Every API response is private to the caller, so caching is always disabled.
func (h *Handler) secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.statusCode == 0 {
		s.statusCode = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.statusCode == 0 {
		s.statusCode = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) getStatusCode() int {
	if s.statusCode == 0 {
		return http.StatusOK
	}
	return s.statusCode
}

// logRequests attaches a request-scoped logger to the context, then logs and
// observes the request once it has been served. The route label is the mux
// pattern so path parameters do not explode label cardinality.
func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		cid, _ := GetCorrelationID(r.Context())
		log := h.logger().With(
			zap.String("cid", cid),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		sr := &statusRecorder{ResponseWriter: w}
		r = logging.IntoRequest(r, log)
		next.ServeHTTP(sr, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		d := time.Since(start)
		if h.Observer != nil {
			h.Observer.ObserveRequest(r.Method, route, sr.getStatusCode(), d)
		}
		log.Debug("request served", zap.String("route", route), zap.Int("status", sr.getStatusCode()), zap.Duration("duration", d))
	})
}
