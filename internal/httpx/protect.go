package httpx

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/haukened/gonce/internal/logging"
	"github.com/haukened/gonce/nonce"
)

// Request fields read by Protect.
const (
	NameHeader = "X-CSRF-Name"
	NameField  = "csrf_name"
	TokenField = "csrf_token"
)

// Verifier is the part of the manager Protect needs.
type Verifier interface {
	Verify(ctx context.Context, name, supplied string, opts ...nonce.VerifyOption) (bool, error)
}

// Protect guards state-changing requests with a single-use nonce. For every
// method other than GET, HEAD, OPTIONS and TRACE the nonce name is read from
// X-CSRF-Name or the csrf_name form field and the token from X-CSRF-Token or
// csrf_token. Requests that do not verify are rejected with 403. A successful
// verification consumes the nonce.
func Protect(m Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			name := r.Header.Get(NameHeader)
			if name == "" {
				name = r.FormValue(NameField)
			}
			supplied := r.Header.Get(TokenHeader)
			if supplied == "" {
				supplied = r.FormValue(TokenField)
			}
			if name == "" || supplied == "" {
				writeError(ctx, w, http.StatusForbidden, "missing csrf token")
				return
			}
			valid, err := m.Verify(ctx, name, supplied)
			if err != nil {
				mapError(ctx, w, err)
				return
			}
			if !valid {
				logging.FromContext(ctx).Info("csrf rejected", zap.String("name", name))
				writeError(ctx, w, http.StatusForbidden, "invalid csrf token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
