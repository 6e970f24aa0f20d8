package metrics

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the Prometheus exposition for g.
// If token is non-empty, requests must include Authorization: Bearer <token>.
func Handler(g prometheus.Gatherer, token string) http.Handler {
	prom := promhttp.HandlerFor(g, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	if token == "" {
		return prom
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "
		hdr := r.Header.Get("Authorization")
		if !strings.HasPrefix(hdr, prefix) ||
			subtle.ConstantTimeCompare([]byte(hdr[len(prefix):]), []byte(token)) != 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		prom.ServeHTTP(w, r)
	})
}
