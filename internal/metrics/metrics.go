// Package metrics exposes nonce lifecycle counters to Prometheus.
// Counters are registered on a caller supplied Registerer so tests can use an
// isolated registry; the Recorder methods are safe for concurrent use.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/haukened/gonce/nonce"
)

const namespace = "gonce"

// Verification results used as the "result" label.
const (
	ResultValid   = "valid"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// Recorder owns the nonce counters and the HTTP request summary.
type Recorder struct {
	created         prometheus.Counter
	verifications   *prometheus.CounterVec
	lookups         *prometheus.CounterVec
	deletes         prometheus.Counter
	backendErrors   *prometheus.CounterVec
	requestDuration *prometheus.SummaryVec
}

// New creates a Recorder and registers its collectors on reg.
// It panics if the collectors are already registered, like MustRegister.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nonces_created_total",
			Help:      "Number of nonces created.",
		}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Number of nonce verifications by result.",
		}, []string{"result"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Number of nonce lookups by operation and outcome.",
		}, []string{"op", "found"}),
		deletes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletes_total",
			Help:      "Number of explicit nonce deletions.",
		}),
		backendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_errors_total",
			Help:      "Number of storage backend failures by store operation.",
		}, []string{"op"}),
		requestDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(r.created, r.verifications, r.lookups, r.deletes, r.backendErrors, r.requestDuration)
	return r
}

// Created counts a successful Create.
func (r *Recorder) Created() { r.created.Inc() }

// Deleted counts a successful Delete.
func (r *Recorder) Deleted() { r.deletes.Inc() }

// Verified counts a verification outcome.
func (r *Recorder) Verified(valid bool) {
	result := ResultInvalid
	if valid {
		result = ResultValid
	}
	r.verifications.WithLabelValues(result).Inc()
}

// Lookup counts a Has/Get/Inspect call.
func (r *Recorder) Lookup(op string, found bool) {
	r.lookups.WithLabelValues(op, strconv.FormatBool(found)).Inc()
}

// Failed counts err when it came from the storage backend. Other errors are
// ignored.
func (r *Recorder) Failed(err error) {
	var be *nonce.BackendError
	if errors.As(err, &be) {
		r.backendErrors.WithLabelValues(be.Op).Inc()
	}
}

// ObserveRequest records the duration of an HTTP request.
func (r *Recorder) ObserveRequest(method, route string, status int, d time.Duration) {
	r.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
