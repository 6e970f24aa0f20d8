package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/gomega"
)

func TestHandleReady(t *testing.T) {
	tests := []struct {
		name      string
		readiness func(context.Context) error
		code      int
		body      string
	}{
		{name: "no probe", code: http.StatusOK, body: "ready"},
		{name: "ready", readiness: func(context.Context) error { return nil }, code: http.StatusOK, body: "ready"},
		{name: "not ready", readiness: func(context.Context) error { return errors.New("store unavailable") }, code: http.StatusServiceUnavailable, body: `{"error":"not ready"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := NewWithT(t)
			h := &Handler{Readiness: tc.readiness}
			rr := httptest.NewRecorder()
			h.handleReady(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			g.Expect(rr.Code).To(Equal(tc.code))
			g.Expect(rr.Body.String()).To(HavePrefix(tc.body))
		})
	}
}

func TestHandleHealth(t *testing.T) {
	g := NewWithT(t)
	rr := httptest.NewRecorder()
	(&Handler{}).handleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	g.Expect(rr.Code).To(Equal(http.StatusOK))
	g.Expect(rr.Body.String()).To(Equal("ok"))
}
