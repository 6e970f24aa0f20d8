package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/haukened/gonce/nonce"
)

func TestProtect(t *testing.T) {
	g := NewWithT(t)
	_, m, _ := newTestRouter(t)
	ctx := context.Background()

	reached := 0
	h := Protect(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached++
		w.WriteHeader(http.StatusAccepted)
	}))

	g.Expect(do(h, http.MethodGet, "/transfer", nil, nil).Code).To(Equal(http.StatusAccepted), "safe methods pass")
	g.Expect(do(h, http.MethodPost, "/transfer", nil, nil).Code).To(Equal(http.StatusForbidden))
	g.Expect(do(h, http.MethodPost, "/transfer", url.Values{NameField: {"form"}}, nil).Code).To(Equal(http.StatusForbidden))

	value, err := m.Create(ctx, "form")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(do(h, http.MethodPost, "/transfer", url.Values{NameField: {"form"}, TokenField: {"wrong"}}, nil).Code).
		To(Equal(http.StatusForbidden))
	g.Expect(do(h, http.MethodPost, "/transfer", url.Values{NameField: {"form"}, TokenField: {value}}, nil).Code).
		To(Equal(http.StatusAccepted))
	g.Expect(do(h, http.MethodPost, "/transfer", url.Values{NameField: {"form"}, TokenField: {value}}, nil).Code).
		To(Equal(http.StatusForbidden), "replay must fail")

	value, err = m.Create(ctx, "ajax")
	g.Expect(err).NotTo(HaveOccurred())
	hdr := http.Header{NameHeader: {"ajax"}, TokenHeader: {value}}
	g.Expect(do(h, http.MethodDelete, "/transfer", nil, hdr).Code).To(Equal(http.StatusAccepted))
	g.Expect(reached).To(Equal(3))
}

func TestProtectBackendError(t *testing.T) {
	g := NewWithT(t)
	h := Protect(failingManager{err: &nonce.BackendError{Op: "has", Err: errors.New("down")}})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { t.Fatal("must not be reached") }))
	hdr := http.Header{NameHeader: {"form"}, TokenHeader: {"v"}}
	g.Expect(do(h, http.MethodPost, "/", nil, hdr).Code).To(Equal(http.StatusServiceUnavailable))
}
