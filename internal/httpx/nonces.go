package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/haukened/gonce/nonce"
)

// TokenHeader carries the nonce value on verification requests.
const TokenHeader = "X-CSRF-Token"

type createResponse struct {
	Name      string     `json:"name"`
	Value     string     `json:"value"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type getResponse struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

// parseForm bounds the body and parses query and form values.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if h.MaxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBody)
	}
	if err := r.ParseForm(); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "invalid form")
		return false
	}
	return true
}

// boolParam parses an optional boolean query parameter.
func boolParam(r *http.Request, key string) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func lookupOptions(w http.ResponseWriter, r *http.Request) ([]nonce.LookupOption, bool) {
	allow, err := boolParam(r, "allow_expired")
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "invalid allow_expired")
		return nil, false
	}
	if allow {
		return []nonce.LookupOption{nonce.AllowExpired()}, true
	}
	return nil, true
}

// handleCreate issues a nonce. expiry (seconds) and length come from the
// query string or a urlencoded form body; absent values use the defaults.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	ctx := r.Context()
	name := r.PathValue("name")
	value, err := h.Manager.CreateRaw(ctx, name, r.FormValue("expiry"), r.FormValue("length"))
	if err != nil {
		mapError(ctx, w, err)
		return
	}
	resp := createResponse{Name: name, Value: value}
	if rec, ok, err := h.Manager.Inspect(ctx, name); err == nil && ok && rec.Value == value {
		exp := rec.ExpiresAt.UTC()
		resp.ExpiresAt = &exp
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	opts, ok := lookupOptions(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	name := r.PathValue("name")
	value, found, err := h.Manager.Get(ctx, name, opts...)
	if err != nil {
		mapError(ctx, w, err)
		return
	}
	if !found {
		writeError(ctx, w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, getResponse{Name: name, Value: value})
}

func (h *Handler) handleHas(w http.ResponseWriter, r *http.Request) {
	opts, ok := lookupOptions(w, r)
	if !ok {
		return
	}
	found, err := h.Manager.Has(r.Context(), r.PathValue("name"), opts...)
	if err != nil {
		mapError(r.Context(), w, err)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Manager.Delete(r.Context(), r.PathValue("name")); err != nil {
		mapError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleVerify checks a supplied token. The token is read from the
// X-CSRF-Token header, falling back to the "token" form field. keep=true
// leaves a matching nonce in place.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	ctx := r.Context()
	keep, err := boolParam(r, "keep")
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid keep")
		return
	}
	supplied := r.Header.Get(TokenHeader)
	if supplied == "" {
		supplied = r.FormValue("token")
	}
	var opts []nonce.VerifyOption
	if keep {
		opts = append(opts, nonce.KeepOnSuccess())
	}
	valid, err := h.Manager.Verify(ctx, r.PathValue("name"), supplied, opts...)
	if err != nil {
		mapError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Valid: valid})
}
