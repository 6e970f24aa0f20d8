package nonce

import (
	"context"
	"crypto/subtle"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/haukened/gonce/clock"
	"github.com/haukened/gonce/token"
)

// maxExpirySeconds bounds CreateRaw so the lifetime fits a time.Duration.
const maxExpirySeconds = math.MaxInt64 / int64(time.Second)

// Manager orchestrates nonce creation, lookup, deletion and verification
// against a Store. Apart from its configuration it is stateless and is safe
// for concurrent use whenever the Store is.
type Manager struct {
	store  Store
	gen    *token.Generator
	clock  clock.Clock
	expiry time.Duration
	length int
	log    *zap.Logger
}

// New returns a Manager keyed by secret and backed by store. The secret must
// be at least MinSecretLength bytes; shorter secrets yield a *ConfigError.
func New(secret string, store Store, opts ...Option) (*Manager, error) {
	if len(secret) < MinSecretLength {
		return nil, &ConfigError{Field: "secret", Err: ErrSecretTooShort}
	}
	if store == nil {
		return nil, &ConfigError{Field: "store", Err: ErrNilStore}
	}
	cfg := config{
		expiry:  DefaultExpiry,
		length:  DefaultLength,
		charset: token.Alphanumeric,
		clock:   clock.Real{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.length < 1 {
		return nil, &ConfigError{Field: "default_length", Err: ErrInvalidArgument}
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	genOpts := []token.Option{token.WithCharset(cfg.charset), token.WithClock(cfg.clock)}
	if cfg.random != nil {
		genOpts = append(genOpts, token.WithRandom(cfg.random))
	}
	gen, err := token.New(secret, genOpts...)
	if err != nil {
		return nil, &ConfigError{Field: "charset", Err: err}
	}
	return &Manager{
		store:  store,
		gen:    gen,
		clock:  cfg.clock,
		expiry: cfg.expiry,
		length: cfg.length,
		log:    cfg.logger.With(zap.String("domain", "nonce")),
	}, nil
}

// Create generates a fresh value for name, stores it with an absolute expiry
// and returns it. Any existing record under name is overwritten.
func (m *Manager) Create(ctx context.Context, name string, opts ...CreateOption) (string, error) {
	o := createOptions{expiry: m.expiry, length: m.length}
	for _, opt := range opts {
		opt(&o)
	}
	if o.length < 1 {
		return "", &ArgumentError{Arg: "length", Value: strconv.Itoa(o.length), Err: token.ErrInvalidLength}
	}
	value, err := m.gen.Generate(o.length)
	if err != nil {
		return "", err
	}
	rec := Record{Value: value, ExpiresAt: m.clock.Now().Add(o.expiry)}
	if err := m.store.Set(ctx, name, rec); err != nil {
		return "", m.backendError("set", name, err)
	}
	m.log.Debug("nonce created", zap.String("name", name), zap.Time("expires_at", rec.ExpiresAt), zap.Int("length", o.length))
	return value, nil
}

// CreateRaw is Create for untyped input such as form fields or CLI
// arguments. expiry is a whole number of seconds and length a whole number of
// characters; empty strings select the defaults. Values that are not integers
// yield an *ArgumentError and nothing is stored.
func (m *Manager) CreateRaw(ctx context.Context, name, expiry, length string) (string, error) {
	var opts []CreateOption
	if s := strings.TrimSpace(expiry); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return "", &ArgumentError{Arg: "expiry", Value: expiry, Err: err}
		}
		if n > maxExpirySeconds || n < -maxExpirySeconds {
			return "", &ArgumentError{Arg: "expiry", Value: expiry, Err: strconv.ErrRange}
		}
		opts = append(opts, Expiry(time.Duration(n)*time.Second))
	}
	if s := strings.TrimSpace(length); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return "", &ArgumentError{Arg: "length", Value: length, Err: err}
		}
		opts = append(opts, Length(n))
	}
	return m.Create(ctx, name, opts...)
}

// Has reports whether a valid nonce exists under name. Expired records count
// as absent unless AllowExpired is given.
func (m *Manager) Has(ctx context.Context, name string, opts ...LookupOption) (bool, error) {
	var o lookupOptions
	for _, opt := range opts {
		opt(&o)
	}
	_, ok, err := m.lookup(ctx, name, o.allowExpired, !o.allowExpired)
	return ok, err
}

// Get returns the value stored under name. The boolean is false when Has
// would report false, even if an expired record is still stored.
func (m *Manager) Get(ctx context.Context, name string, opts ...LookupOption) (string, bool, error) {
	var o lookupOptions
	for _, opt := range opts {
		opt(&o)
	}
	rec, ok, err := m.lookup(ctx, name, o.allowExpired, true)
	if err != nil || !ok {
		return "", false, err
	}
	return rec.Value, true, nil
}

// Inspect returns the raw record under name whether or not it has expired.
func (m *Manager) Inspect(ctx context.Context, name string) (Record, bool, error) {
	return m.lookup(ctx, name, true, true)
}

// Delete removes the nonce stored under name. Deleting an absent name is not
// an error.
func (m *Manager) Delete(ctx context.Context, name string) error {
	if err := m.store.Delete(ctx, name); err != nil {
		return m.backendError("delete", name, err)
	}
	m.log.Debug("nonce deleted", zap.String("name", name))
	return nil
}

// Verify reports whether supplied matches the valid nonce stored under name.
// Expired and absent nonces never verify and are left untouched. On a match
// the record is deleted unless KeepOnSuccess is given; a mismatch has no side
// effects.
//
// The lookup and the delete are separate Store calls, so two concurrent
// verifications of the same nonce can both succeed.
func (m *Manager) Verify(ctx context.Context, name, supplied string, opts ...VerifyOption) (bool, error) {
	var o verifyOptions
	for _, opt := range opts {
		opt(&o)
	}
	rec, ok, err := m.lookup(ctx, name, false, true)
	if err != nil || !ok {
		return false, err
	}
	if subtle.ConstantTimeCompare([]byte(rec.Value), []byte(supplied)) != 1 {
		m.log.Debug("nonce mismatch", zap.String("name", name))
		return false, nil
	}
	if !o.keep {
		if err := m.store.Delete(ctx, name); err != nil {
			return false, m.backendError("delete", name, err)
		}
	}
	m.log.Debug("nonce verified", zap.String("name", name), zap.Bool("cleared", !o.keep))
	return true, nil
}

// lookup checks existence, then optionally loads the record. Without
// allowExpired an expired record is reported as absent. fetch=false is only
// valid together with allowExpired.
func (m *Manager) lookup(ctx context.Context, name string, allowExpired, fetch bool) (Record, bool, error) {
	ok, err := m.store.Has(ctx, name)
	if err != nil {
		return Record{}, false, m.backendError("has", name, err)
	}
	if !ok {
		return Record{}, false, nil
	}
	if !fetch {
		return Record{}, true, nil
	}
	rec, err := m.store.Get(ctx, name)
	if errors.Is(err, ErrNoRecord) {
		// deleted between Has and Get
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, m.backendError("get", name, err)
	}
	if !allowExpired && rec.Expired(m.clock.Now()) {
		return Record{}, false, nil
	}
	return rec, true, nil
}

func (m *Manager) backendError(op, name string, err error) error {
	m.log.Warn("nonce store failure", zap.String("op", op), zap.String("name", name), zap.Error(err))
	return &BackendError{Op: op, Name: name, Err: err}
}
