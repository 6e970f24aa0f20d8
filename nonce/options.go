package nonce

import (
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/haukened/gonce/clock"
)

// Defaults applied when the caller does not override them.
const (
	DefaultExpiry   = 3600 * time.Second
	DefaultLength   = 16
	MinSecretLength = 12
)

type config struct {
	expiry  time.Duration
	length  int
	charset string
	clock   clock.Clock
	random  io.Reader
	logger  *zap.Logger
}

// Option configures a Manager.
type Option func(*config)

// WithDefaultExpiry sets the lifetime used when Create is called without Expiry.
func WithDefaultExpiry(d time.Duration) Option { return func(c *config) { c.expiry = d } }

// WithDefaultLength sets the token length used when Create is called without Length.
func WithDefaultLength(n int) Option { return func(c *config) { c.length = n } }

// WithCharset substitutes the token alphabet.
func WithCharset(charset string) Option { return func(c *config) { c.charset = charset } }

// WithClock injects the time source for expiry and salt rotation.
func WithClock(cl clock.Clock) Option { return func(c *config) { c.clock = cl } }

// WithRandom injects the random source for token generation.
func WithRandom(r io.Reader) Option { return func(c *config) { c.random = r } }

// WithLogger sets the logger. Token values are never logged.
func WithLogger(l *zap.Logger) Option { return func(c *config) { c.logger = l } }

type createOptions struct {
	expiry time.Duration
	length int
}

// CreateOption overrides a default for a single Create call.
type CreateOption func(*createOptions)

// Expiry sets the nonce lifetime. Zero or negative values create a nonce that
// is already expired.
func Expiry(d time.Duration) CreateOption {
	return func(o *createOptions) { o.expiry = d }
}

// Length sets the token length. It must be at least 1.
func Length(n int) CreateOption {
	return func(o *createOptions) { o.length = n }
}

type lookupOptions struct{ allowExpired bool }

// LookupOption modifies Has and Get.
type LookupOption func(*lookupOptions)

// AllowExpired makes Has and Get report expired records as present.
func AllowExpired() LookupOption { return func(o *lookupOptions) { o.allowExpired = true } }

type verifyOptions struct{ keep bool }

// VerifyOption modifies Verify.
type VerifyOption func(*verifyOptions)

// KeepOnSuccess leaves the record in place after a successful verification so
// it can be verified again. By default a match deletes the record.
func KeepOnSuccess() VerifyOption { return func(o *verifyOptions) { o.keep = true } }
