// Package token generates nonce values: random strings drawn from a fixed
// character set and mixed with a rotating salt derived from an application
// secret.
package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/haukened/gonce/clock"
)

// Alphanumeric is the default 62-symbol character set.
const Alphanumeric = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Sentinel errors returned by New and Generate.
var (
	ErrEmptySecret    = errors.New("token secret must not be empty")
	ErrInvalidLength  = errors.New("token length must be at least 1")
	ErrInvalidCharset = errors.New("token charset must hold at least 2 distinct single-byte symbols")
)

// Generator produces token strings. It holds no mutable state and is safe
// for concurrent use.
type Generator struct {
	secret  string
	charset string
	clock   clock.Clock
	random  io.Reader
}

// Option configures a Generator.
type Option func(*Generator)

// WithCharset replaces the default Alphanumeric character set.
func WithCharset(charset string) Option {
	return func(g *Generator) { g.charset = charset }
}

// WithClock sets the time source used for salt rotation.
func WithClock(c clock.Clock) Option {
	return func(g *Generator) { g.clock = c }
}

// WithRandom sets the source of random draws. Defaults to crypto/rand.Reader.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) { g.random = r }
}

// New returns a Generator keyed by secret.
func New(secret string, opts ...Option) (*Generator, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	g := &Generator{
		secret:  secret,
		charset: Alphanumeric,
		clock:   clock.Real{},
		random:  rand.Reader,
	}
	for _, opt := range opts {
		opt(g)
	}
	if err := ValidateCharset(g.charset); err != nil {
		return nil, err
	}
	return g, nil
}

// Charset returns the character set tokens are drawn from.
func (g *Generator) Charset() string { return g.charset }

// Generate returns a string of exactly length symbols from the charset.
//
// Each position takes a uniform random index and shifts it by the salt byte
// at that position, modulo the charset size. The salt is the secret rotated
// left by (unix seconds mod len(secret)), so the mapping changes every second.
// A uniform draw plus a constant stays uniform, so the output distribution
// does not leak the salt.
func (g *Generator) Generate(length int) (string, error) {
	if length < 1 {
		return "", ErrInvalidLength
	}
	salt := g.salt()
	n := big.NewInt(int64(len(g.charset)))
	out := make([]byte, length)
	for i := range out {
		r, err := rand.Int(g.random, n)
		if err != nil {
			return "", fmt.Errorf("generate token: %w", err)
		}
		idx := (int(r.Int64()) + int(salt[i%len(salt)])) % len(g.charset)
		out[i] = g.charset[idx]
	}
	return string(out), nil
}

// salt rotates the secret by the current time modulo its length.
func (g *Generator) salt() string {
	size := int64(len(g.secret))
	offset := g.clock.Now().Unix() % size
	if offset < 0 {
		offset += size
	}
	return g.secret[offset:] + g.secret[:offset]
}

// ValidateCharset reports whether charset can be used for token generation.
func ValidateCharset(charset string) error {
	if len(charset) < 2 {
		return ErrInvalidCharset
	}
	var seen [256]bool
	for i := 0; i < len(charset); i++ {
		c := charset[i]
		if c >= 0x80 || seen[c] {
			return ErrInvalidCharset
		}
		seen[c] = true
	}
	return nil
}

// InCharset reports whether every byte of s belongs to charset.
func InCharset(s, charset string) bool {
	var allowed [256]bool
	for i := 0; i < len(charset); i++ {
		allowed[charset[i]] = true
	}
	for i := 0; i < len(s); i++ {
		if !allowed[s[i]] {
			return false
		}
	}
	return true
}
