package nonce

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordExpired(t *testing.T) {
	at := time.Unix(100, 0)
	r := Record{Value: "v", ExpiresAt: at}
	assert.False(t, r.Expired(at.Add(-time.Nanosecond)))
	assert.True(t, r.Expired(at))
	assert.True(t, r.Expired(at.Add(time.Second)))
}

func TestErrorMatching(t *testing.T) {
	cause := errors.New("socket closed")
	be := &BackendError{Op: "get", Name: "form", Err: cause}
	assert.ErrorIs(t, be, ErrBackendUnavailable)
	assert.ErrorIs(t, be, cause)
	assert.Contains(t, be.Error(), `"form"`)

	ae := &ArgumentError{Arg: "length", Value: "x", Err: strconv.ErrSyntax}
	assert.ErrorIs(t, ae, ErrInvalidArgument)
	assert.ErrorIs(t, ae, strconv.ErrSyntax)
	assert.Equal(t, `invalid argument length="x": invalid syntax`, ae.Error())

	bare := &ArgumentError{Arg: "length", Value: "0"}
	assert.ErrorIs(t, bare, ErrInvalidArgument)
	assert.Equal(t, `invalid argument length="0"`, bare.Error())

	ce := &ConfigError{Field: "secret", Err: ErrSecretTooShort}
	assert.ErrorIs(t, ce, ErrSecretTooShort)
	assert.Equal(t, "nonce config secret: secret key too short", ce.Error())
}
