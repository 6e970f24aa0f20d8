package nonce

import (
	"errors"
	"fmt"
)

// Sentinel errors. Absent or expired nonces are never reported as errors;
// they surface as false / not-found results.
var (
	// ErrSecretTooShort is wrapped by the ConfigError returned from New.
	ErrSecretTooShort = errors.New("secret key too short")
	// ErrNilStore indicates New was called without a storage backend.
	ErrNilStore = errors.New("nil store")
	// ErrInvalidArgument indicates an expiry or length that cannot be used.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrBackendUnavailable is matched by every error raised by the Store.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrNoRecord may be returned by Store.Get for a missing name.
	ErrNoRecord = errors.New("no record")
)

// ConfigError reports an unusable Manager configuration.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("nonce config %s: %v", e.Field, e.Err) }

func (e *ConfigError) Unwrap() error { return e.Err }

// ArgumentError reports a Create argument that could not be interpreted.
// It matches both ErrInvalidArgument and the underlying parse error.
type ArgumentError struct {
	Arg   string
	Value string
	Err   error
}

func (e *ArgumentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid argument %s=%q", e.Arg, e.Value)
	}
	return fmt.Sprintf("invalid argument %s=%q: %v", e.Arg, e.Value, e.Err)
}

func (e *ArgumentError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidArgument}
	}
	return []error{ErrInvalidArgument, e.Err}
}

// BackendError wraps a failure of the Store. It matches ErrBackendUnavailable
// and the underlying backend error.
type BackendError struct {
	Op   string
	Name string
	Err  error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("nonce store %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *BackendError) Unwrap() []error { return []error{ErrBackendUnavailable, e.Err} }
