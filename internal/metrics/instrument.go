package metrics

import (
	"context"

	"github.com/haukened/gonce/nonce"
)

// Manager is the subset of *nonce.Manager that Instrumented decorates.
type Manager interface {
	Create(ctx context.Context, name string, opts ...nonce.CreateOption) (string, error)
	CreateRaw(ctx context.Context, name, expiry, length string) (string, error)
	Has(ctx context.Context, name string, opts ...nonce.LookupOption) (bool, error)
	Get(ctx context.Context, name string, opts ...nonce.LookupOption) (string, bool, error)
	Inspect(ctx context.Context, name string) (nonce.Record, bool, error)
	Delete(ctx context.Context, name string) error
	Verify(ctx context.Context, name, supplied string, opts ...nonce.VerifyOption) (bool, error)
}

var _ Manager = (*nonce.Manager)(nil)

// Instrumented wraps a Manager and records every call on a Recorder.
type Instrumented struct {
	next Manager
	rec  *Recorder
}

var _ Manager = (*Instrumented)(nil)

// Instrument returns next decorated with rec.
func Instrument(next Manager, rec *Recorder) *Instrumented {
	return &Instrumented{next: next, rec: rec}
}

func (i *Instrumented) Create(ctx context.Context, name string, opts ...nonce.CreateOption) (string, error) {
	v, err := i.next.Create(ctx, name, opts...)
	i.created(err)
	return v, err
}

func (i *Instrumented) CreateRaw(ctx context.Context, name, expiry, length string) (string, error) {
	v, err := i.next.CreateRaw(ctx, name, expiry, length)
	i.created(err)
	return v, err
}

func (i *Instrumented) created(err error) {
	if err != nil {
		i.rec.Failed(err)
		return
	}
	i.rec.Created()
}

func (i *Instrumented) Has(ctx context.Context, name string, opts ...nonce.LookupOption) (bool, error) {
	ok, err := i.next.Has(ctx, name, opts...)
	i.lookup("has", ok, err)
	return ok, err
}

func (i *Instrumented) Get(ctx context.Context, name string, opts ...nonce.LookupOption) (string, bool, error) {
	v, ok, err := i.next.Get(ctx, name, opts...)
	i.lookup("get", ok, err)
	return v, ok, err
}

func (i *Instrumented) Inspect(ctx context.Context, name string) (nonce.Record, bool, error) {
	rec, ok, err := i.next.Inspect(ctx, name)
	i.lookup("inspect", ok, err)
	return rec, ok, err
}

func (i *Instrumented) lookup(op string, found bool, err error) {
	if err != nil {
		i.rec.Failed(err)
		return
	}
	i.rec.Lookup(op, found)
}

func (i *Instrumented) Delete(ctx context.Context, name string) error {
	err := i.next.Delete(ctx, name)
	if err != nil {
		i.rec.Failed(err)
		return err
	}
	i.rec.Deleted()
	return nil
}

func (i *Instrumented) Verify(ctx context.Context, name, supplied string, opts ...nonce.VerifyOption) (bool, error) {
	ok, err := i.next.Verify(ctx, name, supplied, opts...)
	if err != nil {
		i.rec.Failed(err)
		i.rec.verifications.WithLabelValues(ResultError).Inc()
		return ok, err
	}
	i.rec.Verified(ok)
	return ok, nil
}
