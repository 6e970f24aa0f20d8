// Package codec encodes nonce records for byte-oriented backends
// (filesystem, bbolt, redis, valkey).
package codec

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/haukened/gonce/nonce"
)

// wireRecord is the persisted form of nonce.Record. Expiry is split into unix
// seconds and a nanosecond remainder so instants past 2262 survive.
type wireRecord struct {
	Value   string `cbor:"1,keyasint"`
	Seconds int64  `cbor:"2,keyasint"`
	Nanos   int32  `cbor:"3,keyasint,omitempty"`
}

// Marshal encodes rec.
func Marshal(rec nonce.Record) ([]byte, error) {
	b, err := cbor.Marshal(wireRecord{
		Value:   rec.Value,
		Seconds: rec.ExpiresAt.Unix(),
		Nanos:   int32(rec.ExpiresAt.Nanosecond()),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal nonce record: %w", err)
	}
	return b, nil
}

// Unmarshal decodes a record produced by Marshal.
func Unmarshal(data []byte) (nonce.Record, error) {
	var w wireRecord
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nonce.Record{}, fmt.Errorf("unmarshal nonce record: %w", err)
	}
	return nonce.Record{Value: w.Value, ExpiresAt: time.Unix(w.Seconds, int64(w.Nanos)).UTC()}, nil
}
