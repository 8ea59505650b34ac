// Package wire provides the canonical CBOR encoding used to persist and
// transmit a KeyShare or a round Message (spec.md §9's "Serialization"
// concern, left unspecified by spec.md itself but required by
// SPEC_FULL.md §3's dependency table so a KeyShare can cross a process
// boundary). CBOR's deterministic/canonical mode is used throughout so two
// equal values always produce identical bytes, matching the teacher's use
// of fxamacker/cbor for its own wire types.
package wire

import (
	"github.com/fxamacker/cbor/v2"
)

var encMode = func() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	m, err := opts.EncMode()
	if err != nil {
		panic(err) // options are a compile-time constant; a failure here is a programming error
	}
	return m
}()

// Marshal encodes v using deterministic CBOR.
func Marshal(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into v.
func Unmarshal(data []byte, v interface{}) error {
	return cbor.Unmarshal(data, v)
}
