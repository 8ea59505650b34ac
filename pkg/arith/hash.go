package arith

import "github.com/mpc-go/threshold/pkg/hash"

// HashTo absorbs a Bounded value's bound (as a fixed-width integer) and its
// magnitude bytes, length-prefixed. The bound is part of the transcript so
// a verifier that disagrees about the claimed bound diverges immediately.
func (b *Bounded) HashTo(h *hash.Hash) {
	h.ChainUint64(uint64(b.bound)).ChainBytes(b.value.Bytes())
}

// HashTo absorbs a Signed value's bound, sign, and magnitude.
func (s *Signed) HashTo(h *hash.Hash) {
	h.ChainUint64(uint64(s.bound)).ChainBool(s.negative).ChainBytes(s.abs.Bytes())
}
