// Package arith is the L0 big-integer kit: Bounded and Signed wrappers
// around github.com/cronokirby/saferith's constant-time Nat/Int/Modulus,
// plus the pow_signed family of exponentiation routines (spec.md §4.1).
//
// The reference design gives each of the four integer widths (H, U, W, X -
// see spec.md §3) its own Rust type so the compiler enforces non-overflow.
// saferith's Nat/Int are already arbitrary-precision with an explicit,
// constant-time-respected "announced length" (its analogue of a bit
// bound), so this package collapses the four Rust types into one dynamic
// width carried explicitly as a bound - exactly the quantity spec.md's
// invariants reason about - rather than reintroducing fixed-width Go
// types. Every arithmetic method here takes or produces that bound
// explicitly, so a caller can never silently use a value whose true
// magnitude exceeds what a proof's bit-bound check assumes.
package arith

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
)

// Bounded carries a nonnegative value together with a bit bound b such
// that value.bits() <= b. The bound is tracked through arithmetic: adding
// two Bounded values grows the bound by 1, multiplying sums the bounds.
type Bounded struct {
	value *saferith.Nat
	bound int
}

// NewBounded wraps value, asserting it fits within bound bits. Returns nil
// if the value exceeds the claimed bound - callers must check.
func NewBounded(value *saferith.Nat, bound int) *Bounded {
	if value.TrueLen() > bound {
		return nil
	}
	return &Bounded{value: value, bound: bound}
}

// BoundedFromBigInt constructs a Bounded from a standard-library big.Int,
// used at the boundary with pkg/curve and pkg/hash.
func BoundedFromBigInt(n *big.Int, bound int) *Bounded {
	nat := new(saferith.Nat).SetBig(n, bound)
	return &Bounded{value: nat, bound: bound}
}

func (b *Bounded) Nat() *saferith.Nat { return b.value }
func (b *Bounded) Bound() int         { return b.bound }

func (b *Bounded) Big() *big.Int {
	return b.value.Big()
}

// AddMod returns (b + other) mod modulus; the bound is set to the
// modulus's bit length, since reduction erases any tighter bound.
func (b *Bounded) AddMod(other *Bounded, modulus *saferith.Modulus) *Bounded {
	sum := new(saferith.Nat).ModAdd(b.value, other.value, modulus)
	return &Bounded{value: sum, bound: modulus.BitLen()}
}

// Add returns b + other with bound = max(bounds) + 1, matching the
// reference's CheckedAdd semantics (spec.md §4.1 invariant).
func (b *Bounded) Add(other *Bounded) *Bounded {
	bound := b.bound
	if other.bound > bound {
		bound = other.bound
	}
	bound++
	sum := new(saferith.Nat).Add(b.value, other.value, bound)
	return &Bounded{value: sum, bound: bound}
}

// Mul returns b * other with bound = sum of bounds.
func (b *Bounded) Mul(other *Bounded) *Bounded {
	bound := b.bound + other.bound
	prod := new(saferith.Nat).Mul(b.value, other.value, bound)
	return &Bounded{value: prod, bound: bound}
}

// IntoSigned reinterprets a Bounded as a nonnegative Signed with the same
// bound, used when a previously-unsigned value (e.g. a sampled random
// exponent) needs to flow into signed arithmetic.
func (b *Bounded) IntoSigned() *Signed {
	return &Signed{abs: b.value, bound: b.bound, negative: false}
}

// SampleBounded draws a uniformly random value in [0, 2^bound).
func SampleBounded(rnd io.Reader, bound int) (*Bounded, error) {
	byteLen := (bound + 7) / 8
	buf := make([]byte, byteLen)
	if _, err := io.ReadFull(rnd, buf); err != nil {
		return nil, err
	}
	n := new(big.Int).SetBytes(buf)
	// mask off any excess high bits so the result never exceeds bound
	excess := byteLen*8 - bound
	if excess > 0 {
		n.Rsh(n, uint(excess))
		n.Lsh(n, uint(excess))
		// keep `bound` significant bits by re-reading at full width then masking low side instead
		n.SetBytes(buf)
		mask := new(big.Int).Lsh(big.NewInt(1), uint(bound))
		mask.Sub(mask, big.NewInt(1))
		n.And(n, mask)
	}
	return BoundedFromBigInt(n, bound), nil
}

// Signed adds a sign bit to Bounded: the magnitude is bounded by `bound`
// bits, and the value ranges over (-2^bound, 2^bound).
type Signed struct {
	abs      *saferith.Nat
	bound    int
	negative bool
}

// NewSignedFromBigInt builds a Signed from a math/big value, bounded to
// `bound` bits of magnitude.
func NewSignedFromBigInt(n *big.Int, bound int) *Signed {
	neg := n.Sign() < 0
	abs := new(big.Int).Abs(n)
	return &Signed{
		abs:      new(saferith.Nat).SetBig(abs, bound),
		bound:    bound,
		negative: neg,
	}
}

// SampleSigned draws a uniform value in (-2^bound, 2^bound), used for
// masking randomizers (β, β̂ in presigning) and sigma-proof ephemerals.
func SampleSigned(rnd io.Reader, bound int) (*Signed, error) {
	b, err := SampleBounded(rnd, bound)
	if err != nil {
		return nil, err
	}
	signByte := make([]byte, 1)
	if _, err := io.ReadFull(rnd, signByte); err != nil {
		return nil, err
	}
	return &Signed{abs: b.value, bound: bound, negative: signByte[0]&1 == 1}, nil
}

func (s *Signed) Bound() int       { return s.bound }
func (s *Signed) IsNegative() bool { return s.negative }
func (s *Signed) AbsNat() *saferith.Nat { return s.abs }

// Big returns the signed value as a math/big.Int.
func (s *Signed) Big() *big.Int {
	n := s.abs.Big()
	if s.negative {
		n.Neg(n)
	}
	return n
}

// Add returns s + other; bound = max(bounds) + 1.
func (s *Signed) Add(other *Signed) *Signed {
	return NewSignedFromBigInt(new(big.Int).Add(s.Big(), other.Big()), max(s.bound, other.bound)+1)
}

// Mul returns s * other; bound = sum of bounds.
func (s *Signed) Mul(other *Signed) *Signed {
	return NewSignedFromBigInt(new(big.Int).Mul(s.Big(), other.Big()), s.bound+other.bound)
}

// IsInRange reports whether |s| < 2^bound, the check every sigma-proof
// verifier performs on every response before trusting the algebra below it.
func (s *Signed) IsInRange(bound int) bool {
	return s.abs.TrueLen() <= bound
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// PublicSigned is the non-secret form of Signed: its bytes may be sent on
// the wire openly (sigma-proof responses, public ciphertext exponents).
type PublicSigned = Signed

// SecretSigned is the zeroizing, constant-time-handled variant used for
// witnesses (Paillier plaintexts, ring-Pedersen discrete logs). Go has no
// compiler-enforced zeroization, so Destroy best-effort overwrites the
// backing storage; callers must still avoid copying the struct by value
// before calling Destroy.
type SecretSigned struct {
	Signed
}

// NewSecretSigned wraps a Signed as a secret value.
func NewSecretSigned(s *Signed) *SecretSigned {
	return &SecretSigned{Signed: *s}
}

// Destroy overwrites the secret's backing bytes. Must be called exactly
// once, when the round that produced the value finalizes or aborts (spec
// §5 "Shared-resource policy": ephemerals are zeroized on finalize).
func (s *SecretSigned) Destroy() {
	zero := new(saferith.Nat).SetUint64(0)
	s.abs = zero
	s.bound = 0
	s.negative = false
}

// RandomNonZeroMod samples a uniformly random element of [1, m) given the
// modulus m, retrying on zero (probability negligible for cryptographic
// moduli). Used for Paillier randomizers and ring-Pedersen commitment
// randomness.
func RandomNonZeroMod(rnd io.Reader, m *saferith.Modulus) (*saferith.Nat, error) {
	for {
		buf := make([]byte, (m.BitLen()+7)/8+8) // oversample, then reduce
		if _, err := io.ReadFull(rnd, buf); err != nil {
			return nil, err
		}
		n := new(saferith.Nat).SetBig(new(big.Int).SetBytes(buf), m.BitLen()+64)
		n = new(saferith.Nat).Mod(n, m)
		if n.Big().Sign() != 0 {
			return n, nil
		}
	}
}

// SystemRNG is the default cryptographically secure source, re-exported so
// callers don't need to import crypto/rand directly.
var SystemRNG io.Reader = rand.Reader
