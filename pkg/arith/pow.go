package arith

import (
	"math/big"

	"github.com/cronokirby/saferith"
)

// PowBoundedExp computes base^exponent mod modulus, running exactly `bound`
// squarings regardless of the true bit length of exponent - the constant-
// time iteration count every sigma-proof response relies on (spec.md
// §4.1). saferith.Nat.Exp is already constant-time in the modulus and in
// the *announced* length of its exponent argument, so resizing the
// exponent's announced length to bound gives us the iteration count we
// need without a bespoke ladder.
func PowBoundedExp(base, exponent *saferith.Nat, bound int, modulus *saferith.Modulus) *saferith.Nat {
	e := new(saferith.Nat).SetNat(exponent).Resize(bound)
	return new(saferith.Nat).Exp(base, e, modulus)
}

// PowSigned computes base^exponent mod modulus for a Signed exponent: it
// always exponentiates by the absolute value, then conditionally inverts.
// Panics if base is not invertible mod modulus (it must be a unit).
func PowSigned(base *saferith.Nat, exponent *Signed, modulus *saferith.Modulus) *saferith.Nat {
	absResult := PowBoundedExp(base, exponent.abs, exponent.bound, modulus)
	if !exponent.negative {
		return absResult
	}
	if absResult.IsUnit(modulus) == 0 {
		panic("arith: PowSigned base not invertible mod modulus")
	}
	inv := new(saferith.Nat).ModInverse(absResult, modulus)
	return inv
}

// PowSignedWide is PowSigned for an exponent twice as wide as the widths
// PowBoundedExp is comfortable iterating in one pass: it splits the
// exponent into two half-width chunks, exponentiates each, and recombines
// by repeated squaring of the high chunk (spec.md §4.1, "wide/extra-wide
// variants split the exponent into chunks of width W_half").
func PowSignedWide(base *saferith.Nat, exponent *Signed, halfWidth int, modulus *saferith.Modulus) *saferith.Nat {
	absResult := powWide(base, exponent.abs, exponent.bound, halfWidth, modulus)
	if !exponent.negative {
		return absResult
	}
	if absResult.IsUnit(modulus) == 0 {
		panic("arith: PowSignedWide base not invertible mod modulus")
	}
	inv := new(saferith.Nat).ModInverse(absResult, modulus)
	return inv
}

// PowSignedExtraWide splits an extra-wide exponent (spec.md's X width) into
// two Wide-width chunks and recurses into powWide for each, squaring the
// high chunk halfWidth*2 times before combining - the second level of the
// same chunking scheme as PowSignedWide.
func PowSignedExtraWide(base *saferith.Nat, exponent *Signed, halfWidth int, modulus *saferith.Modulus) *saferith.Nat {
	bound := exponent.bound
	bits := halfWidth * 2

	lo, hi := splitNat(exponent.abs, bits)
	loRes := powWide(base, lo, min(bits, bound), halfWidth, modulus)

	var absResult *saferith.Nat
	if bound > bits {
		hiRes := powWide(base, hi, bound-bits, halfWidth, modulus)
		for i := 0; i < bits; i++ {
			hiRes = new(saferith.Nat).ModMul(hiRes, hiRes, modulus)
		}
		absResult = new(saferith.Nat).ModMul(hiRes, loRes, modulus)
	} else {
		absResult = loRes
	}

	if !exponent.negative {
		return absResult
	}
	if absResult.IsUnit(modulus) == 0 {
		panic("arith: PowSignedExtraWide base not invertible mod modulus")
	}
	inv := new(saferith.Nat).ModInverse(absResult, modulus)
	return inv
}

// PowSignedVartime computes the same result as PowSigned through the same
// PowBoundedExp path (it is not a faster variable-time routine). It is the
// entry point for call sites whose exponent is public (a Fiat-Shamir challenge, a publicly known
// bound) - never on a witness. Call sites are expected to be auditable by
// inspection (spec.md §9 "Constant time vs variable time").
func PowSignedVartime(base *saferith.Nat, exponent *Signed, modulus *saferith.Modulus) *saferith.Nat {
	absResult := PowBoundedExp(base, exponent.abs, exponent.bound, modulus)
	if !exponent.negative {
		return absResult
	}
	if absResult.IsUnit(modulus) == 0 {
		panic("arith: PowSignedVartime base not invertible mod modulus")
	}
	inv := new(saferith.Nat).ModInverse(absResult, modulus)
	return inv
}

func powWide(base, exponent *saferith.Nat, bound, halfWidth int, modulus *saferith.Modulus) *saferith.Nat {
	bound = bound % (2*halfWidth + 1)
	lo, hi := splitNat(exponent, halfWidth)
	loRes := PowBoundedExp(base, lo, min(halfWidth, bound), modulus)
	if bound <= halfWidth {
		return loRes
	}
	hiRes := PowBoundedExp(base, hi, bound-halfWidth, modulus)
	for i := 0; i < halfWidth; i++ {
		hiRes = new(saferith.Nat).ModMul(hiRes, hiRes, modulus)
	}
	return new(saferith.Nat).ModMul(hiRes, loRes, modulus)
}

// splitNat splits n into (low bits-bits, high remaining-bits) chunks.
func splitNat(n *saferith.Nat, bits int) (*saferith.Nat, *saferith.Nat) {
	full := n.Big()
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits)), big.NewInt(1))
	loBig := new(big.Int).And(full, mask)
	hiBig := new(big.Int).Rsh(full, uint(bits))
	return new(saferith.Nat).SetBig(loBig, bits), new(saferith.Nat).SetBig(hiBig, n.TrueLen())
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// PowSignedAuto picks the exponentiation variant by the exponent's
// tracked bound, mirroring how the reference routes its four widths:
// one pass while the exponent fits half the modulus, the two-chunk wide
// variant up to the modulus width, extra-wide beyond that.
func PowSignedAuto(base *saferith.Nat, exponent *Signed, modulus *saferith.Modulus) *saferith.Nat {
	half := (modulus.BitLen() + 1) / 2
	switch {
	case exponent.bound <= half:
		return PowSigned(base, exponent, modulus)
	case exponent.bound <= modulus.BitLen():
		return PowSignedWide(base, exponent, half, modulus)
	default:
		return PowSignedExtraWide(base, exponent, half, modulus)
	}
}

// ExpSecret computes base^exp mod m through the constant-time family,
// bridging call sites whose values live in math/big (Paillier
// decryption's c^phi(N), ring-Pedersen's t^lambda, every prover-side
// commitment exponent). The announced bound is the exponent's magnitude;
// a negative exponent inverts the result, so base must be a unit mod m.
func ExpSecret(base, exp *big.Int, m *saferith.Modulus) *big.Int {
	if exp.Sign() == 0 {
		return big.NewInt(1)
	}
	bNat := new(saferith.Nat).SetBig(base, base.BitLen())
	bNat = new(saferith.Nat).Mod(bNat, m)
	e := NewSignedFromBigInt(exp, exp.BitLen())
	return PowSignedAuto(bNat, e, m).Big()
}

// MaskRandomizer computes r * rho^e mod m, the response form every sigma
// proof uses to open a Paillier randomizer (the spec's MaskedRandomizer).
// rho is secret; e is a public Fiat-Shamir challenge, so the exponent may
// run variable-time while the base arithmetic stays constant-time.
func MaskRandomizer(r, rho, e *big.Int, m *saferith.Modulus) *big.Int {
	rNat := new(saferith.Nat).Mod(new(saferith.Nat).SetBig(r, r.BitLen()), m)
	if e.Sign() == 0 {
		return rNat.Big()
	}
	rhoNat := new(saferith.Nat).Mod(new(saferith.Nat).SetBig(rho, rho.BitLen()), m)
	pow := PowSignedVartime(rhoNat, NewSignedFromBigInt(e, e.BitLen()), m)
	return new(saferith.Nat).ModMul(pow, rNat, m).Big()
}

// InRange reports whether |v| fits in bound bits: the verifier-side
// magnitude check every sigma-proof response must pass before any of the
// algebra below it is trusted.
func InRange(v *big.Int, bound int) bool {
	return NewSignedFromBigInt(v, v.BitLen()).IsInRange(bound)
}
