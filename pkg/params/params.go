// Package params holds the compile-/run-time configuration every other
// package is generic over: curve choice, Paillier prime size, the four
// integer widths, and the security/magnitude bounds the sigma proofs
// enforce (spec.md §6 "SchemeParams").
package params

import "github.com/mpc-go/threshold/pkg/curve"

// SchemeParams bundles every numeric constant the engine needs. It is an
// injectable value (not a package of consts) so tests can run a cheap
// parametrization while production code runs the full-security one -
// mirroring the teacher's internal/params, but made a first-class value
// per spec.md §6.
type SchemeParams struct {
	Group curve.Curve

	// PrimeBits is the bit length of each Paillier/ring-Pedersen safe
	// prime (H width). 1024 for production, 512 for tests.
	PrimeBits int

	// SecurityParameter is the statistical security parameter (λ in most
	// CGGMP21 write-ups): 256 for production, 10 for tests.
	SecurityParameter int

	// LBound (ℓ) bounds "short" plaintexts: |k|, |γ| < 2^LBound.
	LBound int
	// LPrimeBound (ℓ') bounds MtA masking noise: |β|, |β̂| < 2^LPrimeBound.
	LPrimeBound int
	// EpsBound (ε) is slack added atop LBound/LPrimeBound in range proofs.
	EpsBound int

	// NormalizeS controls whether assembled ECDSA signatures are
	// BIP-62-normalized into the low half of the curve order (spec.md §9
	// Open Question (i); SPEC_FULL.md §4 resolves this as configurable,
	// defaulting to true).
	NormalizeS bool
}

// Production returns the reference production parametrization.
func Production() *SchemeParams {
	return &SchemeParams{
		Group:             curve.Secp256k1{},
		PrimeBits:         1024,
		SecurityParameter: 256,
		LBound:            256,
		LPrimeBound:       256,
		EpsBound:          512,
		NormalizeS:        true,
	}
}

// Test returns a cheap parametrization suitable for unit tests: smaller
// primes and a weak statistical security parameter so safe-prime
// generation and proof verification run in milliseconds rather than
// minutes. Never use outside tests.
func Test() *SchemeParams {
	return &SchemeParams{
		Group:             curve.Secp256k1{},
		PrimeBits:         512,
		SecurityParameter: 10,
		LBound:            256,
		LPrimeBound:       256,
		EpsBound:          512,
		NormalizeS:        true,
	}
}

// HBits, UBits, WBits, XBits are the four integer widths of spec.md §3:
// H fits one safe prime, U = 2H fits N = p*q, W = 2U fits N^2, and
// X = 2W fits the bounded products used in masked randomizers.
func (p *SchemeParams) HBits() int { return p.PrimeBits }
func (p *SchemeParams) UBits() int { return 2 * p.PrimeBits }
func (p *SchemeParams) WBits() int { return 4 * p.PrimeBits }
func (p *SchemeParams) XBits() int { return 8 * p.PrimeBits }

// Validate sanity-checks a SchemeParams before it is used to construct a
// session; this is the "local configuration error" class of spec.md §7.
func (p *SchemeParams) Validate() error {
	if p.Group == nil {
		return errInvalid("missing curve group")
	}
	if p.PrimeBits < 64 {
		return errInvalid("prime bits too small")
	}
	if p.SecurityParameter < 1 {
		return errInvalid("security parameter must be positive")
	}
	if p.LBound <= 0 || p.LPrimeBound <= 0 || p.EpsBound <= 0 {
		return errInvalid("magnitude bounds must be positive")
	}
	return nil
}

type configError string

func (e configError) Error() string { return "params: " + string(e) }
func errInvalid(msg string) error   { return configError(msg) }
