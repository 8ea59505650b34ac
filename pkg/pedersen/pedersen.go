// Package pedersen implements the Ring-Pedersen commitment setup of
// spec.md §4.4: parameters (N̂, s, t) with s = t^λ mod N̂ for secret λ, and
// commit(x, r) = t^x · s^r mod N̂.
package pedersen

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"

	"github.com/mpc-go/threshold/pkg/arith"
	"github.com/mpc-go/threshold/pkg/hash"
	"github.com/mpc-go/threshold/pkg/params"
)

// Params is the public (wire) form: (N̂, s, t), plus the precomputed
// modulus form the constant-time exponentiations run against (rebuilt on
// load, never serialized).
type Params struct {
	nHat    *big.Int
	s       *big.Int
	t       *big.Int
	nHatMod *saferith.Modulus
}

// SecretParams additionally holds λ and φ(N̂), needed only by the party
// that generated this setup (to prove Π^prm and to answer Π^fac/Π^mod
// challenges that reference its own modulus).
type SecretParams struct {
	Params
	lambda  *big.Int
	phiNHat *big.Int
	pHat, qHat *big.Int
}

// Generate samples a fresh safe-prime modulus N̂ = p̂q̂ and secret exponent
// λ ∈ [0, φ(N̂)/4), and sets s = t^λ mod N̂ for a randomly chosen generator
// t. p̂, q̂ are independent of the party's Paillier primes.
func Generate(rnd io.Reader, p *params.SchemeParams, pHat, qHat *big.Int) (*SecretParams, error) {
	nHat := new(big.Int).Mul(pHat, qHat)
	phiNHat := new(big.Int).Mul(
		new(big.Int).Sub(pHat, big.NewInt(1)),
		new(big.Int).Sub(qHat, big.NewInt(1)),
	)

	lambdaBound := new(big.Int).Rsh(phiNHat, 2)
	lambda, err := rand.Int(rnd, lambdaBound)
	if err != nil {
		return nil, err
	}

	r, err := sampleUnit(rnd, nHat)
	if err != nil {
		return nil, err
	}
	nHatMod := modulusFor(nHat)
	t := new(big.Int).Exp(r, big.NewInt(2), nHat) // t is a QR so it generates a subgroup of known order
	s := arith.ExpSecret(t, lambda, nHatMod)      // lambda is the trapdoor; constant-time

	return &SecretParams{
		Params:  Params{nHat: nHat, s: s, t: t, nHatMod: nHatMod},
		lambda:  lambda,
		phiNHat: phiNHat,
		pHat:    pHat,
		qHat:    qHat,
	}, nil
}

// NewParams wraps a received wire form (N̂, s, t). The values are not yet
// validated; run ValidateParameters before using them in a protocol.
func NewParams(nHat, s, t *big.Int) *Params {
	return &Params{nHat: nHat, s: s, t: t, nHatMod: modulusFor(nHat)}
}

// modulusFor guards against degenerate wire values: ValidateParameters
// rejects them later, but the precomputed form must not trip on them
// first.
func modulusFor(nHat *big.Int) *saferith.Modulus {
	if nHat.Sign() <= 0 {
		nHat = big.NewInt(1)
	}
	return saferith.ModulusFromNat(new(saferith.Nat).SetBig(nHat, nHat.BitLen()))
}

func (p *Params) N() *big.Int { return new(big.Int).Set(p.nHat) }
func (p *Params) S() *big.Int { return new(big.Int).Set(p.s) }
func (p *Params) T() *big.Int { return new(big.Int).Set(p.t) }

// NMod returns the precomputed modulus form of N̂ for callers that
// exponentiate against this setup directly (Π^prm's t^r, Π^fac's cross
// commitment).
func (p *Params) NMod() *saferith.Modulus { return p.nHatMod }

func (sp *SecretParams) Lambda() *big.Int  { return new(big.Int).Set(sp.lambda) }
func (sp *SecretParams) PhiNHat() *big.Int { return new(big.Int).Set(sp.phiNHat) }

// Destroy zeroizes λ, φ(N̂) and the safe primes.
func (sp *SecretParams) Destroy() {
	sp.lambda.SetInt64(0)
	sp.phiNHat.SetInt64(0)
	if sp.pHat != nil {
		sp.pHat.SetInt64(0)
	}
	if sp.qHat != nil {
		sp.qHat.SetInt64(0)
	}
}

// Commit computes t^x · s^r mod N̂ through the constant-time pow family:
// on the prover side x is a witness and r its blinding, so neither
// exponent may leak through timing. Negative exponents invert; s and t
// are units mod N̂ by construction, so the inverse always exists.
func (p *Params) Commit(x, r *big.Int) *big.Int {
	tx := arith.ExpSecret(p.t, x, p.nHatMod)
	sr := arith.ExpSecret(p.s, r, p.nHatMod)
	out := new(big.Int).Mul(tx, sr)
	return out.Mod(out, p.nHat)
}

// ValidateParameters checks that N̂ is large enough (spec.md §4.3-style
// bound, reused for ring-Pedersen in key-refresh Round 2) and that s, t
// are both nonzero units mod N̂.
func ValidateParameters(p *params.SchemeParams, nHat, s, t *big.Int) error {
	if nHat.BitLen() < 2*p.PrimeBits {
		return errors.New("Round 2: ring-Pedersen modulus is too small.")
	}
	if s.Sign() <= 0 || t.Sign() <= 0 {
		return errors.New("pedersen: s, t must be positive")
	}
	if new(big.Int).GCD(nil, nil, s, nHat).Cmp(big.NewInt(1)) != 0 {
		return errors.New("pedersen: s is not a unit mod N_hat")
	}
	if new(big.Int).GCD(nil, nil, t, nHat).Cmp(big.NewInt(1)) != 0 {
		return errors.New("pedersen: t is not a unit mod N_hat")
	}
	return nil
}

func sampleUnit(rnd io.Reader, n *big.Int) (*big.Int, error) {
	for {
		r, err := rand.Int(rnd, n)
		if err != nil {
			return nil, err
		}
		if r.Sign() == 0 {
			continue
		}
		if new(big.Int).GCD(nil, nil, r, n).Cmp(big.NewInt(1)) == 0 {
			return r, nil
		}
	}
}

// HashTo absorbs (N̂, s, t) in that order.
func (p *Params) HashTo(h *hash.Hash) {
	h.ChainBytes(p.nHat.Bytes()).ChainBytes(p.s.Bytes()).ChainBytes(p.t.Bytes())
}
