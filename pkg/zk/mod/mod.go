// Package mod implements Π^mod (spec.md §4.6): proof that a Paillier
// modulus N is a product of two primes congruent to 3 mod 4 (a Blum
// integer), by exhibiting, for SecurityParameter transcript-derived
// challenges y, a fourth root of (-1)^a · w^b · y mod N together with an
// N-th root of y that certifies y is an N-th residue.
package mod

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"

	"github.com/mpc-go/threshold/pkg/arith"
	"github.com/mpc-go/threshold/pkg/hash"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/party"
)

var dst = []byte("P_mod")

var one = big.NewInt(1)

// Public is the modulus N being proven Blum.
type Public struct {
	N *big.Int
}

// Private is the prime factorization of N.
type Private struct {
	P, Q *big.Int
}

// Response is the witness data for a single challenge y.
type Response struct {
	X    *big.Int // fourth root of (-1)^A * w^B * y mod N
	A, B bool     // which sign/w twist was needed to land in the QR subgroup
	Z    *big.Int // N-th root of y mod N
}

// Proof bundles the Jacobi-(-1) witness w with one Response per challenge.
// The challenges themselves are not part of the proof: both sides derive
// them from the transcript after absorbing (N, w), so a prover cannot
// choose ys it already knows roots for.
type Proof struct {
	W   *big.Int
	Rsp []*Response
}

// Prove constructs Π^mod. It requires N = p*q with p ≡ q ≡ 3 (mod 4)
// (guaranteed by the Paillier keygen invariant).
func Prove(rnd io.Reader, p *params.SchemeParams, priv *Private, pub *Public, partyID party.ID, h *hash.Hash) (*Proof, error) {
	n := pub.N
	pr, qr := priv.P, priv.Q

	w, err := sampleNonResidueWithJacobiMinus1(rnd, pr, qr, n)
	if err != nil {
		return nil, err
	}

	ys := deriveChallenges(h, n, w, partyID, p.SecurityParameter)

	phi := new(big.Int).Mul(new(big.Int).Sub(pr, one), new(big.Int).Sub(qr, one))
	nInv := new(big.Int).ModInverse(n, phi)
	if nInv == nil {
		return nil, errors.New("mod: N not invertible mod phi(N), is N really a Blum integer?")
	}

	// nInv and the per-prime square-root exponents derive from the secret
	// factorization, so all of the response exponentiations run through
	// the constant-time family.
	nMod := modulusFor(n)
	pMod, qMod := modulusFor(pr), modulusFor(qr)

	rsp := make([]*Response, len(ys))
	for i, y := range ys {
		x, a, b, err := fourthRoot(y, pr, qr, n, w, pMod, qMod)
		if err != nil {
			return nil, err
		}
		z := arith.ExpSecret(y, nInv, nMod)
		rsp[i] = &Response{X: x, A: a, B: b, Z: z}
	}

	return &Proof{W: w, Rsp: rsp}, nil
}

func modulusFor(n *big.Int) *saferith.Modulus {
	return saferith.ModulusFromNat(new(saferith.Nat).SetBig(n, n.BitLen()))
}

// Verify re-derives the challenge set and checks, for every y: z^N = y
// mod N, and x^4 = (-1)^a * w^b * y mod N for the claimed a, b.
func (pf *Proof) Verify(p *params.SchemeParams, pub *Public, partyID party.ID, h *hash.Hash) bool {
	n := pub.N
	if n.BitLen() < 2*p.PrimeBits {
		return false
	}
	if n.Bit(0) == 0 {
		return false // N must be odd
	}
	if pf.W == nil || pf.W.Sign() <= 0 || pf.W.Cmp(n) >= 0 {
		return false
	}
	if new(big.Int).GCD(nil, nil, pf.W, n).Cmp(one) != 0 {
		return false
	}
	if big.Jacobi(pf.W, n) != -1 {
		return false
	}
	if len(pf.Rsp) != p.SecurityParameter {
		return false
	}

	ys := deriveChallenges(h, n, pf.W, partyID, p.SecurityParameter)

	for i, y := range ys {
		r := pf.Rsp[i]
		if r == nil || r.X == nil || r.Z == nil {
			return false
		}

		zn := new(big.Int).Exp(r.Z, n, n)
		if zn.Cmp(y) != 0 {
			return false
		}

		rhs := new(big.Int).Set(y)
		if r.B {
			rhs.Mul(rhs, pf.W)
			rhs.Mod(rhs, n)
		}
		if r.A {
			rhs.Neg(rhs)
			rhs.Mod(rhs, n)
		}
		lhs := new(big.Int).Exp(r.X, big.NewInt(4), n)
		if lhs.Cmp(rhs) != 0 {
			return false
		}
	}
	return true
}

// deriveChallenges reads SecurityParameter units of Z/NZ out of the
// transcript XOF seeded with (N, w, partyID). Prover and verifier run the
// identical derivation, so the challenges bind to the exact modulus and
// witness under test.
func deriveChallenges(h *hash.Hash, n, w *big.Int, partyID party.ID, count int) []*big.Int {
	transcript := h.Clone().ChainBytes(dst).ChainBytes(n.Bytes()).ChainBytes(w.Bytes()).ChainBytes([]byte(partyID))
	reader := transcript.FinalizeReader()
	byteLen := (n.BitLen()+7)/8 + 8

	ys := make([]*big.Int, count)
	buf := make([]byte, byteLen)
	for i := 0; i < count; i++ {
		for {
			_, _ = reader.Read(buf)
			y := new(big.Int).SetBytes(buf)
			y.Mod(y, n)
			if y.Sign() == 0 {
				continue
			}
			if new(big.Int).GCD(nil, nil, y, n).Cmp(one) != 0 {
				continue
			}
			ys[i] = y
			break
		}
	}
	return ys
}

// sampleNonResidueWithJacobiMinus1 finds w with Jacobi(w, N) = -1; with
// knowledge of p, q this is a couple of rejection-sampling rounds.
func sampleNonResidueWithJacobiMinus1(rnd io.Reader, p, q, n *big.Int) (*big.Int, error) {
	for {
		w, err := randUnit(rnd, n)
		if err != nil {
			return nil, err
		}
		if big.Jacobi(w, p) == -1 && big.Jacobi(w, q) == 1 {
			return w, nil
		}
		if big.Jacobi(w, p) == 1 && big.Jacobi(w, q) == -1 {
			return w, nil
		}
	}
}

func randUnit(rnd io.Reader, n *big.Int) (*big.Int, error) {
	for {
		x, err := rand.Int(rnd, n)
		if err != nil {
			return nil, err
		}
		if x.Sign() == 0 {
			continue
		}
		if new(big.Int).GCD(nil, nil, x, n).Cmp(one) == 0 {
			return x, nil
		}
	}
}

// fourthRoot finds x with x^4 ≡ (-1)^a · w^b · y (mod N), trying the four
// twists of y. Exactly one of {y, -y, wy, -wy} is a quadratic residue mod
// both p and q (w has Jacobi symbol -1 against exactly one prime, and -1
// against both since p ≡ q ≡ 3 mod 4), and for Blum primes its principal
// square root is again a residue, hence has a fourth root.
func fourthRoot(y, p, q, n, w *big.Int, pMod, qMod *saferith.Modulus) (*big.Int, bool, bool, error) {
	candidates := []struct {
		a, b bool
		val  *big.Int
	}{
		{false, false, new(big.Int).Mod(y, n)},
		{true, false, new(big.Int).Mod(new(big.Int).Neg(y), n)},
		{false, true, new(big.Int).Mod(new(big.Int).Mul(y, w), n)},
		{true, true, new(big.Int).Mod(new(big.Int).Neg(new(big.Int).Mul(y, w)), n)},
	}
	for _, c := range candidates {
		if big.Jacobi(c.val, p) != 1 || big.Jacobi(c.val, q) != 1 {
			continue
		}
		x, err := sqrtModBlum(c.val, p, q, n, pMod, qMod)
		if err != nil {
			continue
		}
		x2, err := sqrtModBlum(x, p, q, n, pMod, qMod)
		if err != nil {
			continue
		}
		return x2, c.a, c.b, nil
	}
	return nil, false, false, errors.New("mod: no fourth root found, N is not a Blum integer")
}

// sqrtModBlum computes the principal square root of a quadratic residue a
// mod N = p*q with p ≡ q ≡ 3 (mod 4), via CRT of the per-prime roots
// a^((p+1)/4) mod p. The exponents are derived from the secret factors.
func sqrtModBlum(a, p, q, n *big.Int, pMod, qMod *saferith.Modulus) (*big.Int, error) {
	expP := new(big.Int).Rsh(new(big.Int).Add(p, one), 2)
	expQ := new(big.Int).Rsh(new(big.Int).Add(q, one), 2)
	rp := arith.ExpSecret(a, expP, pMod)
	rq := arith.ExpSecret(a, expQ, qMod)

	// the exponent trick only yields a root when a is actually a residue
	if new(big.Int).Exp(rp, big.NewInt(2), p).Cmp(new(big.Int).Mod(a, p)) != 0 {
		return nil, errors.New("mod: not a quadratic residue mod p")
	}
	if new(big.Int).Exp(rq, big.NewInt(2), q).Cmp(new(big.Int).Mod(a, q)) != 0 {
		return nil, errors.New("mod: not a quadratic residue mod q")
	}

	qInvModP := new(big.Int).ModInverse(q, p)
	if qInvModP == nil {
		return nil, errors.New("mod: p, q not coprime")
	}
	// CRT reconstruction: x = rq + q*((rp-rq)*qInv mod p)
	t := new(big.Int).Sub(rp, rq)
	t.Mul(t, qInvModP)
	t.Mod(t, p)
	x := new(big.Int).Add(rq, new(big.Int).Mul(q, t))
	return x.Mod(x, n), nil
}
