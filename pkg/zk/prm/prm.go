// Package prm implements Π^prm (spec.md §4.6): proof that a ring-Pedersen
// setup (N̂, s, t) is well-formed, i.e. ∃ λ, s = t^λ mod N̂. It is a
// cut-and-choose proof over SecurityParameter independent rounds rather
// than a single algebraic equation, because knowledge of λ alone (without
// also knowing φ(N̂)) cannot be checked by one linear response.
package prm

import (
	"errors"
	"io"
	"math/big"

	"github.com/mpc-go/threshold/pkg/arith"
	"github.com/mpc-go/threshold/pkg/hash"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/pedersen"
)

var dst = []byte("P_prm")

// Public is (N̂, s, t) - the setup being proved well-formed.
type Public struct {
	Setup *pedersen.Params
}

// Private is the secret exponent λ together with φ(N̂), known only to the
// party that generated the setup.
type Private struct {
	Lambda  *big.Int
	PhiNHat *big.Int
}

// Proof is a vector of SecurityParameter (commitment, response) pairs.
type Proof struct {
	A []*big.Int // aᵢ = t^(rᵢ) mod N̂
	Z []*big.Int // zᵢ = rᵢ + e_i·λ mod φ(N̂)
}

// Prove constructs Π^prm for the given witness.
func Prove(rnd io.Reader, p *params.SchemeParams, priv *Private, pub *Public, partyID party.ID, h *hash.Hash) (*Proof, error) {
	n := p.SecurityParameter
	a := make([]*big.Int, n)
	rs := make([]*big.Int, n)
	t := pub.Setup.T()
	for i := 0; i < n; i++ {
		r, err := randFieldElement(rnd, priv.PhiNHat)
		if err != nil {
			return nil, err
		}
		rs[i] = r
		// r is a secret ephemeral reduced mod phi(N_hat), so the
		// exponentiation must not leak it
		a[i] = arith.ExpSecret(t, r, pub.Setup.NMod())
	}

	transcript := h.Clone().ChainBytes(dst).Chain(pub.Setup).ChainBytes([]byte(partyID))
	for _, ai := range a {
		transcript.ChainBytes(ai.Bytes())
	}
	challengeBits := transcript.ChallengeBits(n)

	z := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		z[i] = new(big.Int).Set(rs[i])
		if bitAt(challengeBits, i) {
			z[i].Add(z[i], priv.Lambda)
		}
		z[i].Mod(z[i], priv.PhiNHat)
	}
	return &Proof{A: a, Z: z}, nil
}

// Verify recomputes the challenge and checks t^zᵢ = aᵢ · s^(eᵢ) mod N̂ for
// every round.
func (pf *Proof) Verify(p *params.SchemeParams, pub *Public, partyID party.ID, h *hash.Hash) bool {
	n := p.SecurityParameter
	if len(pf.A) != n || len(pf.Z) != n {
		return false
	}
	transcript := h.Clone().ChainBytes(dst).Chain(pub.Setup).ChainBytes([]byte(partyID))
	for _, ai := range pf.A {
		transcript.ChainBytes(ai.Bytes())
	}
	challengeBits := transcript.ChallengeBits(n)

	nHat := pub.Setup.N()
	s := pub.Setup.S()
	t := pub.Setup.T()
	for i := 0; i < n; i++ {
		lhs := new(big.Int).Exp(t, pf.Z[i], nHat)
		var rhs *big.Int
		if bitAt(challengeBits, i) {
			rhs = new(big.Int).Mul(pf.A[i], s)
		} else {
			rhs = new(big.Int).Set(pf.A[i])
		}
		rhs.Mod(rhs, nHat)
		if lhs.Cmp(rhs) != 0 {
			return false
		}
	}
	return true
}

func bitAt(bits []byte, i int) bool {
	return bits[i/8]&(1<<uint(7-i%8)) != 0
}

func randFieldElement(rnd io.Reader, modulus *big.Int) (*big.Int, error) {
	if modulus.Sign() <= 0 {
		return nil, errors.New("prm: modulus must be positive")
	}
	return bigIntN(rnd, modulus)
}

func bigIntN(rnd io.Reader, n *big.Int) (*big.Int, error) {
	byteLen := (n.BitLen() + 7) / 8
	buf := make([]byte, byteLen+8)
	if _, err := io.ReadFull(rnd, buf); err != nil {
		return nil, err
	}
	x := new(big.Int).SetBytes(buf)
	return x.Mod(x, n), nil
}
