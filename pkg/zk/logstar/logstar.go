// Package logstar implements Π^log* (spec.md §4.6): proof that a Paillier
// ciphertext C encrypts the discrete log x of a public point X = x*G (or,
// with Base overridden, x*Base for an arbitrary base point), with
// |x| < 2^LBound. Used in presigning Round 1 to tie the encrypted gamma G
// to Gamma = gamma*G, and in Round 3 (with Base = Gamma) to tie the
// encrypted nonce K to Delta = k*Gamma.
package logstar

import (
	"io"
	"math/big"

	"github.com/mpc-go/threshold/pkg/arith"
	"github.com/mpc-go/threshold/pkg/curve"
	"github.com/mpc-go/threshold/pkg/hash"
	"github.com/mpc-go/threshold/pkg/paillier"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/pedersen"
)

var dst = []byte("P_log*")

// Public is the ciphertext, the point it must open to (under Base), the
// prover's Paillier key and the verifier's ring-Pedersen auxiliary setup.
type Public struct {
	C    *paillier.Ciphertext
	X    curve.Point
	Base curve.Point // defaults to the group generator when nil
	Pk   *paillier.PublicKey
	Aux  *pedersen.Params
}

// Private is the plaintext x and its encryption randomizer.
type Private struct {
	X          *big.Int
	Randomizer *big.Int
}

// Proof is the CGGMP21 Π^log* transcript.
type Proof struct {
	S, A1 *big.Int
	A2    curve.Point
	C     *big.Int
	Z1    *big.Int
	Z2    *big.Int
	Z3    *big.Int
}

// Prove constructs Π^log*.
func Prove(rnd io.Reader, p *params.SchemeParams, priv *Private, pub *Public, partyID party.ID, h *hash.Hash) (*Proof, error) {
	aux := pub.Aux
	lEpsBound := p.LBound + p.EpsBound
	group := p.Group

	alpha, err := arith.SampleSigned(rnd, lEpsBound)
	if err != nil {
		return nil, err
	}
	mu, err := arith.SampleSigned(rnd, p.LBound+p.SecurityParameter)
	if err != nil {
		return nil, err
	}
	r, err := arith.RandomNonZeroMod(rnd, pub.Pk.NMod())
	if err != nil {
		return nil, err
	}
	gamma, err := arith.SampleSigned(rnd, lEpsBound+p.SecurityParameter)
	if err != nil {
		return nil, err
	}

	s := aux.Commit(priv.X, mu.Big())
	a1, err := pub.Pk.EncryptWithRandomizer(alpha.Big(), r.Big())
	if err != nil {
		return nil, err
	}
	base := pub.Base
	if base == nil {
		base = group.NewScalar().SetNat(big.NewInt(1)).ActOnBase()
	}
	a2 := group.NewScalar().SetNat(alpha.Big()).Act(base)
	c := aux.Commit(alpha.Big(), gamma.Big())

	transcript := h.Clone().ChainBytes(dst).Chain(pub.Pk).Chain(aux).Chain(pub.C).Chain(pub.X).
		ChainBytes(s.Bytes()).Chain(a1).Chain(a2).ChainBytes(c.Bytes()).ChainBytes([]byte(partyID))
	e := transcript.ChallengeScalar(twoPow(p.SecurityParameter), p.SecurityParameter)

	z1 := new(big.Int).Add(alpha.Big(), new(big.Int).Mul(e, priv.X))
	z2 := combineRandomizer(pub.Pk, r.Big(), priv.Randomizer, e)
	z3 := new(big.Int).Add(gamma.Big(), new(big.Int).Mul(e, mu.Big()))

	return &Proof{S: s, A1: a1.Value(), A2: a2, C: c, Z1: z1, Z2: z2, Z3: z3}, nil
}

func combineRandomizer(pk *paillier.PublicKey, r, rho *big.Int, e *big.Int) *big.Int {
	return arith.MaskRandomizer(r, rho, e, pk.NMod())
}

// Verify checks both the Paillier-ciphertext equation and the EC-point
// equation simultaneously tie to the same z1, plus the commitment opening.
func (pf *Proof) Verify(p *params.SchemeParams, pub *Public, partyID party.ID, h *hash.Hash) bool {
	lEpsBound := p.LBound + p.EpsBound
	if !arith.InRange(pf.Z1, lEpsBound+1) {
		return false
	}
	aux := pub.Aux
	group := p.Group

	a1Cipher := paillier.CiphertextFromWire(pub.Pk, pf.A1)
	transcript := h.Clone().ChainBytes(dst).Chain(pub.Pk).Chain(aux).Chain(pub.C).Chain(pub.X).
		ChainBytes(pf.S.Bytes()).Chain(a1Cipher).Chain(pf.A2).ChainBytes(pf.C.Bytes()).ChainBytes([]byte(partyID))
	e := transcript.ChallengeScalar(twoPow(p.SecurityParameter), p.SecurityParameter)

	lhs, err := pub.Pk.EncryptWithRandomizer(pf.Z1, pf.Z2)
	if err != nil {
		return false
	}
	rhs := a1Cipher.Add(pub.C.MulScalar(e))
	if lhs.Value().Cmp(rhs.Value()) != 0 {
		return false
	}

	base := pub.Base
	if base == nil {
		base = group.NewScalar().SetNat(big.NewInt(1)).ActOnBase()
	}
	lhsPoint := group.NewScalar().SetNat(pf.Z1).Act(base)
	eScalar := group.NewScalar().SetNat(e)
	rhsPoint := pf.A2.Add(eScalar.Act(pub.X))
	if !lhsPoint.Equal(rhsPoint) {
		return false
	}

	lhsC := aux.Commit(pf.Z1, pf.Z3)
	rhsC := new(big.Int).Mul(pf.C, new(big.Int).Exp(pf.S, e, aux.N()))
	rhsC.Mod(rhsC, aux.N())
	if lhsC.Cmp(rhsC) != 0 {
		return false
	}
	return true
}

func twoPow(bits int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(bits))
}
