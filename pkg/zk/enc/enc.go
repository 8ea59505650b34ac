// Package enc implements Π^enc (spec.md §4.6): proof that a Paillier
// ciphertext K encrypts a plaintext k with |k| < 2^LBound, under the
// prover's own Paillier key and the verifier's ring-Pedersen auxiliary
// setup. This is the range proof attached to the encrypted nonce share in
// presigning round 1.
package enc

import (
	"io"
	"math/big"

	"github.com/mpc-go/threshold/pkg/arith"
	"github.com/mpc-go/threshold/pkg/hash"
	"github.com/mpc-go/threshold/pkg/paillier"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/pedersen"
)

var dst = []byte("P_enc")

// Public is the ciphertext K and the key/aux-setup pair it is checked
// against.
type Public struct {
	K   *paillier.Ciphertext
	Pk  *paillier.PublicKey
	Aux *pedersen.Params
}

// Private is the plaintext k and the randomizer used to encrypt it.
type Private struct {
	K          *big.Int
	Randomizer *big.Int
}

// Proof is the CGGMP21 Π^enc transcript.
type Proof struct {
	S *big.Int
	A *paillier.Ciphertext
	C *big.Int
	Z1, Z2, Z3 *big.Int
}

// Prove constructs Π^enc with l = params.LBound, eps = params.EpsBound.
func Prove(rnd io.Reader, p *params.SchemeParams, priv *Private, pub *Public, partyID party.ID, h *hash.Hash) (*Proof, error) {
	aux := pub.Aux
	lEpsBound := p.LBound + p.EpsBound

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

	s := aux.Commit(priv.K, mu.Big())
	a, err := pub.Pk.EncryptWithRandomizer(alpha.Big(), r.Big())
	if err != nil {
		return nil, err
	}
	c := aux.Commit(alpha.Big(), gamma.Big())

	transcript := h.Clone().ChainBytes(dst).Chain(pub.Pk).Chain(aux).Chain(pub.K).
		ChainBytes(s.Bytes()).Chain(a).ChainBytes(c.Bytes()).ChainBytes([]byte(partyID))
	e := transcript.ChallengeScalar(twoPow(p.SecurityParameter), p.SecurityParameter)

	z1 := new(big.Int).Add(alpha.Big(), new(big.Int).Mul(e, priv.K))
	z2 := combineRandomizer(pub.Pk, r.Big(), priv.Randomizer, e)
	z3 := new(big.Int).Add(gamma.Big(), new(big.Int).Mul(e, mu.Big()))

	return &Proof{S: s, A: a, C: c, Z1: z1, Z2: z2, Z3: z3}, nil
}

// combineRandomizer returns r * rho^e mod N, the Paillier-ciphertext
// analogue of "z = alpha + e*x" for the multiplicative randomizer group.
func combineRandomizer(pk *paillier.PublicKey, r, rho *big.Int, e *big.Int) *big.Int {
	return arith.MaskRandomizer(r, rho, e, pk.NMod())
}

// Verify checks the commitment-opening equation, the ciphertext equation
// Enc(z1; z2) = A + K*e (homomorphically), and that z1 stays in bound.
func (pf *Proof) Verify(p *params.SchemeParams, pub *Public, partyID party.ID, h *hash.Hash) bool {
	lEpsBound := p.LBound + p.EpsBound
	if !arith.InRange(pf.Z1, lEpsBound+1) {
		return false
	}
	aux := pub.Aux

	transcript := h.Clone().ChainBytes(dst).Chain(pub.Pk).Chain(aux).Chain(pub.K).
		ChainBytes(pf.S.Bytes()).Chain(pf.A).ChainBytes(pf.C.Bytes()).ChainBytes([]byte(partyID))
	e := transcript.ChallengeScalar(twoPow(p.SecurityParameter), p.SecurityParameter)

	lhs, err := pub.Pk.EncryptWithRandomizer(pf.Z1, pf.Z2)
	if err != nil {
		return false
	}
	rhs := pf.A.Add(pub.K.MulScalar(e))
	if lhs.Value().Cmp(rhs.Value()) != 0 {
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
