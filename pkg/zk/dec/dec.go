// Package dec implements Π^dec (spec.md §4.6): proof that a public value y
// equals, modulo the curve order, the plaintext of a Paillier ciphertext C
// (e.g. that a broadcast partial signature share really is the decryption
// of the ciphertext arithmetic that produced it). This is what lets the
// signing combine attribute a bad partial share to its producer instead of
// aborting blindly.
package dec

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

var dst = []byte("P_dec")

// Public is the claimed plaintext y (interpreted modulo the curve order),
// the ciphertext C it must open, the Paillier key, and the verifier's
// ring-Pedersen setup.
type Public struct {
	Y   *big.Int
	C   *paillier.Ciphertext
	Pk  *paillier.PublicKey
	Aux *pedersen.Params
}

// Private is the true plaintext x (with x ≡ y mod q) and the randomizer
// used to encrypt it.
type Private struct {
	X          *big.Int
	Randomizer *big.Int
}

// Proof is the CGGMP21 Π^dec transcript. Gamma = alpha mod q is the
// scalar-field companion of the commitment A; the mod-q equation on z1 is
// what pins the claimed y to the true plaintext.
type Proof struct {
	S, T  *big.Int
	A     *paillier.Ciphertext
	Gamma *big.Int
	Z1    *big.Int
	Z2    *big.Int
	W     *big.Int
}

// Prove constructs Π^dec.
func Prove(rnd io.Reader, p *params.SchemeParams, priv *Private, pub *Public, partyID party.ID, h *hash.Hash) (*Proof, error) {
	aux := pub.Aux
	q := p.Group.Order()
	lEps := p.LBound + p.EpsBound

	alpha, err := arith.SampleSigned(rnd, lEps)
	if err != nil {
		return nil, err
	}
	mu, err := arith.SampleSigned(rnd, p.LBound+p.SecurityParameter)
	if err != nil {
		return nil, err
	}
	nu, err := arith.SampleSigned(rnd, lEps+p.SecurityParameter)
	if err != nil {
		return nil, err
	}
	r, err := arith.RandomNonZeroMod(rnd, pub.Pk.NMod())
	if err != nil {
		return nil, err
	}

	s := aux.Commit(priv.X, mu.Big())
	tCommit := aux.Commit(alpha.Big(), nu.Big())
	a, err := pub.Pk.EncryptWithRandomizer(alpha.Big(), r.Big())
	if err != nil {
		return nil, err
	}
	gamma := new(big.Int).Mod(alpha.Big(), q)

	transcript := h.Clone().ChainBytes(dst).Chain(pub.Pk).Chain(aux).Chain(pub.C).
		ChainBytes(pub.Y.Bytes()).ChainBytes(s.Bytes()).ChainBytes(tCommit.Bytes()).
		Chain(a).ChainBytes(gamma.Bytes()).ChainBytes([]byte(partyID))
	e := transcript.ChallengeScalar(twoPow(p.SecurityParameter), p.SecurityParameter)

	z1 := new(big.Int).Add(alpha.Big(), new(big.Int).Mul(e, priv.X))
	z2 := new(big.Int).Add(nu.Big(), new(big.Int).Mul(e, mu.Big()))
	w := combineRandomizer(pub.Pk, r.Big(), priv.Randomizer, e)

	return &Proof{S: s, T: tCommit, A: a, Gamma: gamma, Z1: z1, Z2: z2, W: w}, nil
}

func combineRandomizer(pk *paillier.PublicKey, r, rho *big.Int, e *big.Int) *big.Int {
	return arith.MaskRandomizer(r, rho, e, pk.NMod())
}

func twoPow(bits int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(bits))
}

// Verify checks that z1 is within 2^(ℓ+ε+1), the Paillier equation
// Enc(z1; w) = A * C^e, the scalar equation z1 ≡ gamma + e*y (mod q) that
// binds the claimed y, and the ring-Pedersen commitment opening.
func (pf *Proof) Verify(p *params.SchemeParams, pub *Public, partyID party.ID, h *hash.Hash) bool {
	aux := pub.Aux
	q := p.Group.Order()

	if !arith.InRange(pf.Z1, p.LBound+p.EpsBound+1) {
		return false
	}

	transcript := h.Clone().ChainBytes(dst).Chain(pub.Pk).Chain(aux).Chain(pub.C).
		ChainBytes(pub.Y.Bytes()).ChainBytes(pf.S.Bytes()).ChainBytes(pf.T.Bytes()).
		Chain(pf.A).ChainBytes(pf.Gamma.Bytes()).ChainBytes([]byte(partyID))
	e := transcript.ChallengeScalar(twoPow(p.SecurityParameter), p.SecurityParameter)

	lhs, err := pub.Pk.EncryptWithRandomizer(pf.Z1, pf.W)
	if err != nil {
		return false
	}
	rhs := pf.A.Add(pub.C.MulScalar(e))
	if lhs.Value().Cmp(rhs.Value()) != 0 {
		return false
	}

	lhsQ := new(big.Int).Mod(pf.Z1, q)
	rhsQ := new(big.Int).Mul(e, pub.Y)
	rhsQ.Add(rhsQ, pf.Gamma)
	rhsQ.Mod(rhsQ, q)
	if lhsQ.Cmp(rhsQ) != 0 {
		return false
	}

	sCommit := aux.Commit(pf.Z1, pf.Z2)
	sRhs := new(big.Int).Mul(pf.T, new(big.Int).Exp(pf.S, e, aux.N()))
	sRhs.Mod(sRhs, aux.N())
	if sCommit.Cmp(sRhs) != 0 {
		return false
	}
	return true
}
