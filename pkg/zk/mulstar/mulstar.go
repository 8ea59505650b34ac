// Package mulstar implements Π^mul* (spec.md §4.6): proof that a Paillier
// ciphertext D equals C^x * Enc(0; rho) for a committed x whose public
// commitment is X = x*G, verified against the verifier's ring-Pedersen
// auxiliary setup. It is the scalar-multiplication twin of Π^aff-g without
// the additive z term, used when the masking noise is not needed.
package mulstar

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

var dst = []byte("P_mul*")

// Public is the input/output ciphertexts, the committed point, the key,
// and the verifier's ring-Pedersen setup.
type Public struct {
	C, D *paillier.Ciphertext
	X    curve.Point
	Pk   *paillier.PublicKey
	Aux  *pedersen.Params
}

// Private is the scalar x and the randomizer used to rerandomize D.
type Private struct {
	X          *big.Int
	Randomizer *big.Int
}

// Proof is the CGGMP21 Π^mul* transcript.
type Proof struct {
	S, A  *big.Int
	Bigb  curve.Point
	E     *big.Int
	Z1    *big.Int
	Z2    *big.Int
	Z3    *big.Int
}

// Prove constructs Π^mul* with x-bound LBound.
func Prove(rnd io.Reader, p *params.SchemeParams, priv *Private, pub *Public, partyID party.ID, h *hash.Hash) (*Proof, error) {
	aux := pub.Aux
	group := p.Group
	lEps := p.LBound + p.EpsBound

	alpha, err := arith.SampleSigned(rnd, lEps)
	if err != nil {
		return nil, err
	}
	r, err := arith.RandomNonZeroMod(rnd, pub.Pk.NMod())
	if err != nil {
		return nil, err
	}
	gamma, err := arith.SampleSigned(rnd, lEps+p.SecurityParameter)
	if err != nil {
		return nil, err
	}
	m, err := arith.SampleSigned(rnd, p.LBound+p.SecurityParameter)
	if err != nil {
		return nil, err
	}

	a, err := pub.C.MulScalarThenEncrypt(alpha.Big(), big.NewInt(0), r.Big())
	if err != nil {
		return nil, err
	}
	bigB := group.NewScalar().SetNat(alpha.Big()).ActOnBase()

	s := aux.Commit(priv.X, m.Big())
	e := aux.Commit(alpha.Big(), gamma.Big())

	transcript := h.Clone().ChainBytes(dst).Chain(pub.Pk).Chain(aux).Chain(pub.C).Chain(pub.D).Chain(pub.X).
		ChainBytes(s.Bytes()).Chain(a).Chain(bigB).ChainBytes(e.Bytes()).ChainBytes([]byte(partyID))
	chal := transcript.ChallengeScalar(twoPow(p.SecurityParameter), p.SecurityParameter)

	z1 := new(big.Int).Add(alpha.Big(), new(big.Int).Mul(chal, priv.X))
	z2 := combineRandomizer(pub.Pk, r.Big(), priv.Randomizer, chal)
	z3 := new(big.Int).Add(gamma.Big(), new(big.Int).Mul(chal, m.Big()))

	return &Proof{S: s, A: a.Value(), Bigb: bigB, E: e, Z1: z1, Z2: z2, Z3: z3}, nil
}

func combineRandomizer(pk *paillier.PublicKey, r, rho *big.Int, e *big.Int) *big.Int {
	return arith.MaskRandomizer(r, rho, e, pk.NMod())
}

func twoPow(bits int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(bits))
}

// Verify checks the Paillier equation C^z1 * Enc(0; z2) == A * D^e, the EC
// equation z1*G == Bigb + e*X, the commitment opening, and the bound on z1.
func (pf *Proof) Verify(p *params.SchemeParams, pub *Public, partyID party.ID, h *hash.Hash) bool {
	lEps := p.LBound + p.EpsBound
	if !arith.InRange(pf.Z1, lEps+1) {
		return false
	}
	aux := pub.Aux
	group := p.Group

	aCipher := paillier.CiphertextFromWire(pub.Pk, pf.A)
	transcript := h.Clone().ChainBytes(dst).Chain(pub.Pk).Chain(aux).Chain(pub.C).Chain(pub.D).Chain(pub.X).
		ChainBytes(pf.S.Bytes()).Chain(aCipher).Chain(pf.Bigb).ChainBytes(pf.E.Bytes()).ChainBytes([]byte(partyID))
	chal := transcript.ChallengeScalar(twoPow(p.SecurityParameter), p.SecurityParameter)

	lhs, err := pub.C.MulScalarThenEncrypt(pf.Z1, big.NewInt(0), pf.Z2)
	if err != nil {
		return false
	}
	rhs := aCipher.Add(pub.D.MulScalar(chal))
	if lhs.Value().Cmp(rhs.Value()) != 0 {
		return false
	}

	chalScalar := group.NewScalar().SetNat(chal)
	lhsPoint := group.NewScalar().SetNat(pf.Z1).ActOnBase()
	rhsPoint := pf.Bigb.Add(chalScalar.Act(pub.X))
	if !lhsPoint.Equal(rhsPoint) {
		return false
	}

	sCommit := aux.Commit(pf.Z1, pf.Z3)
	sRhs := new(big.Int).Mul(pf.E, new(big.Int).Exp(pf.S, chal, aux.N()))
	sRhs.Mod(sRhs, aux.N())
	if sCommit.Cmp(sRhs) != 0 {
		return false
	}
	return true
}
