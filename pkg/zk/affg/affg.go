// Package affg implements Π^aff-g (spec.md §4.6): the core MtA proof used
// in presigning rounds 2-3. It proves that, given a ciphertext C encrypting
// x under the verifier's Paillier key, the prover has produced
// D = C^y * Enc(z; rho) for a committed y (with public commitment
// Bigy = y*G and encryption Y of y under the prover's key) and a bounded z, i.e. D correctly encrypts x*y + z without revealing
// x, y, or z. This is the single largest sigma proof in the catalogue.
package affg

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

var dst = []byte("P_aff-g")

// Public is every value the verifier already holds: the input ciphertext
// C (the other party's encrypted share), the output ciphertext D, the
// prover's own Pk1-encryption Y of its share of the multiplier, the
// public commitment Bigy = y*G, and the two Paillier keys plus the
// auxiliary ring-Pedersen setup used for range-commitments.
type Public struct {
	C, D, Y *paillier.Ciphertext
	Bigy    curve.Point
	Pk0     *paillier.PublicKey // owner of C and D (verifier's key)
	Pk1     *paillier.PublicKey // owner of Y (prover's key)
	Aux     *pedersen.Params
}

// Private is the multiplier y, the additive term z, and the two
// randomizers used to construct D and Y.
type Private struct {
	Y, Z                     *big.Int
	RandomizerD, RandomizerY *big.Int
}

// Proof is the CGGMP21 Π^aff-g transcript.
type Proof struct {
	S, T   *big.Int
	A      *paillier.Ciphertext // commitment to alpha*C (+beta) under Pk0
	Bigb   curve.Point          // alpha*G
	Bbar   *paillier.Ciphertext // commitment to alpha under Pk1
	E, F   *big.Int
	Z1, Z2 *big.Int
	Z3, Z4 *big.Int
	W, Wy  *big.Int
}

// Prove constructs Π^aff-g with y-bound LBound and z-bound LPrimeBound.
func Prove(rnd io.Reader, p *params.SchemeParams, priv *Private, pub *Public, partyID party.ID, h *hash.Hash) (*Proof, error) {
	aux := pub.Aux
	group := p.Group
	lEps := p.LBound + p.EpsBound
	lPrimeEps := p.LPrimeBound + p.EpsBound

	alpha, err := arith.SampleSigned(rnd, lEps)
	if err != nil {
		return nil, err
	}
	beta, err := arith.SampleSigned(rnd, lPrimeEps)
	if err != nil {
		return nil, err
	}
	r, err := arith.RandomNonZeroMod(rnd, pub.Pk0.NMod())
	if err != nil {
		return nil, err
	}
	rY, err := arith.RandomNonZeroMod(rnd, pub.Pk1.NMod())
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
	delta, err := arith.SampleSigned(rnd, lEps+p.SecurityParameter)
	if err != nil {
		return nil, err
	}
	mu, err := arith.SampleSigned(rnd, p.LBound+p.SecurityParameter)
	if err != nil {
		return nil, err
	}

	a, err := pub.C.MulScalarThenEncrypt(alpha.Big(), beta.Big(), r.Big())
	if err != nil {
		return nil, err
	}
	bigB := group.NewScalar().SetNat(alpha.Big()).ActOnBase()

	bbar, err := pub.Pk1.EncryptWithRandomizer(alpha.Big(), rY.Big())
	if err != nil {
		return nil, err
	}

	s := aux.Commit(priv.Y, m.Big())
	tCommit := aux.Commit(priv.Z, mu.Big())
	e := aux.Commit(alpha.Big(), gamma.Big())
	f := aux.Commit(beta.Big(), delta.Big())

	transcript := h.Clone().ChainBytes(dst).Chain(pub.Pk0).Chain(pub.Pk1).Chain(aux).
		Chain(pub.C).Chain(pub.D).Chain(pub.Y).Chain(pub.Bigy).
		ChainBytes(s.Bytes()).ChainBytes(tCommit.Bytes()).Chain(a).Chain(bigB).
		Chain(bbar).ChainBytes(e.Bytes()).ChainBytes(f.Bytes()).ChainBytes([]byte(partyID))
	chal := transcript.ChallengeScalar(twoPow(p.SecurityParameter), p.SecurityParameter)

	z1 := new(big.Int).Add(alpha.Big(), new(big.Int).Mul(chal, priv.Y))
	z2 := new(big.Int).Add(beta.Big(), new(big.Int).Mul(chal, priv.Z))
	z3 := new(big.Int).Add(gamma.Big(), new(big.Int).Mul(chal, m.Big()))
	z4 := new(big.Int).Add(delta.Big(), new(big.Int).Mul(chal, mu.Big()))
	w := combineRandomizer(pub.Pk0, r.Big(), priv.RandomizerD, chal)
	wy := combineRandomizer(pub.Pk1, rY.Big(), priv.RandomizerY, chal)

	return &Proof{
		S: s, T: tCommit, A: a, Bigb: bigB, Bbar: bbar, E: e, F: f,
		Z1: z1, Z2: z2, Z3: z3, Z4: z4, W: w, Wy: wy,
	}, nil
}

func combineRandomizer(pk *paillier.PublicKey, r, rho *big.Int, e *big.Int) *big.Int {
	return arith.MaskRandomizer(r, rho, e, pk.NMod())
}

func twoPow(bits int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(bits))
}

// Verify checks the Paillier/EC/Paillier triple equation, the two
// ring-Pedersen commitment openings, and the two response-magnitude
// bounds.
func (pf *Proof) Verify(p *params.SchemeParams, pub *Public, partyID party.ID, h *hash.Hash) bool {
	lEps := p.LBound + p.EpsBound
	lPrimeEps := p.LPrimeBound + p.EpsBound
	if !arith.InRange(pf.Z1, lEps+1) || !arith.InRange(pf.Z2, lPrimeEps+1) {
		return false
	}
	aux := pub.Aux
	group := p.Group

	transcript := h.Clone().ChainBytes(dst).Chain(pub.Pk0).Chain(pub.Pk1).Chain(aux).
		Chain(pub.C).Chain(pub.D).Chain(pub.Y).Chain(pub.Bigy).
		ChainBytes(pf.S.Bytes()).ChainBytes(pf.T.Bytes()).Chain(pf.A).Chain(pf.Bigb).
		Chain(pf.Bbar).ChainBytes(pf.E.Bytes()).ChainBytes(pf.F.Bytes()).ChainBytes([]byte(partyID))
	chal := transcript.ChallengeScalar(twoPow(p.SecurityParameter), p.SecurityParameter)

	// C^z1 * Enc(z2; w) must equal A * D^e.
	lhs, err := pub.C.MulScalarThenEncrypt(pf.Z1, pf.Z2, pf.W)
	if err != nil {
		return false
	}
	rhs := pf.A.Add(pub.D.MulScalar(chal))
	if lhs.Value().Cmp(rhs.Value()) != 0 {
		return false
	}

	// z1*G must equal Bigb + e*Bigy.
	chalScalar := group.NewScalar().SetNat(chal)
	lhsPoint := group.NewScalar().SetNat(pf.Z1).ActOnBase()
	rhsPoint := pf.Bigb.Add(chalScalar.Act(pub.Bigy))
	if !lhsPoint.Equal(rhsPoint) {
		return false
	}

	// Enc_1(z1; wy) must equal Bbar * Y^e.
	yEnc, err := pub.Pk1.EncryptWithRandomizer(pf.Z1, pf.Wy)
	if err != nil {
		return false
	}
	yRhs := pf.Bbar.Add(pub.Y.MulScalar(chal))
	if yEnc.Value().Cmp(yRhs.Value()) != 0 {
		return false
	}

	sCommit := aux.Commit(pf.Z1, pf.Z3)
	sRhs := new(big.Int).Mul(pf.E, new(big.Int).Exp(pf.S, chal, aux.N()))
	sRhs.Mod(sRhs, aux.N())
	if sCommit.Cmp(sRhs) != 0 {
		return false
	}

	tOpen := aux.Commit(pf.Z2, pf.Z4)
	tRhs := new(big.Int).Mul(pf.F, new(big.Int).Exp(pf.T, chal, aux.N()))
	tRhs.Mod(tRhs, aux.N())
	if tOpen.Cmp(tRhs) != 0 {
		return false
	}
	return true
}
