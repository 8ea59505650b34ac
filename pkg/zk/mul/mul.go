// Package mul implements Π^mul (spec.md §4.6): proof that, given Paillier
// ciphertexts X and Y under the same key, Z correctly encrypts the product
// of X's plaintext and Y's plaintext, i.e. Z = X^y * Enc(0; rho) for a
// committed y that also opens Y. abort.CulpritEvidence has a field for it
// (the gamma_i*k_i product ciphertext); no presigning round produces one.
package mul

import (
	"io"
	"math/big"

	"github.com/mpc-go/threshold/pkg/arith"
	"github.com/mpc-go/threshold/pkg/hash"
	"github.com/mpc-go/threshold/pkg/paillier"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/party"
)

var dst = []byte("P_mul")

// Public is the three ciphertexts (all under the same key) and that key.
type Public struct {
	X, Y, Z *paillier.Ciphertext
	Pk      *paillier.PublicKey
}

// Private is the plaintext y (Y's opening), the randomizer originally used
// to encrypt Y, and the randomizer used to rerandomize Z from X^y.
type Private struct {
	Y            *big.Int
	RandomizerY  *big.Int
	RandomizerZ  *big.Int
}

// Proof is the CGGMP21 Π^mul transcript.
type Proof struct {
	A, Bcipher *paillier.Ciphertext
	Z1         *big.Int
	Z2         *big.Int
	Zy         *big.Int
}

// Prove constructs Π^mul.
func Prove(rnd io.Reader, p *params.SchemeParams, priv *Private, pub *Public, partyID party.ID, h *hash.Hash) (*Proof, error) {
	alpha, err := arith.RandomNonZeroMod(rnd, pub.Pk.NMod())
	if err != nil {
		return nil, err
	}
	r, err := arith.RandomNonZeroMod(rnd, pub.Pk.NMod())
	if err != nil {
		return nil, err
	}
	s, err := arith.RandomNonZeroMod(rnd, pub.Pk.NMod())
	if err != nil {
		return nil, err
	}

	a := pub.X.MulScalar(alpha.Big())
	aEnc, err := pub.Pk.EncryptWithRandomizer(big.NewInt(0), r.Big())
	if err != nil {
		return nil, err
	}
	a = a.Add(aEnc)

	bEnc, err := pub.Pk.EncryptWithRandomizer(alpha.Big(), s.Big())
	if err != nil {
		return nil, err
	}

	transcript := h.Clone().ChainBytes(dst).Chain(pub.Pk).Chain(pub.X).Chain(pub.Y).Chain(pub.Z).
		Chain(a).Chain(bEnc).ChainBytes([]byte(partyID))
	e := transcript.ChallengeScalar(twoPow(p.SecurityParameter), p.SecurityParameter)

	z1 := new(big.Int).Add(alpha.Big(), new(big.Int).Mul(e, priv.Y))
	z2 := combineRandomizer(pub.Pk, r.Big(), priv.RandomizerZ, e)
	zy := combineRandomizer(pub.Pk, s.Big(), priv.RandomizerY, e)

	return &Proof{A: a, Bcipher: bEnc, Z1: z1, Z2: z2, Zy: zy}, nil
}

// combineRandomizer returns ephemeral * rho^e mod N, the Paillier-ciphertext
// analogue of "z = alpha + e*x" for the multiplicative randomizer group.
func combineRandomizer(pk *paillier.PublicKey, ephemeral, rho *big.Int, e *big.Int) *big.Int {
	return arith.MaskRandomizer(ephemeral, rho, e, pk.NMod())
}

func twoPow(bits int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(bits))
}

// Verify checks X^z1 * Enc(0; z2) == A * Z^e.
func (pf *Proof) Verify(p *params.SchemeParams, pub *Public, partyID party.ID, h *hash.Hash) bool {
	transcript := h.Clone().ChainBytes(dst).Chain(pub.Pk).Chain(pub.X).Chain(pub.Y).Chain(pub.Z).
		Chain(pf.A).Chain(pf.Bcipher).ChainBytes([]byte(partyID))
	e := transcript.ChallengeScalar(twoPow(p.SecurityParameter), p.SecurityParameter)

	lhs := pub.X.MulScalar(pf.Z1)
	zero, err := pub.Pk.EncryptWithRandomizer(big.NewInt(0), pf.Z2)
	if err != nil {
		return false
	}
	lhs = lhs.Add(zero)
	rhs := pf.A.Add(pub.Z.MulScalar(e))
	if lhs.Value().Cmp(rhs.Value()) != 0 {
		return false
	}

	yLhs, err := pub.Pk.EncryptWithRandomizer(pf.Z1, pf.Zy)
	if err != nil {
		return false
	}
	yRhs := pf.Bcipher.Add(pub.Y.MulScalar(e))
	if yLhs.Value().Cmp(yRhs.Value()) != 0 {
		return false
	}
	return true
}
