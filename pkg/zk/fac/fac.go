// Package fac implements Π^fac (spec.md §4.6, CGGMP21 Fig. 28): proof that
// a Paillier modulus N = p*q has both factors of roughly equal, large bit
// length, without revealing p or q. It is verified against an auxiliary
// ring-Pedersen setup (N̂, s, t) belonging to the verifier, not the prover.
package fac

import (
	"io"
	"math/big"

	"github.com/mpc-go/threshold/pkg/arith"
	"github.com/mpc-go/threshold/pkg/hash"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/pedersen"
)

var dst = []byte("P_fac")

// Public is the modulus N whose factors are being size-checked, plus the
// verifier's ring-Pedersen setup used as the commitment scheme.
type Public struct {
	N     *big.Int
	Aux   *pedersen.Params
}

// Private is the factorization of N.
type Private struct {
	P, Q *big.Int
}

// Proof is the CGGMP21 Π^fac transcript.
type Proof struct {
	P, Q         *big.Int // commitments to p, q
	A, B         *big.Int // commitments to the ephemerals alpha, beta
	T            *big.Int // cross commitment
	Sigma        *big.Int
	Z1, Z2       *big.Int
	W1, W2       *big.Int
	V            *big.Int
}

// Prove constructs Π^fac. l, lEps follow params.LBound / params.EpsBound
// scaled up, since factor sizes are on the order of N^(1/2).
func Prove(rnd io.Reader, p *params.SchemeParams, priv *Private, pub *Public, partyID party.ID, h *hash.Hash) (*Proof, error) {
	aux := pub.Aux
	lBound := p.HBits() + p.SecurityParameter + p.EpsBound
	lEpsBound := p.HBits() + 2*p.SecurityParameter + p.EpsBound

	mu, err := arith.SampleSigned(rnd, p.SecurityParameter+p.HBits())
	if err != nil {
		return nil, err
	}
	nu, err := arith.SampleSigned(rnd, p.SecurityParameter+p.HBits())
	if err != nil {
		return nil, err
	}
	alpha, err := arith.SampleSigned(rnd, lEpsBound)
	if err != nil {
		return nil, err
	}
	beta, err := arith.SampleSigned(rnd, lEpsBound)
	if err != nil {
		return nil, err
	}
	sigma, err := arith.SampleSigned(rnd, p.SecurityParameter+p.HBits())
	if err != nil {
		return nil, err
	}
	r, err := arith.SampleSigned(rnd, p.SecurityParameter+lBound+p.HBits())
	if err != nil {
		return nil, err
	}
	x, err := arith.SampleSigned(rnd, p.SecurityParameter+lBound+p.HBits())
	if err != nil {
		return nil, err
	}
	y, err := arith.SampleSigned(rnd, p.SecurityParameter+lBound+p.HBits())
	if err != nil {
		return nil, err
	}

	P := aux.Commit(priv.P, mu.Big())
	Q := aux.Commit(priv.Q, nu.Big())
	A := aux.Commit(alpha.Big(), x.Big())
	B := aux.Commit(beta.Big(), y.Big())
	// T = Q^alpha * s^r: the cross commitment that ties alpha to q without
	// opening either. Both exponents are secret ephemerals.
	T := arith.ExpSecret(Q, alpha.Big(), aux.NMod())
	T.Mul(T, arith.ExpSecret(aux.S(), r.Big(), aux.NMod()))
	T.Mod(T, aux.N())

	transcript := h.Clone().ChainBytes(dst).ChainBytes(pub.N.Bytes()).Chain(aux).
		ChainBytes(P.Bytes()).ChainBytes(Q.Bytes()).ChainBytes(A.Bytes()).
		ChainBytes(B.Bytes()).ChainBytes(T.Bytes()).ChainBytes([]byte(partyID))
	e := transcript.ChallengeScalar(twoPow(p.SecurityParameter), p.SecurityParameter)

	z1 := new(big.Int).Add(alpha.Big(), new(big.Int).Mul(e, priv.P))
	z2 := new(big.Int).Add(beta.Big(), new(big.Int).Mul(e, priv.Q))
	w1 := new(big.Int).Add(x.Big(), new(big.Int).Mul(e, mu.Big()))
	w2 := new(big.Int).Add(y.Big(), new(big.Int).Mul(e, nu.Big()))
	// sigmaHat = sigma - nu*p cancels the nu*z1 cross term the verifier's
	// Q^z1 picks up.
	sigmaHat := new(big.Int).Sub(sigma.Big(), new(big.Int).Mul(nu.Big(), priv.P))
	v := new(big.Int).Add(r.Big(), new(big.Int).Mul(e, sigmaHat))

	return &Proof{
		P: P, Q: Q, A: A, B: B, T: T, Sigma: sigma.Big(),
		Z1: z1, Z2: z2, W1: w1, W2: w2, V: v,
	}, nil
}

// Verify checks the commitment-opening equations and that z1, z2 lie
// within the claimed bound (the actual size-of-factor proof: if p or q
// were far larger than 2^(PrimeBits), z1/z2 could not be forced into
// range by a prover who doesn't know a short p, q).
func (pf *Proof) Verify(p *params.SchemeParams, pub *Public, partyID party.ID, h *hash.Hash) bool {
	aux := pub.Aux
	lEpsBound := p.HBits() + 2*p.SecurityParameter + p.EpsBound

	if !arith.InRange(pf.Z1, lEpsBound+1) || !arith.InRange(pf.Z2, lEpsBound+1) {
		return false
	}

	transcript := h.Clone().ChainBytes(dst).ChainBytes(pub.N.Bytes()).Chain(aux).
		ChainBytes(pf.P.Bytes()).ChainBytes(pf.Q.Bytes()).ChainBytes(pf.A.Bytes()).
		ChainBytes(pf.B.Bytes()).ChainBytes(pf.T.Bytes()).ChainBytes([]byte(partyID))
	e := transcript.ChallengeScalar(twoPow(p.SecurityParameter), p.SecurityParameter)

	lhs1 := aux.Commit(pf.Z1, pf.W1)
	rhs1 := new(big.Int).Mul(pf.A, new(big.Int).Exp(pf.P, e, aux.N()))
	rhs1.Mod(rhs1, aux.N())
	if lhs1.Cmp(rhs1) != 0 {
		return false
	}

	lhs2 := aux.Commit(pf.Z2, pf.W2)
	rhs2 := new(big.Int).Mul(pf.B, new(big.Int).Exp(pf.Q, e, aux.N()))
	rhs2.Mod(rhs2, aux.N())
	if lhs2.Cmp(rhs2) != 0 {
		return false
	}

	// Q^z1 * s^v must equal T * Commit(N, sigma)^e: forces z1*q = alpha*q
	// + e*N in the exponent of t, i.e. the committed p, q really multiply
	// to N.
	lhs3 := new(big.Int).Exp(pf.Q, pf.Z1, aux.N())
	lhs3.Mul(lhs3, new(big.Int).Exp(aux.S(), pf.V, aux.N()))
	lhs3.Mod(lhs3, aux.N())
	rhs3 := new(big.Int).Exp(aux.Commit(pub.N, pf.Sigma), e, aux.N())
	rhs3.Mul(rhs3, pf.T)
	rhs3.Mod(rhs3, aux.N())
	if lhs3.Cmp(rhs3) != 0 {
		return false
	}
	return true
}

func twoPow(bits int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(bits))
}
