// Package sch implements Π^sch (spec.md §4.6): a standard Schnorr proof of
// knowledge of the discrete log x of a public point X = x*G. It underlies
// the key-refresh finalize round's proof of knowledge of the refreshed
// share, and is reused wherever a bare Schnorr proof is needed.
package sch

import (
	"io"

	"github.com/mpc-go/threshold/pkg/curve"
	"github.com/mpc-go/threshold/pkg/hash"
	"github.com/mpc-go/threshold/pkg/party"
)

var dst = []byte("P_sch")

// Public is the point X being proven known.
type Public struct {
	X curve.Point
}

// Private is the discrete log x.
type Private struct {
	X curve.Scalar
}

// Commitment is the first-round message A = a*G, kept separate from Proof
// so key-refresh round 2 can send it ahead of the round-3 response (the
// "commit, then later respond" pattern used by the refreshed-share proof).
type Commitment struct {
	A curve.Point
	a curve.Scalar // ephemeral, kept by the prover between rounds
}

// NewCommitment samples the ephemeral a and computes A = a*G.
func NewCommitment(rnd io.Reader, group curve.Curve) (*Commitment, error) {
	a, err := curve.RandomScalar(rnd, group)
	if err != nil {
		return nil, err
	}
	return &Commitment{A: a.ActOnBase(), a: a}, nil
}

// Proof is the full, self-contained Schnorr proof (A, z).
type Proof struct {
	A curve.Point
	Z curve.Scalar
}

// Prove samples its own ephemeral and returns a standalone proof.
func Prove(rnd io.Reader, group curve.Curve, priv *Private, pub *Public, partyID party.ID, h *hash.Hash) (*Proof, error) {
	c, err := NewCommitment(rnd, group)
	if err != nil {
		return nil, err
	}
	return c.Finalize(group, priv, pub, partyID, h), nil
}

// challengeScalar derives e = H(dst, X, A, partyID) reduced into a curve
// scalar, shared by Finalize and Verify so the two transcripts match.
func challengeScalar(group curve.Curve, pub *Public, A curve.Point, partyID party.ID, h *hash.Hash) curve.Scalar {
	transcript := h.Clone().ChainBytes(dst).Chain(pub.X).Chain(A).ChainBytes([]byte(partyID))
	e := transcript.ChallengeScalar(group.Order(), 128)
	return group.NewScalar().SetNat(e)
}

// Finalize derives the Fiat-Shamir challenge from the transcript (which
// must already reflect the commitment A, via a prior broadcast or this
// same call) and computes z = a + e*x.
func (c *Commitment) Finalize(group curve.Curve, priv *Private, pub *Public, partyID party.ID, h *hash.Hash) *Proof {
	e := challengeScalar(group, pub, c.A, partyID, h)
	z := c.a.Add(e.Mul(priv.X))
	return &Proof{A: c.A, Z: z}
}

// Verify checks z*G = A + e*X.
func (pf *Proof) Verify(group curve.Curve, pub *Public, partyID party.ID, h *hash.Hash) bool {
	e := challengeScalar(group, pub, pf.A, partyID, h)
	lhs := pf.Z.ActOnBase()
	rhs := pf.A.Add(e.Act(pub.X))
	return lhs.Equal(rhs)
}
