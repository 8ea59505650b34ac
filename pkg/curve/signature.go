package curve

import (
	"errors"
	"math/big"
)

// Signature is an ECDSA signature assembled from a threshold signing run:
// the full nonce point R (not just its x-coordinate, so the recovery code
// stays determined), and the scalar s. r is derived from R on demand.
type Signature struct {
	R Point
	S Scalar
}

// RScalar returns r = x-coord(R) reduced into the scalar field.
func (sig *Signature) RScalar(group Curve) Scalar {
	return group.NewScalar().SetNat(sig.R.XCoord())
}

// Normalize returns the BIP-62 low-s form of the signature. Negating s
// requires negating R as well (the signature (r, n-s) is the one produced
// by the nonce -k, whose point is -R with the same x-coordinate), so that
// Verify and RecoverPublicKey stay consistent with the stored R.
func (sig *Signature) Normalize(group Curve) *Signature {
	halfOrder := new(big.Int).Rsh(group.Order(), 1)
	if sig.S.BigInt().Cmp(halfOrder) <= 0 {
		return sig
	}
	return &Signature{R: sig.R.Negate(), S: sig.S.Negate()}
}

// Verify checks the signature against a verifying key and a message hash
// already reduced into the scalar field: s^-1 * (m*G + r*Q) must land on
// a point whose x-coordinate is r.
func (sig *Signature) Verify(group Curve, public Point, mHash Scalar) bool {
	if sig.R == nil || sig.S == nil || sig.R.IsIdentity() || sig.S.IsZero() {
		return false
	}
	r := sig.RScalar(group)
	if r.IsZero() {
		return false
	}
	sInv := sig.S.Invert()
	u1 := mHash.Mul(sInv)
	u2 := r.Mul(sInv)
	point := u1.ActOnBase().Add(u2.Act(public))
	if point.IsIdentity() {
		return false
	}
	return group.NewScalar().SetNat(point.XCoord()).Equal(r)
}

// RecoverPublicKey recovers the verifying key from the signature and the
// message hash: Q = r^-1 * (s*R - m*G). Holding the full R makes this
// exact rather than a candidate enumeration over recovery codes.
func (sig *Signature) RecoverPublicKey(group Curve, mHash Scalar) (Point, error) {
	r := sig.RScalar(group)
	if r.IsZero() {
		return nil, errors.New("curve: signature r is zero")
	}
	sR := sig.S.Act(sig.R)
	mG := mHash.ActOnBase()
	return r.Invert().Act(sR.Add(mG.Negate())), nil
}
