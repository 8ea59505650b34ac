// Package curve adapts github.com/decred/dcrd/dcrec/secp256k1 into the
// small Scalar/Point interface the rest of the engine depends on. Only
// secp256k1 is concretized (the design is curve-generic in principle, per
// the engine's scope), but the interface indirection keeps every other
// package from importing decred types directly.
package curve

import (
	"crypto/ecdsa"
	"errors"
	"io"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/mpc-go/threshold/pkg/hash"
)

// Curve is the group in which key shares and signatures live. Secp256k1 is
// the only implementation; the interface exists so call sites read
// group-generically, matching how the teacher's pkg/math/curve is used
// from every higher layer.
type Curve interface {
	NewScalar() Scalar
	NewPoint() Point
	Order() *big.Int
	Name() string
}

// Scalar is an element of the scalar field (mod curve order).
type Scalar interface {
	Add(Scalar) Scalar
	Sub(Scalar) Scalar
	Negate() Scalar
	Mul(Scalar) Scalar
	Invert() Scalar
	Equal(Scalar) bool
	IsZero() bool
	SetNat(n *big.Int) Scalar
	SetBytes(b []byte) Scalar
	Bytes() []byte
	BigInt() *big.Int
	ActOnBase() Point // returns scalar * G
	Act(Point) Point  // returns scalar * point
}

// Point is a curve point (the identity is the point at infinity).
type Point interface {
	Add(Point) Point
	Negate() Point
	Equal(Point) bool
	IsIdentity() bool
	MarshalBinary() ([]byte, error)
	UnmarshalBinary([]byte) error
	XCoord() *big.Int // x-coordinate reduced mod curve order, used for ECDSA r
	ToPublicKey() *ecdsa.PublicKey
	HashTo(h *hash.Hash) // absorbs the compressed encoding into a transcript
}

// Secp256k1 is the sole curve implementation.
type Secp256k1 struct{}

func (Secp256k1) NewScalar() Scalar { return &scalar{s: new(secp256k1.ModNScalar)} }
func (Secp256k1) NewPoint() Point {
	return &point{p: new(secp256k1.JacobianPoint)}
}
func (Secp256k1) Order() *big.Int { return secp256k1.S256().N }
func (Secp256k1) Name() string    { return "secp256k1" }

type scalar struct {
	s *secp256k1.ModNScalar
}

func (z *scalar) clone() *scalar {
	var s secp256k1.ModNScalar
	s.Set(z.s)
	return &scalar{s: &s}
}

func (z *scalar) Add(o Scalar) Scalar {
	out := z.clone()
	out.s.Add(o.(*scalar).s)
	return out
}

func (z *scalar) Sub(o Scalar) Scalar {
	return z.Add(o.Negate())
}

func (z *scalar) Negate() Scalar {
	out := z.clone()
	out.s.Negate()
	return out
}

func (z *scalar) Mul(o Scalar) Scalar {
	out := z.clone()
	out.s.Mul(o.(*scalar).s)
	return out
}

func (z *scalar) Invert() Scalar {
	out := z.clone()
	out.s.InverseNonConst()
	return out
}

func (z *scalar) Equal(o Scalar) bool {
	return z.s.Equals(o.(*scalar).s)
}

func (z *scalar) IsZero() bool {
	return z.s.IsZero()
}

func (z *scalar) SetNat(n *big.Int) Scalar {
	out := z.clone()
	mod := new(big.Int).Mod(n, secp256k1.S256().N)
	b := make([]byte, 32)
	mod.FillBytes(b)
	out.s.SetByteSlice(b)
	return out
}

// SetBytes reduces an arbitrary-length byte string modulo the curve order,
// used to map opaque party IDs into the scalar field (see party.ID.Scalar).
func (z *scalar) SetBytes(b []byte) Scalar {
	n := new(big.Int).SetBytes(b)
	n.Add(n, big.NewInt(1)) // never collapse an empty/zero ID to the zero scalar
	return z.SetNat(n)
}

func (z *scalar) Bytes() []byte {
	b := z.s.Bytes()
	return b[:]
}

func (z *scalar) BigInt() *big.Int {
	b := z.Bytes()
	return new(big.Int).SetBytes(b)
}

func (z *scalar) ActOnBase() Point {
	var p secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(z.s, &p)
	p.ToAffine()
	return &point{p: &p}
}

func (z *scalar) Act(pt Point) Point {
	other := pt.(*point)
	var out secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(z.s, other.p, &out)
	out.ToAffine()
	return &point{p: &out}
}

type point struct {
	p *secp256k1.JacobianPoint
}

func (z *point) clone() *point {
	var p secp256k1.JacobianPoint
	p.Set(z.p)
	return &point{p: &p}
}

func (z *point) Add(o Point) Point {
	other := o.(*point)
	var out secp256k1.JacobianPoint
	secp256k1.AddNonConst(z.p, other.p, &out)
	out.ToAffine()
	return &point{p: &out}
}

func (z *point) Negate() Point {
	out := z.clone()
	out.p.Y.Negate(1)
	out.p.Y.Normalize()
	return out
}

func (z *point) Equal(o Point) bool {
	other := o.(*point)
	a, b := z.clone(), other.clone()
	a.p.ToAffine()
	b.p.ToAffine()
	return a.p.X.Equals(&b.p.X) && a.p.Y.Equals(&b.p.Y)
}

func (z *point) IsIdentity() bool {
	return (z.p.X.IsZero() && z.p.Y.IsZero()) || z.p.Z.IsZero()
}

func (z *point) MarshalBinary() ([]byte, error) {
	if z.IsIdentity() {
		return []byte{0x00}, nil
	}
	a := z.clone()
	a.p.ToAffine()
	pk := secp256k1.NewPublicKey(&a.p.X, &a.p.Y)
	return pk.SerializeCompressed(), nil
}

func (z *point) UnmarshalBinary(b []byte) error {
	if len(b) == 1 && b[0] == 0x00 {
		*z.p = secp256k1.JacobianPoint{}
		return nil
	}
	pk, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return err
	}
	pk.AsJacobian(z.p)
	return nil
}

func (z *point) XCoord() *big.Int {
	a := z.clone()
	a.p.ToAffine()
	x := new(big.Int).SetBytes(a.p.X.Bytes()[:])
	return new(big.Int).Mod(x, secp256k1.S256().N)
}

// HashTo absorbs the point's compressed encoding, length-prefixed.
func (z *point) HashTo(h *hash.Hash) {
	b, err := z.MarshalBinary()
	if err != nil {
		h.ChainBytes(nil)
		return
	}
	h.ChainBytes(b)
}

func (z *point) ToPublicKey() *ecdsa.PublicKey {
	a := z.clone()
	a.p.ToAffine()
	pk := secp256k1.NewPublicKey(&a.p.X, &a.p.Y)
	return pk.ToECDSA()
}

// NewIdentityPoint returns the point at infinity for the given curve.
func NewIdentityPoint(group Curve) Point {
	return group.NewPoint()
}

// RandomScalar samples a uniformly random nonzero scalar.
func RandomScalar(rand io.Reader, group Curve) (Scalar, error) {
	buf := make([]byte, 48) // oversample to push modular bias below 2^-128
	for {
		if _, err := io.ReadFull(rand, buf); err != nil {
			return nil, err
		}
		n := new(big.Int).SetBytes(buf)
		s := group.NewScalar().SetNat(n)
		if !s.IsZero() {
			return s, nil
		}
	}
}

// ErrInvalidPoint is returned when a received point fails to parse.
var ErrInvalidPoint = errors.New("curve: invalid point encoding")
