// Package keyshare is the L4 protocol façade of spec.md §3's "Key share"
// data model: the per-party additive share of the signing key, its public
// counterpart list, and the composition glue that turns a KeyRefresh
// output into the KeyShare presigning and signing consume. Mirrors the
// teacher's protocols/lss/config.Config/config.Public wire split, adapted
// to the n-of-n additive (no Lagrange interpolation) CGGMP21 share shape.
package keyshare

import (
	"errors"
	"fmt"

	"github.com/mpc-go/threshold/pkg/curve"
	"github.com/mpc-go/threshold/pkg/paillier"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/pedersen"
)

// PublicData is everything about party j that every other party must
// know: its ECDSA share point, Paillier public key, and ring-Pedersen
// auxiliary setup (spec.md §3 "Public part").
type PublicData struct {
	ECDSA    curve.Point
	Paillier *paillier.PublicKey
	Pedersen *pedersen.Params
}

// SecretData is the running party's own secret half: its ECDSA scalar
// share and its Paillier secret key (spec.md §3 "Secret part").
type SecretData struct {
	ECDSA    curve.Scalar
	Paillier *paillier.SecretKey
}

// Destroy zeroizes the Paillier secret key's safe primes.
func (s *SecretData) Destroy() {
	if s.Paillier != nil {
		s.Paillier.Destroy()
	}
}

// KeyShare is the full n-of-n additive key share held by one party:
// index into Public plus an immutable secret block (spec.md §9 "Cyclic
// references in key share": represented as an index, never a
// self-referential structure).
type KeyShare struct {
	Group   curve.Curve
	ID      party.ID
	Parties party.IDSlice
	Public  map[party.ID]*PublicData
	Secret  *SecretData
}

// NewEmpty returns the all-zero KeyShare a fresh deployment bootstraps
// from: a zero ECDSA scalar and the identity point for every party, with
// no Paillier/Pedersen material yet. Running key-refresh once against
// this starting point IS key generation (CGGMP21's standard bootstrap:
// DKG is "refresh from zero").
func NewEmpty(group curve.Curve, selfID party.ID, parties party.IDSlice) *KeyShare {
	pub := make(map[party.ID]*PublicData, len(parties))
	for _, id := range parties {
		pub[id] = &PublicData{ECDSA: group.NewPoint()}
	}
	return &KeyShare{
		Group:   group,
		ID:      selfID,
		Parties: parties,
		Public:  pub,
		Secret:  &SecretData{ECDSA: group.NewScalar()},
	}
}

// VerifyingKey returns the aggregate public key Σⱼ Xⱼ (spec.md §3's
// invariant "Σⱼ Xⱼ = verifying_key").
func (ks *KeyShare) VerifyingKey() curve.Point {
	sum := ks.Group.NewPoint()
	for _, id := range ks.Parties {
		sum = sum.Add(ks.Public[id].ECDSA)
	}
	return sum
}

// Validate checks the structural invariants spec.md §3 requires: the
// secret and public parts agree on the running party's own index, and
// every party in Parties has a PublicData entry.
func (ks *KeyShare) Validate() error {
	if !ks.Parties.Contains(ks.ID) {
		return errors.New("keyshare: self ID is not a member of the party set")
	}
	if ks.Public[ks.ID] == nil {
		return errors.New("keyshare: missing own public data")
	}
	for _, id := range ks.Parties {
		if ks.Public[id] == nil {
			return fmt.Errorf("keyshare: missing public data for party %q", id)
		}
	}
	if !ks.Public[ks.ID].ECDSA.Equal(ks.Secret.ECDSA.ActOnBase()) {
		return errors.New("keyshare: secret share does not match own public share")
	}
	return nil
}

// Change is the output of a key-refresh run (spec.md §4.7 "KeyShareChange
// that the session applies to the prior KeyShare"): an additive delta to
// every party's ECDSA share plus wholesale-replacement Paillier/Pedersen
// material for every party.
type Change struct {
	ECDSADelta   map[party.ID]curve.Point
	NewPublic    map[party.ID]*PublicData // Paillier/Pedersen only; ECDSA ignored
	NewSecretECDSADelta curve.Scalar
	NewSecretPaillier   *paillier.SecretKey
}

// Apply produces the refreshed KeyShare: new secret x'ᵢ = xᵢ + Σⱼ x^j_i,
// new public list = old list's ECDSA summed with the broadcast deltas,
// Paillier/Pedersen replaced wholesale (spec.md §4.7 "Finalize").
func Apply(old *KeyShare, change *Change) (*KeyShare, error) {
	next := &KeyShare{
		Group:   old.Group,
		ID:      old.ID,
		Parties: old.Parties,
		Public:  make(map[party.ID]*PublicData, len(old.Parties)),
		Secret: &SecretData{
			ECDSA:    old.Secret.ECDSA.Add(change.NewSecretECDSADelta),
			Paillier: change.NewSecretPaillier,
		},
	}
	for _, id := range old.Parties {
		delta, ok := change.ECDSADelta[id]
		if !ok {
			return nil, fmt.Errorf("keyshare: change is missing ECDSA delta for party %q", id)
		}
		newPub, ok := change.NewPublic[id]
		if !ok {
			return nil, fmt.Errorf("keyshare: change is missing public data for party %q", id)
		}
		next.Public[id] = &PublicData{
			ECDSA:    old.Public[id].ECDSA.Add(delta),
			Paillier: newPub.Paillier,
			Pedersen: newPub.Pedersen,
		}
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}

// DeriveChild derives an unhardened BIP32-style child KeyShare shifting
// the aggregate key by offset*G without an interactive round (dropped
// from spec.md's data model but present in the teacher's config.go). The
// publicly-known offset is absorbed by the lead party (lowest ID): only
// its secret share and public entry move, so every party deriving the
// same offset stays mutually consistent.
func (ks *KeyShare) DeriveChild(offset curve.Scalar) *KeyShare {
	lead := ks.Parties[0]
	secret := ks.Secret.ECDSA
	if ks.ID == lead {
		secret = secret.Add(offset)
	}
	next := &KeyShare{
		Group:   ks.Group,
		ID:      ks.ID,
		Parties: ks.Parties,
		Public:  make(map[party.ID]*PublicData, len(ks.Parties)),
		Secret: &SecretData{
			ECDSA:    secret,
			Paillier: ks.Secret.Paillier,
		},
	}
	offsetPoint := offset.ActOnBase()
	for _, id := range ks.Parties {
		pub := ks.Public[id].ECDSA
		if id == lead {
			pub = pub.Add(offsetPoint)
		}
		next.Public[id] = &PublicData{
			ECDSA:    pub,
			Paillier: ks.Public[id].Paillier,
			Pedersen: ks.Public[id].Pedersen,
		}
	}
	return next
}
