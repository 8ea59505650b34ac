package keyshare

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/mpc-go/threshold/pkg/curve"
	"github.com/mpc-go/threshold/pkg/paillier"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/pedersen"
	"github.com/mpc-go/threshold/pkg/wire"
)

// wirePublic is party j's public block in wire form: compressed point
// bytes and bare moduli. Precomputed Montgomery/mod forms are rebuilt on
// load and never serialized (spec.md §3 "Auxiliary data").
type wirePublic struct {
	ECDSA     []byte `cbor:"1,keyasint"`
	PaillierN []byte `cbor:"2,keyasint"`
	PedersenN []byte `cbor:"3,keyasint"`
	PedersenS []byte `cbor:"4,keyasint"`
	PedersenT []byte `cbor:"5,keyasint"`
}

// shareSchemaVersion is bumped on any incompatible change to wireShare.
const shareSchemaVersion = 1

// wireShare is the full serialized KeyShare: (index, public list, secret).
type wireShare struct {
	Version uint                  `cbor:"0,keyasint"`
	ID      string                `cbor:"1,keyasint"`
	Parties []string              `cbor:"2,keyasint"`
	Public  map[string]wirePublic `cbor:"3,keyasint"`
	ECDSA   []byte                `cbor:"4,keyasint"`
	P       []byte                `cbor:"5,keyasint"`
	Q       []byte                `cbor:"6,keyasint"`
}

// MarshalBinary serializes the KeyShare with the canonical CBOR encoder.
// The output contains the Paillier safe primes: it is key material and
// must be treated with the same care as the share itself.
func (ks *KeyShare) MarshalBinary() ([]byte, error) {
	if ks.Secret == nil || ks.Secret.Paillier == nil {
		return nil, errors.New("keyshare: cannot serialize a share with no secret material")
	}
	w := wireShare{
		Version: shareSchemaVersion,
		ID:      string(ks.ID),
		Parties: make([]string, 0, len(ks.Parties)),
		Public:  make(map[string]wirePublic, len(ks.Public)),
		ECDSA:   ks.Secret.ECDSA.Bytes(),
		P:       ks.Secret.Paillier.P().Bytes(),
		Q:       ks.Secret.Paillier.Q().Bytes(),
	}
	for _, id := range ks.Parties {
		w.Parties = append(w.Parties, string(id))
		pub := ks.Public[id]
		if pub == nil {
			return nil, fmt.Errorf("keyshare: missing public data for party %q", id)
		}
		point, err := pub.ECDSA.MarshalBinary()
		if err != nil {
			return nil, err
		}
		w.Public[string(id)] = wirePublic{
			ECDSA:     point,
			PaillierN: pub.Paillier.N().Bytes(),
			PedersenN: pub.Pedersen.N().Bytes(),
			PedersenS: pub.Pedersen.S().Bytes(),
			PedersenT: pub.Pedersen.T().Bytes(),
		}
	}
	return wire.Marshal(w)
}

// UnmarshalKeyShare rebuilds a KeyShare, including all precomputed
// Paillier/Pedersen forms, from wire bytes.
func UnmarshalKeyShare(group curve.Curve, data []byte) (*KeyShare, error) {
	var w wireShare
	if err := wire.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	if w.Version != shareSchemaVersion {
		return nil, fmt.Errorf("keyshare: unsupported wire schema version %d", w.Version)
	}

	ids := make([]party.ID, 0, len(w.Parties))
	for _, id := range w.Parties {
		ids = append(ids, party.ID(id))
	}
	parties := party.NewIDSlice(ids)

	public := make(map[party.ID]*PublicData, len(w.Public))
	for id, pub := range w.Public {
		point := group.NewPoint()
		if err := point.UnmarshalBinary(pub.ECDSA); err != nil {
			return nil, fmt.Errorf("keyshare: bad public point for %q: %w", id, err)
		}
		pk, err := paillier.NewPublicKey(new(big.Int).SetBytes(pub.PaillierN))
		if err != nil {
			return nil, fmt.Errorf("keyshare: bad Paillier key for %q: %w", id, err)
		}
		public[party.ID(id)] = &PublicData{
			ECDSA:    point,
			Paillier: pk,
			Pedersen: pedersen.NewParams(
				new(big.Int).SetBytes(pub.PedersenN),
				new(big.Int).SetBytes(pub.PedersenS),
				new(big.Int).SetBytes(pub.PedersenT),
			),
		}
	}

	sk, err := paillier.NewSecretKeyFromPrimes(
		new(big.Int).SetBytes(w.P),
		new(big.Int).SetBytes(w.Q),
	)
	if err != nil {
		return nil, fmt.Errorf("keyshare: rebuilding Paillier secret: %w", err)
	}

	ks := &KeyShare{
		Group:   group,
		ID:      party.ID(w.ID),
		Parties: parties,
		Public:  public,
		Secret: &SecretData{
			ECDSA:    group.NewScalar().SetNat(new(big.Int).SetBytes(w.ECDSA)),
			Paillier: sk,
		},
	}
	if err := ks.Validate(); err != nil {
		return nil, err
	}
	return ks, nil
}
