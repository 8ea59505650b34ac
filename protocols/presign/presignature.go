package presign

import (
	"fmt"
	"io"
	"math/big"

	"github.com/mpc-go/threshold/pkg/curve"
	"github.com/mpc-go/threshold/pkg/keyshare"
	"github.com/mpc-go/threshold/pkg/paillier"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/round"
)

// PreSignature is one party's share of an ephemeral CGGMP21 presignature:
// the public nonce commitment R (identical across all parties), this
// party's additive nonce share k_i, its additive share chi_i of the
// product x*k, and the per-peer MtA auxiliaries the signing round needs
// if it has to assemble abort evidence (spec.md §3 "Presigning data").
type PreSignature struct {
	ID       party.ID
	R        curve.Point
	KShare   curve.Scalar
	ChiShare curve.Scalar
	PeerAux  map[party.ID]*PeerAux
}

// PeerAux is the chi-MtA residue retained per peer: the masking noise and
// randomizers this party chose, the peer's encrypted nonce K, and the two
// ciphertexts of the exchange. Consumed only by the signing round's
// proof-of-abort path; an honest run never reads it.
type PeerAux struct {
	BetaHat *big.Int // masking noise chosen against this peer
	SHat    *big.Int // randomizer of the Enc_peer(betaHat) term inside the chi-MtA ciphertext sent to this peer
	RHat    *big.Int // randomizer of the own-key commitment HatY
	K       *paillier.Ciphertext
	HatD    *paillier.Ciphertext // the chi-MtA ciphertext received from this peer
	HatY    *paillier.Ciphertext // own encryption of x_i sent to this peer
}

// Start returns the entry point to the presigning protocol for one
// party. ks must already be a valid, fully-refreshed KeyShare.
func Start(rnd io.Reader, p *params.SchemeParams, selfID party.ID, parties party.IDSlice, ks *keyshare.KeyShare) round.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if !parties.Contains(selfID) {
			return nil, fmt.Errorf("presign: self ID %q is not a member of the party set", selfID)
		}
		if err := ks.Validate(); err != nil {
			return nil, fmt.Errorf("presign: invalid key share: %w", err)
		}
		helper := round.NewHelper(ProtocolID, 3, selfID, parties, ks.VerifyingKey())
		return &round1{
			Helper: helper,
			rnd:    rnd,
			params: p,
			ks:     ks,
		}, nil
	}
}
