// Package presign implements spec.md §4.8's pre-signing protocol: a
// 3-round state machine that, given a finished KeyShare, produces one
// ephemeral PreSignature per party ahead of any particular message. The
// expensive MtA (Π^aff-g) exchanges happen here so the later signing
// round (protocols/sign) is a single non-interactive broadcast.
//
// Grounded on the teacher's protocols/cmp/sign round structure for the
// round-by-round shape; the MtA mechanics themselves follow CGGMP21's
// presigning figure, adapted to this engine's Π^aff-g/Π^enc/Π^log*
// catalogue (pkg/zk).
package presign

import (
	"errors"

	"github.com/mpc-go/threshold/pkg/curve"
	"github.com/mpc-go/threshold/pkg/paillier"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/round"
	"github.com/mpc-go/threshold/pkg/zk/affg"
	"github.com/mpc-go/threshold/pkg/zk/enc"
	"github.com/mpc-go/threshold/pkg/zk/logstar"
)

const ProtocolID = "cggmp21/presign"

// Round1Content broadcasts this party's encrypted nonce K and encrypted
// gamma G, the public commitment Gamma = gamma*G, and one Π^enc/Π^log*
// proof per verifying peer (each checked against that peer's own
// ring-Pedersen aux, hence the maps).
type Round1Content struct {
	round.NormalBroadcastContent
	K, G      *paillier.Ciphertext
	Gamma     curve.Point
	EncProofs     map[party.ID]*enc.Proof
	LogStarProofs map[party.ID]*logstar.Proof
}

func (*Round1Content) RoundNumber() round.Number { return 1 }

// Round2Share is the point-to-point MtA message the prover sends to one
// verifying counterparty: the delta-MtA (multiplier gamma_i against the
// counterparty's K) and the chi-MtA (multiplier x_i, the prover's own
// secret key share, against the same K).
type Round2Share struct {
	DDelta     *paillier.Ciphertext
	YDelta     *paillier.Ciphertext
	ProofDelta *affg.Proof
	DChi       *paillier.Ciphertext
	YChi       *paillier.Ciphertext
	ProofChi   *affg.Proof
}

func (*Round2Share) RoundNumber() round.Number { return 2 }

// Round3Content reveals this party's share delta_i = gamma_i*k_i + MtA
// cross terms (scalar form) together with Delta_i = k_i * Gamma (point
// form), plus one Π^log* proof per verifying peer tying Delta_i back to
// the encrypted nonce K_i broadcast in Round 1. The group recovers
// R = delta^-1 * Gamma only if Σ delta_i * G = Σ Delta_i.
type Round3Content struct {
	round.NormalBroadcastContent
	Delta      curve.Scalar
	DeltaPoint curve.Point
	LogProofs  map[party.ID]*logstar.Proof
}

func (*Round3Content) RoundNumber() round.Number { return 3 }

var (
	ErrEncFailed      = errors.New("Round 1: Π^enc verification failed.")
	ErrLogStarFailed  = errors.New("Round 1: Π^log* verification failed.")
	ErrAffGFailed     = errors.New("Round 2: Π^aff-g verification failed.")
	ErrLogStarFailed3 = errors.New("Round 3: Π^log* verification failed.")
	ErrDeltaNotGDelta = errors.New("Round 3: g*delta does not match the aggregated Delta.")
)
