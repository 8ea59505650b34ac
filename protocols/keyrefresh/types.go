// Package keyrefresh implements spec.md §4.7's key-refresh protocol: a
// 3-round, echo-broadcast-consensus state machine that re-randomizes every
// party's additive ECDSA share while leaving the aggregate verifying key
// unchanged, and (re)generates each party's Paillier and ring-Pedersen
// auxiliary material. Run once against keyshare.NewEmpty, this same
// protocol doubles as distributed key generation (spec.md §4.7 note:
// "DKG is refresh from zero").
//
// Grounded on the CGGMP21 key-refresh round structure the teacher's
// protocols/lss/keygen package approximates for its own (Lagrange-based)
// share model; adapted here to the engine's n-of-n additive shares, and
// to the concrete ZK catalogue in pkg/zk.
package keyrefresh

import (
	"errors"
	"sort"

	"github.com/mpc-go/threshold/pkg/curve"
	"github.com/mpc-go/threshold/pkg/hash"
	"github.com/mpc-go/threshold/pkg/paillier"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/pedersen"
	"github.com/mpc-go/threshold/pkg/protocols/elgamal"
	"github.com/mpc-go/threshold/pkg/round"
	"github.com/mpc-go/threshold/pkg/zk/fac"
	"github.com/mpc-go/threshold/pkg/zk/mod"
	"github.com/mpc-go/threshold/pkg/zk/prm"
	"github.com/mpc-go/threshold/pkg/zk/sch"
)

const ProtocolID = "cggmp21/keyrefresh"

// Round1Content is the hash commitment to this party's Round2Content,
// broadcast before any of the actual values are revealed so no party can
// choose its contribution after seeing anyone else's (spec.md §4.7's
// commit-then-reveal structure).
type Round1Content struct {
	round.NormalBroadcastContent
	V []byte
}

func (*Round1Content) RoundNumber() round.Number { return 1 }

// Round2Content reveals everything Round1Content committed to: the public
// share-of-zero commitments this party made to every party (including
// itself), one fresh ElGamal channel key per recipient, one Schnorr
// commitment per correction share, its fresh Paillier/ring-Pedersen
// material, and its Π^prm proof that the ring-Pedersen setup is
// well-formed. All three maps must be keyed by exactly the participant
// set; each map has its own attributable wrong-IDs error.
type Round2Content struct {
	round.NormalBroadcastContent
	Rid                []byte
	XShares            map[party.ID]curve.Point
	ElGamalKeys        map[party.ID]curve.Point
	SchnorrCommitments map[party.ID]curve.Point
	Paillier           *paillier.PublicKey
	Pedersen           *pedersen.Params
	Prm                *prm.Proof
}

func (*Round2Content) RoundNumber() round.Number { return 2 }

// Round3Broadcast carries the proofs that depend on every party's Round2
// reveal having been seen: that this party's Paillier N is a Blum integer
// (Π^mod), that its factors are balanced (one Π^fac per verifier, since
// each is checked against that verifier's own ring-Pedersen aux), and the
// completed Π^sch responses opening every Schnorr commitment from Round 2.
type Round3Broadcast struct {
	round.NormalBroadcastContent
	ModProof      *mod.Proof
	FacProofs     map[party.ID]*fac.Proof
	SchnorrProofs map[party.ID]*sch.Proof
}

func (*Round3Broadcast) RoundNumber() round.Number { return 3 }

// Round3Share is the ElGamal-encrypted share contribution sent
// point-to-point to its recipient, now that every party's ElGamal public
// key has been revealed in Round 2.
type Round3Share struct {
	Share *elgamal.Ciphertext
}

func (*Round3Share) RoundNumber() round.Number { return 3 }

var (
	ErrCommitmentMismatch    = errors.New("Round 2: the previously sent hash does not match the public data.")
	ErrWrongPublicSharesIDs  = errors.New("Round 2: wrong IDs in public shares map.")
	ErrWrongElGamalIDs       = errors.New("Round 2: wrong IDs in Elgamal keys map.")
	ErrWrongSchnorrCommitIDs = errors.New("Round 2: wrong IDs in Schnorr commitments map.")
	ErrSumNotZero            = errors.New("Round 2: sum of share changes is not zero.")
	ErrPrmFailed             = errors.New("Round 2: Π^prm verification failed.")
	ErrShareMismatch         = errors.New("Round 3: secret share change does not match the public commitment.")
	ErrModFailed             = errors.New("Round 3: Π^mod verification failed.")
	ErrFacFailed             = errors.New("Round 3: Π^fac verification failed.")
	ErrWrongSchnorrProofIDs  = errors.New("Round 3: Wrong IDs in Schnorr proofs map.")
	ErrSchFailed             = errors.New("Round 3: Π^sch verification failed.")
)

// commitmentDigest recomputes the Round1Content.V this Round2Content must
// match. parties fixes the iteration order over XShares so the digest is
// independent of map iteration order.
func commitmentDigest(h *hash.Hash, parties party.IDSlice, c *Round2Content) []byte {
	t := h.Clone().ChainBytes([]byte("keyrefresh-round2-commitment")).ChainBytes(c.Rid)
	ids := append(party.IDSlice(nil), parties...)
	sort.Sort(ids)
	for _, id := range ids {
		if pt, ok := c.XShares[id]; ok {
			t.ChainBytes([]byte(id)).Chain(pt)
		}
		if pt, ok := c.ElGamalKeys[id]; ok {
			t.ChainBytes([]byte(id)).Chain(pt)
		}
		if pt, ok := c.SchnorrCommitments[id]; ok {
			t.ChainBytes([]byte(id)).Chain(pt)
		}
	}
	t.Chain(c.Paillier).Chain(c.Pedersen)
	if c.Prm != nil {
		for i := range c.Prm.A {
			t.ChainBytes(c.Prm.A[i].Bytes())
		}
		for i := range c.Prm.Z {
			t.ChainBytes(c.Prm.Z[i].Bytes())
		}
	}
	return t.FinalizeBoxed(256)
}
