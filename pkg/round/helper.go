package round

import (
	"github.com/mpc-go/threshold/pkg/hash"
	"github.com/mpc-go/threshold/pkg/party"
)

// Helper bundles the bookkeeping every round implementation needs and
// would otherwise duplicate: party-set accessors, the protocol's session
// hash, and the two ways of enqueueing an outgoing message. Round structs
// embed a *Helper and get Session's party/hash/ProtocolID/SSID methods for
// free.
type Helper struct {
	protocolID       string
	finalRoundNumber Number
	selfID           party.ID
	partyIDs         party.IDSlice
	ssid             []byte
	baseHash         *hash.Hash
	requiresConsensus bool
}

// WithConsensus marks this round's broadcast channel as requiring echo
// consensus (spec.md §6 REQUIRES_CONSENSUS) and returns the same Helper
// for chaining at construction time.
func (h *Helper) WithConsensus(required bool) *Helper {
	h.requiresConsensus = required
	return h
}

func (h *Helper) RequiresConsensus() bool { return h.requiresConsensus }

// NewHelper builds a Helper for a fresh protocol run. extras are arbitrary
// session-binding values (group, threshold, auxiliary public data, a
// caller-supplied session ID) chained into the SSID hash so that two runs
// with different parameters can never share a transcript.
func NewHelper(protocolID string, finalRoundNumber Number, selfID party.ID, partyIDs party.IDSlice, extras ...hash.Hashable) *Helper {
	h := hash.NewWithDST([]byte(protocolID))
	h.ChainBytes([]byte(selfID))
	for _, id := range partyIDs {
		h.ChainBytes([]byte(id))
	}
	h.ChainAll(extras...)
	ssid := h.FinalizeBoxed(256)

	return &Helper{
		protocolID:       protocolID,
		finalRoundNumber: finalRoundNumber,
		selfID:           selfID,
		partyIDs:         partyIDs,
		ssid:             ssid,
		baseHash:         hash.NewWithDST(ssid),
	}
}

func (h *Helper) SelfID() party.ID { return h.selfID }

func (h *Helper) PartyIDs() party.IDSlice { return h.partyIDs }

func (h *Helper) OtherPartyIDs() party.IDSlice {
	return h.partyIDs.Without(h.selfID)
}

func (h *Helper) N() int { return h.partyIDs.Len() }

func (h *Helper) ProtocolID() string { return h.protocolID }

func (h *Helper) SSID() []byte { return h.ssid }

func (h *Helper) FinalRoundNumber() Number { return h.finalRoundNumber }

// Hash returns a clone of the session's base transcript, pre-seeded with
// the SSID, ready for a round to chain its own round-specific values into
// before deriving a Fiat-Shamir challenge.
func (h *Helper) Hash() *hash.Hash {
	return h.baseHash.Clone()
}

// HashForID returns Hash() with id additionally chained in, the shape
// every per-party sigma-proof transcript in spec.md §4.6 uses so that a
// proof cannot be replayed under a different claimed prover identity.
func (h *Helper) HashForID(id party.ID) *hash.Hash {
	return h.Hash().ChainBytes([]byte(id))
}

// SendMessage enqueues a point-to-point message addressed to `to`.
func (h *Helper) SendMessage(out chan<- *Message, content Content, to party.ID) {
	out <- &Message{From: h.selfID, To: to, Content: content}
}

// BroadcastMessage enqueues a message addressed to every other party,
// marked for echo-broadcast consensus before any round may consume it.
func (h *Helper) BroadcastMessage(out chan<- *Message, content Content) {
	out <- &Message{From: h.selfID, To: "", Content: content, Broadcast: true}
}

// ResultOutput enqueues the protocol's final Output as a pseudo-message
// with no recipient; pkg/transport recognizes a nil Session return from
// Finalize alongside this message as the terminal state.
func (h *Helper) ResultOutput(out chan<- *Message, result interface{}) {
	out <- &Message{From: h.selfID, Content: &Output{Result: result}}
}

// RoundNumber lets Output satisfy Content so ResultOutput's pseudo-message
// routes the same way every other round content does.
func (o *Output) RoundNumber() Number { return 0 }
