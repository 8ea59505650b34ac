// Package round defines the state-machine contract every protocol round
// implements: a Session advances by verifying and storing each peer's
// Content, then Finalize produces either the next Session or the final
// Output. pkg/transport drives this contract; protocols/{keyrefresh,
// presign,sign} implement it (spec.md §5's round-based state machines).
package round

import (
	"errors"

	"github.com/mpc-go/threshold/pkg/hash"
	"github.com/mpc-go/threshold/pkg/party"
)

// Number identifies a round within a protocol, starting at 1.
type Number int

// StartFunc creates a protocol's first round, binding it to a session ID
// unique to this run. pkg/transport drives whatever Session it returns to
// completion.
type StartFunc func(sessionID []byte) (Session, error)

// Content is a round's message payload, tagged with the round it belongs
// to so a driver can route a received message without out-of-band
// bookkeeping.
type Content interface {
	RoundNumber() Number
}

// NormalBroadcastContent is an empty marker embedded by the protocols'
// broadcast Content types. It adds no methods; whether a round's
// broadcasts are echo-checked is decided by Session.RequiresConsensus.
type NormalBroadcastContent struct{}

// Message is an in-flight protocol message: From is always populated, To
// is empty for a broadcast message, and Broadcast marks whether this
// message must additionally be echoed and consensus-checked before
// any round can use it (the "reliable broadcast" channel of spec.md §5).
type Message struct {
	From      party.ID
	To        party.ID
	Content   Content
	Broadcast bool
}

// IsFor reports whether this message should be accepted by id.
func (m *Message) IsFor(id party.ID) bool {
	return m.To == "" || m.To == id
}

// Session is the contract a single round of a protocol implements.
type Session interface {
	// Number returns this round's position in the protocol.
	Number() Number
	// SelfID returns the running party's own ID.
	SelfID() party.ID
	// PartyIDs returns every participating party, including self.
	PartyIDs() party.IDSlice
	// OtherPartyIDs returns every participant except self.
	OtherPartyIDs() party.IDSlice
	// N returns the number of participants.
	N() int
	// ProtocolID names the protocol (e.g. "cggmp21/keyrefresh").
	ProtocolID() string
	// SSID is the session identifier both binding this run to the exact
	// party set, protocol, and auxiliary data and domain-separating its
	// Fiat-Shamir transcripts from every other run.
	SSID() []byte
	// Hash returns a transcript hash pre-seeded with the SSID, cloned
	// fresh for every proof a round needs to construct or verify.
	Hash() *hash.Hash
	// FinalRoundNumber returns the last round number this protocol will
	// reach before producing its Output.
	FinalRoundNumber() Number
	// RequiresConsensus reports whether this round's broadcast messages
	// must be echo-confirmed identical across every party before Finalize
	// may run (spec.md §6's REQUIRES_CONSENSUS flag; enforced by
	// pkg/transport, not by the round itself).
	RequiresConsensus() bool
	// Init emits this round's own outgoing messages. Called exactly once,
	// immediately after the round becomes current (spec.md §2's "produce
	// outgoing" phase, run before any peer message is processed).
	Init(out chan<- *Message) error
	// VerifyMessage checks a received message's content (broadcast or
	// for internal validity, without yet storing it.
	VerifyMessage(msg Message) error
	// StoreMessage absorbs a verified message into the round's state.
	StoreMessage(msg Message) error
	// MessageContent returns a zero-value instance of the Content type
	// this round expects to receive, used by a driver to unmarshal
	// incoming wire messages into the right concrete type.
	MessageContent() Content
	// Finalize is called once every expected message has been verified
	// and stored; it returns the next round, or - on the final round -
	// delivers the protocol's Output over out and returns nil.
	Finalize(out chan<- *Message) (Session, error)
}

// Abort is returned (wrapped as the Session's result) when a round detects
// provable misbehavior; Culprits names the parties whose messages failed
// verification, and Err carries one of spec.md §7/§8's attributable
// evidence strings. Evidence, when non-nil, is a self-contained
// correctness-proof bundle (pkg/protocols/abort) a third party can verify
// without trusting the accuser.
type Abort struct {
	Err      error
	Culprits []party.ID
	Evidence interface{}
}

func (a *Abort) Error() string { return a.Err.Error() }

// Output wraps a protocol's final result (a KeyShare, PreSignature, or
// Signature, depending on which protocol produced it).
type Output struct {
	Result interface{}
}

// ErrInvalidContent is returned by VerifyMessage/StoreMessage when a
// message's Content has the wrong concrete type or structurally invalid
// fields - a local bug or a malicious peer, never a cryptographic failure.
var ErrInvalidContent = errors.New("round: message content has an unexpected type or shape")

// ErrNilFields is returned when a Content value has a required field left
// nil (e.g. a missing ciphertext or proof), which a driver should treat
// the same as a failed verification.
var ErrNilFields = errors.New("round: message content has a required field left nil")
