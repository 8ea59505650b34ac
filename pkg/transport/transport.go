// Package transport is the minimal loopback driver satisfying spec.md
// §6's "Collaborator contracts" for the out-of-scope transport layer: it
// delivers exactly one message of each kind per (round, sender,
// recipient), tracks echo-broadcast consensus for rounds that declare
// RequiresConsensus, and surfaces provable errors as (party, evidence) and
// unprovable ones as (party, error). It runs every participant in one
// process, in lockstep, which is sufficient to exercise the engine
// end-to-end (tests, the demo CLI) but is explicitly not a production
// transport: no retries, no persistence, no network I/O (SPEC_FULL.md §4).
package transport

import (
	"bytes"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/round"
)

// Error pairs a participant with why its contribution could not be
// accepted - either a provable round.Abort or an opaque local error
// (spec.md §7's two attributable error classes).
type Error struct {
	Party party.ID
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("party %q: %v", e.Party, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Mangle intercepts an outgoing message before delivery. Returning nil
// drops the message; returning a modified copy simulates a corrupting or
// equivocating sender. Used by misbehavior tests to exercise the
// attributable-evidence paths without patching any round's honest code.
type Mangle func(m *round.Message) *round.Message

// Run drives every participant's round.StartFunc to completion in
// lockstep and returns each party's final Output.Result. sessionID must be
// identical across all starts (it binds every party to the same SSID).
func Run(sessionID []byte, starts map[party.ID]round.StartFunc) (map[party.ID]interface{}, error) {
	return RunWithMangle(sessionID, starts, nil)
}

// RunWithMangle is Run with a message interceptor applied to every
// outgoing message.
func RunWithMangle(sessionID []byte, starts map[party.ID]round.StartFunc, mangle Mangle) (map[party.ID]interface{}, error) {
	sessions := make(map[party.ID]round.Session, len(starts))
	for id, start := range starts {
		s, err := start(sessionID)
		if err != nil {
			return nil, &Error{Party: id, Err: err}
		}
		sessions[id] = s
	}

	results := make(map[party.ID]interface{}, len(sessions))

	for len(results) < len(sessions) {
		outgoing := make(map[party.ID][]*round.Message)
		consensusRequired := make(map[party.ID]bool)

		for id, s := range sessions {
			if s == nil {
				continue
			}
			consensusRequired[id] = s.RequiresConsensus()
			ch := make(chan *round.Message, 2*s.N()+1)
			if err := s.Init(ch); err != nil {
				return nil, &Error{Party: id, Err: err}
			}
			close(ch)
			for m := range ch {
				if mangle != nil {
					m = mangle(m)
					if m == nil {
						continue
					}
				}
				outgoing[id] = append(outgoing[id], m)
			}
		}

		if err := checkEchoConsensus(outgoing, consensusRequired); err != nil {
			return nil, err
		}

		for recipient, s := range sessions {
			if s == nil {
				continue
			}
			var inbox []round.Message
			for sender, msgs := range outgoing {
				if sender == recipient {
					continue // a round stores its own contribution directly in Init
				}
				for _, m := range msgs {
					if !m.IsFor(recipient) {
						continue
					}
					inbox = append(inbox, round.Message{From: sender, To: m.To, Content: m.Content, Broadcast: m.Broadcast})
				}
			}

			// verification is order-independent across peers and shares no
			// mutable state, so the per-peer sigma-proof checks fan out;
			// stores run serially afterwards.
			var g errgroup.Group
			for _, m := range inbox {
				m := m
				g.Go(func() error {
					if err := s.VerifyMessage(m); err != nil {
						return &Error{Party: m.From, Err: err}
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return nil, err
			}
			for _, m := range inbox {
				if err := s.StoreMessage(m); err != nil {
					return nil, &Error{Party: m.From, Err: err}
				}
			}
		}

		for id, s := range sessions {
			if s == nil {
				continue
			}
			ch := make(chan *round.Message, 2*s.N()+1)
			next, err := s.Finalize(ch)
			if err != nil {
				return nil, &Error{Party: id, Err: err}
			}
			close(ch)
			for m := range ch {
				if out, ok := m.Content.(*round.Output); ok {
					results[id] = out.Result
				}
			}
			sessions[id] = next
		}
	}

	return results, nil
}

// checkEchoConsensus verifies that every broadcast message a sender
// produced is byte-for-byte the one every recipient would see - the
// property spec.md §5's "echo-broadcast consensus" exists to guarantee
// against an equivocating sender. In this single-process loopback every
// recipient is handed the identical *round.Message value, so the check is
// structural rather than cryptographic; a networked transport would
// instead compare hashes received independently from every peer.
func checkEchoConsensus(outgoing map[party.ID][]*round.Message, required map[party.ID]bool) error {
	for sender, msgs := range outgoing {
		if !required[sender] {
			continue
		}
		seen := map[round.Number][]byte{}
		for _, m := range msgs {
			if !m.Broadcast {
				continue
			}
			h, ok := m.Content.(interface{ EchoDigest() []byte })
			if !ok {
				continue
			}
			digest := h.EchoDigest()
			if prev, ok := seen[m.Content.RoundNumber()]; ok && !bytes.Equal(prev, digest) {
				return &Error{Party: sender, Err: fmt.Errorf("round %d: broadcast content diverged across recipients", m.Content.RoundNumber())}
			}
			seen[m.Content.RoundNumber()] = digest
		}
	}
	return nil
}
