package keyrefresh

import (
	"fmt"
	"io"

	"github.com/mpc-go/threshold/pkg/curve"
	"github.com/mpc-go/threshold/pkg/hash"
	"github.com/mpc-go/threshold/pkg/keyshare"
	"github.com/mpc-go/threshold/pkg/paillier"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/pedersen"
	"github.com/mpc-go/threshold/pkg/protocols/elgamal"
	"github.com/mpc-go/threshold/pkg/round"
	"github.com/mpc-go/threshold/pkg/zk/prm"
	"github.com/mpc-go/threshold/pkg/zk/sch"
)

type round1 struct {
	*round.Helper
	rnd    io.Reader
	params *params.SchemeParams
	old    *keyshare.KeyShare

	paillierSecret *paillier.SecretKey
	pedersenSecret *pedersen.SecretParams
	elGamalSecrets map[party.ID]*elgamal.SecretKey
	shares         map[party.ID]curve.Scalar
	schProofs      map[party.ID]*sch.Proof
	content2       *Round2Content

	commitments map[party.ID][]byte
}

// Start returns the entry point to the key-refresh protocol for one
// party. old is the KeyShare being refreshed (keyshare.NewEmpty for a
// fresh distributed keygen).
func Start(rnd io.Reader, p *params.SchemeParams, selfID party.ID, parties party.IDSlice, old *keyshare.KeyShare) round.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if !parties.Contains(selfID) {
			return nil, fmt.Errorf("keyrefresh: self ID %q is not a member of the party set", selfID)
		}
		helper := round.NewHelper(ProtocolID, 3, selfID, parties, &idBytes{sessionID})
		return &round1{
			Helper:      helper,
			rnd:         rnd,
			params:      p,
			old:         old,
			commitments: make(map[party.ID][]byte, parties.Len()),
		}, nil
	}
}

// idBytes lets an arbitrary session ID byte string be chained into the
// SSID alongside the protocol ID and party set.
type idBytes struct{ b []byte }

func (i *idBytes) HashTo(h *hash.Hash) { h.ChainBytes(i.b) }

func (r *round1) Number() round.Number { return 1 }

// RequiresConsensus: the commitment hashes must be seen identically by
// every party before any reveal is accepted.
func (r *round1) RequiresConsensus() bool { return true }

func (r *round1) MessageContent() round.Content { return &Round1Content{} }

func (r *round1) Init(out chan<- *round.Message) error {
	group := r.params.Group

	paillierSecret, err := paillier.GenerateSecretKey(r.rnd, r.params)
	if err != nil {
		return fmt.Errorf("keyrefresh round 1: generating Paillier key: %w", err)
	}
	auxPrimes, err := paillier.GenerateSecretKey(r.rnd, r.params)
	if err != nil {
		return fmt.Errorf("keyrefresh round 1: generating ring-Pedersen primes: %w", err)
	}
	pHat, qHat := auxPrimes.P(), auxPrimes.Q()
	auxPrimes.Destroy()
	pedersenSecret, err := pedersen.Generate(r.rnd, r.params, pHat, qHat)
	if err != nil {
		return fmt.Errorf("keyrefresh round 1: generating ring-Pedersen setup: %w", err)
	}
	parties := r.PartyIDs()
	selfID := r.SelfID()

	// one ElGamal channel key per recipient: Y^i_j is used by party j, and
	// only party j, to deliver its Round-3 share contribution to us.
	elGamalSecrets := make(map[party.ID]*elgamal.SecretKey, parties.Len())
	elGamalKeys := make(map[party.ID]curve.Point, parties.Len())
	for _, id := range parties {
		sk, err := elgamal.GenerateSecretKey(r.rnd, group)
		if err != nil {
			return fmt.Errorf("keyrefresh round 1: generating ElGamal key: %w", err)
		}
		elGamalSecrets[id] = sk
		elGamalKeys[id] = sk.Pub.Y
	}

	shares := make(map[party.ID]curve.Scalar, parties.Len())
	xShares := make(map[party.ID]curve.Point, parties.Len())
	sum := group.NewScalar()
	for _, id := range parties[1:] {
		s, err := curve.RandomScalar(r.rnd, group)
		if err != nil {
			return err
		}
		shares[id] = s
		sum = sum.Add(s)
	}
	shares[parties[0]] = sum.Negate()
	for _, id := range parties {
		xShares[id] = shares[id].ActOnBase()
	}

	// one Schnorr commitment per correction share, opened in Round 3.
	schCommitments := make(map[party.ID]curve.Point, parties.Len())
	schProofs := make(map[party.ID]*sch.Proof, parties.Len())
	for _, id := range parties {
		c, err := sch.NewCommitment(r.rnd, group)
		if err != nil {
			return err
		}
		schCommitments[id] = c.A
		schProofs[id] = c.Finalize(group,
			&sch.Private{X: shares[id]},
			&sch.Public{X: xShares[id]},
			selfID, r.HashForID(selfID))
	}

	prmProof, err := prm.Prove(r.rnd, r.params,
		&prm.Private{Lambda: pedersenSecret.Lambda(), PhiNHat: pedersenSecret.PhiNHat()},
		&prm.Public{Setup: &pedersenSecret.Params},
		selfID, r.HashForID(selfID))
	if err != nil {
		return err
	}

	rid := make([]byte, 32)
	if _, err := io.ReadFull(r.rnd, rid); err != nil {
		return err
	}

	content2 := &Round2Content{
		Rid:                rid,
		XShares:            xShares,
		ElGamalKeys:        elGamalKeys,
		SchnorrCommitments: schCommitments,
		Paillier:           paillierSecret.PublicKey(),
		Pedersen:           &pedersenSecret.Params,
		Prm:                prmProof,
	}
	v := commitmentDigest(r.Hash(), parties, content2)

	r.paillierSecret = paillierSecret
	r.pedersenSecret = pedersenSecret
	r.elGamalSecrets = elGamalSecrets
	r.shares = shares
	r.schProofs = schProofs
	r.content2 = content2

	r.BroadcastMessage(out, &Round1Content{V: v})
	return nil
}

func (r *round1) VerifyMessage(msg round.Message) error {
	content, ok := msg.Content.(*Round1Content)
	if !ok {
		return round.ErrInvalidContent
	}
	if len(content.V) == 0 {
		return round.ErrNilFields
	}
	return nil
}

func (r *round1) StoreMessage(msg round.Message) error {
	content := msg.Content.(*Round1Content)
	r.commitments[msg.From] = content.V
	return nil
}

func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	received := make(map[party.ID]*Round2Content, r.N())
	received[r.SelfID()] = r.content2
	return &round2{
		Helper:         r.Helper,
		rnd:            r.rnd,
		params:         r.params,
		old:            r.old,
		paillierSecret: r.paillierSecret,
		pedersenSecret: r.pedersenSecret,
		elGamalSecrets: r.elGamalSecrets,
		shares:         r.shares,
		schProofs:      r.schProofs,
		content2:       r.content2,
		commitments:    r.commitments,
		received:       received,
	}, nil
}
