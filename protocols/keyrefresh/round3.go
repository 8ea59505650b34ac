package keyrefresh

import (
	"fmt"
	"io"

	"github.com/mpc-go/threshold/pkg/curve"
	"github.com/mpc-go/threshold/pkg/keyshare"
	"github.com/mpc-go/threshold/pkg/paillier"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/pedersen"
	"github.com/mpc-go/threshold/pkg/protocols/elgamal"
	"github.com/mpc-go/threshold/pkg/round"
	"github.com/mpc-go/threshold/pkg/zk/fac"
	"github.com/mpc-go/threshold/pkg/zk/mod"
	"github.com/mpc-go/threshold/pkg/zk/sch"
)

type round3 struct {
	*round.Helper
	rnd    io.Reader
	params *params.SchemeParams
	old    *keyshare.KeyShare

	paillierSecret *paillier.SecretKey
	pedersenSecret *pedersen.SecretParams
	elGamalSecrets map[party.ID]*elgamal.SecretKey
	shares         map[party.ID]curve.Scalar
	schProofs      map[party.ID]*sch.Proof
	ecdsaDelta     map[party.ID]curve.Point
	peers          map[party.ID]*Round2Content

	decrypted  map[party.ID]curve.Scalar
	broadcasts map[party.ID]*Round3Broadcast
}

func (r *round3) Number() round.Number { return 3 }

func (r *round3) MessageContent() round.Content { return &Round3Broadcast{} }

func (r *round3) Init(out chan<- *round.Message) error {
	selfID := r.SelfID()

	for _, j := range r.OtherPartyIDs() {
		// x^i_j travels under the channel key Y^j_i the recipient published
		// for us in Round 2.
		channelKey := r.peers[j].ElGamalKeys[selfID]
		ct, err := elgamal.Encrypt(r.rnd, r.params.Group, &elgamal.PublicKey{Y: channelKey}, r.shares[j])
		if err != nil {
			return fmt.Errorf("keyrefresh round 3: encrypting share for %q: %w", j, err)
		}
		r.SendMessage(out, &Round3Share{Share: ct}, j)
	}
	r.decrypted[selfID] = r.shares[selfID]

	ownN := r.paillierSecret.PublicKey().N()
	modProof, err := mod.Prove(r.rnd, r.params,
		&mod.Private{P: r.paillierSecret.P(), Q: r.paillierSecret.Q()},
		&mod.Public{N: ownN}, selfID, r.HashForID(selfID))
	if err != nil {
		return err
	}

	facProofs := make(map[party.ID]*fac.Proof, r.N()-1)
	for _, v := range r.OtherPartyIDs() {
		pf, err := fac.Prove(r.rnd, r.params,
			&fac.Private{P: r.paillierSecret.P(), Q: r.paillierSecret.Q()},
			&fac.Public{N: ownN, Aux: r.peers[v].Pedersen}, selfID, r.HashForID(selfID))
		if err != nil {
			return err
		}
		facProofs[v] = pf
	}

	content := &Round3Broadcast{
		ModProof:      modProof,
		FacProofs:     facProofs,
		SchnorrProofs: r.schProofs,
	}
	r.BroadcastMessage(out, content)
	r.broadcasts[selfID] = content
	return nil
}

func (r *round3) VerifyMessage(msg round.Message) error {
	selfID := r.SelfID()
	from := msg.From
	peer := r.peers[from]

	switch content := msg.Content.(type) {
	case *Round3Share:
		if content.Share == nil || content.Share.R == nil {
			return round.ErrNilFields
		}
		// the decrypted correction must open the public commitment
		// C = g*x^from_self the sender broadcast in Round 2.
		share := r.elGamalSecrets[from].Decrypt(r.params.Group, content.Share)
		if !share.ActOnBase().Equal(peer.XShares[selfID]) {
			return &round.Abort{Err: ErrShareMismatch, Culprits: []party.ID{from}}
		}
		return nil

	case *Round3Broadcast:
		if content.ModProof == nil || content.FacProofs == nil || content.SchnorrProofs == nil {
			return round.ErrNilFields
		}

		if !content.ModProof.Verify(r.params, &mod.Public{N: peer.Paillier.N()}, from, r.HashForID(from)) {
			return &round.Abort{Err: ErrModFailed, Culprits: []party.ID{from}}
		}

		pf, ok := content.FacProofs[selfID]
		if !ok {
			return round.ErrNilFields
		}
		if !pf.Verify(r.params, &fac.Public{N: peer.Paillier.N(), Aux: &r.pedersenSecret.Params}, from, r.HashForID(from)) {
			return &round.Abort{Err: ErrFacFailed, Culprits: []party.ID{from}}
		}

		parties := r.PartyIDs()
		if len(content.SchnorrProofs) != parties.Len() {
			return &round.Abort{Err: ErrWrongSchnorrProofIDs, Culprits: []party.ID{from}}
		}
		for _, j := range parties {
			schPf, ok := content.SchnorrProofs[j]
			if !ok || schPf == nil {
				return &round.Abort{Err: ErrWrongSchnorrProofIDs, Culprits: []party.ID{from}}
			}
			// each proof must open the exact commitment A^from_j from
			// Round 2, not a freshly chosen one.
			if !schPf.A.Equal(peer.SchnorrCommitments[j]) {
				return &round.Abort{Err: ErrSchFailed, Culprits: []party.ID{from}}
			}
			if !schPf.Verify(r.params.Group, &sch.Public{X: peer.XShares[j]}, from, r.HashForID(from)) {
				return &round.Abort{Err: ErrSchFailed, Culprits: []party.ID{from}}
			}
		}
		return nil

	default:
		return round.ErrInvalidContent
	}
}

func (r *round3) StoreMessage(msg round.Message) error {
	switch content := msg.Content.(type) {
	case *Round3Share:
		r.decrypted[msg.From] = r.elGamalSecrets[msg.From].Decrypt(r.params.Group, content.Share)
	case *Round3Broadcast:
		r.broadcasts[msg.From] = content
	}
	return nil
}

func (r *round3) Finalize(out chan<- *round.Message) (round.Session, error) {
	parties := r.PartyIDs()
	for _, id := range parties {
		if r.broadcasts[id] == nil {
			return nil, &round.Abort{Err: ErrWrongSchnorrProofIDs, Culprits: []party.ID{id}}
		}
		if _, ok := r.decrypted[id]; !ok {
			return nil, fmt.Errorf("keyrefresh round 3: missing share contribution from %q", id)
		}
	}

	delta := r.params.Group.NewScalar()
	for _, id := range parties {
		delta = delta.Add(r.decrypted[id])
	}

	newPublic := make(map[party.ID]*keyshare.PublicData, len(parties))
	for _, id := range parties {
		newPublic[id] = &keyshare.PublicData{
			Paillier: r.peers[id].Paillier,
			Pedersen: r.peers[id].Pedersen,
		}
	}
	change := &keyshare.Change{
		ECDSADelta:          r.ecdsaDelta,
		NewPublic:           newPublic,
		NewSecretECDSADelta: delta,
		NewSecretPaillier:   r.paillierSecret,
	}
	next, err := keyshare.Apply(r.old, change)
	if err != nil {
		return nil, err
	}

	// round ephemerals are spent: the ring-Pedersen trapdoor and the
	// ElGamal channel secrets must not outlive the run.
	r.pedersenSecret.Destroy()
	for _, sk := range r.elGamalSecrets {
		sk.Destroy()
	}

	r.ResultOutput(out, next)
	return nil, nil
}
