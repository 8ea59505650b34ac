package keyrefresh

import (
	"bytes"
	"io"

	"github.com/mpc-go/threshold/pkg/curve"
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

type round2 struct {
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
	received    map[party.ID]*Round2Content
}

func (r *round2) Number() round.Number { return 2 }

func (r *round2) RequiresConsensus() bool { return true }

func (r *round2) MessageContent() round.Content { return &Round2Content{} }

func (r *round2) Init(out chan<- *round.Message) error {
	r.BroadcastMessage(out, r.content2)
	return nil
}

// keyedByParties reports whether m is keyed by exactly the participant
// set: no missing and no extra IDs.
func keyedByParties(m map[party.ID]curve.Point, parties party.IDSlice) bool {
	if len(m) != parties.Len() {
		return false
	}
	for _, id := range parties {
		if _, ok := m[id]; !ok {
			return false
		}
	}
	return true
}

func (r *round2) VerifyMessage(msg round.Message) error {
	content, ok := msg.Content.(*Round2Content)
	if !ok {
		return round.ErrInvalidContent
	}
	if content.Paillier == nil || content.Pedersen == nil || content.Prm == nil {
		return round.ErrNilFields
	}
	from := msg.From
	parties := r.PartyIDs()

	// each check is its own attributable error class; checks a sender
	// could have honestly committed to in Round 1 run before the hash
	// comparison so they surface under their own description.
	if !keyedByParties(content.XShares, parties) {
		return &round.Abort{Err: ErrWrongPublicSharesIDs, Culprits: []party.ID{from}}
	}
	if !keyedByParties(content.ElGamalKeys, parties) {
		return &round.Abort{Err: ErrWrongElGamalIDs, Culprits: []party.ID{from}}
	}
	if !keyedByParties(content.SchnorrCommitments, parties) {
		return &round.Abort{Err: ErrWrongSchnorrCommitIDs, Culprits: []party.ID{from}}
	}
	sum := r.params.Group.NewPoint()
	for _, j := range parties {
		sum = sum.Add(content.XShares[j])
	}
	if !sum.IsIdentity() {
		return &round.Abort{Err: ErrSumNotZero, Culprits: []party.ID{from}}
	}
	if err := content.Paillier.ValidateN(r.params); err != nil {
		return &round.Abort{Err: err, Culprits: []party.ID{from}}
	}
	if err := pedersen.ValidateParameters(r.params, content.Pedersen.N(), content.Pedersen.S(), content.Pedersen.T()); err != nil {
		return &round.Abort{Err: err, Culprits: []party.ID{from}}
	}
	if !content.Prm.Verify(r.params, &prm.Public{Setup: content.Pedersen}, from, r.HashForID(from)) {
		return &round.Abort{Err: ErrPrmFailed, Culprits: []party.ID{from}}
	}

	v := commitmentDigest(r.Hash(), parties, content)
	if !bytes.Equal(v, r.commitments[from]) {
		return &round.Abort{Err: ErrCommitmentMismatch, Culprits: []party.ID{from}}
	}
	return nil
}

func (r *round2) StoreMessage(msg round.Message) error {
	r.received[msg.From] = msg.Content.(*Round2Content)
	return nil
}

func (r *round2) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.params.Group
	parties := r.PartyIDs()

	for _, id := range parties {
		if _, ok := r.received[id]; !ok {
			return nil, &round.Abort{Err: ErrWrongPublicSharesIDs, Culprits: []party.ID{id}}
		}
	}

	ecdsaDelta := make(map[party.ID]curve.Point, len(parties))
	for _, j := range parties {
		sum := group.NewPoint()
		for _, i := range parties {
			sum = sum.Add(r.received[i].XShares[j])
		}
		ecdsaDelta[j] = sum
	}

	return &round3{
		Helper:         r.Helper,
		rnd:            r.rnd,
		params:         r.params,
		old:            r.old,
		paillierSecret: r.paillierSecret,
		pedersenSecret: r.pedersenSecret,
		elGamalSecrets: r.elGamalSecrets,
		shares:         r.shares,
		schProofs:      r.schProofs,
		ecdsaDelta:     ecdsaDelta,
		peers:          r.received,
		decrypted:      make(map[party.ID]curve.Scalar, len(parties)),
		broadcasts:     make(map[party.ID]*Round3Broadcast, len(parties)),
	}, nil
}
