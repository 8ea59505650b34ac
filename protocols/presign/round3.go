package presign

import (
	"io"
	"math/big"

	"github.com/mpc-go/threshold/pkg/curve"
	"github.com/mpc-go/threshold/pkg/keyshare"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/protocols/abort"
	"github.com/mpc-go/threshold/pkg/round"
	"github.com/mpc-go/threshold/pkg/zk/affg"
	"github.com/mpc-go/threshold/pkg/zk/logstar"
)

type round3 struct {
	*round.Helper
	rnd    io.Reader
	params *params.SchemeParams
	ks     *keyshare.KeyShare

	kScalar     curve.Scalar
	k           *big.Int
	kRand       *big.Int
	bigGamma    curve.Point
	deltaScalar curve.Scalar
	chiScalar   curve.Scalar
	peers       map[party.ID]*Round1Content
	mtaShares   map[party.ID]*Round2Share
	chiLegs     map[party.ID]*mtaLeg

	received map[party.ID]*Round3Content
}

func (r *round3) Number() round.Number { return 3 }

func (r *round3) MessageContent() round.Content { return &Round3Content{} }

func (r *round3) Init(out chan<- *round.Message) error {
	selfID := r.SelfID()
	ownPk := r.ks.Secret.Paillier.PublicKey()
	deltaPoint := r.kScalar.Act(r.bigGamma)

	logProofs := make(map[party.ID]*logstar.Proof, r.N()-1)
	for _, v := range r.OtherPartyIDs() {
		aux := r.ks.Public[v].Pedersen
		pf, err := logstar.Prove(r.rnd, r.params,
			&logstar.Private{X: r.k, Randomizer: r.kRand},
			&logstar.Public{C: r.peers[selfID].K, X: deltaPoint, Base: r.bigGamma, Pk: ownPk, Aux: aux},
			selfID, r.HashForID(selfID))
		if err != nil {
			return err
		}
		logProofs[v] = pf
	}

	content := &Round3Content{Delta: r.deltaScalar, DeltaPoint: deltaPoint, LogProofs: logProofs}
	r.received[selfID] = content
	r.BroadcastMessage(out, content)
	return nil
}

func (r *round3) VerifyMessage(msg round.Message) error {
	content, ok := msg.Content.(*Round3Content)
	if !ok {
		return round.ErrInvalidContent
	}
	if content.Delta == nil || content.DeltaPoint == nil {
		return round.ErrNilFields
	}

	selfID := r.SelfID()
	pf, ok := content.LogProofs[selfID]
	if !ok || pf == nil {
		return round.ErrNilFields
	}
	senderPk := r.ks.Public[msg.From].Paillier
	ownAux := r.ks.Public[selfID].Pedersen
	pub := &logstar.Public{
		C:    r.peers[msg.From].K,
		X:    content.DeltaPoint,
		Base: r.bigGamma,
		Pk:   senderPk,
		Aux:  ownAux,
	}
	if !pf.Verify(r.params, pub, msg.From, r.HashForID(msg.From)) {
		return &round.Abort{Err: ErrLogStarFailed3, Culprits: []party.ID{msg.From}}
	}
	return nil
}

func (r *round3) StoreMessage(msg round.Message) error {
	r.received[msg.From] = msg.Content.(*Round3Content)
	return nil
}

func (r *round3) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.params.Group
	selfID := r.SelfID()

	delta := group.NewScalar()
	bigDelta := group.NewPoint()
	for _, id := range r.PartyIDs() {
		c, ok := r.received[id]
		if !ok {
			return nil, round.ErrNilFields
		}
		delta = delta.Add(c.Delta)
		bigDelta = bigDelta.Add(c.DeltaPoint)
	}

	// g*delta = Delta is the aggregate consistency equation: it holds iff
	// every party's broadcast delta_i matches the k_i its Π^log* proof
	// committed it to. On failure, attribution needs the retained MtA
	// transcripts, not just the sums.
	if !delta.ActOnBase().Equal(bigDelta) {
		return nil, &round.Abort{
			Err:      ErrDeltaNotGDelta,
			Culprits: r.OtherPartyIDs(),
			Evidence: r.abortProof(),
		}
	}

	nonce := delta.Invert().Act(r.bigGamma)
	peerAux := make(map[party.ID]*PeerAux, r.N()-1)
	for _, id := range r.OtherPartyIDs() {
		leg := r.chiLegs[id]
		share := r.mtaShares[id]
		if leg == nil || share == nil {
			continue
		}
		peerAux[id] = &PeerAux{
			BetaHat: leg.beta,
			SHat:    leg.randD,
			RHat:    leg.randY,
			K:       r.peers[id].K,
			HatD:    share.DChi,
			HatY:    leg.y,
		}
	}
	r.ResultOutput(out, &PreSignature{
		ID:       selfID,
		R:        nonce,
		KShare:   r.kScalar,
		ChiShare: r.chiScalar,
		PeerAux:  peerAux,
	})
	return nil, nil
}

// abortProof packages the Π^aff-g transcripts retained from Round 2 into
// the correctness-proof bundle the transport distributes when the
// consistency equation fails. The Π^mul leg (reproving one's own
// gamma_i*k_i product) is typed but not yet populated; its verification
// path on the receiving side is likewise still open.
func (r *round3) abortProof() *abort.PresignProof {
	culprits := make(map[party.ID]*abort.CulpritEvidence, r.N()-1)
	for _, id := range r.OtherPartyIDs() {
		share := r.mtaShares[id]
		if share == nil {
			continue
		}
		culprits[id] = &abort.CulpritEvidence{
			AffG:    map[party.ID]*affg.Proof{r.SelfID(): share.ProofDelta},
			AffGHat: map[party.ID]*affg.Proof{r.SelfID(): share.ProofChi},
		}
	}
	return &abort.PresignProof{Accuser: r.SelfID(), Culprits: culprits}
}
