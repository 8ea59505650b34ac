package presign

import (
	"io"
	"math/big"

	"github.com/mpc-go/threshold/pkg/curve"
	"github.com/mpc-go/threshold/pkg/keyshare"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/round"
	"github.com/mpc-go/threshold/pkg/zk/enc"
	"github.com/mpc-go/threshold/pkg/zk/logstar"
)

type round1 struct {
	*round.Helper
	rnd    io.Reader
	params *params.SchemeParams
	ks     *keyshare.KeyShare

	kScalar, gammaScalar curve.Scalar
	k, gamma             *big.Int
	kRand, gammaRand     *big.Int
	content1             *Round1Content
	peers                map[party.ID]*Round1Content
}

func (r *round1) Number() round.Number { return 1 }

// RequiresConsensus: every party must agree on the set of broadcast
// (K, G, Gamma) tuples before the MtA round may consume them.
func (r *round1) RequiresConsensus() bool { return true }

func (r *round1) MessageContent() round.Content { return &Round1Content{} }

func (r *round1) Init(out chan<- *round.Message) error {
	group := r.params.Group
	selfID := r.SelfID()
	ownPk := r.ks.Secret.Paillier.PublicKey()

	kScalar, err := curve.RandomScalar(r.rnd, group)
	if err != nil {
		return err
	}
	gammaScalar, err := curve.RandomScalar(r.rnd, group)
	if err != nil {
		return err
	}
	k, gamma := kScalar.BigInt(), gammaScalar.BigInt()

	K, kRand, err := ownPk.Encrypt(r.rnd, k)
	if err != nil {
		return err
	}
	G, gammaRand, err := ownPk.Encrypt(r.rnd, gamma)
	if err != nil {
		return err
	}
	Gamma := gammaScalar.ActOnBase()

	encProofs := make(map[party.ID]*enc.Proof, r.N()-1)
	logStarProofs := make(map[party.ID]*logstar.Proof, r.N()-1)
	for _, v := range r.OtherPartyIDs() {
		aux := r.ks.Public[v].Pedersen
		encProof, err := enc.Prove(r.rnd, r.params,
			&enc.Private{K: k, Randomizer: kRand},
			&enc.Public{K: K, Pk: ownPk, Aux: aux}, selfID, r.HashForID(selfID))
		if err != nil {
			return err
		}
		encProofs[v] = encProof

		logStarProof, err := logstar.Prove(r.rnd, r.params,
			&logstar.Private{X: gamma, Randomizer: gammaRand},
			&logstar.Public{C: G, X: Gamma, Pk: ownPk, Aux: aux}, selfID, r.HashForID(selfID))
		if err != nil {
			return err
		}
		logStarProofs[v] = logStarProof
	}

	r.kScalar, r.gammaScalar = kScalar, gammaScalar
	r.k, r.gamma = k, gamma
	r.kRand, r.gammaRand = kRand, gammaRand
	r.content1 = &Round1Content{K: K, G: G, Gamma: Gamma, EncProofs: encProofs, LogStarProofs: logStarProofs}

	r.BroadcastMessage(out, r.content1)
	return nil
}

func (r *round1) VerifyMessage(msg round.Message) error {
	content, ok := msg.Content.(*Round1Content)
	if !ok {
		return round.ErrInvalidContent
	}
	if content.K == nil || content.G == nil || content.Gamma == nil {
		return round.ErrNilFields
	}
	selfID := r.SelfID()
	senderPk := r.ks.Public[msg.From].Paillier
	ownAux := r.ks.Public[selfID].Pedersen

	encProof, ok := content.EncProofs[selfID]
	if !ok || encProof == nil {
		return round.ErrNilFields
	}
	if !encProof.Verify(r.params, &enc.Public{K: content.K, Pk: senderPk, Aux: ownAux}, msg.From, r.HashForID(msg.From)) {
		return &round.Abort{Err: ErrEncFailed, Culprits: []party.ID{msg.From}}
	}

	logStarProof, ok := content.LogStarProofs[selfID]
	if !ok || logStarProof == nil {
		return round.ErrNilFields
	}
	if !logStarProof.Verify(r.params, &logstar.Public{C: content.G, X: content.Gamma, Pk: senderPk, Aux: ownAux}, msg.From, r.HashForID(msg.From)) {
		return &round.Abort{Err: ErrLogStarFailed, Culprits: []party.ID{msg.From}}
	}
	return nil
}

func (r *round1) StoreMessage(msg round.Message) error {
	if r.peers == nil {
		r.peers = make(map[party.ID]*Round1Content, r.N())
	}
	r.peers[msg.From] = msg.Content.(*Round1Content)
	return nil
}

func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	if r.peers == nil {
		r.peers = make(map[party.ID]*Round1Content, r.N())
	}
	r.peers[r.SelfID()] = r.content1
	return &round2{
		Helper: r.Helper,
		rnd:    r.rnd,
		params: r.params,
		ks:     r.ks,

		kScalar:     r.kScalar,
		gammaScalar: r.gammaScalar,
		k:           r.k,
		gamma:       r.gamma,
		kRand:       r.kRand,
		peers:       r.peers,
		shares:      make(map[party.ID]*Round2Share, r.N()-1),
		chiLegs:     make(map[party.ID]*mtaLeg, r.N()-1),

		alphaDelta: make(map[party.ID]*big.Int, r.N()-1),
		alphaChi:   make(map[party.ID]*big.Int, r.N()-1),
		betaDelta:  make(map[party.ID]*big.Int, r.N()-1),
		betaChi:    make(map[party.ID]*big.Int, r.N()-1),
	}, nil
}
