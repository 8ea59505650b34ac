package presign

import (
	"io"
	"math/big"

	"github.com/mpc-go/threshold/pkg/arith"
	"github.com/mpc-go/threshold/pkg/curve"
	"github.com/mpc-go/threshold/pkg/keyshare"
	"github.com/mpc-go/threshold/pkg/paillier"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/pedersen"
	"github.com/mpc-go/threshold/pkg/round"
	"github.com/mpc-go/threshold/pkg/zk/affg"
)

type round2 struct {
	*round.Helper
	rnd    io.Reader
	params *params.SchemeParams
	ks     *keyshare.KeyShare

	kScalar, gammaScalar curve.Scalar
	k, gamma             *big.Int
	kRand                *big.Int
	peers                map[party.ID]*Round1Content
	shares               map[party.ID]*Round2Share
	chiLegs              map[party.ID]*mtaLeg

	alphaDelta, alphaChi map[party.ID]*big.Int
	betaDelta, betaChi   map[party.ID]*big.Int
}

func (r *round2) Number() round.Number { return 2 }

func (r *round2) MessageContent() round.Content { return &Round2Share{} }

func (r *round2) Init(out chan<- *round.Message) error {
	selfID := r.SelfID()
	ownPk := r.ks.Secret.Paillier.PublicKey()
	ownX := r.ks.Secret.ECDSA.BigInt()
	ownXPublic := r.ks.Public[selfID].ECDSA
	ownGamma := r.peers[selfID].Gamma

	for _, j := range r.OtherPartyIDs() {
		peerK := r.peers[j].K
		peerPk := r.ks.Public[j].Paillier
		peerAux := r.ks.Public[j].Pedersen

		deltaLeg, err := r.mtaProve(ownPk, peerK, peerPk, peerAux, r.gamma, ownGamma, selfID)
		if err != nil {
			return err
		}
		r.betaDelta[j] = new(big.Int).Neg(deltaLeg.beta)

		chiLeg, err := r.mtaProve(ownPk, peerK, peerPk, peerAux, ownX, ownXPublic, selfID)
		if err != nil {
			return err
		}
		r.betaChi[j] = new(big.Int).Neg(chiLeg.beta)
		r.chiLegs[j] = chiLeg

		r.SendMessage(out, &Round2Share{
			DDelta: deltaLeg.d, YDelta: deltaLeg.y, ProofDelta: deltaLeg.proof,
			DChi: chiLeg.d, YChi: chiLeg.y, ProofChi: chiLeg.proof,
		}, j)
	}
	return nil
}

// mtaLeg is everything one MtA exchange produces on the prover side: the
// two ciphertexts and proof that go on the wire, plus the masking noise
// and randomizers retained for the signing round's abort evidence.
type mtaLeg struct {
	d, y         *paillier.Ciphertext
	proof        *affg.Proof
	beta         *big.Int
	randD, randY *big.Int
}

// mtaProve builds one MtA leg: D = peerK^multiplier * Enc_peer(beta),
// Y = Enc_own(multiplier), and the Π^aff-g proof tying them together
// against the public commitment bigy = multiplier*G. The caller's own
// additive share of multiplier*peerK's plaintext is -beta.
func (r *round2) mtaProve(ownPk *paillier.PublicKey, peerK *paillier.Ciphertext, peerPk *paillier.PublicKey, peerAux *pedersen.Params, multiplier *big.Int, bigy curve.Point, selfID party.ID) (*mtaLeg, error) {
	beta, err := arith.SampleSigned(r.rnd, r.params.LPrimeBound)
	if err != nil {
		return nil, err
	}
	randD, err := arith.RandomNonZeroMod(r.rnd, peerPk.NMod())
	if err != nil {
		return nil, err
	}
	randY, err := arith.RandomNonZeroMod(r.rnd, ownPk.NMod())
	if err != nil {
		return nil, err
	}

	d, err := peerK.MulScalarThenEncrypt(multiplier, beta.Big(), randD.Big())
	if err != nil {
		return nil, err
	}
	y, err := ownPk.EncryptWithRandomizer(multiplier, randY.Big())
	if err != nil {
		return nil, err
	}

	proof, err := affg.Prove(r.rnd, r.params,
		&affg.Private{Y: multiplier, Z: beta.Big(), RandomizerD: randD.Big(), RandomizerY: randY.Big()},
		&affg.Public{C: peerK, D: d, Y: y, Bigy: bigy, Pk0: peerPk, Pk1: ownPk, Aux: peerAux},
		selfID, r.HashForID(selfID))
	if err != nil {
		return nil, err
	}

	return &mtaLeg{d: d, y: y, proof: proof, beta: beta.Big(), randD: randD.Big(), randY: randY.Big()}, nil
}

func (r *round2) VerifyMessage(msg round.Message) error {
	content, ok := msg.Content.(*Round2Share)
	if !ok {
		return round.ErrInvalidContent
	}
	if content.DDelta == nil || content.YDelta == nil || content.ProofDelta == nil ||
		content.DChi == nil || content.YChi == nil || content.ProofChi == nil {
		return round.ErrNilFields
	}

	selfID := r.SelfID()
	ownPk := r.ks.Secret.Paillier.PublicKey()
	ownAux := r.ks.Public[selfID].Pedersen
	ownK := r.peers[selfID].K
	senderPk := r.ks.Public[msg.From].Paillier

	deltaPub := &affg.Public{C: ownK, D: content.DDelta, Y: content.YDelta,
		Bigy: r.peers[msg.From].Gamma, Pk0: ownPk, Pk1: senderPk, Aux: ownAux}
	if !content.ProofDelta.Verify(r.params, deltaPub, msg.From, r.HashForID(msg.From)) {
		return &round.Abort{Err: ErrAffGFailed, Culprits: []party.ID{msg.From}}
	}

	chiPub := &affg.Public{C: ownK, D: content.DChi, Y: content.YChi,
		Bigy: r.ks.Public[msg.From].ECDSA, Pk0: ownPk, Pk1: senderPk, Aux: ownAux}
	if !content.ProofChi.Verify(r.params, chiPub, msg.From, r.HashForID(msg.From)) {
		return &round.Abort{Err: ErrAffGFailed, Culprits: []party.ID{msg.From}}
	}
	return nil
}

func (r *round2) StoreMessage(msg round.Message) error {
	content := msg.Content.(*Round2Share)
	ownSk := r.ks.Secret.Paillier

	// the decrypted cross terms are bounded by max(2l, l') + 1 bits for
	// any honest sender; anything larger would let a malicious peer shift
	// our delta/chi shares outside the range the proofs assume.
	alphaBound := 2 * r.params.LBound
	if r.params.LPrimeBound > alphaBound {
		alphaBound = r.params.LPrimeBound
	}
	alphaBound++

	alphaDelta, err := ownSk.DecryptSigned(content.DDelta)
	if err != nil {
		return err
	}
	alphaChi, err := ownSk.DecryptSigned(content.DChi)
	if err != nil {
		return err
	}
	if !alphaDelta.IsInRange(alphaBound) || !alphaChi.IsInRange(alphaBound) {
		return &round.Abort{Err: ErrAffGFailed, Culprits: []party.ID{msg.From}}
	}
	r.alphaDelta[msg.From] = alphaDelta.Big()
	r.alphaChi[msg.From] = alphaChi.Big()
	r.shares[msg.From] = content // retained as evidence for a possible proof-of-abort
	return nil
}

func (r *round2) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.params.Group

	deltaBig := new(big.Int).Mul(r.gamma, r.k)
	chiBig := new(big.Int).Mul(r.ks.Secret.ECDSA.BigInt(), r.k)
	for _, id := range r.OtherPartyIDs() {
		deltaBig.Add(deltaBig, r.alphaDelta[id])
		deltaBig.Add(deltaBig, r.betaDelta[id])
		chiBig.Add(chiBig, r.alphaChi[id])
		chiBig.Add(chiBig, r.betaChi[id])
	}

	// Gamma = Σⱼ Γⱼ fixes the base point against which every party's
	// Delta_i = k_i * Gamma is published and proven in round 3.
	bigGamma := group.NewPoint()
	for _, id := range r.PartyIDs() {
		bigGamma = bigGamma.Add(r.peers[id].Gamma)
	}

	return &round3{
		Helper: r.Helper,
		rnd:    r.rnd,
		params: r.params,
		ks:     r.ks,

		kScalar:     r.kScalar,
		k:           r.k,
		kRand:       r.kRand,
		bigGamma:    bigGamma,
		deltaScalar: group.NewScalar().SetNat(deltaBig),
		chiScalar:   group.NewScalar().SetNat(chiBig),
		peers:       r.peers,
		mtaShares:   r.shares,
		chiLegs:     r.chiLegs,

		received: make(map[party.ID]*Round3Content, r.N()),
	}, nil
}
