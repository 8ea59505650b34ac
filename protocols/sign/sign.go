// Package sign implements spec.md §4.9's signing combine: given a
// finished PreSignature and a message hash, every party broadcasts one
// scalar and the group assembles a standard, recoverable ECDSA signature.
// All the expensive interaction already happened in presigning; this is
// the single cheap round per message.
package sign

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/mpc-go/threshold/pkg/curve"
	"github.com/mpc-go/threshold/pkg/keyshare"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/protocols/abort"
	"github.com/mpc-go/threshold/pkg/round"
	"github.com/mpc-go/threshold/protocols/presign"
)

const ProtocolID = "cggmp21/sign"

// Round1Content is a party's partial signature share
// sigma_i = k_i*m + r*chi_i.
type Round1Content struct {
	round.NormalBroadcastContent
	Sigma curve.Scalar
}

func (*Round1Content) RoundNumber() round.Number { return 1 }

var ErrSignatureInvalid = errors.New("Round 1: assembled signature failed to verify.")

// Start returns the entry point to the signing combine for one party.
// messageHash is the already-hashed message (any length; it is reduced
// into the scalar field exactly the way a single-party ECDSA signer
// would truncate it).
func Start(rnd io.Reader, p *params.SchemeParams, selfID party.ID, parties party.IDSlice, ks *keyshare.KeyShare, presig *presign.PreSignature, messageHash []byte) round.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if !parties.Contains(selfID) {
			return nil, fmt.Errorf("sign: self ID %q is not a member of the party set", selfID)
		}
		if err := ks.Validate(); err != nil {
			return nil, fmt.Errorf("sign: invalid key share: %w", err)
		}
		if presig == nil || presig.R == nil || presig.KShare == nil || presig.ChiShare == nil {
			return nil, errors.New("sign: incomplete presignature")
		}
		if presig.ID != selfID {
			return nil, fmt.Errorf("sign: presignature belongs to %q, not %q", presig.ID, selfID)
		}
		// keep the leftmost order-bit-length bits of the hash, as ECDSA does
		e := new(big.Int).SetBytes(messageHash)
		if excess := len(messageHash)*8 - p.Group.Order().BitLen(); excess > 0 {
			e.Rsh(e, uint(excess))
		}
		helper := round.NewHelper(ProtocolID, 1, selfID, parties, ks.VerifyingKey(), presig.R)
		return &round1{
			Helper:   helper,
			rnd:      rnd,
			params:   p,
			ks:       ks,
			presig:   presig,
			mHash:    p.Group.NewScalar().SetNat(e),
			received: make(map[party.ID]curve.Scalar, parties.Len()),
		}, nil
	}
}

type round1 struct {
	*round.Helper
	rnd    io.Reader
	params *params.SchemeParams
	ks     *keyshare.KeyShare
	presig *presign.PreSignature
	mHash  curve.Scalar

	received map[party.ID]curve.Scalar
}

func (r *round1) Number() round.Number { return 1 }

func (r *round1) MessageContent() round.Content { return &Round1Content{} }

func (r *round1) Init(out chan<- *round.Message) error {
	rScalar := (&curve.Signature{R: r.presig.R}).RScalar(r.params.Group)
	sigma := r.presig.KShare.Mul(r.mHash).Add(rScalar.Mul(r.presig.ChiShare))
	r.received[r.SelfID()] = sigma
	r.BroadcastMessage(out, &Round1Content{Sigma: sigma})
	return nil
}

func (r *round1) VerifyMessage(msg round.Message) error {
	content, ok := msg.Content.(*Round1Content)
	if !ok {
		return round.ErrInvalidContent
	}
	if content.Sigma == nil {
		return round.ErrNilFields
	}
	return nil
}

func (r *round1) StoreMessage(msg round.Message) error {
	r.received[msg.From] = msg.Content.(*Round1Content).Sigma
	return nil
}

func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.params.Group

	s := group.NewScalar()
	for _, id := range r.PartyIDs() {
		sigma, ok := r.received[id]
		if !ok {
			return nil, round.ErrNilFields
		}
		s = s.Add(sigma)
	}

	sig := &curve.Signature{R: r.presig.R, S: s}
	if r.params.NormalizeS {
		sig = sig.Normalize(group)
	}

	if !sig.Verify(group, r.ks.VerifyingKey(), r.mHash) {
		return nil, &round.Abort{
			Err:      ErrSignatureInvalid,
			Culprits: r.OtherPartyIDs(),
			Evidence: r.abortProof(),
		}
	}

	r.ResultOutput(out, sig)
	return nil, nil
}

// abortProof replays the broadcast partial shares so a third party can
// re-run the combine. The per-culprit Π^dec/Π^mul* openings over the
// retained MtA auxiliaries are typed (abort.SignCulpritEvidence) but not
// yet produced here; the receiving-side verification of such bundles is
// likewise still open.
func (r *round1) abortProof() *abort.SignProof {
	sigmas := make(map[party.ID]curve.Scalar, len(r.received))
	for id, sigma := range r.received {
		sigmas[id] = sigma
	}
	return &abort.SignProof{
		Accuser:  r.SelfID(),
		Sigmas:   sigmas,
		Culprits: make(map[party.ID]*abort.SignCulpritEvidence),
	}
}
