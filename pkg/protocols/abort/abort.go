// Package abort holds the attributable "proof of abort" bundles spec.md
// §4.8/§4.9 describe only as "construct the full correctness-proof
// bundle": when pre-signing Round 3's consistency check g*δ = Δ fails, or
// the assembled signature in the signing combine doesn't verify, the
// round that detected the failure builds one of these so any third party
// - not just the accuser - can confirm which participant's contribution
// was inconsistent (spec.md §7 class 4, "Abort with correctness proof").
//
// The shape follows original_source/ (fjarri/synedrion)'s
// presigning.rs, which keeps one evidence bundle per accused party rather
// than a single flat proof: a culprit's MtA cross-terms are opened via
// Π^aff-g, the γ*k product via Π^mul, and the final partial share via
// Π^dec.
package abort

import (
	"github.com/mpc-go/threshold/pkg/curve"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/zk/affg"
	"github.com/mpc-go/threshold/pkg/zk/dec"
	"github.com/mpc-go/threshold/pkg/zk/mul"
	"github.com/mpc-go/threshold/pkg/zk/mulstar"
)

// PresignProof is the evidence bundle produced when pre-signing Round 3's
// g*δ = Δ check fails. Accuser names the party whose Finalize detected the
// mismatch; Culprits maps every OTHER party to the opened MtA proofs that
// let a verifier re-derive that party's δ contribution and catch which one
// is wrong.
type PresignProof struct {
	Accuser  party.ID
	Culprits map[party.ID]*CulpritEvidence
}

// CulpritEvidence opens one party's MtA cross-terms (the affine relation
// between its k/γ ciphertexts and the D/D-hat values it sent every peer)
// and the γ*k product ciphertext, so a verifier can recompute δ/Δ
// independently of the accused party's cooperation.
type CulpritEvidence struct {
	AffG  map[party.ID]*affg.Proof // keyed by the peer this MtA was run with
	AffGHat map[party.ID]*affg.Proof
	Mul   *mul.Proof
}

// SignProof is the evidence bundle produced when the signing combine's
// assembled (r, s) fails to verify: the broadcast partial shares are
// replayed so any third party can re-run the combine, and each party's
// share s_i is opened via Π^dec (or Π^mul* when offset by a public affine
// shift), proving what s_i actually decrypts to versus what was broadcast.
type SignProof struct {
	Accuser  party.ID
	Sigmas   map[party.ID]curve.Scalar
	Culprits map[party.ID]*SignCulpritEvidence
}

// SignCulpritEvidence carries whichever opening proof applies to how this
// party's partial signature was computed: Dec when s_i is a bare
// decryption, MulStar when it additionally involves a committed scalar
// multiplication.
type SignCulpritEvidence struct {
	Dec     *dec.Proof
	MulStar *mulstar.Proof
}
