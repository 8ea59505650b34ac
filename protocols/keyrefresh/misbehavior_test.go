package keyrefresh_test

import (
	"crypto/rand"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpc-go/threshold/pkg/curve"
	"github.com/mpc-go/threshold/pkg/hash"
	"github.com/mpc-go/threshold/pkg/keyshare"
	"github.com/mpc-go/threshold/pkg/paillier"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/pedersen"
	"github.com/mpc-go/threshold/pkg/protocols/elgamal"
	"github.com/mpc-go/threshold/pkg/round"
	"github.com/mpc-go/threshold/pkg/transport"
	"github.com/mpc-go/threshold/pkg/zk/fac"
	"github.com/mpc-go/threshold/pkg/zk/mod"
	"github.com/mpc-go/threshold/pkg/zk/prm"
	"github.com/mpc-go/threshold/pkg/zk/sch"
	"github.com/mpc-go/threshold/protocols/keyrefresh"
)

// runMangled runs a 3-party refresh-from-empty with the given message
// interceptor and returns the resulting error.
func runMangled(t *testing.T, mangle transport.Mangle) error {
	t.Helper()
	p := params.Test()
	parties := testParties(3)
	starts := make(map[party.ID]round.StartFunc, len(parties))
	for _, id := range parties {
		starts[id] = keyrefresh.Start(rand.Reader, p, id, parties, keyshare.NewEmpty(p.Group, id, parties))
	}
	_, err := transport.RunWithMangle([]byte("misbehavior-session"), starts, mangle)
	return err
}

// requireEvidence asserts that err attributes the exact canonical
// description to the exact culprit.
func requireEvidence(t *testing.T, err error, culprit party.ID, description string) {
	t.Helper()
	require.Error(t, err)

	var te *transport.Error
	require.True(t, errors.As(err, &te), "error must carry the misbehaving party")
	require.Equal(t, culprit, te.Party)

	var abort *round.Abort
	require.True(t, errors.As(te.Err, &abort), "error must be a provable abort")
	require.Equal(t, description, abort.Err.Error())
	require.Equal(t, []party.ID{culprit}, abort.Culprits)
}

// mangleRound2 returns a Mangle that rewrites the culprit's Round2Content
// through edit. The content is shallow-copied so the culprit's own stored
// state stays honest, mirroring a sender that equivocates on the wire.
func mangleRound2(culprit party.ID, edit func(c *keyrefresh.Round2Content)) transport.Mangle {
	return func(m *round.Message) *round.Message {
		c, ok := m.Content.(*keyrefresh.Round2Content)
		if !ok || m.From != culprit {
			return m
		}
		bad := *c
		edit(&bad)
		return &round.Message{From: m.From, To: m.To, Content: &bad, Broadcast: m.Broadcast}
	}
}

func withoutEntry(m map[party.ID]curve.Point, drop party.ID) map[party.ID]curve.Point {
	out := make(map[party.ID]curve.Point, len(m))
	for id, pt := range m {
		if id != drop {
			out[id] = pt
		}
	}
	return out
}

func TestEvidenceBadRound1Hash(t *testing.T) {
	culprit := party.ID("A")
	err := runMangled(t, func(m *round.Message) *round.Message {
		if _, ok := m.Content.(*keyrefresh.Round1Content); !ok || m.From != culprit {
			return m
		}
		bad := keyrefresh.Round1Content{V: hash.NewWithDST([]byte("bad hash")).FinalizeBoxed(256)}
		return &round.Message{From: m.From, To: m.To, Content: &bad, Broadcast: m.Broadcast}
	})
	requireEvidence(t, err, culprit,
		"Round 2: the previously sent hash does not match the public data.")
}

func TestEvidenceDroppedPublicShare(t *testing.T) {
	culprit := party.ID("B")
	err := runMangled(t, mangleRound2(culprit, func(c *keyrefresh.Round2Content) {
		c.XShares = withoutEntry(c.XShares, party.ID("A"))
	}))
	requireEvidence(t, err, culprit, "Round 2: wrong IDs in public shares map.")
}

func TestEvidenceDroppedElGamalKey(t *testing.T) {
	culprit := party.ID("B")
	err := runMangled(t, mangleRound2(culprit, func(c *keyrefresh.Round2Content) {
		c.ElGamalKeys = withoutEntry(c.ElGamalKeys, party.ID("C"))
	}))
	requireEvidence(t, err, culprit, "Round 2: wrong IDs in Elgamal keys map.")
}

func TestEvidenceDroppedSchnorrCommitment(t *testing.T) {
	culprit := party.ID("A")
	err := runMangled(t, mangleRound2(culprit, func(c *keyrefresh.Round2Content) {
		c.SchnorrCommitments = withoutEntry(c.SchnorrCommitments, party.ID("B"))
	}))
	requireEvidence(t, err, culprit, "Round 2: wrong IDs in Schnorr commitments map.")
}

func TestEvidenceSmallPaillierModulus(t *testing.T) {
	p := params.Test()
	halved := *p
	halved.PrimeBits = p.PrimeBits / 2
	smallKey, err := paillier.GenerateSecretKey(rand.Reader, &halved)
	require.NoError(t, err)

	culprit := party.ID("C")
	runErr := runMangled(t, mangleRound2(culprit, func(c *keyrefresh.Round2Content) {
		c.Paillier = smallKey.PublicKey()
	}))
	requireEvidence(t, runErr, culprit, "Round 2: Paillier modulus is too small.")
}

func TestEvidenceSmallPedersenModulus(t *testing.T) {
	p := params.Test()
	halved := *p
	halved.PrimeBits = p.PrimeBits / 2
	smallPrimes, err := paillier.GenerateSecretKey(rand.Reader, &halved)
	require.NoError(t, err)
	smallSetup, err := pedersen.Generate(rand.Reader, &halved, smallPrimes.P(), smallPrimes.Q())
	require.NoError(t, err)

	culprit := party.ID("A")
	runErr := runMangled(t, mangleRound2(culprit, func(c *keyrefresh.Round2Content) {
		c.Pedersen = &smallSetup.Params
	}))
	requireEvidence(t, runErr, culprit, "Round 2: ring-Pedersen modulus is too small.")
}

func TestEvidenceForeignPrmProof(t *testing.T) {
	p := params.Test()
	primes, err := paillier.GenerateSecretKey(rand.Reader, p)
	require.NoError(t, err)
	foreignSetup, err := pedersen.Generate(rand.Reader, p, primes.P(), primes.Q())
	require.NoError(t, err)

	culprit := party.ID("B")
	foreignProof, err := prm.Prove(rand.Reader, p,
		&prm.Private{Lambda: foreignSetup.Lambda(), PhiNHat: foreignSetup.PhiNHat()},
		&prm.Public{Setup: &foreignSetup.Params}, culprit, hash.NewWithDST([]byte("foreign")))
	require.NoError(t, err)

	runErr := runMangled(t, mangleRound2(culprit, func(c *keyrefresh.Round2Content) {
		c.Prm = foreignProof
	}))
	requireEvidence(t, runErr, culprit, "Round 2: Π^prm verification failed.")
}

// TestEvidenceCorruptedShare corrupts one point-to-point Round-3 share:
// only the sole recipient can detect it, and it must pin the sender.
func TestEvidenceCorruptedShare(t *testing.T) {
	culprit := party.ID("A")
	err := runMangled(t, func(m *round.Message) *round.Message {
		c, ok := m.Content.(*keyrefresh.Round3Share)
		if !ok || m.From != culprit || m.To != party.ID("B") {
			return m
		}
		mask := append([]byte(nil), c.Share.Mask...)
		mask[0] ^= 0x01
		bad := keyrefresh.Round3Share{Share: &elgamal.Ciphertext{R: c.Share.R, Mask: mask}}
		return &round.Message{From: m.From, To: m.To, Content: &bad, Broadcast: m.Broadcast}
	})
	requireEvidence(t, err, culprit,
		"Round 3: secret share change does not match the public commitment.")
}

// mangleRound3 is mangleRound2's sibling for the Round-3 broadcast.
func mangleRound3(culprit party.ID, edit func(c *keyrefresh.Round3Broadcast)) transport.Mangle {
	return func(m *round.Message) *round.Message {
		c, ok := m.Content.(*keyrefresh.Round3Broadcast)
		if !ok || m.From != culprit {
			return m
		}
		bad := *c
		edit(&bad)
		return &round.Message{From: m.From, To: m.To, Content: &bad, Broadcast: m.Broadcast}
	}
}

func TestEvidenceShareSumNotZero(t *testing.T) {
	shift := params.Test().Group.NewScalar().SetNat(big.NewInt(1)).ActOnBase()
	culprit := party.ID("C")
	err := runMangled(t, mangleRound2(culprit, func(c *keyrefresh.Round2Content) {
		shares := make(map[party.ID]curve.Point, len(c.XShares))
		for id, pt := range c.XShares {
			shares[id] = pt
		}
		shares[party.ID("A")] = shares[party.ID("A")].Add(shift)
		c.XShares = shares
	}))
	requireEvidence(t, err, culprit, "Round 2: sum of share changes is not zero.")
}

func TestEvidenceForeignFacProof(t *testing.T) {
	p := params.Test()
	foreignKey, err := paillier.GenerateSecretKey(rand.Reader, p)
	require.NoError(t, err)
	primes, err := paillier.GenerateSecretKey(rand.Reader, p)
	require.NoError(t, err)
	foreignSetup, err := pedersen.Generate(rand.Reader, p, primes.P(), primes.Q())
	require.NoError(t, err)

	culprit := party.ID("A")
	foreignProof, err := fac.Prove(rand.Reader, p,
		&fac.Private{P: foreignKey.P(), Q: foreignKey.Q()},
		&fac.Public{N: foreignKey.PublicKey().N(), Aux: &foreignSetup.Params},
		culprit, hash.NewWithDST([]byte("foreign")))
	require.NoError(t, err)

	runErr := runMangled(t, mangleRound3(culprit, func(c *keyrefresh.Round3Broadcast) {
		proofs := make(map[party.ID]*fac.Proof, len(c.FacProofs))
		for id := range c.FacProofs {
			proofs[id] = foreignProof
		}
		c.FacProofs = proofs
	}))
	requireEvidence(t, runErr, culprit, "Round 3: Π^fac verification failed.")
}

func TestEvidenceDroppedSchnorrProof(t *testing.T) {
	culprit := party.ID("B")
	err := runMangled(t, mangleRound3(culprit, func(c *keyrefresh.Round3Broadcast) {
		proofs := make(map[party.ID]*sch.Proof, len(c.SchnorrProofs))
		for id, pf := range c.SchnorrProofs {
			if id != party.ID("C") {
				proofs[id] = pf
			}
		}
		c.SchnorrProofs = proofs
	}))
	requireEvidence(t, err, culprit, "Round 3: Wrong IDs in Schnorr proofs map.")
}

func TestEvidenceForeignSchnorrProof(t *testing.T) {
	p := params.Test()
	culprit := party.ID("A")

	x, err := curve.RandomScalar(rand.Reader, p.Group)
	require.NoError(t, err)
	foreignProof, err := sch.Prove(rand.Reader, p.Group,
		&sch.Private{X: x}, &sch.Public{X: x.ActOnBase()},
		culprit, hash.NewWithDST([]byte("foreign")))
	require.NoError(t, err)

	runErr := runMangled(t, mangleRound3(culprit, func(c *keyrefresh.Round3Broadcast) {
		proofs := make(map[party.ID]*sch.Proof, len(c.SchnorrProofs))
		for id, pf := range c.SchnorrProofs {
			proofs[id] = pf
		}
		proofs[party.ID("B")] = foreignProof
		c.SchnorrProofs = proofs
	}))
	requireEvidence(t, runErr, culprit, "Round 3: Π^sch verification failed.")
}

func TestEvidenceForeignModProof(t *testing.T) {
	p := params.Test()
	foreignKey, err := paillier.GenerateSecretKey(rand.Reader, p)
	require.NoError(t, err)

	culprit := party.ID("C")
	foreignProof, err := mod.Prove(rand.Reader, p,
		&mod.Private{P: foreignKey.P(), Q: foreignKey.Q()},
		&mod.Public{N: foreignKey.PublicKey().N()}, culprit, hash.NewWithDST([]byte("foreign")))
	require.NoError(t, err)

	runErr := runMangled(t, func(m *round.Message) *round.Message {
		c, ok := m.Content.(*keyrefresh.Round3Broadcast)
		if !ok || m.From != culprit {
			return m
		}
		bad := *c
		bad.ModProof = foreignProof
		return &round.Message{From: m.From, To: m.To, Content: &bad, Broadcast: m.Broadcast}
	})
	requireEvidence(t, runErr, culprit, "Round 3: Π^mod verification failed.")
}
