package sign_test

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"
	mathrand "math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpc-go/threshold/pkg/curve"
	"github.com/mpc-go/threshold/pkg/keyshare"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/round"
	"github.com/mpc-go/threshold/pkg/transport"
	"github.com/mpc-go/threshold/protocols/keyrefresh"
	"github.com/mpc-go/threshold/protocols/presign"
	"github.com/mpc-go/threshold/protocols/sign"
)

func testParties(n int) party.IDSlice {
	ids := make([]party.ID, n)
	for i := range ids {
		ids[i] = party.ID([]byte{'A' + byte(i)})
	}
	return party.NewIDSlice(ids)
}

func genShares(t *testing.T, p *params.SchemeParams, parties party.IDSlice) map[party.ID]*keyshare.KeyShare {
	t.Helper()
	starts := make(map[party.ID]round.StartFunc, len(parties))
	for _, id := range parties {
		starts[id] = keyrefresh.Start(rand.Reader, p, id, parties, keyshare.NewEmpty(p.Group, id, parties))
	}
	results, err := transport.Run([]byte("sign-test-keygen"), starts)
	require.NoError(t, err)
	shares := make(map[party.ID]*keyshare.KeyShare, len(parties))
	for _, id := range parties {
		shares[id] = results[id].(*keyshare.KeyShare)
	}
	return shares
}

func TestSignEndToEnd(t *testing.T) {
	for _, n := range []int{2, 3, 5} {
		n := n
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			p := params.Test()
			parties := testParties(n)
			shares := genShares(t, p, parties)
			verifyingKey := shares[parties[0]].VerifyingKey()

			digest := sha256.Sum256([]byte("spend 1 coin"))
			sig, err := sign.Interactive([]byte("sign-test"), rand.Reader, p, shares, digest[:])
			require.NoError(t, err)

			mHash := p.Group.NewScalar().SetNat(new(big.Int).SetBytes(digest[:]))
			require.True(t, sig.Verify(p.Group, verifyingKey, mHash))

			// low-s normalization is on by default
			halfOrder := new(big.Int).Rsh(p.Group.Order(), 1)
			require.True(t, sig.S.BigInt().Cmp(halfOrder) <= 0)

			// the verifying key must be recoverable from (m, sig)
			recovered, err := sig.RecoverPublicKey(p.Group, mHash)
			require.NoError(t, err)
			require.True(t, recovered.Equal(verifyingKey))

			// and the result is a plain ECDSA signature
			require.True(t, ecdsa.Verify(verifyingKey.ToPublicKey(), digest[:],
				sig.RScalar(p.Group).BigInt(), sig.S.BigInt()))
		})
	}
}

func TestSignFreshRandomMessage(t *testing.T) {
	p := params.Test()
	parties := testParties(3)
	shares := genShares(t, p, parties)
	verifyingKey := shares[parties[0]].VerifyingKey()

	message := make([]byte, 64)
	_, err := rand.Read(message)
	require.NoError(t, err)
	digest := sha256.Sum256(message)

	sig, err := sign.Interactive([]byte("sign-test-random"), rand.Reader, p, shares, digest[:])
	require.NoError(t, err)

	mHash := p.Group.NewScalar().SetNat(new(big.Int).SetBytes(digest[:]))
	require.True(t, sig.Verify(p.Group, verifyingKey, mHash))
	recovered, err := sig.RecoverPublicKey(p.Group, mHash)
	require.NoError(t, err)
	require.True(t, recovered.Equal(verifyingKey))
}

// runSeeded executes keygen, presigning and the combine with one
// deterministic RNG stream per party, seeded from that party's index.
func runSeeded(t *testing.T, p *params.SchemeParams, parties party.IDSlice, digest []byte) *curve.Signature {
	t.Helper()
	rngs := make(map[party.ID]*mathrand.Rand, len(parties))
	for i, id := range parties {
		rngs[id] = mathrand.New(mathrand.NewSource(int64(i) + 1))
	}

	keygenStarts := make(map[party.ID]round.StartFunc, len(parties))
	for _, id := range parties {
		keygenStarts[id] = keyrefresh.Start(rngs[id], p, id, parties, keyshare.NewEmpty(p.Group, id, parties))
	}
	keygenResults, err := transport.Run([]byte("seeded-keygen"), keygenStarts)
	require.NoError(t, err)

	shares := make(map[party.ID]*keyshare.KeyShare, len(parties))
	presignStarts := make(map[party.ID]round.StartFunc, len(parties))
	for _, id := range parties {
		shares[id] = keygenResults[id].(*keyshare.KeyShare)
		presignStarts[id] = presign.Start(rngs[id], p, id, parties, shares[id])
	}
	presignResults, err := transport.Run([]byte("seeded-presign"), presignStarts)
	require.NoError(t, err)

	signStarts := make(map[party.ID]round.StartFunc, len(parties))
	for _, id := range parties {
		presig := presignResults[id].(*presign.PreSignature)
		signStarts[id] = sign.Start(rngs[id], p, id, parties, shares[id], presig, digest)
	}
	signResults, err := transport.Run([]byte("seeded-sign"), signStarts)
	require.NoError(t, err)

	sig := signResults[parties[0]].(*curve.Signature)
	mHash := p.Group.NewScalar().SetNat(new(big.Int).SetBytes(digest))
	require.True(t, sig.Verify(p.Group, shares[parties[0]].VerifyingKey(), mHash))
	return sig
}

// TestSignDeterministicWithSeededRNG pins message production to
// (state, rng_stream): two full runs from identical per-party seeds must
// assemble the identical signature.
func TestSignDeterministicWithSeededRNG(t *testing.T) {
	p := params.Test()
	parties := testParties(3)
	digest := sha256.Sum256([]byte("deterministic run"))

	first := runSeeded(t, p, parties, digest[:])
	second := runSeeded(t, p, parties, digest[:])
	require.True(t, first.R.Equal(second.R))
	require.True(t, first.S.Equal(second.S))
}

// TestSignAfterDeriveChild checks the BIP32-style unhardened derivation
// composes with signing: every party derives the same child and the group
// signs for the shifted verifying key.
func TestSignAfterDeriveChild(t *testing.T) {
	p := params.Test()
	parties := testParties(2)
	shares := genShares(t, p, parties)

	offset := p.Group.NewScalar().SetNat(big.NewInt(0x2a))
	childShares := make(map[party.ID]*keyshare.KeyShare, len(shares))
	for _, id := range parties {
		child := shares[id].DeriveChild(offset)
		require.NoError(t, child.Validate())
		childShares[id] = child
	}

	childKey := shares[parties[0]].VerifyingKey().Add(offset.ActOnBase())
	require.True(t, childShares[parties[0]].VerifyingKey().Equal(childKey))

	digest := sha256.Sum256([]byte("child spend"))
	sig, err := sign.Interactive([]byte("sign-test-child"), rand.Reader, p, childShares, digest[:])
	require.NoError(t, err)

	mHash := p.Group.NewScalar().SetNat(new(big.Int).SetBytes(digest[:]))
	require.True(t, sig.Verify(p.Group, childKey, mHash))
}
