package keyshare_test

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpc-go/threshold/pkg/keyshare"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/round"
	"github.com/mpc-go/threshold/pkg/transport"
	"github.com/mpc-go/threshold/protocols/keyrefresh"
)

func genShare(t *testing.T) *keyshare.KeyShare {
	t.Helper()
	p := params.Test()
	parties := party.NewIDSlice([]party.ID{"A", "B"})
	starts := make(map[party.ID]round.StartFunc, len(parties))
	for _, id := range parties {
		starts[id] = keyrefresh.Start(rand.Reader, p, id, parties, keyshare.NewEmpty(p.Group, id, parties))
	}
	results, err := transport.Run([]byte("keyshare-test"), starts)
	require.NoError(t, err)
	return results[party.ID("A")].(*keyshare.KeyShare)
}

func TestWireRoundTrip(t *testing.T) {
	ks := genShare(t)

	data, err := ks.MarshalBinary()
	require.NoError(t, err)

	got, err := keyshare.UnmarshalKeyShare(ks.Group, data)
	require.NoError(t, err)
	require.NoError(t, got.Validate())
	require.Equal(t, ks.ID, got.ID)
	require.Equal(t, ks.Parties, got.Parties)
	require.True(t, got.VerifyingKey().Equal(ks.VerifyingKey()))
	require.True(t, got.Secret.ECDSA.Equal(ks.Secret.ECDSA))
	require.Zero(t, got.Secret.Paillier.PublicKey().N().Cmp(ks.Secret.Paillier.PublicKey().N()))

	// serialization must be canonical: same share, same bytes
	again, err := ks.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, data, again)
}

func TestDeriveChildShiftsAggregateKeyOnce(t *testing.T) {
	ks := genShare(t)
	offset := ks.Group.NewScalar().SetNat(big.NewInt(12345))

	child := ks.DeriveChild(offset)
	require.NoError(t, child.Validate())
	want := ks.VerifyingKey().Add(offset.ActOnBase())
	require.True(t, child.VerifyingKey().Equal(want))
}

func TestValidateRejectsInconsistentShare(t *testing.T) {
	ks := genShare(t)
	ks.Secret.ECDSA = ks.Secret.ECDSA.Add(ks.Group.NewScalar().SetNat(big.NewInt(1)))
	require.Error(t, ks.Validate())
}
