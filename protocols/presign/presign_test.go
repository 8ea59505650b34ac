package presign_test

import (
	"crypto/rand"
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
	results, err := transport.Run([]byte("presign-test-keygen"), starts)
	require.NoError(t, err)
	shares := make(map[party.ID]*keyshare.KeyShare, len(parties))
	for _, id := range parties {
		shares[id] = results[id].(*keyshare.KeyShare)
	}
	return shares
}

// TestPresignNonceInvariants checks the algebra the signing round relies
// on: with k = Σ k_i and chi = Σ chi_i, every party agrees on R = k^-1 * G
// and chi*G = k * (x*G).
func TestPresignNonceInvariants(t *testing.T) {
	p := params.Test()
	parties := testParties(3)
	shares := genShares(t, p, parties)
	verifyingKey := shares[parties[0]].VerifyingKey()

	starts := make(map[party.ID]round.StartFunc, len(parties))
	for _, id := range parties {
		starts[id] = presign.Start(rand.Reader, p, id, parties, shares[id])
	}
	results, err := transport.Run([]byte("presign-test-run"), starts)
	require.NoError(t, err)

	group := p.Group
	k := group.NewScalar()
	chi := group.NewScalar()
	var nonce curve.Point
	for _, id := range parties {
		presig, ok := results[id].(*presign.PreSignature)
		require.True(t, ok)
		require.Equal(t, id, presig.ID)
		require.Len(t, presig.PeerAux, len(parties)-1)
		k = k.Add(presig.KShare)
		chi = chi.Add(presig.ChiShare)
		if nonce == nil {
			nonce = presig.R
		} else {
			require.True(t, nonce.Equal(presig.R), "all parties must agree on R")
		}
	}

	require.True(t, nonce.Equal(k.Invert().ActOnBase()), "R must equal k^-1 * G")
	require.True(t, chi.ActOnBase().Equal(k.Act(verifyingKey)), "chi must share the discrete log k*x")
}
