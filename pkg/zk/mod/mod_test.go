package mod_test

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpc-go/threshold/pkg/hash"
	"github.com/mpc-go/threshold/pkg/zk/mod"
	"github.com/mpc-go/threshold/pkg/zk/zktest"
)

func TestModProveVerify(t *testing.T) {
	p := zktest.Params()
	sk := zktest.PaillierKey()

	pub := &mod.Public{N: sk.PublicKey().N()}
	priv := &mod.Private{P: sk.P(), Q: sk.Q()}
	h := hash.NewWithDST([]byte("mod-test"))
	proof, err := mod.Prove(rand.Reader, p, priv, pub, "alice", h)
	require.NoError(t, err)
	require.True(t, proof.Verify(p, pub, "alice", h))

	require.False(t, proof.Verify(p, pub, "bob", h))

	// a proof for one modulus must not verify against another: the
	// challenges are derived from (N, w) so every response goes stale
	other := zktest.PeerPaillierKey()
	require.False(t, proof.Verify(p, &mod.Public{N: other.PublicKey().N()}, "alice", h))

	// mutating any single response must be caught
	mutated := *proof
	mutated.Rsp = append([]*mod.Response(nil), proof.Rsp...)
	bad := *proof.Rsp[0]
	bad.X = new(big.Int).Add(bad.X, big.NewInt(1))
	mutated.Rsp[0] = &bad
	require.False(t, mutated.Verify(p, pub, "alice", h))

	mutated = *proof
	mutated.Rsp = append([]*mod.Response(nil), proof.Rsp...)
	bad = *proof.Rsp[0]
	bad.Z = new(big.Int).Add(bad.Z, big.NewInt(1))
	mutated.Rsp[0] = &bad
	require.False(t, mutated.Verify(p, pub, "alice", h))
}

func TestModRejectsTooSmallModulus(t *testing.T) {
	p := zktest.Params()
	sk := zktest.PaillierKey()

	pub := &mod.Public{N: sk.PublicKey().N()}
	priv := &mod.Private{P: sk.P(), Q: sk.Q()}
	h := hash.NewWithDST([]byte("mod-test"))
	proof, err := mod.Prove(rand.Reader, p, priv, pub, "alice", h)
	require.NoError(t, err)

	// the same modulus fails verification under a parametrization that
	// demands larger primes
	stricter := *p
	stricter.PrimeBits = p.PrimeBits * 2
	require.False(t, proof.Verify(&stricter, pub, "alice", h))
}
