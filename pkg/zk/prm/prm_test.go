package prm_test

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpc-go/threshold/pkg/hash"
	"github.com/mpc-go/threshold/pkg/paillier"
	"github.com/mpc-go/threshold/pkg/pedersen"
	"github.com/mpc-go/threshold/pkg/zk/prm"
	"github.com/mpc-go/threshold/pkg/zk/zktest"
)

func TestPrmProveVerify(t *testing.T) {
	p := zktest.Params()
	setup := zktest.Pedersen()

	pub := &prm.Public{Setup: &setup.Params}
	priv := &prm.Private{Lambda: setup.Lambda(), PhiNHat: setup.PhiNHat()}
	h := hash.NewWithDST([]byte("prm-test"))
	proof, err := prm.Prove(rand.Reader, p, priv, pub, "alice", h)
	require.NoError(t, err)
	require.True(t, proof.Verify(p, pub, "alice", h))

	require.False(t, proof.Verify(p, pub, "bob", h))

	mutated := *proof
	mutated.Z = append([]*big.Int(nil), proof.Z...)
	mutated.Z[0] = new(big.Int).Add(proof.Z[0], big.NewInt(1))
	require.False(t, mutated.Verify(p, pub, "alice", h))

	mutated = *proof
	mutated.A = append([]*big.Int(nil), proof.A...)
	mutated.A[0] = new(big.Int).Add(proof.A[0], big.NewInt(1))
	require.False(t, mutated.Verify(p, pub, "alice", h))
}

// TestPrmRejectsForeignSetup reproduces key-refresh's Round-2 check: a
// proof generated for one ring-Pedersen setup must not verify against
// another (spec's "Π^prm verification failed" boundary behavior).
func TestPrmRejectsForeignSetup(t *testing.T) {
	p := zktest.Params()
	setup := zktest.Pedersen()

	primes, err := paillier.GenerateSecretKey(rand.Reader, p)
	require.NoError(t, err)
	otherSetup, err := pedersen.Generate(rand.Reader, p, primes.P(), primes.Q())
	require.NoError(t, err)

	h := hash.NewWithDST([]byte("prm-test"))
	proof, err := prm.Prove(rand.Reader, p,
		&prm.Private{Lambda: otherSetup.Lambda(), PhiNHat: otherSetup.PhiNHat()},
		&prm.Public{Setup: &otherSetup.Params}, "alice", h)
	require.NoError(t, err)

	require.False(t, proof.Verify(p, &prm.Public{Setup: &setup.Params}, "alice", h))
}
