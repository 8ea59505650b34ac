package dec_test

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpc-go/threshold/pkg/arith"
	"github.com/mpc-go/threshold/pkg/hash"
	"github.com/mpc-go/threshold/pkg/zk/dec"
	"github.com/mpc-go/threshold/pkg/zk/zktest"
)

func TestDecProveVerify(t *testing.T) {
	p := zktest.Params()
	pk := zktest.PaillierKey().PublicKey()
	aux := &zktest.Pedersen().Params

	x, err := arith.SampleSigned(rand.Reader, p.LBound)
	require.NoError(t, err)
	C, rho, err := pk.Encrypt(rand.Reader, x.Big())
	require.NoError(t, err)

	pub := &dec.Public{Y: x.Big(), C: C, Pk: pk, Aux: aux}
	priv := &dec.Private{X: x.Big(), Randomizer: rho}
	h := hash.NewWithDST([]byte("dec-test"))
	proof, err := dec.Prove(rand.Reader, p, priv, pub, "alice", h)
	require.NoError(t, err)
	require.True(t, proof.Verify(p, pub, "alice", h))

	mutated := *proof
	mutated.Z1 = new(big.Int).Add(proof.Z1, big.NewInt(1))
	require.False(t, mutated.Verify(p, pub, "alice", h))

	mutated = *proof
	mutated.W = new(big.Int).Add(proof.W, big.NewInt(1))
	require.False(t, mutated.Verify(p, pub, "alice", h))
}

func TestDecRejectsWrongClaim(t *testing.T) {
	// full-size challenges: with a 10-bit test challenge, e = 0 (probability
	// 2^-10) would let the wrong claim pass the mod-q check
	pCopy := *zktest.Params()
	pCopy.SecurityParameter = 256
	p := &pCopy
	pk := zktest.PaillierKey().PublicKey()
	aux := &zktest.Pedersen().Params

	x, err := arith.SampleSigned(rand.Reader, p.LBound)
	require.NoError(t, err)
	C, rho, err := pk.Encrypt(rand.Reader, x.Big())
	require.NoError(t, err)

	// claim a different plaintext than the one C encrypts
	claimed := new(big.Int).Add(x.Big(), big.NewInt(1))
	pub := &dec.Public{Y: claimed, C: C, Pk: pk, Aux: aux}
	h := hash.NewWithDST([]byte("dec-test"))
	proof, err := dec.Prove(rand.Reader, p, &dec.Private{X: x.Big(), Randomizer: rho}, pub, "alice", h)
	require.NoError(t, err)
	require.False(t, proof.Verify(p, pub, "alice", h))
}
