package mulstar_test

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpc-go/threshold/pkg/arith"
	"github.com/mpc-go/threshold/pkg/hash"
	"github.com/mpc-go/threshold/pkg/zk/mulstar"
	"github.com/mpc-go/threshold/pkg/zk/zktest"
)

func TestMulStarProveVerify(t *testing.T) {
	p := zktest.Params()
	pk := zktest.PaillierKey().PublicKey()
	aux := &zktest.Pedersen().Params

	m, err := arith.SampleSigned(rand.Reader, p.LBound)
	require.NoError(t, err)
	C, _, err := pk.Encrypt(rand.Reader, m.Big())
	require.NoError(t, err)

	x, err := arith.SampleSigned(rand.Reader, p.LBound)
	require.NoError(t, err)
	rho, err := arith.RandomNonZeroMod(rand.Reader, pk.NMod())
	require.NoError(t, err)
	D, err := C.MulScalarThenEncrypt(x.Big(), big.NewInt(0), rho.Big())
	require.NoError(t, err)
	X := p.Group.NewScalar().SetNat(x.Big()).ActOnBase()

	pub := &mulstar.Public{C: C, D: D, X: X, Pk: pk, Aux: aux}
	priv := &mulstar.Private{X: x.Big(), Randomizer: rho.Big()}
	h := hash.NewWithDST([]byte("mulstar-test"))
	proof, err := mulstar.Prove(rand.Reader, p, priv, pub, "alice", h)
	require.NoError(t, err)
	require.True(t, proof.Verify(p, pub, "alice", h))

	mutated := *proof
	mutated.Z1 = new(big.Int).Add(proof.Z1, big.NewInt(1))
	require.False(t, mutated.Verify(p, pub, "alice", h))

	mutated = *proof
	mutated.Bigb = proof.Bigb.Negate()
	require.False(t, mutated.Verify(p, pub, "alice", h))

	// the committed point must match the exponent inside D
	wrong := &mulstar.Public{C: C, D: D, X: X.Add(X), Pk: pk, Aux: aux}
	require.False(t, proof.Verify(p, wrong, "alice", h))
}
