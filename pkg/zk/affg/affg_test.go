package affg_test

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpc-go/threshold/pkg/arith"
	"github.com/mpc-go/threshold/pkg/hash"
	"github.com/mpc-go/threshold/pkg/zk/affg"
	"github.com/mpc-go/threshold/pkg/zk/zktest"
)

// TestAffGProveVerify mirrors the presigning MtA wiring: C encrypts the
// verifier's nonce under the verifier's key pk0, and the prover multiplies
// in its secret y while masking with z.
func TestAffGProveVerify(t *testing.T) {
	p := zktest.Params()
	pk0 := zktest.PeerPaillierKey().PublicKey()
	pk1 := zktest.PaillierKey().PublicKey()
	aux := &zktest.Pedersen().Params

	kPeer, err := arith.SampleSigned(rand.Reader, p.LBound)
	require.NoError(t, err)
	C, _, err := pk0.Encrypt(rand.Reader, kPeer.Big())
	require.NoError(t, err)

	y, err := arith.SampleSigned(rand.Reader, p.LBound)
	require.NoError(t, err)
	z, err := arith.SampleSigned(rand.Reader, p.LPrimeBound)
	require.NoError(t, err)
	randD, err := arith.RandomNonZeroMod(rand.Reader, pk0.NMod())
	require.NoError(t, err)
	randY, err := arith.RandomNonZeroMod(rand.Reader, pk1.NMod())
	require.NoError(t, err)

	D, err := C.MulScalarThenEncrypt(y.Big(), z.Big(), randD.Big())
	require.NoError(t, err)
	Y, err := pk1.EncryptWithRandomizer(y.Big(), randY.Big())
	require.NoError(t, err)
	bigy := p.Group.NewScalar().SetNat(y.Big()).ActOnBase()

	pub := &affg.Public{C: C, D: D, Y: Y, Bigy: bigy, Pk0: pk0, Pk1: pk1, Aux: aux}
	priv := &affg.Private{Y: y.Big(), Z: z.Big(), RandomizerD: randD.Big(), RandomizerY: randY.Big()}

	h := hash.NewWithDST([]byte("affg-test"))
	proof, err := affg.Prove(rand.Reader, p, priv, pub, "alice", h)
	require.NoError(t, err)
	require.True(t, proof.Verify(p, pub, "alice", h))

	mutations := map[string]affg.Proof{}
	m := *proof
	m.Z1 = new(big.Int).Add(proof.Z1, big.NewInt(1))
	mutations["z1"] = m
	m = *proof
	m.Z2 = new(big.Int).Add(proof.Z2, big.NewInt(1))
	mutations["z2"] = m
	m = *proof
	m.W = new(big.Int).Add(proof.W, big.NewInt(1))
	mutations["w"] = m
	m = *proof
	m.Bigb = proof.Bigb.Negate()
	mutations["bigb"] = m
	for label, mut := range mutations {
		mut := mut
		require.False(t, mut.Verify(p, pub, "alice", h), "mutation %s must not verify", label)
	}

	// a D built from a different multiplier must not verify against Bigy
	otherD, err := C.MulScalarThenEncrypt(new(big.Int).Add(y.Big(), big.NewInt(1)), z.Big(), randD.Big())
	require.NoError(t, err)
	wrongPub := &affg.Public{C: C, D: otherD, Y: Y, Bigy: bigy, Pk0: pk0, Pk1: pk1, Aux: aux}
	require.False(t, proof.Verify(p, wrongPub, "alice", h))
}
