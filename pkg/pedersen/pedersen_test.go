package pedersen_test

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpc-go/threshold/pkg/paillier"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/pedersen"
)

func testSetup(t *testing.T) (*params.SchemeParams, *pedersen.SecretParams) {
	t.Helper()
	p := params.Test()
	primes, err := paillier.GenerateSecretKey(rand.Reader, p)
	require.NoError(t, err)
	sp, err := pedersen.Generate(rand.Reader, p, primes.P(), primes.Q())
	require.NoError(t, err)
	return p, sp
}

func TestCommitHomomorphism(t *testing.T) {
	_, sp := testSetup(t)
	nHat := sp.N()

	x1, x2 := big.NewInt(123456), big.NewInt(-789)
	r1, r2 := big.NewInt(55555), big.NewInt(-1)

	lhs := sp.Commit(new(big.Int).Add(x1, x2), new(big.Int).Add(r1, r2))
	rhs := new(big.Int).Mul(sp.Commit(x1, r1), sp.Commit(x2, r2))
	rhs.Mod(rhs, nHat)
	require.Zero(t, lhs.Cmp(rhs))
}

func TestCommitNegativeExponents(t *testing.T) {
	_, sp := testSetup(t)
	nHat := sp.N()

	// commit(-x, -r) must be the modular inverse of commit(x, r)
	x, r := big.NewInt(424242), big.NewInt(1337)
	c := sp.Commit(x, r)
	cInv := sp.Commit(new(big.Int).Neg(x), new(big.Int).Neg(r))
	prod := new(big.Int).Mul(c, cInv)
	prod.Mod(prod, nHat)
	require.Zero(t, prod.Cmp(big.NewInt(1)))
}

func TestSIsPowerOfT(t *testing.T) {
	_, sp := testSetup(t)
	want := new(big.Int).Exp(sp.T(), sp.Lambda(), sp.N())
	require.Zero(t, sp.S().Cmp(want))
}

func TestValidateParameters(t *testing.T) {
	p, sp := testSetup(t)

	require.NoError(t, pedersen.ValidateParameters(p, sp.N(), sp.S(), sp.T()))

	small := new(big.Int).Lsh(big.NewInt(1), uint(p.PrimeBits))
	err := pedersen.ValidateParameters(p, small, sp.S(), sp.T())
	require.EqualError(t, err, "Round 2: ring-Pedersen modulus is too small.")

	require.Error(t, pedersen.ValidateParameters(p, sp.N(), big.NewInt(0), sp.T()))
	require.Error(t, pedersen.ValidateParameters(p, sp.N(), sp.S(), new(big.Int).Set(sp.N())))
}

func TestDestroyZeroizesTrapdoor(t *testing.T) {
	_, sp := testSetup(t)
	sp.Destroy()
	require.Zero(t, sp.Lambda().Sign())
	require.Zero(t, sp.PhiNHat().Sign())
}
