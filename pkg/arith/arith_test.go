package arith_test

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/require"

	"github.com/mpc-go/threshold/pkg/arith"
)

func testModulus(t *testing.T) (*saferith.Modulus, *big.Int) {
	t.Helper()
	p, err := rand.Prime(rand.Reader, 256)
	require.NoError(t, err)
	q, err := rand.Prime(rand.Reader, 256)
	require.NoError(t, err)
	n := new(big.Int).Mul(p, q)
	return saferith.ModulusFromNat(new(saferith.Nat).SetBig(n, n.BitLen())), n
}

func TestBoundedArithmeticTracksBounds(t *testing.T) {
	a := arith.BoundedFromBigInt(big.NewInt(200), 8)
	b := arith.BoundedFromBigInt(big.NewInt(100), 7)

	sum := a.Add(b)
	require.Equal(t, 9, sum.Bound())
	require.Zero(t, sum.Big().Cmp(big.NewInt(300)))

	prod := a.Mul(b)
	require.Equal(t, 15, prod.Bound())
	require.Zero(t, prod.Big().Cmp(big.NewInt(20000)))
}

func TestNewBoundedRejectsOversizedValue(t *testing.T) {
	nat := new(saferith.Nat).SetUint64(1 << 20)
	require.Nil(t, arith.NewBounded(nat, 10))
	require.NotNil(t, arith.NewBounded(nat, 21))
}

func TestSampleSignedStaysInRange(t *testing.T) {
	limit := new(big.Int).Lsh(big.NewInt(1), 64)
	sawNegative := false
	for i := 0; i < 128; i++ {
		s, err := arith.SampleSigned(rand.Reader, 64)
		require.NoError(t, err)
		require.True(t, new(big.Int).Abs(s.Big()).Cmp(limit) <= 0)
		require.True(t, s.IsInRange(65))
		if s.Big().Sign() < 0 {
			sawNegative = true
		}
	}
	require.True(t, sawNegative, "128 samples and no negative value: sign coin is broken")
}

func TestPowSignedMatchesBigInt(t *testing.T) {
	mod, nBig := testModulus(t)

	base, err := arith.RandomNonZeroMod(rand.Reader, mod)
	require.NoError(t, err)

	for _, expBig := range []*big.Int{
		big.NewInt(0), big.NewInt(1), big.NewInt(65537), big.NewInt(-3), big.NewInt(-65537),
	} {
		exp := arith.NewSignedFromBigInt(expBig, 64)
		got := arith.PowSigned(base, exp, mod)
		want := new(big.Int).Exp(base.Big(), expBig, nBig)
		require.Zero(t, got.Big().Cmp(want), "exp = %s", expBig)
	}
}

func TestPowSignedWideMatchesBigInt(t *testing.T) {
	mod, nBig := testModulus(t)

	base, err := arith.RandomNonZeroMod(rand.Reader, mod)
	require.NoError(t, err)

	expBig, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 300))
	require.NoError(t, err)
	for _, e := range []*big.Int{expBig, new(big.Int).Neg(expBig)} {
		exp := arith.NewSignedFromBigInt(e, 300)
		got := arith.PowSignedWide(base, exp, 256, mod)
		want := new(big.Int).Exp(base.Big(), e, nBig)
		require.Zero(t, got.Big().Cmp(want), "exp = %s", e)
	}
}

func TestPowSignedExtraWideMatchesBigInt(t *testing.T) {
	mod, nBig := testModulus(t)

	base, err := arith.RandomNonZeroMod(rand.Reader, mod)
	require.NoError(t, err)

	expBig, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 700))
	require.NoError(t, err)
	exp := arith.NewSignedFromBigInt(expBig, 700)
	got := arith.PowSignedExtraWide(base, exp, 256, mod)
	want := new(big.Int).Exp(base.Big(), expBig, nBig)
	require.Zero(t, got.Big().Cmp(want))
}

func TestSecretSignedDestroy(t *testing.T) {
	s, err := arith.SampleSigned(rand.Reader, 128)
	require.NoError(t, err)
	secret := arith.NewSecretSigned(s)
	secret.Destroy()
	require.Zero(t, secret.Big().Sign())
	require.Zero(t, secret.Bound())
}
