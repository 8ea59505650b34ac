package hash_test

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpc-go/threshold/pkg/hash"
)

func TestChainBytesFramesAgainstConcatenation(t *testing.T) {
	// absorbing "ab" then "c" must differ from "a" then "bc": the length
	// prefix frames every absorption
	h1 := hash.New().ChainBytes([]byte("ab")).ChainBytes([]byte("c"))
	h2 := hash.New().ChainBytes([]byte("a")).ChainBytes([]byte("bc"))
	require.False(t, bytes.Equal(h1.FinalizeBoxed(256), h2.FinalizeBoxed(256)))
}

func TestAbsorptionOrderMatters(t *testing.T) {
	h1 := hash.New().ChainBytes([]byte("x")).ChainBytes([]byte("y"))
	h2 := hash.New().ChainBytes([]byte("y")).ChainBytes([]byte("x"))
	require.False(t, bytes.Equal(h1.FinalizeBoxed(256), h2.FinalizeBoxed(256)))
}

func TestDomainSeparation(t *testing.T) {
	h1 := hash.NewWithDST([]byte("P_enc")).ChainBytes([]byte("data"))
	h2 := hash.NewWithDST([]byte("P_dec")).ChainBytes([]byte("data"))
	require.False(t, bytes.Equal(h1.FinalizeBoxed(256), h2.FinalizeBoxed(256)))
}

func TestCloneForks(t *testing.T) {
	base := hash.NewWithDST([]byte("session"))
	a := base.Clone().ChainBytes([]byte("alice"))
	b := base.Clone().ChainBytes([]byte("bob"))
	require.False(t, bytes.Equal(a.FinalizeBoxed(256), b.FinalizeBoxed(256)))

	// cloning must not disturb the parent transcript
	c := base.Clone().ChainBytes([]byte("alice"))
	require.True(t, bytes.Equal(a.FinalizeBoxed(256), c.FinalizeBoxed(256)))
}

func TestFinalizeBoxedLength(t *testing.T) {
	h := hash.NewWithDST([]byte("len"))
	require.Len(t, h.FinalizeBoxed(256), 64)
	require.Len(t, h.FinalizeBoxed(10), 3)
}

func TestFinalizeIsRepeatable(t *testing.T) {
	h := hash.NewWithDST([]byte("repeat")).ChainUint64(7)
	first := h.FinalizeBoxed(256)
	second := h.FinalizeBoxed(256)
	require.True(t, bytes.Equal(first, second))
}

func TestChallengeScalarInRange(t *testing.T) {
	order := new(big.Int).SetInt64(1_000_003)
	for i := 0; i < 32; i++ {
		h := hash.NewWithDST([]byte("chal")).ChainUint64(uint64(i))
		e := h.ChallengeScalar(order, 128)
		require.True(t, e.Sign() >= 0 && e.Cmp(order) < 0)
	}
}

func TestChallengeBitsLength(t *testing.T) {
	h := hash.NewWithDST([]byte("bits"))
	require.Len(t, h.ChallengeBits(256), 32)
}
