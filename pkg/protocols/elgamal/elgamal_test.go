package elgamal_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpc-go/threshold/pkg/curve"
	"github.com/mpc-go/threshold/pkg/protocols/elgamal"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	group := curve.Secp256k1{}
	sk, err := elgamal.GenerateSecretKey(rand.Reader, group)
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		m, err := curve.RandomScalar(rand.Reader, group)
		require.NoError(t, err)
		ct, err := elgamal.Encrypt(rand.Reader, group, sk.Pub, m)
		require.NoError(t, err)
		got := sk.Decrypt(group, ct)
		require.True(t, got.Equal(m))
	}
}

func TestDecryptWithWrongKeyGarbles(t *testing.T) {
	group := curve.Secp256k1{}
	sk1, err := elgamal.GenerateSecretKey(rand.Reader, group)
	require.NoError(t, err)
	sk2, err := elgamal.GenerateSecretKey(rand.Reader, group)
	require.NoError(t, err)

	m, err := curve.RandomScalar(rand.Reader, group)
	require.NoError(t, err)
	ct, err := elgamal.Encrypt(rand.Reader, group, sk1.Pub, m)
	require.NoError(t, err)
	require.False(t, sk2.Decrypt(group, ct).Equal(m))
}

func TestCiphertextsAreRandomized(t *testing.T) {
	group := curve.Secp256k1{}
	sk, err := elgamal.GenerateSecretKey(rand.Reader, group)
	require.NoError(t, err)
	m, err := curve.RandomScalar(rand.Reader, group)
	require.NoError(t, err)

	ct1, err := elgamal.Encrypt(rand.Reader, group, sk.Pub, m)
	require.NoError(t, err)
	ct2, err := elgamal.Encrypt(rand.Reader, group, sk.Pub, m)
	require.NoError(t, err)
	require.False(t, ct1.R.Equal(ct2.R))
}
