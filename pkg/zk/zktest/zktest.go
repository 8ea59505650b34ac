// Package zktest provides the shared fixtures the sigma-proof tests need:
// a test-parametrization Paillier key pair and ring-Pedersen setup, built
// once per test binary because safe-prime generation dominates everything
// else the tests do.
package zktest

import (
	"crypto/rand"
	"sync"

	"github.com/mpc-go/threshold/pkg/paillier"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/pedersen"
)

var (
	once     sync.Once
	p        *params.SchemeParams
	sk       *paillier.SecretKey
	skPeer   *paillier.SecretKey
	pedSetup *pedersen.SecretParams
)

func setup() {
	p = params.Test()
	var err error
	sk, err = paillier.GenerateSecretKey(rand.Reader, p)
	if err != nil {
		panic(err)
	}
	skPeer, err = paillier.GenerateSecretKey(rand.Reader, p)
	if err != nil {
		panic(err)
	}
	primes, err := paillier.GenerateSecretKey(rand.Reader, p)
	if err != nil {
		panic(err)
	}
	pedSetup, err = pedersen.Generate(rand.Reader, p, primes.P(), primes.Q())
	if err != nil {
		panic(err)
	}
}

// Params returns the shared test SchemeParams.
func Params() *params.SchemeParams {
	once.Do(setup)
	return p
}

// PaillierKey returns the shared prover-side Paillier secret key.
func PaillierKey() *paillier.SecretKey {
	once.Do(setup)
	return sk
}

// PeerPaillierKey returns a second, independent Paillier key for proofs
// spanning two key pairs (Π^aff-g).
func PeerPaillierKey() *paillier.SecretKey {
	once.Do(setup)
	return skPeer
}

// Pedersen returns the shared ring-Pedersen setup with its trapdoor.
func Pedersen() *pedersen.SecretParams {
	once.Do(setup)
	return pedSetup
}
