// Package paillier implements the Paillier homomorphic cryptosystem with
// safe-prime keygen (spec.md §4.3, L1 "Paillier module"). Safe primes
// p ≡ q ≡ 3 mod 4 are required because Π^mod proves the modulus is a
// product of two Blum primes.
package paillier

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/mpc-go/threshold/pkg/arith"
	"github.com/mpc-go/threshold/pkg/hash"
	"github.com/mpc-go/threshold/pkg/params"
)

var one = big.NewInt(1)

// SecretKey holds the safe primes and the precomputed values decryption
// needs: N, φ(N), μ = φ(N)^-1 mod N. Never serialized; Destroy zeroizes on
// drop (spec.md §3 "never serialized in precomputed form; zeroized on
// drop").
type SecretKey struct {
	p, q *big.Int
	pk   *PublicKey
	phi  *big.Int
	mu   *big.Int
}

// PublicKey holds N plus the precomputed Montgomery-style forms used by
// encryption: the wire form is just N.
type PublicKey struct {
	n       *big.Int
	nSquare *big.Int
	nMod    *saferith.Modulus
	n2Mod   *saferith.Modulus
	// onePlusN is (1+N) mod N^2, the generator used by the fast encryption
	// path enc(m) = (1+N)^m * r^N = 1 + m*N mod N^2 for |m| < N.
	onePlusN *big.Int
}

// GenerateSecretKey samples two independent safe primes of exactly
// p.PrimeBits bits each with p ≡ q ≡ 3 mod 4, and derives N = p*q.
func GenerateSecretKey(rnd io.Reader, p *params.SchemeParams) (*SecretKey, error) {
	prime1, err := sampleSafeBlumPrime(rnd, p.PrimeBits)
	if err != nil {
		return nil, err
	}
	var prime2 *big.Int
	for {
		prime2, err = sampleSafeBlumPrime(rnd, p.PrimeBits)
		if err != nil {
			return nil, err
		}
		if prime2.Cmp(prime1) != 0 {
			break
		}
	}
	return NewSecretKeyFromPrimes(prime1, prime2)
}

// NewSecretKeyFromPrimes builds a SecretKey from two already-sampled safe
// Blum primes (used by GenerateSecretKey, and when loading a wire KeyShare,
// which stores p and q).
func NewSecretKeyFromPrimes(p, q *big.Int) (*SecretKey, error) {
	n := new(big.Int).Mul(p, q)
	pMinus1 := new(big.Int).Sub(p, one)
	qMinus1 := new(big.Int).Sub(q, one)
	phi := new(big.Int).Mul(pMinus1, qMinus1)
	mu := new(big.Int).ModInverse(phi, n)
	if mu == nil {
		return nil, errors.New("paillier: phi(N) not invertible mod N")
	}
	pk, err := newPublicKey(n)
	if err != nil {
		return nil, err
	}
	return &SecretKey{p: p, q: q, pk: pk, phi: phi, mu: mu}, nil
}

func (sk *SecretKey) PublicKey() *PublicKey { return sk.pk }
func (sk *SecretKey) P() *big.Int           { return new(big.Int).Set(sk.p) }
func (sk *SecretKey) Q() *big.Int           { return new(big.Int).Set(sk.q) }
func (sk *SecretKey) Phi() *big.Int         { return new(big.Int).Set(sk.phi) }

// Destroy zeroizes the safe primes and φ(N). Must be called when a
// KeyShare is replaced by a refresh, or when an ephemeral round's secret
// key goes out of scope.
func (sk *SecretKey) Destroy() {
	sk.p.SetInt64(0)
	sk.q.SetInt64(0)
	sk.phi.SetInt64(0)
	sk.mu.SetInt64(0)
}

// Decrypt computes m = L(c^φ(N) mod N²) · μ mod N, then centers the result
// into (-N/2, N/2]. The exponentiation by the secret φ(N) runs through
// the constant-time pow family.
func (sk *SecretKey) Decrypt(c *Ciphertext) (*big.Int, error) {
	if c.pk.n.Cmp(sk.pk.n) != 0 {
		return nil, errors.New("paillier: ciphertext belongs to a different key")
	}
	cPhi := arith.ExpSecret(c.c, sk.phi, sk.pk.n2Mod)
	l := lFunction(cPhi, sk.pk.n)
	m := new(big.Int).Mul(l, sk.mu)
	m.Mod(m, sk.pk.n)
	return center(m, sk.pk.n), nil
}

// DecryptSigned is Decrypt, wrapped as a bounded Signed value with bound
// equal to the bit length of N - the shape every zk proof on a decrypted
// value consumes.
func (sk *SecretKey) DecryptSigned(c *Ciphertext) (*arith.Signed, error) {
	m, err := sk.Decrypt(c)
	if err != nil {
		return nil, err
	}
	return arith.NewSignedFromBigInt(m, sk.pk.n.BitLen()), nil
}

// RandomizerFor recovers the randomizer ρ used to produce ciphertext c,
// given knowledge of φ(N). Used only by Π^dec, which needs to open a
// ciphertext's randomness as part of its response.
func (sk *SecretKey) RandomizerFor(c *Ciphertext, plaintext *big.Int) (*big.Int, error) {
	// c = (1+N)^m * r^N mod N^2  =>  r^N = c * (1+N)^-m mod N^2
	nInv := new(big.Int).ModInverse(sk.pk.onePlusN, sk.pk.nSquare)
	if nInv == nil {
		return nil, errors.New("paillier: 1+N not invertible mod N^2")
	}
	// the plaintext and d = N^-1 mod phi(N) are both secret exponents
	base := arith.ExpSecret(nInv, new(big.Int).Mod(plaintext, sk.pk.n), sk.pk.n2Mod)
	rN := new(big.Int).Mul(c.c, base)
	rN.Mod(rN, sk.pk.nSquare)
	// N-th root mod N^2 via the CRT using φ(N): d = N^-1 mod φ(N) over the
	// subgroup of N-th residues (standard Paillier randomizer recovery).
	nInvExp := new(big.Int).ModInverse(sk.pk.n, sk.phi)
	if nInvExp == nil {
		return nil, errors.New("paillier: N not invertible mod phi(N)")
	}
	return arith.ExpSecret(rN, nInvExp, sk.pk.nMod), nil
}

func newPublicKey(n *big.Int) (*PublicKey, error) {
	nSquare := new(big.Int).Mul(n, n)
	onePlusN := new(big.Int).Add(one, n)
	onePlusN.Mod(onePlusN, nSquare)
	nMod := saferith.ModulusFromNat(new(saferith.Nat).SetBig(n, n.BitLen()))
	n2Mod := saferith.ModulusFromNat(new(saferith.Nat).SetBig(nSquare, nSquare.BitLen()))
	return &PublicKey{n: n, nSquare: nSquare, nMod: nMod, n2Mod: n2Mod, onePlusN: onePlusN}, nil
}

// NewPublicKey wraps a bare N (the Paillier "wire form").
func NewPublicKey(n *big.Int) (*PublicKey, error) {
	if n.Sign() <= 0 || n.Bit(0) == 0 {
		return nil, errors.New("paillier: N must be a positive odd integer")
	}
	return newPublicKey(n)
}

func (pk *PublicKey) N() *big.Int       { return new(big.Int).Set(pk.n) }
func (pk *PublicKey) NSquare() *big.Int { return new(big.Int).Set(pk.nSquare) }
func (pk *PublicKey) NMod() *saferith.Modulus  { return pk.nMod }
func (pk *PublicKey) N2Mod() *saferith.Modulus { return pk.n2Mod }

// ValidateN checks the "large enough" criterion of spec.md §4.3: a
// modulus smaller than 2*PrimeBits must be rejected. This is the check
// key-refresh Round 2 runs on every peer's published Paillier key.
func (pk *PublicKey) ValidateN(p *params.SchemeParams) error {
	if pk.n.BitLen() < 2*p.PrimeBits {
		return errors.New("Round 2: Paillier modulus is too small.")
	}
	if pk.n.Bit(0) == 0 {
		return errors.New("paillier: N must be odd")
	}
	return nil
}

// HashTo absorbs N, length-prefixed, into a transcript.
func (pk *PublicKey) HashTo(h *hash.Hash) {
	h.ChainBytes(pk.n.Bytes())
}

// Ciphertext is an element of Z/N²Z representing (1+N)^m · r^N mod N².
type Ciphertext struct {
	pk *PublicKey
	c  *big.Int
}

// CiphertextFromWire wraps a received ciphertext value for a given key.
func CiphertextFromWire(pk *PublicKey, c *big.Int) *Ciphertext {
	return &Ciphertext{pk: pk, c: new(big.Int).Mod(c, pk.nSquare)}
}

func (c *Ciphertext) Value() *big.Int { return new(big.Int).Set(c.c) }

func (c *Ciphertext) HashTo(h *hash.Hash) {
	h.ChainBytes(c.c.Bytes())
}

// Encrypt encrypts m (reduced into [0, N)) with a freshly sampled
// randomizer, returning both the ciphertext and the randomizer used (the
// randomizer must be retained by the caller whenever a later sigma proof
// needs to open it).
func (pk *PublicKey) Encrypt(rnd io.Reader, m *big.Int) (*Ciphertext, *big.Int, error) {
	r, err := sampleUnit(rnd, pk.n)
	if err != nil {
		return nil, nil, err
	}
	c, err := pk.EncryptWithRandomizer(m, r)
	return c, r, err
}

// EncryptWithRandomizer encrypts m with an explicitly supplied
// randomizer r, used when the randomizer must be reproducible (e.g. a
// proof of opening) or when r has been sampled by a higher-level caller.
// The r^N exponentiation has a public exponent but a secret base, so it
// runs through the constant-time-in-the-base masked form.
func (pk *PublicKey) EncryptWithRandomizer(m, r *big.Int) (*Ciphertext, error) {
	mMod := new(big.Int).Mod(m, pk.n)
	// fast path: (1+N)^m = 1 + m*N mod N^2, valid for |m| < N^2/N = N.
	onePlusNToM := new(big.Int).Mul(mMod, pk.n)
	onePlusNToM.Add(onePlusNToM, one)
	onePlusNToM.Mod(onePlusNToM, pk.nSquare)

	rN := arith.MaskRandomizer(one, r, pk.n, pk.n2Mod)
	c := new(big.Int).Mul(onePlusNToM, rN)
	c.Mod(c, pk.nSquare)
	return &Ciphertext{pk: pk, c: c}, nil
}

// Add returns the ciphertext encrypting m1+m2 given Enc(m1), Enc(m2): the
// Paillier homomorphism's additive half, implemented as multiplication
// mod N².
func (c *Ciphertext) Add(other *Ciphertext) *Ciphertext {
	out := new(big.Int).Mul(c.c, other.c)
	out.Mod(out, c.pk.nSquare)
	return &Ciphertext{pk: c.pk, c: out}
}

// MulScalar returns the ciphertext encrypting a*m given Enc(m) and a
// scalar a: exponentiation mod N², the homomorphism's scalar-
// multiplication half. The MtA rounds call this with their secret
// multipliers, so the exponentiation is constant-time; a may be negative
// (ciphertexts are units mod N²).
func (c *Ciphertext) MulScalar(a *big.Int) *Ciphertext {
	out := arith.ExpSecret(c.c, a, c.pk.n2Mod)
	return &Ciphertext{pk: c.pk, c: out}
}

// AddPlain returns the ciphertext encrypting m+k given Enc(m) and a
// plaintext constant k, by homomorphically adding Enc(k, 1).
func (c *Ciphertext) AddPlain(k *big.Int) *Ciphertext {
	plain, _ := c.pk.EncryptWithRandomizer(k, one)
	return c.Add(plain)
}

// MulScalarThenEncrypt returns c^scalar * Enc(addend; randomizer), the
// combined "multiply-by-committed-scalar, then add a fresh bounded
// encryption" operation at the heart of the MtA affine-relation proofs
// (Π^aff-g's A and the presigning round that builds D itself).
func (c *Ciphertext) MulScalarThenEncrypt(scalar, addend, randomizer *big.Int) (*Ciphertext, error) {
	scaled := c.MulScalar(scalar)
	added, err := c.pk.EncryptWithRandomizer(addend, randomizer)
	if err != nil {
		return nil, err
	}
	return scaled.Add(added), nil
}

func lFunction(x, n *big.Int) *big.Int {
	l := new(big.Int).Sub(x, one)
	return l.Div(l, n)
}

// center maps m in [0, N) into (-N/2, N/2].
func center(m, n *big.Int) *big.Int {
	half := new(big.Int).Rsh(n, 1)
	if m.Cmp(half) > 0 {
		return new(big.Int).Sub(m, n)
	}
	return new(big.Int).Set(m)
}

// sampleUnit samples a uniformly random unit of Z/NZ by rejection
// sampling on gcd(r, N) = 1 - overwhelmingly likely on the first try for
// an RSA-like modulus.
func sampleUnit(rnd io.Reader, n *big.Int) (*big.Int, error) {
	for {
		r, err := rand.Int(rnd, n)
		if err != nil {
			return nil, err
		}
		if r.Sign() == 0 {
			continue
		}
		if new(big.Int).GCD(nil, nil, r, n).Cmp(one) == 0 {
			return r, nil
		}
	}
}

// sampleSafeBlumPrime samples a safe prime p of exactly bits bits with
// p ≡ 3 mod 4: p = 2q+1 for prime q, generated by rejection sampling.
func sampleSafeBlumPrime(rnd io.Reader, bits int) (*big.Int, error) {
	for {
		q, err := rand.Prime(rnd, bits-1)
		if err != nil {
			return nil, err
		}
		p := new(big.Int).Lsh(q, 1)
		p.Add(p, one)
		if p.BitLen() != bits {
			continue
		}
		if new(big.Int).Mod(p, big.NewInt(4)).Cmp(big.NewInt(3)) != 0 {
			continue
		}
		if p.ProbablyPrime(40) {
			return p, nil
		}
	}
}
