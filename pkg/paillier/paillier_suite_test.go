package paillier_test

import (
	"crypto/rand"
	"math/big"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mpc-go/threshold/pkg/paillier"
	"github.com/mpc-go/threshold/pkg/params"
)

func TestPaillier(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Paillier Suite")
}

var (
	p  *params.SchemeParams
	sk *paillier.SecretKey
	pk *paillier.PublicKey
)

var _ = BeforeSuite(func() {
	p = params.Test()
	var err error
	sk, err = paillier.GenerateSecretKey(rand.Reader, p)
	Expect(err).NotTo(HaveOccurred())
	pk = sk.PublicKey()
})

var _ = Describe("key generation", func() {
	It("produces a modulus of the full width", func() {
		Expect(pk.N().BitLen()).To(BeNumerically(">=", 2*p.PrimeBits-1))
		Expect(pk.ValidateN(p)).To(Succeed())
	})

	It("produces Blum primes", func() {
		three := big.NewInt(3)
		four := big.NewInt(4)
		Expect(new(big.Int).Mod(sk.P(), four).Cmp(three)).To(BeZero())
		Expect(new(big.Int).Mod(sk.Q(), four).Cmp(three)).To(BeZero())
	})

	It("rejects a modulus built from undersized primes", func() {
		small := *p
		small.PrimeBits = p.PrimeBits / 2
		smallSk, err := paillier.GenerateSecretKey(rand.Reader, &small)
		Expect(err).NotTo(HaveOccurred())
		err = smallSk.PublicKey().ValidateN(p)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(Equal("Round 2: Paillier modulus is too small."))
	})
})

var _ = Describe("encryption", func() {
	It("round-trips positive, negative and zero plaintexts", func() {
		for _, m := range []*big.Int{
			big.NewInt(0),
			big.NewInt(1),
			big.NewInt(-1),
			big.NewInt(1 << 40),
			new(big.Int).Neg(big.NewInt(1 << 40)),
		} {
			c, _, err := pk.Encrypt(rand.Reader, m)
			Expect(err).NotTo(HaveOccurred())
			got, err := sk.Decrypt(c)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Cmp(m)).To(BeZero(), "m = %s", m)
		}
	})

	It("centers decryptions into (-N/2, N/2]", func() {
		almostN := new(big.Int).Sub(pk.N(), big.NewInt(5))
		c, _, err := pk.Encrypt(rand.Reader, almostN)
		Expect(err).NotTo(HaveOccurred())
		got, err := sk.Decrypt(c)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Cmp(big.NewInt(-5))).To(BeZero())
	})

	It("refuses ciphertexts under a different key", func() {
		otherSk, err := paillier.GenerateSecretKey(rand.Reader, p)
		Expect(err).NotTo(HaveOccurred())
		c, _, err := otherSk.PublicKey().Encrypt(rand.Reader, big.NewInt(42))
		Expect(err).NotTo(HaveOccurred())
		_, err = sk.Decrypt(c)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("homomorphism", func() {
	It("adds plaintexts under ciphertext multiplication", func() {
		m1, m2 := big.NewInt(1234), big.NewInt(-999)
		c1, _, err := pk.Encrypt(rand.Reader, m1)
		Expect(err).NotTo(HaveOccurred())
		c2, _, err := pk.Encrypt(rand.Reader, m2)
		Expect(err).NotTo(HaveOccurred())
		sum, err := sk.Decrypt(c1.Add(c2))
		Expect(err).NotTo(HaveOccurred())
		Expect(sum.Cmp(big.NewInt(235))).To(BeZero())
	})

	It("multiplies plaintexts by public scalars", func() {
		m := big.NewInt(77)
		c, _, err := pk.Encrypt(rand.Reader, m)
		Expect(err).NotTo(HaveOccurred())
		got, err := sk.Decrypt(c.MulScalar(big.NewInt(13)))
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Cmp(big.NewInt(1001))).To(BeZero())
	})

	It("combines scalar multiplication with a fresh encryption", func() {
		m := big.NewInt(10)
		c, _, err := pk.Encrypt(rand.Reader, m)
		Expect(err).NotTo(HaveOccurred())
		r, err := rand.Int(rand.Reader, pk.N())
		Expect(err).NotTo(HaveOccurred())
		combined, err := c.MulScalarThenEncrypt(big.NewInt(3), big.NewInt(-7), r)
		Expect(err).NotTo(HaveOccurred())
		got, err := sk.Decrypt(combined)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Cmp(big.NewInt(23))).To(BeZero())
	})
})

var _ = Describe("randomizer recovery", func() {
	It("recovers the randomizer used to encrypt", func() {
		m := big.NewInt(31337)
		rho, err := rand.Int(rand.Reader, pk.N())
		Expect(err).NotTo(HaveOccurred())
		rho.Mod(rho, pk.N())
		if rho.Sign() == 0 {
			rho = big.NewInt(1)
		}
		c, err := pk.EncryptWithRandomizer(m, rho)
		Expect(err).NotTo(HaveOccurred())
		got, err := sk.RandomizerFor(c, m)
		Expect(err).NotTo(HaveOccurred())
		reEnc, err := pk.EncryptWithRandomizer(m, got)
		Expect(err).NotTo(HaveOccurred())
		Expect(reEnc.Value().Cmp(c.Value())).To(BeZero())
	})
})
