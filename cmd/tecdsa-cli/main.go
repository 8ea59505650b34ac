// Command tecdsa-cli drives the threshold-ECDSA engine end to end over
// the in-process loopback transport: distributed keygen (refresh from
// zero), share refresh, interactive signing, and verification. It exists
// to exercise and demonstrate the protocol stack; every party runs inside
// this one process, so it is a development tool, not a deployment.
package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mpc-go/threshold/pkg/keyshare"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/round"
	"github.com/mpc-go/threshold/pkg/transport"
	"github.com/mpc-go/threshold/protocols/keyrefresh"
	"github.com/mpc-go/threshold/protocols/sign"
)

var (
	shareDir  string
	numParty  int
	primeBits int
	message   string
	sessionID string

	rootCmd = &cobra.Command{
		Use:   "tecdsa-cli",
		Short: "CLI driver for the CGGMP21 threshold ECDSA engine",
		Long: `Runs distributed keygen, key refresh and interactive signing for a
group of parties simulated in-process over the loopback transport.`,
	}

	keygenCmd = &cobra.Command{
		Use:   "keygen",
		Short: "Generate key shares for n parties",
		Long:  `Runs key refresh from the zero share, which is distributed keygen, and writes one share file per party.`,
		RunE:  runKeygen,
	}

	refreshCmd = &cobra.Command{
		Use:   "refresh",
		Short: "Refresh existing key shares",
		Long:  `Re-randomizes every share and regenerates all auxiliary material; the verifying key is unchanged.`,
		RunE:  runRefresh,
	}

	signCmd = &cobra.Command{
		Use:   "sign",
		Short: "Produce a threshold ECDSA signature",
		RunE:  runSign,
	}

	demoCmd = &cobra.Command{
		Use:   "demo",
		Short: "Run keygen, refresh and signing in memory",
		RunE:  runDemo,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&shareDir, "dir", "d", "shares", "directory holding share files")
	rootCmd.PersistentFlags().IntVar(&primeBits, "prime-bits", 1024, "safe-prime size; 512 runs in seconds for demos")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "tecdsa-cli", "session identifier binding all parties to one run")
	keygenCmd.Flags().IntVarP(&numParty, "parties", "n", 3, "number of parties")
	demoCmd.Flags().IntVarP(&numParty, "parties", "n", 3, "number of parties")
	signCmd.Flags().StringVarP(&message, "message", "m", "", "message to sign")
	_ = signCmd.MarkFlagRequired("message")

	rootCmd.AddCommand(keygenCmd, refreshCmd, signCmd, demoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func schemeParams() *params.SchemeParams {
	p := params.Production()
	p.PrimeBits = primeBits
	return p
}

func partyIDs(n int) party.IDSlice {
	ids := make([]party.ID, n)
	for i := range ids {
		ids[i] = party.ID(fmt.Sprintf("party-%d", i+1))
	}
	return party.NewIDSlice(ids)
}

func sharePath(id party.ID) string {
	return filepath.Join(shareDir, string(id)+".share")
}

func writeShares(shares map[party.ID]*keyshare.KeyShare) error {
	if err := os.MkdirAll(shareDir, 0o700); err != nil {
		return err
	}
	for id, ks := range shares {
		data, err := ks.MarshalBinary()
		if err != nil {
			return fmt.Errorf("serializing share for %s: %w", id, err)
		}
		if err := os.WriteFile(sharePath(id), data, 0o600); err != nil {
			return err
		}
	}
	return nil
}

func readShares(p *params.SchemeParams) (map[party.ID]*keyshare.KeyShare, error) {
	entries, err := os.ReadDir(shareDir)
	if err != nil {
		return nil, err
	}
	shares := make(map[party.ID]*keyshare.KeyShare)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".share" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(shareDir, e.Name()))
		if err != nil {
			return nil, err
		}
		ks, err := keyshare.UnmarshalKeyShare(p.Group, data)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", e.Name(), err)
		}
		shares[ks.ID] = ks
	}
	if len(shares) == 0 {
		return nil, fmt.Errorf("no .share files in %s", shareDir)
	}
	return shares, nil
}

func runRefreshRound(p *params.SchemeParams, old map[party.ID]*keyshare.KeyShare, session []byte) (map[party.ID]*keyshare.KeyShare, error) {
	var parties party.IDSlice
	for id := range old {
		parties = append(parties, id)
	}
	parties = party.NewIDSlice(parties)

	starts := make(map[party.ID]round.StartFunc, len(old))
	for id, ks := range old {
		starts[id] = keyrefresh.Start(rand.Reader, p, id, parties, ks)
	}
	results, err := transport.Run(session, starts)
	if err != nil {
		return nil, err
	}
	next := make(map[party.ID]*keyshare.KeyShare, len(results))
	for id, r := range results {
		next[id] = r.(*keyshare.KeyShare)
	}
	return next, nil
}

func runKeygen(cmd *cobra.Command, args []string) error {
	p := schemeParams()
	parties := partyIDs(numParty)

	fmt.Printf("Generating %d-of-%d shares (%d-bit safe primes, this can take a while)...\n",
		numParty, numParty, primeBits)

	empty := make(map[party.ID]*keyshare.KeyShare, numParty)
	for _, id := range parties {
		empty[id] = keyshare.NewEmpty(p.Group, id, parties)
	}
	shares, err := runRefreshRound(p, empty, []byte(sessionID+"/keygen"))
	if err != nil {
		return err
	}
	if err := writeShares(shares); err != nil {
		return err
	}

	vk, err := shares[parties[0]].VerifyingKey().MarshalBinary()
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d shares to %s\n", len(shares), shareDir)
	fmt.Printf("Verifying key: %s\n", hex.EncodeToString(vk))
	return nil
}

func runRefresh(cmd *cobra.Command, args []string) error {
	p := schemeParams()
	old, err := readShares(p)
	if err != nil {
		return err
	}
	shares, err := runRefreshRound(p, old, []byte(sessionID+"/refresh"))
	if err != nil {
		return err
	}
	if err := writeShares(shares); err != nil {
		return err
	}
	fmt.Printf("Refreshed %d shares; verifying key unchanged\n", len(shares))
	return nil
}

func runSign(cmd *cobra.Command, args []string) error {
	p := schemeParams()
	shares, err := readShares(p)
	if err != nil {
		return err
	}

	digest := sha256.Sum256([]byte(message))
	sig, err := sign.Interactive([]byte(sessionID+"/sign"), rand.Reader, p, shares, digest[:])
	if err != nil {
		return err
	}

	var anyShare *keyshare.KeyShare
	for _, ks := range shares {
		anyShare = ks
		break
	}
	vk := anyShare.VerifyingKey()
	mHash := p.Group.NewScalar().SetNat(new(big.Int).SetBytes(digest[:]))
	if !sig.Verify(p.Group, vk, mHash) {
		return fmt.Errorf("assembled signature failed local verification")
	}

	fmt.Printf("r: %x\n", sig.RScalar(p.Group).BigInt())
	fmt.Printf("s: %x\n", sig.S.BigInt())
	return nil
}

func runDemo(cmd *cobra.Command, args []string) error {
	p := schemeParams()
	parties := partyIDs(numParty)

	fmt.Printf("[1/3] keygen for %d parties...\n", numParty)
	empty := make(map[party.ID]*keyshare.KeyShare, numParty)
	for _, id := range parties {
		empty[id] = keyshare.NewEmpty(p.Group, id, parties)
	}
	shares, err := runRefreshRound(p, empty, []byte(sessionID+"/demo-keygen"))
	if err != nil {
		return err
	}
	vk := shares[parties[0]].VerifyingKey()

	fmt.Println("[2/3] refreshing shares...")
	shares, err = runRefreshRound(p, shares, []byte(sessionID+"/demo-refresh"))
	if err != nil {
		return err
	}
	if !shares[parties[0]].VerifyingKey().Equal(vk) {
		return fmt.Errorf("refresh changed the verifying key")
	}

	fmt.Println("[3/3] signing...")
	digest := sha256.Sum256([]byte("tecdsa-cli demo message"))
	sig, err := sign.Interactive([]byte(sessionID+"/demo-sign"), rand.Reader, p, shares, digest[:])
	if err != nil {
		return err
	}
	mHash := p.Group.NewScalar().SetNat(new(big.Int).SetBytes(digest[:]))
	if !sig.Verify(p.Group, vk, mHash) {
		return fmt.Errorf("signature failed verification")
	}
	recovered, err := sig.RecoverPublicKey(p.Group, mHash)
	if err != nil {
		return err
	}
	fmt.Printf("signature valid; verifying key recoverable: %v\n", recovered.Equal(vk))
	return nil
}
