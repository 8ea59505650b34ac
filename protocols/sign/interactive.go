package sign

import (
	"fmt"
	"io"

	"github.com/mpc-go/threshold/pkg/curve"
	"github.com/mpc-go/threshold/pkg/keyshare"
	"github.com/mpc-go/threshold/pkg/params"
	"github.com/mpc-go/threshold/pkg/party"
	"github.com/mpc-go/threshold/pkg/round"
	"github.com/mpc-go/threshold/pkg/transport"
	"github.com/mpc-go/threshold/protocols/presign"
)

// Interactive composes presigning and the signing combine into one
// synchronous signing run over the loopback transport: every party in
// shares executes the three presigning rounds, then the one-round
// combine, and the common assembled signature is returned. This is the
// "interactive signing" composition of the protocol façade; callers with
// a real transport instead drive presign.Start and Start separately and
// keep the PreSignature until a message arrives.
func Interactive(sessionID []byte, rnd io.Reader, p *params.SchemeParams, shares map[party.ID]*keyshare.KeyShare, messageHash []byte) (*curve.Signature, error) {
	var parties party.IDSlice
	for id := range shares {
		parties = append(parties, id)
	}
	parties = party.NewIDSlice(parties)

	presignStarts := make(map[party.ID]round.StartFunc, len(shares))
	for id, ks := range shares {
		presignStarts[id] = presign.Start(rnd, p, id, parties, ks)
	}
	presignResults, err := transport.Run(append([]byte("presign/"), sessionID...), presignStarts)
	if err != nil {
		return nil, fmt.Errorf("sign: presigning failed: %w", err)
	}

	signStarts := make(map[party.ID]round.StartFunc, len(shares))
	for id, ks := range shares {
		presig, ok := presignResults[id].(*presign.PreSignature)
		if !ok {
			return nil, fmt.Errorf("sign: party %q produced no presignature", id)
		}
		signStarts[id] = Start(rnd, p, id, parties, ks, presig, messageHash)
	}
	signResults, err := transport.Run(append([]byte("sign/"), sessionID...), signStarts)
	if err != nil {
		return nil, fmt.Errorf("sign: combine failed: %w", err)
	}

	var sig *curve.Signature
	for id, result := range signResults {
		partySig, ok := result.(*curve.Signature)
		if !ok {
			return nil, fmt.Errorf("sign: party %q produced no signature", id)
		}
		if sig == nil {
			sig = partySig
			continue
		}
		if !sig.R.Equal(partySig.R) || !sig.S.Equal(partySig.S) {
			return nil, fmt.Errorf("sign: party %q assembled a diverging signature", id)
		}
	}
	return sig, nil
}
