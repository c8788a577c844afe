package auction

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	snapshotEnc cbor.EncMode
	snapshotDec cbor.DecMode
)

func init() {
	var err error
	if snapshotEnc, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if snapshotDec, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(err)
	}
}

// MarshalSnapshot encodes the state as deterministic CBOR: equal states
// always produce equal bytes.
func MarshalSnapshot(s *State) ([]byte, error) {
	b, err := snapshotEnc.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return b, nil
}

// UnmarshalSnapshot decodes a state written by MarshalSnapshot.
func UnmarshalSnapshot(data []byte) (*State, error) {
	var s State
	if err := snapshotDec.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if s.Auctions == nil {
		s.Auctions = make(map[NFTID]*AuctionData)
	}
	if s.Claims == nil {
		s.Claims = make(map[AccountID]Balance)
	}
	return &s, nil
}
