package event

import (
	"encoding/json"
	"time"
)

// Type identifies an event kind.
type Type string

const (
	AuctionCreated   Type = "auction.created"
	AuctionCancelled Type = "auction.cancelled"
	AuctionCompleted Type = "auction.completed"
	BidAdded         Type = "auction.bid_added"
	BidRemoved       Type = "auction.bid_removed"
	BalanceClaimed   Type = "auction.balance_claimed"

	WalletDeposited Type = "wallet.deposited"
	WalletWithdrawn Type = "wallet.withdrawn"
)

// AuctionsAggregate is the aggregate ID under which the auction engine
// records its totally ordered event log.
const AuctionsAggregate = "auctions"

// Event represents a single domain event.
type Event struct {
	ID          string          `json:"id" db:"id"`
	AggregateID string          `json:"aggregate_id" db:"aggregate_id"`
	Type        Type            `json:"type" db:"type"`
	Data        json.RawMessage `json:"data" db:"data"`
	Version     int             `json:"version" db:"version"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// AuctionCreatedData is the payload for AuctionCreated events.
type AuctionCreatedData struct {
	Block         uint32  `json:"block"`
	NFTID         uint32  `json:"nft_id"`
	Creator       string  `json:"creator"`
	MarketplaceID uint32  `json:"marketplace_id"`
	StartBlock    uint32  `json:"start_block"`
	EndBlock      uint32  `json:"end_block"`
	StartPrice    uint64  `json:"start_price"`
	BuyItPrice    *uint64 `json:"buy_it_price,omitempty"`
}

// AuctionCancelledData is the payload for AuctionCancelled events.
type AuctionCancelledData struct {
	Block uint32 `json:"block"`
	NFTID uint32 `json:"nft_id"`
}

// AuctionCompletedData is the payload for AuctionCompleted events.
// NewOwner and Amount are nil when the auction closed unsold.
type AuctionCompletedData struct {
	Block    uint32  `json:"block"`
	NFTID    uint32  `json:"nft_id"`
	NewOwner *string `json:"new_owner,omitempty"`
	Amount   *uint64 `json:"amount,omitempty"`
	// BuyItNow is set when the sale did not come from the bidder list.
	BuyItNow bool `json:"buy_it_now,omitempty"`
}

// BidAddedData is the payload for BidAdded events.
type BidAddedData struct {
	Block      uint32 `json:"block"`
	NFTID      uint32 `json:"nft_id"`
	Bidder     string `json:"bidder"`
	Amount     uint64 `json:"amount"`
	EndBlock   uint32 `json:"end_block"`
	IsExtended bool   `json:"is_extended"`
}

// BidRemovedData is the payload for BidRemoved events.
type BidRemovedData struct {
	Block  uint32 `json:"block"`
	NFTID  uint32 `json:"nft_id"`
	Bidder string `json:"bidder"`
	Amount uint64 `json:"amount"`
}

// BalanceClaimedData is the payload for BalanceClaimed events.
type BalanceClaimedData struct {
	Block   uint32 `json:"block"`
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

// WalletChangeData is the payload for wallet events.
type WalletChangeData struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
	Reason  string `json:"reason"`
}
