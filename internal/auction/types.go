package auction

// Identifier and amount types. They alias the primitive types the store
// layer uses so records flow between the two without conversions.
type (
	AccountID     = string
	NFTID         = uint32
	MarketplaceID = uint32
	BlockNumber   = uint32
	Balance       = uint64
)

// Bid is one bidder's standing offer.
type Bid struct {
	Bidder AccountID `json:"bidder" cbor:"1,keyasint"`
	Amount Balance   `json:"amount" cbor:"2,keyasint"`
}

// AuctionData is the live record of one auction, keyed by the NFT it sells.
type AuctionData struct {
	Creator       AccountID     `json:"creator" cbor:"1,keyasint"`
	StartBlock    BlockNumber   `json:"start_block" cbor:"2,keyasint"`
	EndBlock      BlockNumber   `json:"end_block" cbor:"3,keyasint"`
	StartPrice    Balance       `json:"start_price" cbor:"4,keyasint"`
	BuyItPrice    *Balance      `json:"buy_it_price,omitempty" cbor:"5,keyasint,omitempty"`
	Bidders       BidderList    `json:"bidders" cbor:"6,keyasint"`
	MarketplaceID MarketplaceID `json:"marketplace_id" cbor:"7,keyasint"`
	IsExtended    bool          `json:"is_extended" cbor:"8,keyasint"`
}

// Clone returns a deep copy.
func (a *AuctionData) Clone() *AuctionData {
	c := *a
	if a.BuyItPrice != nil {
		p := *a.BuyItPrice
		c.BuyItPrice = &p
	}
	c.Bidders = a.Bidders.Clone()
	return &c
}

// HasStarted reports whether bidding is open at block.
func (a *AuctionData) HasStarted(block BlockNumber) bool {
	return block >= a.StartBlock
}

// RemainingBlocks is the number of blocks until EndBlock, zero once passed.
func (a *AuctionData) RemainingBlocks(block BlockNumber) BlockNumber {
	if block >= a.EndBlock {
		return 0
	}
	return a.EndBlock - block
}

// CreateAuctionParams are the terms of a new auction.
type CreateAuctionParams struct {
	Creator       AccountID
	NFTID         NFTID
	MarketplaceID MarketplaceID
	StartBlock    BlockNumber
	EndBlock      BlockNumber
	StartPrice    Balance
	BuyItPrice    *Balance
}
