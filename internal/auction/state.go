package auction

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/jensholdgaard/auctiond/internal/event"
)

// State is everything the engine persists: the live auctions, the shared
// deadline schedule, the pending claims and the bid history cap. Block and
// Version track the last applied block and event.
type State struct {
	Auctions       map[NFTID]*AuctionData `json:"auctions" cbor:"1,keyasint"`
	Deadlines      DeadlineList           `json:"deadlines" cbor:"2,keyasint"`
	Claims         map[AccountID]Balance  `json:"claims" cbor:"3,keyasint"`
	BidHistorySize uint16                 `json:"bid_history_size" cbor:"4,keyasint"`
	Block          BlockNumber            `json:"block" cbor:"5,keyasint"`
	Version        int                    `json:"version" cbor:"6,keyasint"`
}

// NewState returns an empty state whose auctions keep bidHistorySize bids.
func NewState(bidHistorySize uint16) *State {
	return &State{
		Auctions:       make(map[NFTID]*AuctionData),
		Claims:         make(map[AccountID]Balance),
		BidHistorySize: bidHistorySize,
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := *s
	c.Auctions = make(map[NFTID]*AuctionData, len(s.Auctions))
	for id, a := range s.Auctions {
		c.Auctions[id] = a.Clone()
	}
	c.Deadlines = s.Deadlines.Clone()
	c.Claims = maps.Clone(s.Claims)
	if c.Claims == nil {
		c.Claims = make(map[AccountID]Balance)
	}
	return &c
}

// Escrowed sums every live bid and unclaimed claim. It equals the balance the
// custody account must hold.
func (s *State) Escrowed() Balance {
	var total Balance
	for _, a := range s.Auctions {
		for _, b := range a.Bidders.List {
			total += b.Amount
		}
	}
	for _, c := range s.Claims {
		total += c
	}
	return total
}

// Apply folds one auction event into the state.
func (s *State) Apply(evt event.Event) error {
	var err error
	switch evt.Type {
	case event.AuctionCreated:
		var d event.AuctionCreatedData
		if err = json.Unmarshal(evt.Data, &d); err == nil {
			s.applyCreated(d)
		}
	case event.AuctionCancelled:
		var d event.AuctionCancelledData
		if err = json.Unmarshal(evt.Data, &d); err == nil {
			s.applyCancelled(d)
		}
	case event.BidAdded:
		var d event.BidAddedData
		if err = json.Unmarshal(evt.Data, &d); err == nil {
			s.applyBidAdded(d)
		}
	case event.BidRemoved:
		var d event.BidRemovedData
		if err = json.Unmarshal(evt.Data, &d); err == nil {
			s.applyBidRemoved(d)
		}
	case event.AuctionCompleted:
		var d event.AuctionCompletedData
		if err = json.Unmarshal(evt.Data, &d); err == nil {
			s.applyCompleted(d)
		}
	case event.BalanceClaimed:
		var d event.BalanceClaimedData
		if err = json.Unmarshal(evt.Data, &d); err == nil {
			s.applyClaimed(d)
		}
	default:
		return fmt.Errorf("unknown auction event type %q", evt.Type)
	}
	if err != nil {
		return fmt.Errorf("decoding %s event %d: %w", evt.Type, evt.Version, err)
	}
	s.Version = evt.Version
	return nil
}

// Replay applies events in order.
func (s *State) Replay(events []event.Event) error {
	for _, evt := range events {
		if err := s.Apply(evt); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) addClaim(account AccountID, amount Balance) {
	if amount == 0 {
		return
	}
	s.Claims[account] += amount
}

// refundAll turns every bid still held by a into a claim.
func (s *State) refundAll(a *AuctionData) {
	for _, b := range a.Bidders.List {
		s.addClaim(b.Bidder, b.Amount)
	}
	a.Bidders.List = a.Bidders.List[:0]
}

func (s *State) applyCreated(d event.AuctionCreatedData) {
	s.Block = d.Block
	s.Auctions[d.NFTID] = &AuctionData{
		Creator:       d.Creator,
		StartBlock:    d.StartBlock,
		EndBlock:      d.EndBlock,
		StartPrice:    d.StartPrice,
		BuyItPrice:    d.BuyItPrice,
		Bidders:       NewBidderList(s.BidHistorySize),
		MarketplaceID: d.MarketplaceID,
	}
	s.Deadlines.Insert(d.NFTID, d.EndBlock)
}

func (s *State) applyCancelled(d event.AuctionCancelledData) {
	s.Block = d.Block
	if a, ok := s.Auctions[d.NFTID]; ok {
		s.refundAll(a)
	}
	delete(s.Auctions, d.NFTID)
	s.Deadlines.Remove(d.NFTID)
}

func (s *State) applyBidAdded(d event.BidAddedData) {
	s.Block = d.Block
	a, ok := s.Auctions[d.NFTID]
	if !ok {
		return
	}
	a.Bidders.RemoveBid(d.Bidder)
	if evicted, ok := a.Bidders.InsertNewBid(d.Bidder, d.Amount); ok {
		s.addClaim(evicted.Bidder, evicted.Amount)
	}
	if d.EndBlock != a.EndBlock {
		a.EndBlock = d.EndBlock
		s.Deadlines.Update(d.NFTID, d.EndBlock)
	}
	a.IsExtended = a.IsExtended || d.IsExtended
}

func (s *State) applyBidRemoved(d event.BidRemovedData) {
	s.Block = d.Block
	if a, ok := s.Auctions[d.NFTID]; ok {
		a.Bidders.RemoveBid(d.Bidder)
	}
}

func (s *State) applyCompleted(d event.AuctionCompletedData) {
	s.Block = d.Block
	if a, ok := s.Auctions[d.NFTID]; ok {
		if d.NewOwner != nil && !d.BuyItNow {
			a.Bidders.RemoveHighestBid()
		}
		s.refundAll(a)
	}
	delete(s.Auctions, d.NFTID)
	s.Deadlines.Remove(d.NFTID)
}

func (s *State) applyClaimed(d event.BalanceClaimedData) {
	s.Block = d.Block
	delete(s.Claims, d.Account)
}
