package auction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jensholdgaard/auctiond/internal/config"
	"github.com/jensholdgaard/auctiond/internal/event"
	"github.com/jensholdgaard/auctiond/internal/store"
)

const instrumentationName = "github.com/jensholdgaard/auctiond/internal/auction"

// Engine runs the auction state machine. Commands and the block hook are
// serialized; views read a consistent state between commands.
type Engine struct {
	cfg       config.AuctionConfig
	custody   AccountID
	nfts      NFTOracle
	markets   MarketplaceOracle
	ledger    Ledger
	events    event.Store
	snapshots event.SnapshotStore
	logger    *slog.Logger
	tracer    trace.Tracer

	completions   metric.Int64Counter
	sweepFailures metric.Int64Counter
	bids          metric.Int64Counter

	mu        sync.RWMutex
	state     *State
	listeners []func(event.Event)
}

// NewEngine returns an Engine with empty state. Call Recover to load
// persisted state. snapshots may be nil.
func NewEngine(
	cfg config.AuctionConfig,
	c Collaborators,
	events event.Store,
	snapshots event.SnapshotStore,
	logger *slog.Logger,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*Engine, error) {
	meter := mp.Meter(instrumentationName)
	completions, err := meter.Int64Counter("auction.completions",
		metric.WithDescription("Auctions closed by the deadline sweep or by their creator."))
	if err != nil {
		return nil, fmt.Errorf("creating completions counter: %w", err)
	}
	sweepFailures, err := meter.Int64Counter("auction.sweep.failures",
		metric.WithDescription("Deadline sweep completions that failed and were retried next block."))
	if err != nil {
		return nil, fmt.Errorf("creating sweep failures counter: %w", err)
	}
	bids, err := meter.Int64Counter("auction.bids",
		metric.WithDescription("Accepted bids."))
	if err != nil {
		return nil, fmt.Errorf("creating bids counter: %w", err)
	}

	return &Engine{
		cfg:           cfg,
		custody:       CustodyAccount(cfg.PalletID),
		nfts:          c.NFTs,
		markets:       c.Marketplaces,
		ledger:        c.Ledger,
		events:        events,
		snapshots:     snapshots,
		logger:        logger,
		tracer:        tp.Tracer(instrumentationName),
		completions:   completions,
		sweepFailures: sweepFailures,
		bids:          bids,
		state:         NewState(cfg.BidHistorySize),
	}, nil
}

// Subscribe registers fn to receive every event the engine records. fn runs
// while the engine lock is held and must not block or call back into the engine.
func (e *Engine) Subscribe(fn func(event.Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// CreateAuction lists an NFT for auction.
func (e *Engine) CreateAuction(ctx context.Context, p CreateAuctionParams) error {
	ctx, span := e.tracer.Start(ctx, "Engine.CreateAuction",
		trace.WithAttributes(
			attribute.String("creator", p.Creator),
			attribute.Int64("nft_id", int64(p.NFTID)),
			attribute.Int64("marketplace_id", int64(p.MarketplaceID)),
		),
	)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validateCreate(ctx, p); err != nil {
		return err
	}

	j := e.begin()
	defer j.close(ctx)

	if err := j.setListedForSale(ctx, p.NFTID, true); err != nil {
		return fmt.Errorf("listing nft %d: %w", p.NFTID, err)
	}

	d := event.AuctionCreatedData{
		Block:         e.state.Block,
		NFTID:         p.NFTID,
		Creator:       p.Creator,
		MarketplaceID: p.MarketplaceID,
		StartBlock:    p.StartBlock,
		EndBlock:      p.EndBlock,
		StartPrice:    p.StartPrice,
		BuyItPrice:    p.BuyItPrice,
	}
	if err := e.record(ctx, j, event.AuctionCreated, d, func() { e.state.applyCreated(d) }); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "auction created",
		slog.Uint64("nft_id", uint64(p.NFTID)),
		slog.String("creator", p.Creator),
		slog.Uint64("start_block", uint64(p.StartBlock)),
		slog.Uint64("end_block", uint64(p.EndBlock)),
	)
	return nil
}

func (e *Engine) validateCreate(ctx context.Context, p CreateAuctionParams) error {
	current := e.state.Block

	if p.StartBlock < current {
		return ErrAuctionCannotStartInThePast
	}
	if p.StartBlock >= p.EndBlock {
		return ErrAuctionCannotEndBeforeItHasStarted
	}
	duration := p.EndBlock - p.StartBlock
	if duration > e.cfg.MaxAuctionDuration {
		return ErrAuctionDurationIsTooLong
	}
	if duration < e.cfg.MinAuctionDuration {
		return ErrAuctionDurationIsTooShort
	}
	if p.StartBlock-current > e.cfg.MaxAuctionDelay {
		return ErrAuctionStartIsTooFarAway
	}
	if p.BuyItPrice != nil && *p.BuyItPrice <= p.StartPrice {
		return ErrBuyItPriceCannotBeLowerOrEqualThanStartPrice
	}

	nft, err := e.nfts.Get(ctx, p.NFTID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNFTDoesNotExist
	}
	if err != nil {
		return fmt.Errorf("getting nft %d: %w", p.NFTID, err)
	}
	if nft.Owner != p.Creator {
		return ErrCannotAuctionNotOwnedNFTs
	}
	if _, live := e.state.Auctions[p.NFTID]; live || nft.ListedForSale {
		return ErrCannotAuctionNFTsListedForSale
	}
	if nft.InTransmission {
		return ErrCannotAuctionNFTsInTransmission
	}
	if nft.ConvertedToCapsule {
		return ErrCannotAuctionCapsules
	}
	if nft.Viewer != nil {
		return ErrCannotAuctionLentNFTs
	}

	completed, err := e.nfts.IsSeriesCompleted(ctx, p.NFTID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("checking series of nft %d: %w", p.NFTID, err)
	}
	if !completed {
		return ErrCannotAuctionNFTsInUncompletedSeries
	}

	if err := e.markets.IsAllowedToList(ctx, p.MarketplaceID, p.Creator); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMarketplaceNotFound
		}
		return err
	}

	if e.state.Deadlines.Len() >= e.cfg.ParallelAuctionLimit {
		return ErrMaximumAuctionsLimitReached
	}
	return nil
}

// CancelAuction withdraws an auction that has not started yet.
func (e *Engine) CancelAuction(ctx context.Context, caller AccountID, id NFTID) error {
	ctx, span := e.tracer.Start(ctx, "Engine.CancelAuction",
		trace.WithAttributes(
			attribute.String("caller", caller),
			attribute.Int64("nft_id", int64(id)),
		),
	)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.state.Auctions[id]
	if !ok {
		return ErrAuctionDoesNotExist
	}
	if a.Creator != caller {
		return ErrNotTheAuctionCreator
	}
	if a.HasStarted(e.state.Block) {
		return ErrCannotCancelAuctionInProgress
	}

	j := e.begin()
	defer j.close(ctx)

	if err := j.setListedForSale(ctx, id, false); err != nil {
		return fmt.Errorf("unlisting nft %d: %w", id, err)
	}

	d := event.AuctionCancelledData{Block: e.state.Block, NFTID: id}
	if err := e.record(ctx, j, event.AuctionCancelled, d, func() { e.state.applyCancelled(d) }); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "auction cancelled", slog.Uint64("nft_id", uint64(id)))
	return nil
}

// EndAuction lets the creator close an auction whose end was extended by a
// late bid.
func (e *Engine) EndAuction(ctx context.Context, caller AccountID, id NFTID) error {
	ctx, span := e.tracer.Start(ctx, "Engine.EndAuction",
		trace.WithAttributes(
			attribute.String("caller", caller),
			attribute.Int64("nft_id", int64(id)),
		),
	)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.state.Auctions[id]
	if !ok {
		return ErrAuctionDoesNotExist
	}
	if a.Creator != caller {
		return ErrNotTheAuctionCreator
	}
	if !a.IsExtended {
		return ErrCannotEndAuctionThatWasNotExtended
	}
	if err := e.complete(ctx, id, a); err != nil {
		return err
	}
	e.completions.Add(ctx, 1, metric.WithAttributes(attribute.String("trigger", "creator")))
	return nil
}

// CompleteAuction closes an auction regardless of its deadline. It is the
// privileged path and performs no authorization.
func (e *Engine) CompleteAuction(ctx context.Context, id NFTID) error {
	ctx, span := e.tracer.Start(ctx, "Engine.CompleteAuction",
		trace.WithAttributes(attribute.Int64("nft_id", int64(id))),
	)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.state.Auctions[id]
	if !ok {
		return ErrAuctionDoesNotExist
	}
	if err := e.complete(ctx, id, a); err != nil {
		return err
	}
	e.completions.Add(ctx, 1, metric.WithAttributes(attribute.String("trigger", "root")))
	return nil
}

// complete settles a to its highest bidder, or just unlists it when unsold.
// Every other bidder is left a claim.
func (e *Engine) complete(ctx context.Context, id NFTID, a *AuctionData) error {
	j := e.begin()
	defer j.close(ctx)

	d := event.AuctionCompletedData{Block: e.state.Block, NFTID: id}
	if highest, ok := a.Bidders.HighestBid(); ok {
		if err := e.settle(ctx, j, id, a, highest.Bidder, highest.Amount, e.custody, store.AllowDeath); err != nil {
			return err
		}
		d.NewOwner = &highest.Bidder
		d.Amount = &highest.Amount
	} else if err := j.setListedForSale(ctx, id, false); err != nil {
		return fmt.Errorf("unlisting nft %d: %w", id, err)
	}

	if err := e.record(ctx, j, event.AuctionCompleted, d, func() { e.state.applyCompleted(d) }); err != nil {
		return err
	}

	if d.NewOwner != nil {
		e.logger.InfoContext(ctx, "auction completed",
			slog.Uint64("nft_id", uint64(id)),
			slog.String("winner", *d.NewOwner),
			slog.Uint64("price", *d.Amount),
		)
	} else {
		e.logger.InfoContext(ctx, "auction completed unsold", slog.Uint64("nft_id", uint64(id)))
	}
	return nil
}

// settle pays the marketplace and the creator out of source and hands the
// NFT to buyer.
func (e *Engine) settle(ctx context.Context, j *journal, id NFTID, a *AuctionData, buyer AccountID, price Balance, source AccountID, existence store.Existence) error {
	m, err := e.markets.Get(ctx, a.MarketplaceID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrMarketplaceNotFound
	}
	if err != nil {
		return fmt.Errorf("getting marketplace %d: %w", a.MarketplaceID, err)
	}

	toMarketplace, toCreator := splitCommission(price, m.CommissionFee)
	if err := j.transfer(ctx, source, m.Owner, toMarketplace, existence); err != nil {
		return fmt.Errorf("paying marketplace commission: %w", err)
	}
	if err := j.transfer(ctx, source, a.Creator, toCreator, existence); err != nil {
		return fmt.Errorf("paying auction creator: %w", err)
	}
	if err := j.setOwner(ctx, id, buyer, a.Creator); err != nil {
		return fmt.Errorf("transferring nft %d: %w", id, err)
	}
	if err := j.setListedForSale(ctx, id, false); err != nil {
		return fmt.Errorf("unlisting nft %d: %w", id, err)
	}
	return nil
}

// AddBid places or raises bidder's bid. A raise only escrows the difference.
func (e *Engine) AddBid(ctx context.Context, bidder AccountID, id NFTID, amount Balance) error {
	ctx, span := e.tracer.Start(ctx, "Engine.AddBid",
		trace.WithAttributes(
			attribute.String("bidder", bidder),
			attribute.Int64("nft_id", int64(id)),
			attribute.String("amount", strconv.FormatUint(amount, 10)),
		),
	)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.state.Block
	a, ok := e.state.Auctions[id]
	if !ok {
		return ErrAuctionDoesNotExist
	}
	if a.Creator == bidder {
		return ErrCannotAddBidToYourOwnAuctions
	}
	if !a.HasStarted(current) {
		return ErrAuctionNotStarted
	}
	if highest, ok := a.Bidders.HighestBid(); ok {
		if amount <= highest.Amount {
			return ErrCannotBidLessThanTheHighestBid
		}
	} else if amount <= a.StartPrice {
		return ErrCannotBidLessThanTheStartingPrice
	}

	escrow := amount
	if existing, ok := a.Bidders.FindBid(bidder); ok {
		escrow = amount - existing.Amount
	}

	j := e.begin()
	defer j.close(ctx)

	if err := j.transfer(ctx, bidder, e.custody, escrow, store.KeepAlive); err != nil {
		return fmt.Errorf("escrowing bid: %w", err)
	}

	endBlock, extended := a.EndBlock, a.IsExtended
	if remaining := a.RemainingBlocks(current); remaining < e.cfg.GracePeriod {
		endBlock += e.cfg.GracePeriod - remaining
		extended = true
	}

	d := event.BidAddedData{
		Block:      current,
		NFTID:      id,
		Bidder:     bidder,
		Amount:     amount,
		EndBlock:   endBlock,
		IsExtended: extended,
	}
	if err := e.record(ctx, j, event.BidAdded, d, func() { e.state.applyBidAdded(d) }); err != nil {
		return err
	}
	e.bids.Add(ctx, 1)

	e.logger.InfoContext(ctx, "bid added",
		slog.Uint64("nft_id", uint64(id)),
		slog.String("bidder", bidder),
		slog.Uint64("amount", amount),
		slog.Uint64("end_block", uint64(endBlock)),
	)
	return nil
}

// RemoveBid withdraws bidder's bid and returns the funds immediately. Not
// allowed once the auction is within its ending period.
func (e *Engine) RemoveBid(ctx context.Context, bidder AccountID, id NFTID) error {
	ctx, span := e.tracer.Start(ctx, "Engine.RemoveBid",
		trace.WithAttributes(
			attribute.String("bidder", bidder),
			attribute.Int64("nft_id", int64(id)),
		),
	)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.state.Auctions[id]
	if !ok {
		return ErrAuctionDoesNotExist
	}
	if a.RemainingBlocks(e.state.Block) <= e.cfg.EndingPeriod {
		return ErrCannotRemoveBidAtTheEndOfAuction
	}
	bid, ok := a.Bidders.FindBid(bidder)
	if !ok {
		return ErrBidDoesNotExist
	}

	j := e.begin()
	defer j.close(ctx)

	if err := j.transfer(ctx, e.custody, bidder, bid.Amount, store.AllowDeath); err != nil {
		return fmt.Errorf("refunding bid: %w", err)
	}

	d := event.BidRemovedData{Block: e.state.Block, NFTID: id, Bidder: bidder, Amount: bid.Amount}
	if err := e.record(ctx, j, event.BidRemoved, d, func() { e.state.applyBidRemoved(d) }); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "bid removed",
		slog.Uint64("nft_id", uint64(id)),
		slog.String("bidder", bidder),
		slog.Uint64("amount", bid.Amount),
	)
	return nil
}

// BuyItNow sells the NFT to buyer at the buy it price, paid from the buyer's
// own account. Outstanding bidders are left claims.
func (e *Engine) BuyItNow(ctx context.Context, buyer AccountID, id NFTID) error {
	ctx, span := e.tracer.Start(ctx, "Engine.BuyItNow",
		trace.WithAttributes(
			attribute.String("buyer", buyer),
			attribute.Int64("nft_id", int64(id)),
		),
	)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.state.Auctions[id]
	if !ok {
		return ErrAuctionDoesNotExist
	}
	if a.BuyItPrice == nil {
		return ErrAuctionDoesNotSupportBuyItNow
	}
	if a.Creator == buyer {
		return ErrCannotBuyItNowToYourOwnAuctions
	}
	if !a.HasStarted(e.state.Block) {
		return ErrAuctionNotStarted
	}
	price := *a.BuyItPrice
	if highest, ok := a.Bidders.HighestBid(); ok && highest.Amount >= price {
		return ErrCannotBuyItWhenABidIsHigherThanBuyItPrice
	}

	j := e.begin()
	defer j.close(ctx)

	if err := e.settle(ctx, j, id, a, buyer, price, buyer, store.KeepAlive); err != nil {
		return err
	}

	d := event.AuctionCompletedData{
		Block:    e.state.Block,
		NFTID:    id,
		NewOwner: &buyer,
		Amount:   &price,
		BuyItNow: true,
	}
	if err := e.record(ctx, j, event.AuctionCompleted, d, func() { e.state.applyCompleted(d) }); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "auction bought outright",
		slog.Uint64("nft_id", uint64(id)),
		slog.String("buyer", buyer),
		slog.Uint64("price", price),
	)
	return nil
}

// Claim pays out everything owed to account.
func (e *Engine) Claim(ctx context.Context, account AccountID) (Balance, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.Claim",
		trace.WithAttributes(attribute.String("account", account)),
	)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	amount, ok := e.state.Claims[account]
	if !ok {
		return 0, ErrClaimDoesNotExist
	}

	j := e.begin()
	defer j.close(ctx)

	if err := j.transfer(ctx, e.custody, account, amount, store.AllowDeath); err != nil {
		return 0, fmt.Errorf("paying claim: %w", err)
	}

	d := event.BalanceClaimedData{Block: e.state.Block, Account: account, Amount: amount}
	if err := e.record(ctx, j, event.BalanceClaimed, d, func() { e.state.applyClaimed(d) }); err != nil {
		return 0, err
	}

	e.logger.InfoContext(ctx, "balance claimed",
		slog.String("account", account),
		slog.Uint64("amount", amount),
	)
	return amount, nil
}

// OnInitialize advances the engine to block and completes the auctions whose
// deadline is due, oldest first. At most MaxCompletionsPerBlock deadlines are
// visited, dropped orphans included. A failed completion stops the sweep; the
// auction is retried next block.
// It returns the number of auctions completed.
func (e *Engine) OnInitialize(ctx context.Context, block BlockNumber) int {
	ctx, span := e.tracer.Start(ctx, "Engine.OnInitialize",
		trace.WithAttributes(attribute.Int64("block", int64(block))),
	)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if block > e.state.Block {
		e.state.Block = block
	}

	completed := 0
	for step := 0; step < e.cfg.MaxCompletionsPerBlock; step++ {
		id, ok := e.state.Deadlines.Next(e.state.Block)
		if !ok {
			break
		}
		a, ok := e.state.Auctions[id]
		if !ok {
			e.logger.WarnContext(ctx, "dropping deadline without auction", slog.Uint64("nft_id", uint64(id)))
			e.state.Deadlines.Remove(id)
			continue
		}
		if err := e.complete(ctx, id, a); err != nil {
			e.logger.ErrorContext(ctx, "failed to complete auction",
				slog.Uint64("nft_id", uint64(id)),
				slog.Uint64("block", uint64(e.state.Block)),
				slog.Any("error", err),
			)
			e.sweepFailures.Add(ctx, 1)
			break
		}
		completed++
		e.completions.Add(ctx, 1, metric.WithAttributes(attribute.String("trigger", "deadline")))
	}

	span.SetAttributes(attribute.Int("completed", completed))
	return completed
}

// record appends the event while j is still open, then commits j and
// applies the state change. A failed append leaves j to be reverted.
func (e *Engine) record(ctx context.Context, j *journal, typ event.Type, payload any, apply func()) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", typ, err)
	}

	evt := event.Event{
		AggregateID: event.AuctionsAggregate,
		Type:        typ,
		Data:        data,
		Version:     e.state.Version + 1,
	}
	if err := e.events.Append(ctx, evt); err != nil {
		return fmt.Errorf("appending %s event (version=%d): %w", typ, evt.Version, err)
	}

	j.commit()
	apply()
	e.state.Version = evt.Version

	for _, fn := range e.listeners {
		fn(evt)
	}
	return nil
}

// Snapshot saves the current state. It is a no-op without a snapshot store.
func (e *Engine) Snapshot(ctx context.Context) error {
	if e.snapshots == nil {
		return nil
	}
	ctx, span := e.tracer.Start(ctx, "Engine.Snapshot")
	defer span.End()

	e.mu.RLock()
	data, err := MarshalSnapshot(e.state)
	version := e.state.Version
	e.mu.RUnlock()
	if err != nil {
		return err
	}

	snap := event.Snapshot{AggregateID: event.AuctionsAggregate, Version: version, Data: data}
	if err := e.snapshots.Save(ctx, snap); err != nil {
		return fmt.Errorf("saving snapshot at version %d: %w", version, err)
	}
	e.logger.DebugContext(ctx, "snapshot saved", slog.Int("version", version), slog.Int("bytes", len(data)))
	return nil
}

// Recover rebuilds the state from the latest snapshot and the events
// recorded after it.
func (e *Engine) Recover(ctx context.Context) error {
	ctx, span := e.tracer.Start(ctx, "Engine.Recover")
	defer span.End()

	st := NewState(e.cfg.BidHistorySize)
	if e.snapshots != nil {
		snap, err := e.snapshots.Latest(ctx, event.AuctionsAggregate)
		switch {
		case errors.Is(err, event.ErrNoSnapshot):
		case err != nil:
			return fmt.Errorf("loading snapshot: %w", err)
		default:
			if st, err = UnmarshalSnapshot(snap.Data); err != nil {
				return err
			}
			st.Version = snap.Version
		}
	}

	events, err := e.events.LoadFrom(ctx, event.AuctionsAggregate, st.Version+1)
	if err != nil {
		return fmt.Errorf("loading auction events: %w", err)
	}
	if err := st.Replay(events); err != nil {
		return fmt.Errorf("replaying auction events: %w", err)
	}

	e.mu.Lock()
	e.state = st
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "auction state recovered",
		slog.Int("version", st.Version),
		slog.Int("replayed", len(events)),
		slog.Int("auctions", len(st.Auctions)),
		slog.Uint64("block", uint64(st.Block)),
	)
	return nil
}

// Auction returns a copy of the live auction for id.
func (e *Engine) Auction(id NFTID) (*AuctionData, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.state.Auctions[id]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}

// AuctionEntry pairs an auction with the NFT it sells.
type AuctionEntry struct {
	NFTID NFTID `json:"nft_id"`
	*AuctionData
}

// Auctions returns copies of all live auctions ordered by NFT id.
func (e *Engine) Auctions() []AuctionEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]AuctionEntry, 0, len(e.state.Auctions))
	for id, a := range e.state.Auctions {
		out = append(out, AuctionEntry{NFTID: id, AuctionData: a.Clone()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NFTID < out[j].NFTID })
	return out
}

// Deadlines returns the deadline schedule in firing order.
func (e *Engine) Deadlines() []Deadline {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Deadlines.Clone().Entries
}

// PendingClaim returns the amount account can claim.
func (e *Engine) PendingClaim(account AccountID) (Balance, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	amount, ok := e.state.Claims[account]
	return amount, ok
}

// BidHistorySize returns the bid cap applied to new auctions.
func (e *Engine) BidHistorySize() uint16 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.BidHistorySize
}

// CurrentBlock returns the last block the engine was initialized with.
func (e *Engine) CurrentBlock() BlockNumber {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Block
}

// CustodyAccount returns the escrow account holding bid funds.
func (e *Engine) CustodyAccount() AccountID {
	return e.custody
}

// State returns a copy of the whole engine state.
func (e *Engine) State() *State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}
