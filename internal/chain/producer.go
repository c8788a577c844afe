// Package chain produces blocks on a fixed cadence and drives the auction
// engine's per-block hook.
package chain

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jensholdgaard/auctiond/internal/clock"
	"github.com/jensholdgaard/auctiond/internal/config"
	"github.com/jensholdgaard/auctiond/internal/event"
)

// ErrStalled is reported by Check when no block was produced for too long.
var ErrStalled = errors.New("block production stalled")

// stallFactor is how many block times may pass before Check fails.
const stallFactor = 3

// heightAggregate is the snapshot key under which the last produced block
// number is kept.
const heightAggregate = "chain.height"

// BlockHook is what the Producer drives once per block.
type BlockHook interface {
	OnInitialize(ctx context.Context, block uint32) int
	Snapshot(ctx context.Context) error
	CurrentBlock() uint32
}

// Producer advances the block number every BlockTime.
type Producer struct {
	hook    BlockHook
	heights event.SnapshotStore
	cfg     config.ChainConfig
	clock  clock.Clock
	logger *slog.Logger
	tracer trace.Tracer

	mu          sync.Mutex
	block       uint32
	running     bool
	lastBlockAt time.Time
}

// NewProducer returns a Producer that resumes after the hook's current block.
// When heights is non-nil every produced block number is saved there and Run
// resumes after it, so empty blocks are not produced twice after a crash.
func NewProducer(hook BlockHook, heights event.SnapshotStore, cfg config.ChainConfig, clk clock.Clock, logger *slog.Logger, tp trace.TracerProvider) *Producer {
	return &Producer{
		hook:    hook,
		heights: heights,
		cfg:     cfg,
		clock:   clk,
		logger:  logger,
		tracer:  tp.Tracer("github.com/jensholdgaard/auctiond/internal/chain"),
		block:   max(hook.CurrentBlock(), cfg.GenesisBlock),
	}
}

// Resume moves the producer past the highest block known to the hook or the
// height store.
func (p *Producer) Resume(ctx context.Context) error {
	saved, err := p.savedHeight(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.block = max(p.block, p.hook.CurrentBlock(), saved)
	return nil
}

func (p *Producer) savedHeight(ctx context.Context) (uint32, error) {
	if p.heights == nil {
		return 0, nil
	}
	snap, err := p.heights.Latest(ctx, heightAggregate)
	if errors.Is(err, event.ErrNoSnapshot) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("loading block height: %w", err)
	}
	if len(snap.Data) != 4 {
		return 0, fmt.Errorf("loading block height: malformed record of %d bytes", len(snap.Data))
	}
	return binary.BigEndian.Uint32(snap.Data), nil
}

func (p *Producer) saveHeight(ctx context.Context, block uint32) error {
	if p.heights == nil {
		return nil
	}
	return p.heights.Save(ctx, event.Snapshot{
		AggregateID: heightAggregate,
		Version:     int(block),
		Data:        binary.BigEndian.AppendUint32(nil, block),
	})
}

// Step produces the next block synchronously and returns its number.
func (p *Producer) Step(ctx context.Context) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.block++
	block := p.block

	ctx, span := p.tracer.Start(ctx, "Producer.Step",
		trace.WithAttributes(attribute.Int64("block", int64(block))),
	)
	defer span.End()

	completed := p.hook.OnInitialize(ctx, block)
	p.lastBlockAt = p.clock.Now()

	if err := p.saveHeight(ctx, block); err != nil {
		p.logger.ErrorContext(ctx, "failed to save block height",
			slog.Uint64("block", uint64(block)),
			slog.Any("error", err),
		)
	}

	if completed > 0 {
		p.logger.InfoContext(ctx, "auctions completed",
			slog.Uint64("block", uint64(block)),
			slog.Int("count", completed),
		)
	}
	if p.cfg.SnapshotInterval > 0 && block%p.cfg.SnapshotInterval == 0 {
		if err := p.hook.Snapshot(ctx); err != nil {
			p.logger.ErrorContext(ctx, "failed to snapshot auction state",
				slog.Uint64("block", uint64(block)),
				slog.Any("error", err),
			)
		}
	}
	return block
}

// Height returns the last produced block.
func (p *Producer) Height() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.block
}

// Run produces blocks until ctx is done, then saves a final snapshot.
func (p *Producer) Run(ctx context.Context) error {
	if p.cfg.BlockTime <= 0 {
		return fmt.Errorf("invalid block time %s", p.cfg.BlockTime)
	}
	if err := p.Resume(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	p.running = true
	p.lastBlockAt = p.clock.Now()
	start := p.block
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	p.logger.InfoContext(ctx, "block production started",
		slog.Uint64("from_block", uint64(start)),
		slog.Duration("block_time", p.cfg.BlockTime),
	)

	ticker := time.NewTicker(p.cfg.BlockTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx := context.WithoutCancel(ctx)
			if err := p.hook.Snapshot(shutdownCtx); err != nil {
				p.logger.ErrorContext(shutdownCtx, "failed to snapshot on shutdown", slog.Any("error", err))
			}
			p.logger.InfoContext(shutdownCtx, "block production stopped", slog.Uint64("block", uint64(p.Height())))
			return nil
		case <-ticker.C:
			p.Step(ctx)
		}
	}
}

// Check fails when a running producer has not produced a block for
// stallFactor block times. It is a health.Checker function.
func (p *Producer) Check(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return nil
	}
	if since := p.clock.Now().Sub(p.lastBlockAt); since > stallFactor*p.cfg.BlockTime {
		return fmt.Errorf("%w: last block %d produced %s ago", ErrStalled, p.block, since.Round(time.Millisecond))
	}
	return nil
}
