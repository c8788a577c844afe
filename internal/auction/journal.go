package auction

import (
	"context"
	"log/slog"

	"github.com/jensholdgaard/auctiond/internal/store"
)

// journal records compensations for collaborator calls made by a command so
// a failing command leaves no trace. Usage mirrors a database transaction:
//
//	j := e.begin()
//	defer j.close(ctx)
//	... j.transfer(...) ...
//	j.commit()
type journal struct {
	e         *Engine
	undo      []func(ctx context.Context) error
	committed bool
}

func (e *Engine) begin() *journal {
	return &journal{e: e}
}

// transfer moves funds and records the reverse transfer. Zero amounts are skipped.
func (j *journal) transfer(ctx context.Context, from, to AccountID, amount Balance, existence store.Existence) error {
	if amount == 0 {
		return nil
	}
	if err := j.e.ledger.Transfer(ctx, from, to, amount, existence); err != nil {
		return err
	}
	j.undo = append(j.undo, func(ctx context.Context) error {
		return j.e.ledger.Transfer(ctx, to, from, amount, store.AllowDeath)
	})
	return nil
}

// setListedForSale flips the listing flag; the previous value is !listed.
func (j *journal) setListedForSale(ctx context.Context, id NFTID, listed bool) error {
	if err := j.e.nfts.SetListedForSale(ctx, id, listed); err != nil {
		return err
	}
	j.undo = append(j.undo, func(ctx context.Context) error {
		return j.e.nfts.SetListedForSale(ctx, id, !listed)
	})
	return nil
}

func (j *journal) setOwner(ctx context.Context, id NFTID, owner, previous AccountID) error {
	if err := j.e.nfts.SetOwner(ctx, id, owner); err != nil {
		return err
	}
	j.undo = append(j.undo, func(ctx context.Context) error {
		return j.e.nfts.SetOwner(ctx, id, previous)
	})
	return nil
}

func (j *journal) commit() {
	j.committed = true
}

// close reverts every recorded call in reverse order unless committed.
func (j *journal) close(ctx context.Context) {
	if j.committed {
		return
	}
	// Compensations must run even when the command's context is done.
	ctx = context.WithoutCancel(ctx)
	for i := len(j.undo) - 1; i >= 0; i-- {
		if err := j.undo[i](ctx); err != nil {
			j.e.logger.ErrorContext(ctx, "failed to revert collaborator call",
				slog.Int("step", i),
				slog.Any("error", err),
			)
		}
	}
	j.undo = nil
}
