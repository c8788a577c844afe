package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jensholdgaard/auctiond/internal/config"
)

// ApplyGenesis seeds repos with g. Records that already exist are left
// untouched, and balances are only credited to accounts that are still empty,
// so restarting a node does not mint twice.
func ApplyGenesis(ctx context.Context, repos *Repositories, g config.GenesisConfig) error {
	for id, amount := range g.Balances {
		current, err := repos.Accounts.Balance(ctx, id)
		if err != nil {
			return fmt.Errorf("reading genesis balance of %s: %w", id, err)
		}
		if current != 0 {
			continue
		}
		if err := repos.Accounts.Deposit(ctx, id, amount); err != nil {
			return fmt.Errorf("crediting genesis balance of %s: %w", id, err)
		}
	}
	for _, s := range g.Series {
		err := repos.NFTs.CreateSeries(ctx, &Series{ID: s.ID, Owner: s.Owner, Locked: s.Locked})
		if err != nil && !errors.Is(err, ErrAlreadyExists) {
			return fmt.Errorf("creating genesis series %s: %w", s.ID, err)
		}
	}
	for _, n := range g.NFTs {
		err := repos.NFTs.Create(ctx, &NFT{ID: n.ID, Owner: n.Owner, SeriesID: n.SeriesID})
		if err != nil && !errors.Is(err, ErrAlreadyExists) {
			return fmt.Errorf("creating genesis nft %d: %w", n.ID, err)
		}
	}
	for _, m := range g.Marketplaces {
		kind := MarketplaceKind(m.Kind)
		if kind == "" {
			kind = MarketplacePublic
		}
		err := repos.Marketplaces.Create(ctx, &Marketplace{
			ID:            m.ID,
			Owner:         m.Owner,
			Kind:          kind,
			CommissionFee: m.CommissionFee,
			AllowList:     m.AllowList,
			DisallowList:  m.DisallowList,
		})
		if err != nil && !errors.Is(err, ErrAlreadyExists) {
			return fmt.Errorf("creating genesis marketplace %d: %w", m.ID, err)
		}
	}
	return nil
}
