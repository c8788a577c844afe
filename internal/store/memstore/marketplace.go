package memstore

import (
	"context"
	"slices"

	"github.com/jensholdgaard/auctiond/internal/store"
)

// MarketplaceRepo implements store.MarketplaceRepository in memory.
type MarketplaceRepo struct {
	s *Store
}

func (r *MarketplaceRepo) Create(_ context.Context, m *store.Marketplace) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.marketplaces[m.ID]; ok {
		return store.ErrAlreadyExists
	}
	r.s.marketplaces[m.ID] = cloneMarketplace(m)
	return nil
}

func (r *MarketplaceRepo) Get(_ context.Context, id uint32) (*store.Marketplace, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.marketplaces[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneMarketplace(m), nil
}

func (r *MarketplaceRepo) IsAllowedToList(_ context.Context, id uint32, account string) error {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.marketplaces[id]
	if !ok {
		return store.ErrNotFound
	}
	if !m.AllowsListing(account) {
		return store.ErrNotAllowedToList
	}
	return nil
}

func cloneMarketplace(m *store.Marketplace) *store.Marketplace {
	c := *m
	c.AllowList = slices.Clone(m.AllowList)
	c.DisallowList = slices.Clone(m.DisallowList)
	return &c
}
