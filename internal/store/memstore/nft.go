package memstore

import (
	"context"

	"github.com/jensholdgaard/auctiond/internal/store"
)

// NFTRepo implements store.NFTRepository in memory.
type NFTRepo struct {
	s *Store
}

func (r *NFTRepo) Create(_ context.Context, n *store.NFT) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.nfts[n.ID]; ok {
		return store.ErrAlreadyExists
	}
	n.CreatedAt = r.s.clock.Now().UTC()
	c := *n
	r.s.nfts[n.ID] = &c
	return nil
}

func (r *NFTRepo) CreateSeries(_ context.Context, series *store.Series) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.series[series.ID]; ok {
		return store.ErrAlreadyExists
	}
	c := *series
	r.s.series[series.ID] = &c
	return nil
}

func (r *NFTRepo) Get(_ context.Context, id uint32) (*store.NFT, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n, ok := r.s.nfts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *n
	return &c, nil
}

func (r *NFTRepo) SetListedForSale(_ context.Context, id uint32, listed bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.nfts[id]
	if !ok {
		return store.ErrNotFound
	}
	n.ListedForSale = listed
	return nil
}

func (r *NFTRepo) SetOwner(_ context.Context, id uint32, owner string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.nfts[id]
	if !ok {
		return store.ErrNotFound
	}
	n.Owner = owner
	return nil
}

func (r *NFTRepo) IsSeriesCompleted(_ context.Context, id uint32) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n, ok := r.s.nfts[id]
	if !ok {
		return false, store.ErrNotFound
	}
	series, ok := r.s.series[n.SeriesID]
	if !ok {
		return false, store.ErrNotFound
	}
	return series.Locked, nil
}
