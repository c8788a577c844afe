// Package memstore provides an in-process store.Driver. State lives only as
// long as the process, which suits tests and single-node development.
package memstore

import (
	"context"
	"sync"

	"github.com/jensholdgaard/auctiond/internal/clock"
	"github.com/jensholdgaard/auctiond/internal/config"
	"github.com/jensholdgaard/auctiond/internal/event"
	"github.com/jensholdgaard/auctiond/internal/store"
)

func init() {
	store.Register("memory", openMemory)
}

func openMemory(_ context.Context, _ config.DatabaseConfig, clk clock.Clock) (*store.Repositories, error) {
	return New(clk).Repositories(), nil
}

// Store holds every in-memory table behind one lock.
type Store struct {
	mu    sync.RWMutex
	clock clock.Clock

	accounts     map[string]*store.Account
	series       map[string]*store.Series
	nfts         map[uint32]*store.NFT
	marketplaces map[uint32]*store.Marketplace
	events       []event.Event
	snapshots    map[string]event.Snapshot
	nextEventID  int64
}

// New returns an empty Store.
func New(clk clock.Clock) *Store {
	return &Store{
		clock:        clk,
		accounts:     make(map[string]*store.Account),
		series:       make(map[string]*store.Series),
		nfts:         make(map[uint32]*store.NFT),
		marketplaces: make(map[uint32]*store.Marketplace),
		snapshots:    make(map[string]event.Snapshot),
	}
}

// Repositories exposes s through the store interfaces.
func (s *Store) Repositories() *store.Repositories {
	return &store.Repositories{
		Accounts:     &AccountRepo{s: s},
		NFTs:         &NFTRepo{s: s},
		Marketplaces: &MarketplaceRepo{s: s},
		Events:       &EventStore{s: s},
		Snapshots:    &SnapshotStore{s: s},
		Closer:       nopCloser{},
		Ping:         func(context.Context) error { return nil },
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
