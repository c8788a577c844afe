package auction

import (
	"context"

	"github.com/google/uuid"

	"github.com/jensholdgaard/auctiond/internal/store"
)

// NFTOracle is the slice of the NFT registry the engine relies on.
type NFTOracle interface {
	Get(ctx context.Context, id uint32) (*store.NFT, error)
	SetListedForSale(ctx context.Context, id uint32, listed bool) error
	SetOwner(ctx context.Context, id uint32, owner string) error
	IsSeriesCompleted(ctx context.Context, id uint32) (bool, error)
}

// MarketplaceOracle is the slice of the marketplace registry the engine relies on.
type MarketplaceOracle interface {
	Get(ctx context.Context, id uint32) (*store.Marketplace, error)
	IsAllowedToList(ctx context.Context, id uint32, account string) error
}

// Ledger moves currency between accounts.
type Ledger interface {
	Transfer(ctx context.Context, from, to string, amount uint64, existence store.Existence) error
}

// Collaborators are the external services an Engine is bound to.
type Collaborators struct {
	NFTs         NFTOracle
	Marketplaces MarketplaceOracle
	Ledger       Ledger
}

// custodyNamespace scopes custody account derivation.
var custodyNamespace = uuid.MustParse("5d0c8a3e-6f1b-4c57-9a0e-2f4b7d9e1c33")

// CustodyAccount derives the escrow account of the engine from its pallet
// identifier. The same identifier always yields the same account.
func CustodyAccount(palletID string) AccountID {
	return "modl-" + uuid.NewSHA1(custodyNamespace, []byte("modl"+palletID)).String()
}
