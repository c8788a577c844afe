package store

import (
	"context"
	"errors"
	"time"
)

// Errors shared by all drivers.
var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotAllowedToList    = errors.New("not allowed to list on this marketplace")
)

// Existence tells a transfer whether the sender account may be emptied.
type Existence int

const (
	// KeepAlive rejects transfers that would leave the sender below the
	// existential deposit.
	KeepAlive Existence = iota
	// AllowDeath lets the sender be swept to zero.
	AllowDeath
)

func (e Existence) String() string {
	if e == AllowDeath {
		return "allow_death"
	}
	return "keep_alive"
}

// Account is a currency ledger entry.
type Account struct {
	ID        string    `db:"id"`
	Balance   uint64    `db:"balance"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Series groups NFTs. Only NFTs of locked series can be auctioned.
type Series struct {
	ID     string `db:"id"`
	Owner  string `db:"owner"`
	Locked bool   `db:"locked"`
}

// NFT is the ownership and state record of a token.
type NFT struct {
	ID                 uint32    `db:"id"`
	Owner              string    `db:"owner"`
	SeriesID           string    `db:"series_id"`
	ListedForSale      bool      `db:"listed_for_sale"`
	InTransmission     bool      `db:"in_transmission"`
	ConvertedToCapsule bool      `db:"converted_to_capsule"`
	Viewer             *string   `db:"viewer"`
	CreatedAt          time.Time `db:"created_at"`
}

// MarketplaceKind controls how the allow and disallow lists apply.
type MarketplaceKind string

const (
	MarketplacePublic  MarketplaceKind = "public"
	MarketplacePrivate MarketplaceKind = "private"
)

// Marketplace is a venue NFTs are listed on. CommissionFee is a percentage.
type Marketplace struct {
	ID            uint32          `db:"id"`
	Owner         string          `db:"owner"`
	Kind          MarketplaceKind `db:"kind"`
	CommissionFee uint8           `db:"commission_fee"`
	AllowList     []string        `db:"-"`
	DisallowList  []string        `db:"-"`
}

// AllowsListing applies the marketplace listing rule to account.
func (m *Marketplace) AllowsListing(account string) bool {
	switch m.Kind {
	case MarketplacePrivate:
		return contains(m.AllowList, account)
	default:
		return !contains(m.DisallowList, account)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// AccountRepository is the raw balance ledger.
type AccountRepository interface {
	// Balance returns zero for unknown accounts.
	Balance(ctx context.Context, id string) (uint64, error)
	Deposit(ctx context.Context, id string, amount uint64) error
	Withdraw(ctx context.Context, id string, amount uint64) error
	// Transfer moves amount from one account to another, failing with
	// ErrInsufficientBalance unless the sender keeps at least minRemaining.
	Transfer(ctx context.Context, from, to string, amount, minRemaining uint64) error
}

// NFTRepository defines NFT persistence operations.
type NFTRepository interface {
	Create(ctx context.Context, n *NFT) error
	CreateSeries(ctx context.Context, s *Series) error
	Get(ctx context.Context, id uint32) (*NFT, error)
	SetListedForSale(ctx context.Context, id uint32, listed bool) error
	SetOwner(ctx context.Context, id uint32, owner string) error
	// IsSeriesCompleted reports whether the series of the NFT is locked.
	IsSeriesCompleted(ctx context.Context, id uint32) (bool, error)
}

// MarketplaceRepository defines marketplace persistence operations.
type MarketplaceRepository interface {
	Create(ctx context.Context, m *Marketplace) error
	Get(ctx context.Context, id uint32) (*Marketplace, error)
	// IsAllowedToList returns ErrNotFound or ErrNotAllowedToList on refusal.
	IsAllowedToList(ctx context.Context, id uint32, account string) error
}
