package entstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/jensholdgaard/auctiond/internal/store"
)

// MarketplaceRepo implements store.MarketplaceRepository using database/sql.
type MarketplaceRepo struct {
	db *sql.DB
}

// NewMarketplaceRepo returns a new MarketplaceRepo.
func NewMarketplaceRepo(db *sql.DB) *MarketplaceRepo {
	return &MarketplaceRepo{db: db}
}

func (r *MarketplaceRepo) Create(ctx context.Context, m *store.Marketplace) error {
	allow, disallow := m.AllowList, m.DisallowList
	if allow == nil {
		allow = []string{}
	}
	if disallow == nil {
		disallow = []string{}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO marketplaces (id, owner, kind, commission_fee, allow_list, disallow_list)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.Owner, string(m.Kind), m.CommissionFee, pq.Array(allow), pq.Array(disallow),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("creating marketplace %d: %w", m.ID, err)
	}
	return nil
}

func (r *MarketplaceRepo) Get(ctx context.Context, id uint32) (*store.Marketplace, error) {
	m := &store.Marketplace{}
	var kind string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner, kind, commission_fee, allow_list, disallow_list FROM marketplaces WHERE id = $1`, id,
	).Scan(&m.ID, &m.Owner, &kind, &m.CommissionFee, pq.Array(&m.AllowList), pq.Array(&m.DisallowList))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting marketplace %d: %w", id, err)
	}
	m.Kind = store.MarketplaceKind(kind)
	return m, nil
}

func (r *MarketplaceRepo) IsAllowedToList(ctx context.Context, id uint32, account string) error {
	m, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if !m.AllowsListing(account) {
		return store.ErrNotAllowedToList
	}
	return nil
}
