package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jensholdgaard/auctiond/internal/store"
)

type marketplaceRow struct {
	store.Marketplace
	AllowList    pq.StringArray `db:"allow_list"`
	DisallowList pq.StringArray `db:"disallow_list"`
}

// MarketplaceRepo implements store.MarketplaceRepository with sqlx.
type MarketplaceRepo struct {
	db *sqlx.DB
}

// NewMarketplaceRepo returns a new MarketplaceRepo.
func NewMarketplaceRepo(db *sqlx.DB) *MarketplaceRepo {
	return &MarketplaceRepo{db: db}
}

func (r *MarketplaceRepo) Create(ctx context.Context, m *store.Marketplace) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO marketplaces (id, owner, kind, commission_fee, allow_list, disallow_list)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.Owner, m.Kind, m.CommissionFee, pq.Array(nonNil(m.AllowList)), pq.Array(nonNil(m.DisallowList)),
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
	var row marketplaceRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, owner, kind, commission_fee, allow_list, disallow_list FROM marketplaces WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting marketplace %d: %w", id, err)
	}
	m := row.Marketplace
	m.AllowList = row.AllowList
	m.DisallowList = row.DisallowList
	return &m, nil
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

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
