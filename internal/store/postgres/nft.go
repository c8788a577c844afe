package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jensholdgaard/auctiond/internal/clock"
	"github.com/jensholdgaard/auctiond/internal/store"
)

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// NFTRepo implements store.NFTRepository with sqlx.
type NFTRepo struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewNFTRepo returns a new NFTRepo.
func NewNFTRepo(db *sqlx.DB, clk clock.Clock) *NFTRepo {
	return &NFTRepo{db: db, clock: clk}
}

func (r *NFTRepo) Create(ctx context.Context, n *store.NFT) error {
	n.CreatedAt = r.clock.Now().UTC()
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO nfts (id, owner, series_id, listed_for_sale, in_transmission, converted_to_capsule, viewer, created_at)
		 VALUES (:id, :owner, :series_id, :listed_for_sale, :in_transmission, :converted_to_capsule, :viewer, :created_at)`, n)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("creating nft %d: %w", n.ID, err)
	}
	return nil
}

func (r *NFTRepo) CreateSeries(ctx context.Context, s *store.Series) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO series (id, owner, locked) VALUES (:id, :owner, :locked)`, s)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("creating series %s: %w", s.ID, err)
	}
	return nil
}

func (r *NFTRepo) Get(ctx context.Context, id uint32) (*store.NFT, error) {
	var n store.NFT
	err := r.db.GetContext(ctx, &n, `SELECT * FROM nfts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting nft %d: %w", id, err)
	}
	return &n, nil
}

func (r *NFTRepo) SetListedForSale(ctx context.Context, id uint32, listed bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE nfts SET listed_for_sale = $1 WHERE id = $2`, listed, id)
	if err != nil {
		return fmt.Errorf("updating nft %d listing: %w", id, err)
	}
	return affected(result)
}

func (r *NFTRepo) SetOwner(ctx context.Context, id uint32, owner string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE nfts SET owner = $1 WHERE id = $2`, owner, id)
	if err != nil {
		return fmt.Errorf("updating nft %d owner: %w", id, err)
	}
	return affected(result)
}

func (r *NFTRepo) IsSeriesCompleted(ctx context.Context, id uint32) (bool, error) {
	var locked bool
	err := r.db.GetContext(ctx, &locked,
		`SELECT s.locked FROM nfts n JOIN series s ON s.id = n.series_id WHERE n.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, store.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("getting series of nft %d: %w", id, err)
	}
	return locked, nil
}

func affected(result sql.Result) error {
	n, _ := result.RowsAffected()
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
