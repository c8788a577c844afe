package entstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jensholdgaard/auctiond/internal/clock"
	"github.com/jensholdgaard/auctiond/internal/store"
)

// NFTRepo implements store.NFTRepository using database/sql.
type NFTRepo struct {
	db    *sql.DB
	clock clock.Clock
}

// NewNFTRepo returns a new NFTRepo.
func NewNFTRepo(db *sql.DB, clk clock.Clock) *NFTRepo {
	return &NFTRepo{db: db, clock: clk}
}

func (r *NFTRepo) Create(ctx context.Context, n *store.NFT) error {
	n.CreatedAt = r.clock.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO nfts (id, owner, series_id, listed_for_sale, in_transmission, converted_to_capsule, viewer, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.Owner, n.SeriesID, n.ListedForSale, n.InTransmission, n.ConvertedToCapsule, n.Viewer, n.CreatedAt,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("creating nft %d: %w", n.ID, err)
	}
	return nil
}

func (r *NFTRepo) CreateSeries(ctx context.Context, s *store.Series) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO series (id, owner, locked) VALUES ($1, $2, $3)`, s.ID, s.Owner, s.Locked)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("creating series %s: %w", s.ID, err)
	}
	return nil
}

func (r *NFTRepo) Get(ctx context.Context, id uint32) (*store.NFT, error) {
	n := &store.NFT{}
	var viewer sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner, series_id, listed_for_sale, in_transmission, converted_to_capsule, viewer, created_at
		 FROM nfts WHERE id = $1`, id,
	).Scan(&n.ID, &n.Owner, &n.SeriesID, &n.ListedForSale, &n.InTransmission, &n.ConvertedToCapsule, &viewer, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting nft %d: %w", id, err)
	}
	if viewer.Valid {
		n.Viewer = &viewer.String
	}
	return n, nil
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
	err := r.db.QueryRowContext(ctx,
		`SELECT s.locked FROM nfts n JOIN series s ON s.id = n.series_id WHERE n.id = $1`, id,
	).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return false, store.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("getting series of nft %d: %w", id, err)
	}
	return locked, nil
}
