package entstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jensholdgaard/auctiond/internal/clock"
	"github.com/jensholdgaard/auctiond/internal/store"
)

// AccountRepo implements store.AccountRepository using database/sql.
type AccountRepo struct {
	db    *sql.DB
	clock clock.Clock
}

// NewAccountRepo returns a new AccountRepo.
func NewAccountRepo(db *sql.DB, clk clock.Clock) *AccountRepo {
	return &AccountRepo{db: db, clock: clk}
}

func (r *AccountRepo) Balance(ctx context.Context, id string) (uint64, error) {
	var balance uint64
	err := r.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = $1`, id).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("getting balance of %s: %w", id, err)
	}
	return balance, nil
}

func (r *AccountRepo) Deposit(ctx context.Context, id string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := r.credit(ctx, tx, id, amount); err != nil {
		return fmt.Errorf("depositing to %s: %w", id, err)
	}
	return tx.Commit()
}

func (r *AccountRepo) Withdraw(ctx context.Context, id string, amount uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := r.debit(ctx, tx, id, amount, 0); err != nil {
		return fmt.Errorf("withdrawing from %s: %w", id, err)
	}
	return tx.Commit()
}

func (r *AccountRepo) Transfer(ctx context.Context, from, to string, amount, minRemaining uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := r.debit(ctx, tx, from, amount, minRemaining); err != nil {
		return fmt.Errorf("transferring from %s: %w", from, err)
	}
	if amount > 0 {
		if err := r.credit(ctx, tx, to, amount); err != nil {
			return fmt.Errorf("transferring to %s: %w", to, err)
		}
	}
	return tx.Commit()
}

func (r *AccountRepo) credit(ctx context.Context, tx *sql.Tx, id string, amount uint64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (id, balance, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET balance = accounts.balance + EXCLUDED.balance, updated_at = EXCLUDED.updated_at`,
		id, amount, r.clock.Now().UTC(),
	)
	return err
}

func (r *AccountRepo) debit(ctx context.Context, tx *sql.Tx, id string, amount, minRemaining uint64) error {
	var balance uint64
	err := tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, id).Scan(&balance)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("locking account: %w", err)
	}
	if balance < amount || balance-amount < minRemaining {
		return store.ErrInsufficientBalance
	}
	switch {
	case amount == 0:
		return nil
	case balance == amount:
		_, err = tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE accounts SET balance = $1, updated_at = $2 WHERE id = $3`,
			balance-amount, r.clock.Now().UTC(), id,
		)
	}
	if err != nil {
		return fmt.Errorf("updating balance: %w", err)
	}
	return nil
}
