package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jensholdgaard/auctiond/internal/clock"
	"github.com/jensholdgaard/auctiond/internal/store"
)

// AccountRepo implements store.AccountRepository with sqlx.
type AccountRepo struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewAccountRepo returns a new AccountRepo.
func NewAccountRepo(db *sqlx.DB, clk clock.Clock) *AccountRepo {
	return &AccountRepo{db: db, clock: clk}
}

func (r *AccountRepo) Balance(ctx context.Context, id string) (uint64, error) {
	var balance uint64
	err := r.db.GetContext(ctx, &balance, `SELECT balance FROM accounts WHERE id = $1`, id)
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
	if err := credit(ctx, r.db, id, amount, r.clock); err != nil {
		return fmt.Errorf("depositing to %s: %w", id, err)
	}
	return nil
}

func (r *AccountRepo) Withdraw(ctx context.Context, id string, amount uint64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := debit(ctx, tx, id, amount, 0, r.clock); err != nil {
		return fmt.Errorf("withdrawing from %s: %w", id, err)
	}
	return tx.Commit()
}

func (r *AccountRepo) Transfer(ctx context.Context, from, to string, amount, minRemaining uint64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := debit(ctx, tx, from, amount, minRemaining, r.clock); err != nil {
		return fmt.Errorf("transferring from %s: %w", from, err)
	}
	if amount > 0 {
		if err := credit(ctx, tx, to, amount, r.clock); err != nil {
			return fmt.Errorf("transferring to %s: %w", to, err)
		}
	}
	return tx.Commit()
}

func credit(ctx context.Context, db sqlx.ExtContext, id string, amount uint64, clk clock.Clock) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO accounts (id, balance, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET balance = accounts.balance + EXCLUDED.balance, updated_at = EXCLUDED.updated_at`,
		id, amount, clk.Now().UTC(),
	)
	return err
}

// debit removes amount from id inside tx. It fails with
// store.ErrInsufficientBalance when the balance is short or the account would
// keep less than minRemaining. An emptied account row is deleted.
func debit(ctx context.Context, tx *sqlx.Tx, id string, amount, minRemaining uint64, clk clock.Clock) error {
	var balance uint64
	err := tx.GetContext(ctx, &balance, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("locking account: %w", err)
	}
	if balance < amount || balance-amount < minRemaining {
		return store.ErrInsufficientBalance
	}
	if amount == 0 {
		return nil
	}
	if balance == amount {
		_, err = tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE accounts SET balance = $1, updated_at = $2 WHERE id = $3`,
			balance-amount, clk.Now().UTC(), id,
		)
	}
	if err != nil {
		return fmt.Errorf("updating balance: %w", err)
	}
	return nil
}
