package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jensholdgaard/auctiond/internal/clock"
	"github.com/jensholdgaard/auctiond/internal/store"
	"github.com/jensholdgaard/auctiond/internal/store/postgres"
)

func TestAccountRepo_DepositAndBalance(t *testing.T) {
	db := newTestDB(t)
	repo := postgres.NewAccountRepo(db, clock.Real{})
	ctx := context.Background()

	if b, err := repo.Balance(ctx, "alice"); err != nil || b != 0 {
		t.Fatalf("Balance(unknown) = %d, %v; want 0, nil", b, err)
	}
	for _, amount := range []uint64{100, 50} {
		if err := repo.Deposit(ctx, "alice", amount); err != nil {
			t.Fatalf("Deposit(%d): %v", amount, err)
		}
	}
	b, err := repo.Balance(ctx, "alice")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if b != 150 {
		t.Errorf("Balance = %d, want 150", b)
	}
}

func TestAccountRepo_Transfer(t *testing.T) {
	tests := []struct {
		name         string
		amount       uint64
		minRemaining uint64
		wantErr      error
		wantFrom     uint64
		wantTo       uint64
	}{
		{name: "partial", amount: 40, wantFrom: 60, wantTo: 40},
		{name: "empties sender", amount: 100, wantFrom: 0, wantTo: 100},
		{name: "keep alive", amount: 100, minRemaining: 1, wantErr: store.ErrInsufficientBalance, wantFrom: 100},
		{name: "overdraw", amount: 101, wantErr: store.ErrInsufficientBalance, wantFrom: 100},
		{name: "zero", amount: 0, wantFrom: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			repo := postgres.NewAccountRepo(db, clock.Real{})
			ctx := context.Background()

			if err := repo.Deposit(ctx, "alice", 100); err != nil {
				t.Fatalf("Deposit: %v", err)
			}

			err := repo.Transfer(ctx, "alice", "bob", tt.amount, tt.minRemaining)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Transfer error = %v, want %v", err, tt.wantErr)
			}

			from, _ := repo.Balance(ctx, "alice")
			to, _ := repo.Balance(ctx, "bob")
			if from != tt.wantFrom || to != tt.wantTo {
				t.Errorf("balances = (%d, %d), want (%d, %d)", from, to, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestAccountRepo_Withdraw(t *testing.T) {
	db := newTestDB(t)
	repo := postgres.NewAccountRepo(db, clock.Real{})
	ctx := context.Background()

	if err := repo.Deposit(ctx, "alice", 10); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if err := repo.Withdraw(ctx, "alice", 11); !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("Withdraw(11) error = %v, want ErrInsufficientBalance", err)
	}
	if err := repo.Withdraw(ctx, "alice", 10); err != nil {
		t.Fatalf("Withdraw(10): %v", err)
	}

	var rows int
	if err := db.GetContext(ctx, &rows, `SELECT count(*) FROM accounts WHERE id = 'alice'`); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if rows != 0 {
		t.Errorf("emptied account still has %d row(s)", rows)
	}
}
