package memstore

import (
	"context"
	"fmt"

	"github.com/jensholdgaard/auctiond/internal/store"
)

// AccountRepo implements store.AccountRepository in memory.
type AccountRepo struct {
	s *Store
}

func (r *AccountRepo) Balance(_ context.Context, id string) (uint64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if a, ok := r.s.accounts[id]; ok {
		return a.Balance, nil
	}
	return 0, nil
}

func (r *AccountRepo) Deposit(_ context.Context, id string, amount uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.credit(id, amount)
	return nil
}

func (r *AccountRepo) Withdraw(_ context.Context, id string, amount uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.debit(id, amount, 0); err != nil {
		return fmt.Errorf("withdrawing from %s: %w", id, err)
	}
	return nil
}

func (r *AccountRepo) Transfer(_ context.Context, from, to string, amount, minRemaining uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.debit(from, amount, minRemaining); err != nil {
		return fmt.Errorf("transferring from %s: %w", from, err)
	}
	r.s.credit(to, amount)
	return nil
}

func (s *Store) credit(id string, amount uint64) {
	a, ok := s.accounts[id]
	if !ok {
		a = &store.Account{ID: id}
		s.accounts[id] = a
	}
	a.Balance += amount
	a.UpdatedAt = s.clock.Now().UTC()
}

// debit removes amount from id. It fails when the balance is short or the
// account would keep less than minRemaining. An emptied account is deleted.
func (s *Store) debit(id string, amount, minRemaining uint64) error {
	var balance uint64
	a, ok := s.accounts[id]
	if ok {
		balance = a.Balance
	}
	if balance < amount || balance-amount < minRemaining {
		return store.ErrInsufficientBalance
	}
	if !ok {
		return nil
	}
	if a.Balance = balance - amount; a.Balance == 0 {
		delete(s.accounts, id)
		return nil
	}
	a.UpdatedAt = s.clock.Now().UTC()
	return nil
}
