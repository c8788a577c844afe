package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jensholdgaard/auctiond/internal/event"
	"github.com/jensholdgaard/auctiond/internal/store"
)

// ErrInvalidAmount is returned for zero deposits and withdrawals.
var ErrInvalidAmount = errors.New("amount must be positive")

// Manager handles account balances. It implements the ledger the auction
// engine escrows bids with.
type Manager struct {
	accounts           store.AccountRepository
	events             event.Store
	existentialDeposit uint64
	logger             *slog.Logger
	tracer             trace.Tracer

	mu        sync.RWMutex
	listeners []func(event.Event)
}

// NewManager returns a new wallet Manager. Transfers made with
// store.KeepAlive leave the sender at least existentialDeposit.
func NewManager(accounts store.AccountRepository, events event.Store, existentialDeposit uint64, logger *slog.Logger, tp trace.TracerProvider) *Manager {
	return &Manager{
		accounts:           accounts,
		events:             events,
		existentialDeposit: existentialDeposit,
		logger:             logger,
		tracer:             tp.Tracer("github.com/jensholdgaard/auctiond/internal/wallet"),
	}
}

// Subscribe registers fn to receive every wallet event after it is appended.
func (m *Manager) Subscribe(fn func(event.Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Deposit mints amount into account.
func (m *Manager) Deposit(ctx context.Context, account string, amount uint64, reason string) error {
	ctx, span := m.tracer.Start(ctx, "Manager.Deposit",
		trace.WithAttributes(
			attribute.String("account", account),
			attribute.String("amount", strconv.FormatUint(amount, 10)),
		),
	)
	defer span.End()

	if amount == 0 {
		return ErrInvalidAmount
	}
	if err := m.accounts.Deposit(ctx, account, amount); err != nil {
		return fmt.Errorf("depositing: %w", err)
	}
	m.appendChange(ctx, event.WalletDeposited, account, amount, reason)

	m.logger.InfoContext(ctx, "funds deposited",
		slog.String("account", account),
		slog.Uint64("amount", amount),
		slog.String("reason", reason),
	)
	return nil
}

// Withdraw burns amount from account.
func (m *Manager) Withdraw(ctx context.Context, account string, amount uint64, reason string) error {
	ctx, span := m.tracer.Start(ctx, "Manager.Withdraw",
		trace.WithAttributes(
			attribute.String("account", account),
			attribute.String("amount", strconv.FormatUint(amount, 10)),
		),
	)
	defer span.End()

	if amount == 0 {
		return ErrInvalidAmount
	}
	if err := m.accounts.Withdraw(ctx, account, amount); err != nil {
		return fmt.Errorf("withdrawing: %w", err)
	}
	m.appendChange(ctx, event.WalletWithdrawn, account, amount, reason)

	m.logger.InfoContext(ctx, "funds withdrawn",
		slog.String("account", account),
		slog.Uint64("amount", amount),
		slog.String("reason", reason),
	)
	return nil
}

// Balance returns the free balance of account.
func (m *Manager) Balance(ctx context.Context, account string) (uint64, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.Balance")
	defer span.End()

	return m.accounts.Balance(ctx, account)
}

// Transfer moves amount between accounts. Zero transfers succeed without
// touching the store.
func (m *Manager) Transfer(ctx context.Context, from, to string, amount uint64, existence store.Existence) error {
	ctx, span := m.tracer.Start(ctx, "Manager.Transfer",
		trace.WithAttributes(
			attribute.String("from", from),
			attribute.String("to", to),
			attribute.String("amount", strconv.FormatUint(amount, 10)),
			attribute.String("existence", existence.String()),
		),
	)
	defer span.End()

	if amount == 0 || from == to {
		return nil
	}
	var minRemaining uint64
	if existence == store.KeepAlive {
		minRemaining = m.existentialDeposit
	}
	if err := m.accounts.Transfer(ctx, from, to, amount, minRemaining); err != nil {
		return err
	}

	m.logger.DebugContext(ctx, "funds transferred",
		slog.String("from", from),
		slog.String("to", to),
		slog.Uint64("amount", amount),
	)
	return nil
}

func (m *Manager) appendChange(ctx context.Context, typ event.Type, account string, amount uint64, reason string) {
	data, err := json.Marshal(event.WalletChangeData{
		Account: account,
		Amount:  amount,
		Reason:  reason,
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to encode wallet event", slog.String("type", string(typ)), slog.Any("error", err))
		return
	}
	evt := event.Event{
		AggregateID: account,
		Type:        typ,
		Data:        data,
		Version:     0,
	}
	if err := m.events.Append(ctx, evt); err != nil {
		m.logger.ErrorContext(ctx, "failed to append wallet event", slog.Any("error", err))
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, fn := range m.listeners {
		fn(evt)
	}
}
