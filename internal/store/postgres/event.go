package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jensholdgaard/auctiond/internal/clock"
	"github.com/jensholdgaard/auctiond/internal/event"
)

// EventStore implements event.Store backed by Postgres.
type EventStore struct {
	db *sqlx.DB
}

// NewEventStore returns a new EventStore.
func NewEventStore(db *sqlx.DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) Append(ctx context.Context, events ...event.Event) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO events (aggregate_id, type, data, version) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, e.AggregateID, e.Type, []byte(e.Data), e.Version); err != nil {
			return fmt.Errorf("inserting event (aggregate=%s, version=%d): %w", e.AggregateID, e.Version, err)
		}
	}

	return tx.Commit()
}

func (s *EventStore) Load(ctx context.Context, aggregateID string) ([]event.Event, error) {
	return s.LoadFrom(ctx, aggregateID, 0)
}

func (s *EventStore) LoadFrom(ctx context.Context, aggregateID string, fromVersion int) ([]event.Event, error) {
	var events []event.Event
	err := s.db.SelectContext(ctx, &events,
		`SELECT id, aggregate_id, type, data, version, created_at
		 FROM events WHERE aggregate_id = $1 AND version >= $2 ORDER BY version ASC, id ASC`,
		aggregateID, fromVersion)
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}
	return events, nil
}

func (s *EventStore) LoadByType(ctx context.Context, eventType event.Type) ([]event.Event, error) {
	var events []event.Event
	err := s.db.SelectContext(ctx, &events,
		`SELECT id, aggregate_id, type, data, version, created_at
		 FROM events WHERE type = $1 ORDER BY created_at ASC, id ASC`, eventType)
	if err != nil {
		return nil, fmt.Errorf("loading events by type: %w", err)
	}
	return events, nil
}

// SnapshotStore implements event.SnapshotStore, keeping the newest snapshot
// per aggregate.
type SnapshotStore struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewSnapshotStore returns a new SnapshotStore.
func NewSnapshotStore(db *sqlx.DB, clk clock.Clock) *SnapshotStore {
	return &SnapshotStore{db: db, clock: clk}
}

func (s *SnapshotStore) Save(ctx context.Context, snap event.Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (aggregate_id, version, data, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (aggregate_id) DO UPDATE
		 SET version = EXCLUDED.version, data = EXCLUDED.data, created_at = EXCLUDED.created_at
		 WHERE snapshots.version <= EXCLUDED.version`,
		snap.AggregateID, snap.Version, snap.Data, s.clock.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot (aggregate=%s, version=%d): %w", snap.AggregateID, snap.Version, err)
	}
	return nil
}

func (s *SnapshotStore) Latest(ctx context.Context, aggregateID string) (*event.Snapshot, error) {
	var snap event.Snapshot
	err := s.db.GetContext(ctx, &snap,
		`SELECT aggregate_id, version, data, created_at FROM snapshots WHERE aggregate_id = $1`, aggregateID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, event.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	return &snap, nil
}
