package entstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jensholdgaard/auctiond/internal/clock"
	"github.com/jensholdgaard/auctiond/internal/event"
)

// EventStore implements event.Store using database/sql.
type EventStore struct {
	db *sql.DB
}

// NewEventStore returns a new EventStore.
func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) Append(ctx context.Context, events ...event.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (aggregate_id, type, data, version) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, e.AggregateID, string(e.Type), []byte(e.Data), e.Version); err != nil {
			return fmt.Errorf("inserting event (aggregate=%s, version=%d): %w", e.AggregateID, e.Version, err)
		}
	}

	return tx.Commit()
}

func (s *EventStore) Load(ctx context.Context, aggregateID string) ([]event.Event, error) {
	return s.LoadFrom(ctx, aggregateID, 0)
}

func (s *EventStore) LoadFrom(ctx context.Context, aggregateID string, fromVersion int) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, aggregate_id, type, data, version, created_at
		 FROM events WHERE aggregate_id = $1 AND version >= $2 ORDER BY version ASC, id ASC`,
		aggregateID, fromVersion)
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}
	return scanEvents(rows)
}

func (s *EventStore) LoadByType(ctx context.Context, eventType event.Type) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, aggregate_id, type, data, version, created_at
		 FROM events WHERE type = $1 ORDER BY created_at ASC, id ASC`, string(eventType))
	if err != nil {
		return nil, fmt.Errorf("loading events by type: %w", err)
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]event.Event, error) {
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var e event.Event
		var id int64
		var typ string
		var data []byte
		var createdAt time.Time
		if err := rows.Scan(&id, &e.AggregateID, &typ, &data, &e.Version, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		e.ID = strconv.FormatInt(id, 10)
		e.Type = event.Type(typ)
		e.Data = json.RawMessage(data)
		e.CreatedAt = createdAt
		events = append(events, e)
	}
	return events, rows.Err()
}

// SnapshotStore implements event.SnapshotStore using database/sql.
type SnapshotStore struct {
	db    *sql.DB
	clock clock.Clock
}

// NewSnapshotStore returns a new SnapshotStore.
func NewSnapshotStore(db *sql.DB, clk clock.Clock) *SnapshotStore {
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
	snap := &event.Snapshot{}
	err := s.db.QueryRowContext(ctx,
		`SELECT aggregate_id, version, data, created_at FROM snapshots WHERE aggregate_id = $1`, aggregateID,
	).Scan(&snap.AggregateID, &snap.Version, &snap.Data, &snap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, event.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	return snap, nil
}
