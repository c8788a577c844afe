package event

import (
	"context"
	"errors"
	"time"
)

// ErrNoSnapshot is returned by SnapshotStore.Latest when nothing was saved yet.
var ErrNoSnapshot = errors.New("no snapshot")

// Store persists and retrieves events.
type Store interface {
	// Append persists one or more events atomically.
	Append(ctx context.Context, events ...Event) error
	// Load returns all events for an aggregate, ordered by version.
	Load(ctx context.Context, aggregateID string) ([]Event, error)
	// LoadFrom returns the events of an aggregate whose version is at
	// least fromVersion, ordered by version.
	LoadFrom(ctx context.Context, aggregateID string, fromVersion int) ([]Event, error)
	// LoadByType returns events filtered by type.
	LoadByType(ctx context.Context, eventType Type) ([]Event, error)
}

// Snapshot is an encoded aggregate state as of Version.
type Snapshot struct {
	AggregateID string    `db:"aggregate_id"`
	Version     int       `db:"version"`
	Data        []byte    `db:"data"`
	CreatedAt   time.Time `db:"created_at"`
}

// SnapshotStore keeps aggregate snapshots so replays can start late.
type SnapshotStore interface {
	Save(ctx context.Context, s Snapshot) error
	// Latest returns the newest snapshot or ErrNoSnapshot.
	Latest(ctx context.Context, aggregateID string) (*Snapshot, error)
}
