package memstore

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/jensholdgaard/auctiond/internal/event"
)

// EventStore implements event.Store in memory. Versions are unique per
// aggregate, like the events table's constraint.
type EventStore struct {
	s *Store
}

func (es *EventStore) Append(_ context.Context, events ...event.Event) error {
	es.s.mu.Lock()
	defer es.s.mu.Unlock()

	for i, e := range events {
		if e.Version == 0 {
			continue
		}
		dup := func(row event.Event) bool { return row.AggregateID == e.AggregateID && row.Version == e.Version }
		if slices.ContainsFunc(es.s.events, dup) || slices.ContainsFunc(events[:i], dup) {
			return fmt.Errorf("inserting event (aggregate=%s, version=%d): duplicate version", e.AggregateID, e.Version)
		}
	}

	now := es.s.clock.Now().UTC()
	for _, e := range events {
		es.s.nextEventID++
		e.ID = strconv.FormatInt(es.s.nextEventID, 10)
		e.CreatedAt = now
		e.Data = slices.Clone(e.Data)
		es.s.events = append(es.s.events, e)
	}
	return nil
}

func (es *EventStore) Load(ctx context.Context, aggregateID string) ([]event.Event, error) {
	return es.LoadFrom(ctx, aggregateID, 0)
}

func (es *EventStore) LoadFrom(_ context.Context, aggregateID string, fromVersion int) ([]event.Event, error) {
	es.s.mu.RLock()
	defer es.s.mu.RUnlock()

	var out []event.Event
	for _, e := range es.s.events {
		if e.AggregateID == aggregateID && e.Version >= fromVersion {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b event.Event) int { return a.Version - b.Version })
	return out, nil
}

func (es *EventStore) LoadByType(_ context.Context, eventType event.Type) ([]event.Event, error) {
	es.s.mu.RLock()
	defer es.s.mu.RUnlock()

	var out []event.Event
	for _, e := range es.s.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out, nil
}

// SnapshotStore implements event.SnapshotStore in memory, keeping only the
// newest snapshot per aggregate.
type SnapshotStore struct {
	s *Store
}

func (ss *SnapshotStore) Save(_ context.Context, snap event.Snapshot) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	if cur, ok := ss.s.snapshots[snap.AggregateID]; ok && cur.Version > snap.Version {
		return nil
	}
	snap.Data = slices.Clone(snap.Data)
	snap.CreatedAt = ss.s.clock.Now().UTC()
	ss.s.snapshots[snap.AggregateID] = snap
	return nil
}

func (ss *SnapshotStore) Latest(_ context.Context, aggregateID string) (*event.Snapshot, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()
	snap, ok := ss.s.snapshots[aggregateID]
	if !ok {
		return nil, event.ErrNoSnapshot
	}
	snap.Data = slices.Clone(snap.Data)
	return &snap, nil
}
