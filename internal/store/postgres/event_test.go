package postgres_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jensholdgaard/auctiond/internal/clock"
	"github.com/jensholdgaard/auctiond/internal/event"
	"github.com/jensholdgaard/auctiond/internal/store/postgres"
)

func TestEventStore_AppendAndLoad(t *testing.T) {
	db := newTestDB(t)
	es := postgres.NewEventStore(db)
	ctx := context.Background()

	events := []event.Event{
		{AggregateID: event.AuctionsAggregate, Type: event.AuctionCreated, Data: json.RawMessage(`{"nft_id":1}`), Version: 1},
		{AggregateID: event.AuctionsAggregate, Type: event.BidAdded, Data: json.RawMessage(`{"nft_id":1,"amount":100}`), Version: 2},
	}

	if err := es.Append(ctx, events...); err != nil {
		t.Fatalf("Append: %v", err)
	}

	loaded, err := es.Load(ctx, event.AuctionsAggregate)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Load returned %d events, want 2", len(loaded))
	}

	// Should be ordered by version.
	if loaded[0].Version != 1 || loaded[1].Version != 2 {
		t.Errorf("versions = [%d, %d], want [1, 2]", loaded[0].Version, loaded[1].Version)
	}
	if loaded[0].Type != event.AuctionCreated {
		t.Errorf("event[0].Type = %q, want %q", loaded[0].Type, event.AuctionCreated)
	}
	if loaded[0].ID == "" {
		t.Error("expected ID to be assigned")
	}
	var data event.BidAddedData
	if err := json.Unmarshal(loaded[1].Data, &data); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if data.Amount != 100 {
		t.Errorf("Amount = %d, want 100", data.Amount)
	}
}

func TestEventStore_LoadFrom(t *testing.T) {
	db := newTestDB(t)
	es := postgres.NewEventStore(db)
	ctx := context.Background()

	for v := 1; v <= 5; v++ {
		e := event.Event{AggregateID: event.AuctionsAggregate, Type: event.BidAdded, Data: json.RawMessage(`{}`), Version: v}
		if err := es.Append(ctx, e); err != nil {
			t.Fatalf("Append(v%d): %v", v, err)
		}
	}

	loaded, err := es.LoadFrom(ctx, event.AuctionsAggregate, 4)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if len(loaded) != 2 || loaded[0].Version != 4 || loaded[1].Version != 5 {
		t.Fatalf("LoadFrom(4) = %+v, want versions 4 and 5", loaded)
	}
}

func TestEventStore_LoadByType(t *testing.T) {
	db := newTestDB(t)
	es := postgres.NewEventStore(db)
	ctx := context.Background()

	events := []event.Event{
		{AggregateID: event.AuctionsAggregate, Type: event.AuctionCreated, Data: json.RawMessage(`{}`), Version: 1},
		{AggregateID: event.AuctionsAggregate, Type: event.BidAdded, Data: json.RawMessage(`{}`), Version: 2},
		{AggregateID: event.AuctionsAggregate, Type: event.AuctionCreated, Data: json.RawMessage(`{}`), Version: 3},
	}

	if err := es.Append(ctx, events...); err != nil {
		t.Fatalf("Append: %v", err)
	}

	created, err := es.LoadByType(ctx, event.AuctionCreated)
	if err != nil {
		t.Fatalf("LoadByType: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("LoadByType(AuctionCreated) returned %d, want 2", len(created))
	}

	bids, err := es.LoadByType(ctx, event.BidAdded)
	if err != nil {
		t.Fatalf("LoadByType: %v", err)
	}
	if len(bids) != 1 {
		t.Fatalf("LoadByType(BidAdded) returned %d, want 1", len(bids))
	}
}

func TestEventStore_UniqueAggregateVersion(t *testing.T) {
	db := newTestDB(t)
	es := postgres.NewEventStore(db)
	ctx := context.Background()

	e := event.Event{
		AggregateID: event.AuctionsAggregate,
		Type:        event.AuctionCancelled,
		Data:        json.RawMessage(`{}`),
		Version:     1,
	}

	if err := es.Append(ctx, e); err != nil {
		t.Fatalf("first Append: %v", err)
	}

	// Duplicate version for the same aggregate should fail.
	err := es.Append(ctx, e)
	if err == nil {
		t.Fatal("expected error for duplicate aggregate_id + version")
	}
}

func TestEventStore_UnversionedEventsRepeat(t *testing.T) {
	db := newTestDB(t)
	es := postgres.NewEventStore(db)
	ctx := context.Background()

	e := event.Event{AggregateID: "alice", Type: event.WalletDeposited, Data: json.RawMessage(`{"amount":5}`)}
	for i := 0; i < 2; i++ {
		if err := es.Append(ctx, e); err != nil {
			t.Fatalf("Append #%d: %v", i, err)
		}
	}

	loaded, err := es.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 2 {
		t.Errorf("Load returned %d events, want 2", len(loaded))
	}
}

func TestEventStore_LoadEmpty(t *testing.T) {
	db := newTestDB(t)
	es := postgres.NewEventStore(db)
	ctx := context.Background()

	loaded, err := es.Load(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected empty slice, got %d events", len(loaded))
	}
}

func TestSnapshotStore_KeepsNewest(t *testing.T) {
	db := newTestDB(t)
	ss := postgres.NewSnapshotStore(db, clock.Real{})
	ctx := context.Background()

	if _, err := ss.Latest(ctx, event.AuctionsAggregate); !errors.Is(err, event.ErrNoSnapshot) {
		t.Fatalf("Latest on empty store = %v, want ErrNoSnapshot", err)
	}

	for _, snap := range []event.Snapshot{
		{AggregateID: event.AuctionsAggregate, Version: 10, Data: []byte{0xa1, 0x01}},
		{AggregateID: event.AuctionsAggregate, Version: 20, Data: []byte{0xa1, 0x02}},
		{AggregateID: event.AuctionsAggregate, Version: 15, Data: []byte{0xa1, 0x03}},
	} {
		if err := ss.Save(ctx, snap); err != nil {
			t.Fatalf("Save(v%d): %v", snap.Version, err)
		}
	}

	got, err := ss.Latest(ctx, event.AuctionsAggregate)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.Version != 20 {
		t.Errorf("Version = %d, want 20", got.Version)
	}
	if string(got.Data) != string([]byte{0xa1, 0x02}) {
		t.Errorf("Data = %x, want a102", got.Data)
	}
}
