package store

import (
	"context"
	"testing"
)

func TestCreateEmitsCreatedEvent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := mustCreate(t, db, "an event-worthy memory")

	events, err := db.EventsPoll(ctx, 0, "", 10)
	if err != nil {
		t.Fatalf("EventsPoll: %v", err)
	}
	if len(events) != 1 || events[0].EventType != "created" {
		t.Fatalf("events = %+v", events)
	}
	if events[0].MemoryID == nil || *events[0].MemoryID != m.ID {
		t.Fatalf("event memory id = %v, want %d", events[0].MemoryID, m.ID)
	}
}

func TestEventsPollSinceID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mustCreate(t, db, "first")
	first, err := db.EventsPoll(ctx, 0, "", 10)
	if err != nil {
		t.Fatalf("EventsPoll: %v", err)
	}
	mustCreate(t, db, "second")

	next, err := db.EventsPoll(ctx, first[len(first)-1].ID, "", 10)
	if err != nil {
		t.Fatalf("EventsPoll since: %v", err)
	}
	if len(next) != 1 {
		t.Fatalf("events after cursor = %+v, want 1", next)
	}
}

func TestSyncVersionIncreasesMonotonically(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	v0, err := db.SyncVersion(ctx)
	if err != nil {
		t.Fatalf("SyncVersion: %v", err)
	}
	mustCreate(t, db, "bumps the log")
	v1, err := db.SyncVersion(ctx)
	if err != nil {
		t.Fatalf("SyncVersion: %v", err)
	}
	if v1.Version <= v0.Version {
		t.Errorf("Version did not increase: %d -> %d", v0.Version, v1.Version)
	}
	if v1.Checksum == v0.Checksum {
		t.Errorf("Checksum did not change across a write: %q", v1.Checksum)
	}
}

func TestSyncDeltaReconcilesCreatedAndDeleted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	start, err := db.SyncVersion(ctx)
	if err != nil {
		t.Fatalf("SyncVersion: %v", err)
	}

	keep := mustCreate(t, db, "keep me")
	gone := mustCreate(t, db, "delete me")
	if err := db.SoftDelete(ctx, gone.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	delta, err := db.SyncDelta(ctx, start.Version)
	if err != nil {
		t.Fatalf("SyncDelta: %v", err)
	}
	if len(delta.Created) != 1 || delta.Created[0].ID != keep.ID {
		t.Errorf("Created = %+v, want only %d", delta.Created, keep.ID)
	}
	foundDeleted := false
	for _, id := range delta.DeletedIDs {
		if id == gone.ID {
			foundDeleted = true
		}
	}
	if !foundDeleted {
		t.Errorf("DeletedIDs = %v, want to include %d", delta.DeletedIDs, gone.ID)
	}
}

func TestSyncStateRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s, err := db.GetSyncState(ctx, "agent-1")
	if err != nil {
		t.Fatalf("GetSyncState: %v", err)
	}
	if s.LastSyncVersion != 0 {
		t.Errorf("default LastSyncVersion = %d, want 0", s.LastSyncVersion)
	}

	if err := db.SetSyncState(ctx, "agent-1", 42); err != nil {
		t.Fatalf("SetSyncState: %v", err)
	}
	s2, err := db.GetSyncState(ctx, "agent-1")
	if err != nil {
		t.Fatalf("GetSyncState: %v", err)
	}
	if s2.LastSyncVersion != 42 {
		t.Errorf("LastSyncVersion = %d, want 42", s2.LastSyncVersion)
	}
}

func TestShareAndPoll(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := mustCreate(t, db, "shared context")
	share, err := db.Share(ctx, m.ID, "agent-a", "agent-b", "fyi")
	if err != nil {
		t.Fatalf("Share: %v", err)
	}

	pending, err := db.SharedPoll(ctx, "agent-b", false)
	if err != nil {
		t.Fatalf("SharedPoll: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != share.ID {
		t.Fatalf("pending = %+v", pending)
	}

	if err := db.ShareAck(ctx, share.ID, "agent-b"); err != nil {
		t.Fatalf("ShareAck: %v", err)
	}
	afterAck, err := db.SharedPoll(ctx, "agent-b", false)
	if err != nil {
		t.Fatalf("SharedPoll after ack: %v", err)
	}
	if len(afterAck) != 0 {
		t.Errorf("unacked shares after ack = %+v, want none", afterAck)
	}
}
