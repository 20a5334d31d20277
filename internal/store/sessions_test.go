package store

import (
	"context"
	"testing"
)

func TestInitSessionResumesActive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s1, err := db.InitSession(ctx, "sess-1", "proj-a")
	if err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	s2, err := db.InitSession(ctx, "sess-1", "proj-a")
	if err != nil {
		t.Fatalf("InitSession second call: %v", err)
	}
	if s1.ID != s2.ID {
		t.Errorf("InitSession created a new row for an active session: %d != %d", s1.ID, s2.ID)
	}
}

func TestInitSessionReopensCompleted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.InitSession(ctx, "sess-1", "proj-a"); err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	if err := db.EndSession(ctx, "sess-1"); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	reopened, err := db.InitSession(ctx, "sess-1", "proj-a")
	if err != nil {
		t.Fatalf("InitSession reopen: %v", err)
	}
	if reopened.Status != "active" {
		t.Errorf("Status = %q, want active", reopened.Status)
	}
	if reopened.EndedAt != nil {
		t.Errorf("EndedAt = %v, want nil after reopen", reopened.EndedAt)
	}
}

func TestSessionChunkUpsertByIndex(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.InitSession(ctx, "sess-1", "proj-a"); err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	m1 := mustCreate(t, db, "chunk 0 content")
	m2 := mustCreate(t, db, "chunk 0 content, re-ingested")

	if err := db.AddSessionChunk(ctx, SessionChunk{SessionID: "sess-1", ChunkIndex: 0, MemoryID: m1.ID, MessageStart: 0, MessageEnd: 10}); err != nil {
		t.Fatalf("AddSessionChunk: %v", err)
	}
	if err := db.AddSessionChunk(ctx, SessionChunk{SessionID: "sess-1", ChunkIndex: 0, MemoryID: m2.ID, MessageStart: 0, MessageEnd: 12}); err != nil {
		t.Fatalf("AddSessionChunk re-ingest: %v", err)
	}

	chunks, err := db.SessionChunks(ctx, "sess-1")
	if err != nil {
		t.Fatalf("SessionChunks: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("chunks = %+v, want exactly one row for chunk_index 0", chunks)
	}
	if chunks[0].MemoryID != m2.ID {
		t.Errorf("MemoryID = %d, want %d (latest ingest wins)", chunks[0].MemoryID, m2.ID)
	}
}

func TestIncrementCounts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.InitSession(ctx, "sess-1", "proj-a"); err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	if err := db.IncrementToolCount(ctx, "sess-1"); err != nil {
		t.Fatalf("IncrementToolCount: %v", err)
	}
	if err := db.IncrementMessageCount(ctx, "sess-1", 3); err != nil {
		t.Fatalf("IncrementMessageCount: %v", err)
	}

	s, err := db.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if s.ToolCount != 1 {
		t.Errorf("ToolCount = %d, want 1", s.ToolCount)
	}
	if s.MessageCount != 3 {
		t.Errorf("MessageCount = %d, want 3", s.MessageCount)
	}
}
