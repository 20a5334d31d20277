package session

import (
	"context"
	"testing"

	"github.com/lazypower/engram/internal/store"
)

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func msgs(n int) []Message {
	out := make([]Message, n)
	for i := range out {
		out[i] = Message{Role: "user", Text: "message body"}
	}
	return out
}

func TestIndexCreatesOneChunkMemoryPerChunk(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	result, err := Index(ctx, db, "sess-1", "proj", msgs(25), ChunkOptions{MaxMessages: 10})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(result.Chunks) != 3 {
		t.Fatalf("Index produced %d chunks, want 3", len(result.Chunks))
	}

	chunks, err := db.SessionChunks(ctx, "sess-1")
	if err != nil {
		t.Fatalf("SessionChunks: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("SessionChunks = %d rows, want 3", len(chunks))
	}

	sess, err := db.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess.MessageCount != 25 {
		t.Errorf("MessageCount = %d, want 25", sess.MessageCount)
	}
}

func TestIndexIsIdempotentOnUnchangedMessages(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	messages := msgs(5)
	first, err := Index(ctx, db, "sess-2", "proj", messages, ChunkOptions{MaxMessages: 10})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	second, err := Index(ctx, db, "sess-2", "proj", messages, ChunkOptions{MaxMessages: 10})
	if err != nil {
		t.Fatalf("Index (rerun): %v", err)
	}
	if first.Chunks[0].MemoryID != second.Chunks[0].MemoryID {
		t.Errorf("re-indexing unchanged messages produced a different memory: %d vs %d",
			first.Chunks[0].MemoryID, second.Chunks[0].MemoryID)
	}
}

func TestIndexDeltaContinuesMessageNumbering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	opts := ChunkOptions{MaxMessages: 10, Overlap: 2}
	first, err := Index(ctx, db, "sess-3", "proj", msgs(10), opts)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	lastChunk := first.Chunks[len(first.Chunks)-1]

	tailPlusNew := append(msgs(2), msgs(4)...)
	delta, err := IndexDelta(ctx, db, "sess-3", "proj", tailPlusNew, lastChunk.MessageEnd-1, lastChunk.ChunkIndex+1, opts)
	if err != nil {
		t.Fatalf("IndexDelta: %v", err)
	}
	if len(delta.Chunks) == 0 {
		t.Fatal("IndexDelta produced no chunks")
	}
	if delta.Chunks[0].ChunkIndex != lastChunk.ChunkIndex+1 {
		t.Errorf("ChunkIndex = %d, want %d", delta.Chunks[0].ChunkIndex, lastChunk.ChunkIndex+1)
	}

	sess, err := db.GetSession(ctx, "sess-3")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess.MessageCount != 16 {
		t.Errorf("MessageCount = %d, want 16 (10 + 6 from delta)", sess.MessageCount)
	}
}
