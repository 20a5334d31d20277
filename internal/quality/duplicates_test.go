package quality

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

func TestFindDuplicatesFlagsNearIdenticalContent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a, err := db.Create(ctx, store.CreateParams{Content: "deploy the service to production on fridays", MemoryType: "note"})
	if err != nil {
		t.Fatalf("Create a: %v", err)
	}
	b, err := db.Create(ctx, store.CreateParams{Content: "deploy the service to production on friday", MemoryType: "note"})
	if err != nil {
		t.Fatalf("Create b: %v", err)
	}
	if _, err := db.Create(ctx, store.CreateParams{Content: "completely unrelated content about cooking pasta", MemoryType: "note"}); err != nil {
		t.Fatalf("Create c: %v", err)
	}

	matches, err := FindDuplicates(ctx, db, db, "default", DuplicateOptions{Threshold: 0.8})
	if err != nil {
		t.Fatalf("FindDuplicates: %v", err)
	}
	found := false
	for _, m := range matches {
		if (m.MemoryAID == a.ID && m.MemoryBID == b.ID) || (m.MemoryAID == b.ID && m.MemoryBID == a.ID) {
			found = true
		}
	}
	if !found {
		t.Fatalf("FindDuplicates = %+v, want a/b pair flagged", matches)
	}
}

func TestFindDuplicatesSkipsDissimilarContent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.Create(ctx, store.CreateParams{Content: "the weather today is sunny and warm", MemoryType: "note"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := db.Create(ctx, store.CreateParams{Content: "quarterly revenue numbers exceeded projections", MemoryType: "note"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	matches, err := FindDuplicates(ctx, db, db, "default", DuplicateOptions{Threshold: 0.85})
	if err != nil {
		t.Fatalf("FindDuplicates: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("FindDuplicates = %+v, want none", matches)
	}
}
