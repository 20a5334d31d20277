package lexical_test

import (
	"context"
	"testing"

	"github.com/lazypower/engram/internal/lexical"
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

func TestSearchRanksByBM25(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.Create(ctx, store.CreateParams{Content: "deploy the service to production", MemoryType: "note"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := db.Create(ctx, store.CreateParams{Content: "deploy deploy deploy rollback plan", MemoryType: "note"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := db.Create(ctx, store.CreateParams{Content: "unrelated grocery list", MemoryType: "note"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	hits, err := db.LexicalSearch(ctx, "deploy", lexical.SearchOptions{})
	if err != nil {
		t.Fatalf("LexicalSearch: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %+v, want 2 matches", hits)
	}
	if hits[0].Score < hits[1].Score {
		t.Errorf("hits not sorted by descending score: %+v", hits)
	}
}

func TestSearchAndOperator(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a, err := db.Create(ctx, store.CreateParams{Content: "incident response runbook", MemoryType: "note"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := db.Create(ctx, store.CreateParams{Content: "incident timeline only", MemoryType: "note"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	hits, err := db.LexicalSearch(ctx, "incident AND runbook", lexical.SearchOptions{})
	if err != nil {
		t.Fatalf("LexicalSearch: %v", err)
	}
	if len(hits) != 1 || hits[0].MemoryID != a.ID {
		t.Fatalf("AND search = %+v, want only memory %d", hits, a.ID)
	}
}

func TestSearchFieldRestrictionOnTags(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tagged, err := db.Create(ctx, store.CreateParams{Content: "something generic", MemoryType: "note", Tags: []string{"urgent"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := db.Create(ctx, store.CreateParams{Content: "urgent sounding content but no tag", MemoryType: "note"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	hits, err := db.LexicalSearch(ctx, "tags:urgent", lexical.SearchOptions{})
	if err != nil {
		t.Fatalf("LexicalSearch: %v", err)
	}
	if len(hits) != 1 || hits[0].MemoryID != tagged.ID {
		t.Fatalf("field-restricted search = %+v, want only memory %d", hits, tagged.ID)
	}
}

func TestSearchReindexesOnUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m, err := db.Create(ctx, store.CreateParams{Content: "original wording here", MemoryType: "note"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	newContent := "completely different phrasing now"
	if _, err := db.Update(ctx, m.ID, store.UpdateParams{Content: &newContent}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if hits, err := db.LexicalSearch(ctx, "wording", lexical.SearchOptions{}); err != nil {
		t.Fatalf("LexicalSearch: %v", err)
	} else if len(hits) != 0 {
		t.Errorf("stale term still indexed after update: %+v", hits)
	}

	hits, err := db.LexicalSearch(ctx, "phrasing", lexical.SearchOptions{})
	if err != nil {
		t.Fatalf("LexicalSearch: %v", err)
	}
	if len(hits) != 1 || hits[0].MemoryID != m.ID {
		t.Fatalf("LexicalSearch(phrasing) = %+v, want only memory %d", hits, m.ID)
	}
}

func TestSearchLimit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := db.Create(ctx, store.CreateParams{Content: "repeated keyword content", MemoryType: "note"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	hits, err := db.LexicalSearch(ctx, "keyword", lexical.SearchOptions{Limit: 2})
	if err != nil {
		t.Fatalf("LexicalSearch: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %+v, want limit of 2", hits)
	}
}
