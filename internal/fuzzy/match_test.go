package fuzzy_test

import (
	"context"
	"testing"

	"github.com/lazypower/engram/internal/fuzzy"
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

func TestFuzzySearchMatchesTypo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m, err := db.Create(ctx, store.CreateParams{Content: "use async/await for I/O-bound work", MemoryType: "note"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	hits, err := db.FuzzySearch(ctx, "asynch awiat", fuzzy.DefaultConfig(), fuzzy.SearchOptions{})
	if err != nil {
		t.Fatalf("FuzzySearch: %v", err)
	}
	found := false
	for _, h := range hits {
		if h.MemoryID == m.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("FuzzySearch(asynch awiat) = %+v, want memory %d among hits", hits, m.ID)
	}
}

func TestFuzzySearchTagField(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m, err := db.Create(ctx, store.CreateParams{Content: "generic content", MemoryType: "note", Tags: []string{"kubernetes"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	hits, err := db.FuzzySearch(ctx, "kubernets", fuzzy.DefaultConfig(), fuzzy.SearchOptions{Fields: []string{"tags"}})
	if err != nil {
		t.Fatalf("FuzzySearch: %v", err)
	}
	if len(hits) != 1 || hits[0].MemoryID != m.ID {
		t.Fatalf("FuzzySearch(kubernets) = %+v, want only memory %d", hits, m.ID)
	}
}

func TestFuzzySearchNoMatchBeyondThreshold(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.Create(ctx, store.CreateParams{Content: "completely unrelated wording", MemoryType: "note"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	hits, err := db.FuzzySearch(ctx, "zzzzzzzzzz", fuzzy.DefaultConfig(), fuzzy.SearchOptions{})
	if err != nil {
		t.Fatalf("FuzzySearch: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("FuzzySearch(zzzzzzzzzz) = %+v, want no hits", hits)
	}
}

func TestFuzzySearchReindexesOnUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m, err := db.Create(ctx, store.CreateParams{Content: "original spelling here", MemoryType: "note"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	newContent := "entirely different phrasing"
	if _, err := db.Update(ctx, m.ID, store.UpdateParams{Content: &newContent}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	hits, err := db.FuzzySearch(ctx, "speling", fuzzy.DefaultConfig(), fuzzy.SearchOptions{})
	if err != nil {
		t.Fatalf("FuzzySearch: %v", err)
	}
	for _, h := range hits {
		if h.MemoryID == m.ID {
			t.Errorf("stale term still matched after update: %+v", hits)
		}
	}
}

func TestFuzzySearchEmptyDB(t *testing.T) {
	hits, err := newTestDB(t).FuzzySearch(context.Background(), "abc", fuzzy.DefaultConfig(), fuzzy.SearchOptions{})
	if err != nil {
		t.Fatalf("FuzzySearch: %v", err)
	}
	if hits != nil {
		t.Fatalf("FuzzySearch on empty db = %+v, want nil", hits)
	}
}
