package engram

import (
	"context"
	"testing"

	"github.com/lazypower/engram/internal/config"
	"github.com/lazypower/engram/internal/store"
)

func newTestCore(t *testing.T) *Core {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, config.Default(), Options{})
}

func TestCreateGetUpdateDelete(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()

	m, err := c.Create(ctx, store.CreateParams{
		Content:    "the sky is blue",
		MemoryType: "note",
		Workspace:  "default",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := c.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Content != "the sky is blue" {
		t.Fatalf("Get content = %q", got.Content)
	}

	newContent := "the sky is grey today"
	updated, err := c.Update(ctx, m.ID, store.UpdateParams{Content: &newContent})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Content != newContent {
		t.Fatalf("Update content = %q", updated.Content)
	}

	if err := c.Delete(ctx, m.ID, false); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	after, err := c.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if after != nil && !after.Deleted {
		t.Fatalf("memory not marked deleted after soft delete")
	}
}

func TestSearchFindsCreatedMemory(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()

	if _, err := c.Create(ctx, store.CreateParams{
		Content:    "engram stores agent memories across sessions",
		MemoryType: "note",
		Workspace:  "default",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	results, err := c.Suggest(ctx, "engram", 10)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("Suggest returned no results")
	}
}

func TestExtractEntitiesFindsCapitalizedNames(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()

	m, err := c.Create(ctx, store.CreateParams{
		Content:    "Alice Johnson met Bob Smith at the office",
		MemoryType: "note",
		Workspace:  "default",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ents, err := c.ExtractEntities(ctx, m.ID)
	if err != nil {
		t.Fatalf("ExtractEntities: %v", err)
	}
	if len(ents) == 0 {
		t.Fatalf("ExtractEntities found no entities")
	}
}

func TestLifecycleSetExpirationAndPromote(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()

	m, err := c.Create(ctx, store.CreateParams{
		Content:    "a daily scratch note",
		MemoryType: "note",
		Workspace:  "default",
		Tier:       "daily",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := c.PromoteToPermanent(ctx, m.ID); err != nil {
		t.Fatalf("PromoteToPermanent: %v", err)
	}

	got, err := c.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Tier != "permanent" {
		t.Fatalf("Tier = %q, want permanent", got.Tier)
	}
}

func TestSalienceBoostAndStats(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()

	m, err := c.Create(ctx, store.CreateParams{
		Content:    "boost me",
		MemoryType: "note",
		Workspace:  "default",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := c.SalienceBoost(ctx, m.ID, 0.5, 0); err != nil {
		t.Fatalf("SalienceBoost: %v", err)
	}

	score, err := c.SalienceStats(ctx, m.ID)
	if err != nil {
		t.Fatalf("SalienceStats: %v", err)
	}
	if score <= 0 {
		t.Fatalf("SalienceStats score = %v, want > 0", score)
	}
}

func TestStatsReportsTotalMemories(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Create(ctx, store.CreateParams{
			Content:    "memory body",
			MemoryType: "note",
			Workspace:  "default",
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	s, err := c.Stats(ctx, "default")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s.TotalMemories != 3 {
		t.Fatalf("TotalMemories = %d, want 3", s.TotalMemories)
	}
}
