package quality

import (
	"context"
	"testing"

	"github.com/lazypower/engram/internal/store"
)

func TestFindConflictsFlagsContradictoryBooleanMetadata(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a, err := db.Create(ctx, store.CreateParams{
		Content: "the deploy pipeline is green", MemoryType: "note",
		Metadata: map[string]any{"deploy_healthy": true},
	})
	if err != nil {
		t.Fatalf("Create a: %v", err)
	}
	b, err := db.Create(ctx, store.CreateParams{
		Content: "the deploy pipeline is broken", MemoryType: "note",
		Metadata: map[string]any{"deploy_healthy": false},
	})
	if err != nil {
		t.Fatalf("Create b: %v", err)
	}

	entity, err := db.UpsertEntity(ctx, store.NormalizeEntityName("deploy pipeline"), "technology")
	if err != nil {
		t.Fatalf("UpsertEntity: %v", err)
	}
	if err := db.LinkEntity(ctx, a.ID, entity.ID, 0.9, "mentions", nil); err != nil {
		t.Fatalf("LinkEntity a: %v", err)
	}
	if err := db.LinkEntity(ctx, b.ID, entity.ID, 0.9, "mentions", nil); err != nil {
		t.Fatalf("LinkEntity b: %v", err)
	}

	candidates, err := FindConflicts(ctx, db, a.ID)
	if err != nil {
		t.Fatalf("FindConflicts: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("FindConflicts = %+v, want 1 candidate", candidates)
	}
	if candidates[0].Kind != kindMetadataContradiction {
		t.Errorf("Kind = %q, want %q", candidates[0].Kind, kindMetadataContradiction)
	}
}

func TestContradictsDetectsOppositeBooleans(t *testing.T) {
	if !contradicts(`{"active":true}`, `{"active":false}`) {
		t.Error("contradicts(true,false) = false, want true")
	}
	if contradicts(`{"active":true}`, `{"active":true}`) {
		t.Error("contradicts(true,true) = true, want false")
	}
	if contradicts(`{"active":true}`, `{}`) {
		t.Error("contradicts(true, missing) = true, want false (no claim to contradict)")
	}
}
