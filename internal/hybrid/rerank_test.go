package hybrid

import (
	"testing"

	"github.com/lazypower/engram/internal/store"
)

func TestRerankNonePassesThroughRRFScore(t *testing.T) {
	fused := []Fused{{MemoryID: 1, Score: 0.5}}
	memories := map[int64]*store.Memory{1: {ID: 1, Origin: "organic", ValidationStatus: "verified"}}
	cands := Rerank(fused, memories, RerankOptions{Strategy: RerankNone})
	if len(cands) != 1 || cands[0].Utility != 0.5 {
		t.Fatalf("Rerank(none) = %+v, want utility 0.5", cands)
	}
}

func TestRerankPinnedOutranksUnpinnedAtEqualFusedScore(t *testing.T) {
	fused := []Fused{{MemoryID: 1, Score: 0.5}, {MemoryID: 2, Score: 0.5}}
	memories := map[int64]*store.Memory{
		1: {ID: 1, Origin: "organic", ValidationStatus: "verified", Pinned: true},
		2: {ID: 2, Origin: "organic", ValidationStatus: "verified", Pinned: false},
	}
	cands := Rerank(fused, memories, RerankOptions{Strategy: RerankMultiSignal})
	if cands[0].Memory.ID != 1 {
		t.Fatalf("Rerank = %+v, want pinned memory first", cands)
	}
}

func TestRerankSeedInvalidatedIsExcludedByMinScore(t *testing.T) {
	fused := []Fused{{MemoryID: 1, Score: 0.5}}
	memories := map[int64]*store.Memory{
		1: {ID: 1, Origin: "seed", ValidationStatus: "disputed"},
	}
	cands := Rerank(fused, memories, RerankOptions{Strategy: RerankMultiSignal, MinScore: 0.001})
	if len(cands) != 0 {
		t.Fatalf("Rerank(seed invalidated) = %+v, want excluded", cands)
	}
}

func TestRerankArchivedNeverOutranksActiveAtEqualFusedScore(t *testing.T) {
	now := int64(1000) * millisPerDay
	recent := now
	fused := []Fused{{MemoryID: 1, Score: 0.5}, {MemoryID: 2, Score: 0.5}}
	memories := map[int64]*store.Memory{
		1: {ID: 1, Origin: "organic", ValidationStatus: "verified", LifecycleState: "archived", LastAccessedAt: &recent, AccessCount: 50},
		2: {ID: 2, Origin: "organic", ValidationStatus: "verified", LifecycleState: "active", LastAccessedAt: &recent, AccessCount: 50},
	}
	cands := Rerank(fused, memories, RerankOptions{Strategy: RerankMultiSignal, Now: now})
	if cands[0].Memory.ID != 2 {
		t.Fatalf("Rerank = %+v, want active memory to outrank archived", cands)
	}
}

func TestRerankMissingMemoryIsSkipped(t *testing.T) {
	fused := []Fused{{MemoryID: 1, Score: 0.5}}
	cands := Rerank(fused, map[int64]*store.Memory{}, RerankOptions{})
	if len(cands) != 0 {
		t.Fatalf("Rerank(missing) = %+v, want none", cands)
	}
}
