package salience

import (
	"context"
	"testing"

	"github.com/lazypower/engram/internal/store"
)

type fakeRecomputeStore struct {
	memories map[int64]*store.Memory
	history  []store.SalienceHistoryEntry
	pos, neg int
}

func (f *fakeRecomputeStore) Get(ctx context.Context, id int64) (*store.Memory, error) {
	return f.memories[id], nil
}

func (f *fakeRecomputeStore) List(ctx context.Context, p store.ListParams) ([]*store.Memory, error) {
	if p.Offset > 0 {
		return nil, nil
	}
	var out []*store.Memory
	for _, m := range f.memories {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeRecomputeStore) AppendSalienceHistory(ctx context.Context, e store.SalienceHistoryEntry) error {
	f.history = append(f.history, e)
	return nil
}

func (f *fakeRecomputeStore) BoostSignals(ctx context.Context, memoryID int64) (int, int, error) {
	return f.pos, f.neg, nil
}

func TestRecomputeAppendsHistoryAndScoresFreshMemory(t *testing.T) {
	now := int64(1_000_000_000)
	st := &fakeRecomputeStore{memories: map[int64]*store.Memory{
		1: {ID: 1, Importance: 0.8, AccessCount: 5, CreatedAt: now},
	}}

	score, err := Recompute(context.Background(), st, 1, Options{Now: now})
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if score <= 0 {
		t.Fatalf("Recompute score = %v, want positive", score)
	}
	if len(st.history) != 1 {
		t.Fatalf("history len = %d, want 1", len(st.history))
	}
	if st.history[0].MemoryID != 1 {
		t.Errorf("history MemoryID = %d, want 1", st.history[0].MemoryID)
	}
}

func TestRecomputeMissingMemoryIsNotFound(t *testing.T) {
	st := &fakeRecomputeStore{memories: map[int64]*store.Memory{}}
	if _, err := Recompute(context.Background(), st, 42, Options{Now: 1}); err == nil {
		t.Fatalf("Recompute(missing) = nil error, want not-found")
	}
}

func TestRecomputeAllProcessesEveryMemory(t *testing.T) {
	now := int64(1_000_000_000)
	st := &fakeRecomputeStore{memories: map[int64]*store.Memory{
		1: {ID: 1, Importance: 0.5, CreatedAt: now},
		2: {ID: 2, Importance: 0.5, CreatedAt: now},
	}}

	n, err := RecomputeAll(context.Background(), st, "default", Options{Now: now, BatchSize: 10})
	if err != nil {
		t.Fatalf("RecomputeAll: %v", err)
	}
	if n != 2 {
		t.Fatalf("RecomputeAll recomputed = %d, want 2", n)
	}
	if len(st.history) != 2 {
		t.Fatalf("history len = %d, want 2", len(st.history))
	}
}
