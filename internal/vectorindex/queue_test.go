package vectorindex

import (
	"context"
	"errors"
	"testing"

	"github.com/lazypower/engram/internal/config"
	"github.com/lazypower/engram/internal/store"
)

type fakeStore struct {
	memories  map[int64]*store.Memory
	pending   []store.EmbeddingRecord
	completed map[int64][]float64
	failed    map[int64]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		memories:  make(map[int64]*store.Memory),
		completed: make(map[int64][]float64),
		failed:    make(map[int64]string),
	}
}

func (f *fakeStore) Get(ctx context.Context, id int64) (*store.Memory, error) {
	m, ok := f.memories[id]
	if !ok {
		return nil, nil
	}
	return m, nil
}

func (f *fakeStore) DequeuePending(ctx context.Context, limit int) ([]store.EmbeddingRecord, error) {
	if limit < len(f.pending) {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeStore) CompleteEmbedding(ctx context.Context, memoryID int64, embedding []float64, model string) error {
	f.completed[memoryID] = embedding
	return nil
}

func (f *fakeStore) FailEmbedding(ctx context.Context, memoryID int64, errMsg string, retryCap int) error {
	f.failed[memoryID] = errMsg
	return nil
}

type errEmbedder struct{ err error }

func (e errEmbedder) Dimensions() int { return 3 }
func (e errEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, e.err
}
func (e errEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	return nil, e.err
}

func TestWorkerDrainOnceCompletesPending(t *testing.T) {
	fs := newFakeStore()
	fs.memories[1] = &store.Memory{ID: 1, Content: "deploy the service"}
	fs.pending = []store.EmbeddingRecord{{MemoryID: 1, ContentHash: "h1"}}

	cache, _ := NewCache(16)
	embedder := NewTFIDFEmbedder([]string{"deploy the service"}, 0)
	w := NewWorker(fs, embedder, cache, config.EmbeddingConfig{WorkerCount: 2, MaxRetries: 3})

	n, err := w.DrainOnce(context.Background(), 10)
	if err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if n != 1 {
		t.Fatalf("DrainOnce completed %d, want 1", n)
	}
	if _, ok := fs.completed[1]; !ok {
		t.Error("memory 1 not marked complete")
	}
}

func TestWorkerDrainOnceEmptyQueue(t *testing.T) {
	fs := newFakeStore()
	cache, _ := NewCache(16)
	w := NewWorker(fs, NewTFIDFEmbedder(nil, 0), cache, config.EmbeddingConfig{})

	n, err := w.DrainOnce(context.Background(), 10)
	if err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if n != 0 {
		t.Fatalf("DrainOnce on empty queue = %d, want 0", n)
	}
}

func TestWorkerDrainOnceFailsOnEmbedderError(t *testing.T) {
	fs := newFakeStore()
	fs.memories[1] = &store.Memory{ID: 1, Content: "content"}
	fs.pending = []store.EmbeddingRecord{{MemoryID: 1}}

	cache, _ := NewCache(16)
	w := NewWorker(fs, errEmbedder{err: errors.New("boom")}, cache, config.EmbeddingConfig{MaxRetries: 3})

	n, err := w.DrainOnce(context.Background(), 10)
	if err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if n != 0 {
		t.Fatalf("DrainOnce completed %d, want 0 on embedder error", n)
	}
	if _, ok := fs.failed[1]; !ok {
		t.Error("memory 1 not marked failed")
	}
}

func TestWorkerUsesCacheBeforeEmbedder(t *testing.T) {
	fs := newFakeStore()
	fs.memories[1] = &store.Memory{ID: 1, Content: "cached content"}
	fs.pending = []store.EmbeddingRecord{{MemoryID: 1}}

	cache, _ := NewCache(16)
	cache.Put("cached content", []float64{1, 2, 3})

	w := NewWorker(fs, errEmbedder{err: errors.New("should not be called")}, cache, config.EmbeddingConfig{MaxRetries: 3})
	n, err := w.DrainOnce(context.Background(), 10)
	if err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if n != 1 {
		t.Fatalf("DrainOnce completed %d, want 1 via cache hit", n)
	}
}
