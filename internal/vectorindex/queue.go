package vectorindex

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lazypower/engram/internal/apperr"
	"github.com/lazypower/engram/internal/config"
	"github.com/lazypower/engram/internal/store"
)

// Store is the subset of *store.DB the worker pool depends on, narrowed so
// tests can fake it without spinning up SQLite.
type Store interface {
	Get(ctx context.Context, id int64) (*store.Memory, error)
	DequeuePending(ctx context.Context, limit int) ([]store.EmbeddingRecord, error)
	CompleteEmbedding(ctx context.Context, memoryID int64, embedding []float64, model string) error
	FailEmbedding(ctx context.Context, memoryID int64, errMsg string, retryCap int) error
}

// Worker drains the embedding queue built by store.EnqueueEmbedding, computing
// vectors with Embedder and writing them back, bounded to cfg.WorkerCount
// concurrent embed calls (grounded on the teacher's engine worker loop, which
// this generalizes from a single in-process call into a bounded pool).
type Worker struct {
	store    Store
	embedder Embedder
	cache    *Cache
	cfg      config.EmbeddingConfig
}

func NewWorker(st Store, embedder Embedder, cache *Cache, cfg config.EmbeddingConfig) *Worker {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	return &Worker{store: st, embedder: embedder, cache: cache, cfg: cfg}
}

// DrainOnce claims up to batchSize pending rows and embeds each, returning
// the number successfully completed. Safe to call repeatedly from a poll
// loop; returns 0 with no error when the queue is empty.
func (w *Worker) DrainOnce(ctx context.Context, batchSize int) (int, error) {
	pending, err := w.store.DequeuePending(ctx, batchSize)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	sem := make(chan struct{}, w.cfg.WorkerCount)
	g, gctx := errgroup.WithContext(ctx)
	completed := make([]bool, len(pending))

	for i, rec := range pending {
		i, rec := i, rec
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			ok := w.embedOne(gctx, rec)
			completed[i] = ok
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, ok := range completed {
		if ok {
			n++
		}
	}
	return n, nil
}

func (w *Worker) embedOne(ctx context.Context, rec store.EmbeddingRecord) bool {
	mem, err := w.store.Get(ctx, rec.MemoryID)
	if err != nil || mem == nil {
		w.fail(ctx, rec.MemoryID, "source memory not found")
		return false
	}

	if vec, ok := w.cache.Get(mem.Content); ok {
		return w.complete(ctx, rec.MemoryID, vec)
	}

	vec, err := w.embedder.Embed(ctx, mem.Content)
	if err != nil {
		w.fail(ctx, rec.MemoryID, err.Error())
		return false
	}
	if dims := w.embedder.Dimensions(); dims > 0 && len(vec) != dims {
		shapeErr := apperr.New(apperr.Dependency, "vectorindex.embedOne", "embedding shape mismatch").
			WithField("want", dims).WithField("got", len(vec))
		w.fail(ctx, rec.MemoryID, shapeErr.Error())
		return false
	}

	w.cache.Put(mem.Content, vec)
	return w.complete(ctx, rec.MemoryID, vec)
}

func (w *Worker) complete(ctx context.Context, memoryID int64, vec []float64) bool {
	if err := w.store.CompleteEmbedding(ctx, memoryID, vec, w.cfg.Model); err != nil {
		return false
	}
	return true
}

func (w *Worker) fail(ctx context.Context, memoryID int64, msg string) {
	_ = w.store.FailEmbedding(ctx, memoryID, msg, w.cfg.MaxRetries)
}

// Run polls the queue on cfg.QueuePollPeriod until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	period := w.cfg.QueuePollPeriod
	if period <= 0 {
		period = 2 * time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.DrainOnce(ctx, 16); err != nil {
				return err
			}
		}
	}
}
