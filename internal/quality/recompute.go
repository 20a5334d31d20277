package quality

import (
	"context"

	"github.com/lazypower/engram/internal/apperr"
	"github.com/lazypower/engram/internal/store"
)

// Store is the subset of *store.DB the quality pipeline depends on.
type Store interface {
	Get(ctx context.Context, id int64) (*store.Memory, error)
	List(ctx context.Context, p store.ListParams) ([]*store.Memory, error)
	AppendQualityHistory(ctx context.Context, e store.QualityHistoryEntry) error
	OpenConflicts(ctx context.Context, memoryID int64) ([]store.MemoryConflict, error)
}

// Options configures Recompute/RecomputeAll.
type Options struct {
	Now               int64
	HalfLifeFreshness float64 // days
	BatchSize         int
}

const defaultBatchSize = 200

// Recompute computes one memory's current quality, appends it to
// quality_history, and returns the score.
func Recompute(ctx context.Context, st Store, id int64, opts Options) (float64, error) {
	m, err := st.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if m == nil {
		return 0, apperr.NotFoundf("quality_recompute", "memory %d not found", id)
	}

	halfLife := opts.HalfLifeFreshness
	if halfLife <= 0 {
		halfLife = DefaultHalfLifeFreshnessDays
	}

	openConflicts, err := st.OpenConflicts(ctx, id)
	if err != nil {
		return 0, err
	}

	c := Components{
		Clarity:      clarity(m.Content),
		Completeness: completeness(m.Content),
		Freshness:    freshness(ageDays(m.UpdatedAt, opts.Now), halfLife),
		Consistency:  consistency(len(openConflicts)),
		SourceTrust:  SourceTrust(m.Origin),
	}
	score := Score(c)

	if err := st.AppendQualityHistory(ctx, store.QualityHistoryEntry{
		MemoryID:     id,
		Quality:      score,
		Clarity:      c.Clarity,
		Completeness: c.Completeness,
		Freshness:    c.Freshness,
		Consistency:  c.Consistency,
		SourceTrust:  c.SourceTrust,
	}); err != nil {
		return 0, err
	}
	return score, nil
}

// RecomputeAll recomputes quality for every memory in workspace, paging
// through List in BatchSize chunks.
func RecomputeAll(ctx context.Context, st Store, workspace string, opts Options) (int, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	recomputed := 0
	offset := 0
	for {
		select {
		case <-ctx.Done():
			return recomputed, ctx.Err()
		default:
		}
		memories, err := st.List(ctx, store.ListParams{
			Workspace:       workspace,
			Sort:            store.SortCreatedAt,
			Limit:           batchSize,
			Offset:          offset,
			IncludeArchived: true,
		})
		if err != nil {
			return recomputed, err
		}
		if len(memories) == 0 {
			break
		}
		for _, m := range memories {
			if _, err := Recompute(ctx, st, m.ID, opts); err != nil {
				return recomputed, err
			}
			recomputed++
		}
		if len(memories) < batchSize {
			break
		}
		offset += batchSize
	}
	return recomputed, nil
}
