package salience

import (
	"context"

	"github.com/lazypower/engram/internal/apperr"
	"github.com/lazypower/engram/internal/store"
)

// Store is the subset of *store.DB the salience pipeline depends on.
type Store interface {
	Get(ctx context.Context, id int64) (*store.Memory, error)
	List(ctx context.Context, p store.ListParams) ([]*store.Memory, error)
	AppendSalienceHistory(ctx context.Context, e store.SalienceHistoryEntry) error
	BoostSignals(ctx context.Context, memoryID int64) (pos int, neg int, err error)
}

// Options configures Recompute/RecomputeAll.
type Options struct {
	Now             int64
	HalfLifeRecency float64 // days
	BatchSize       int
}

const defaultBatchSize = 200

// Recompute computes one memory's current salience, appends it to
// salience_history, and returns the score.
func Recompute(ctx context.Context, st Store, id int64, opts Options) (float64, error) {
	m, err := st.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if m == nil {
		return 0, apperr.NotFoundf("salience_recompute", "memory %d not found", id)
	}

	halfLife := opts.HalfLifeRecency
	if halfLife <= 0 {
		halfLife = DefaultHalfLifeRecencyDays
	}
	lastActive := m.CreatedAt
	if m.LastAccessedAt != nil {
		lastActive = *m.LastAccessedAt
	}

	pos, neg, err := st.BoostSignals(ctx, id)
	if err != nil {
		return 0, err
	}

	c := Components{
		Recency:    recency(ageDays(lastActive, opts.Now), halfLife),
		Frequency:  frequency(m.AccessCount),
		Importance: m.Importance,
		Feedback:   feedback(pos, neg),
	}
	score := Score(c)

	if err := st.AppendSalienceHistory(ctx, store.SalienceHistoryEntry{
		MemoryID:   id,
		Salience:   score,
		Recency:    c.Recency,
		Frequency:  c.Frequency,
		Importance: c.Importance,
		Feedback:   c.Feedback,
	}); err != nil {
		return 0, err
	}
	return score, nil
}

// RecomputeAll recomputes salience for every memory in workspace, archived
// ones included, paging through List in BatchSize chunks.
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
