package engram

import (
	"context"
	"time"

	"github.com/lazypower/engram/internal/salience"
	"github.com/lazypower/engram/internal/store"
)

// SalienceGet returns the stored memory, whose salience score is the one the
// last recompute wrote; it does not recompute the score or return its
// components (spec §6 `salience_get`).
func (c *Core) SalienceGet(ctx context.Context, id int64) (*store.Memory, error) {
	return c.DB.Get(ctx, id)
}

// SalienceSetImportance overrides the manual importance input to the
// salience formula (spec §6 `salience_set_importance`).
func (c *Core) SalienceSetImportance(ctx context.Context, id int64, importance float64) (*store.Memory, error) {
	return c.DB.Update(ctx, id, store.UpdateParams{Importance: &importance})
}

// SalienceBoost applies a temporary positive adjustment (spec §6 `salience_boost`).
func (c *Core) SalienceBoost(ctx context.Context, id int64, delta float64, duration time.Duration) error {
	return salience.Boost(ctx, c.DB, c.now(), id, delta, duration)
}

// SalienceDemote applies a temporary negative adjustment (spec §6 `salience_demote`).
func (c *Core) SalienceDemote(ctx context.Context, id int64, delta float64, duration time.Duration) error {
	return salience.Demote(ctx, c.DB, c.now(), id, delta, duration)
}

// defaultRecomputeBatchSize bounds how many memories RecomputeAll touches
// per call when nothing else constrains it.
const defaultRecomputeBatchSize = 200

func (c *Core) salienceOptions() salience.Options {
	return salience.Options{
		Now:             c.now(),
		HalfLifeRecency: c.Config.Salience.HalfLifeRecencyDay,
		BatchSize:       defaultRecomputeBatchSize,
	}
}

// SalienceDecayRun recomputes salience for every memory in a workspace,
// applying time-based recency decay (spec §6 `salience_decay_run`).
func (c *Core) SalienceDecayRun(ctx context.Context, workspace string) (int, error) {
	n, err := salience.RecomputeAll(ctx, c.DB, workspace, c.salienceOptions())
	if err == nil && n > 0 {
		c.DB.AppendEvent(ctx, "salience_recomputed", nil, "", map[string]any{"workspace": workspace, "count": n})
	}
	return n, err
}

// SalienceStats recomputes and returns one memory's salience (spec §6 `salience_stats`).
func (c *Core) SalienceStats(ctx context.Context, id int64) (float64, error) {
	score, err := salience.Recompute(ctx, c.DB, id, c.salienceOptions())
	if err == nil {
		c.DB.AppendEvent(ctx, "salience_recomputed", &id, "", map[string]any{"score": score})
	}
	return score, err
}

// SalienceHistory returns a memory's salience recompute history (spec §6 `salience_history`).
func (c *Core) SalienceHistory(ctx context.Context, id int64, limit int) ([]store.SalienceHistoryEntry, error) {
	return c.DB.SalienceHistory(ctx, id, limit)
}

// SalienceTop returns the highest-salience memory IDs (spec §6 `salience_top`).
func (c *Core) SalienceTop(ctx context.Context, limit int) ([]int64, error) {
	return c.DB.TopBySalience(ctx, limit)
}
