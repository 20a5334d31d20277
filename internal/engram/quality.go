package engram

import (
	"context"

	"github.com/lazypower/engram/internal/quality"
	"github.com/lazypower/engram/internal/store"
)

func (c *Core) qualityOptions() quality.Options {
	return quality.Options{
		Now:               c.now(),
		HalfLifeFreshness: c.Config.Quality.HalfLifeFreshnessDay,
		BatchSize:         defaultRecomputeBatchSize,
	}
}

// QualityScore recomputes and returns one memory's quality score (spec §6 `quality_score`).
func (c *Core) QualityScore(ctx context.Context, id int64) (float64, error) {
	return quality.Recompute(ctx, c.DB, id, c.qualityOptions())
}

// QualityReport returns a memory's quality recompute history (spec §6 `quality_report`).
func (c *Core) QualityReport(ctx context.Context, id int64, limit int) ([]store.QualityHistoryEntry, error) {
	return c.DB.QualityHistory(ctx, id, limit)
}

// QualityImprove recomputes quality for every memory in a workspace, the
// maintenance counterpart callers run after a batch of edits (spec §6 `quality_improve`).
func (c *Core) QualityImprove(ctx context.Context, workspace string) (int, error) {
	n, err := quality.RecomputeAll(ctx, c.DB, workspace, c.qualityOptions())
	if err == nil && n > 0 {
		c.DB.AppendEvent(ctx, "quality_recomputed", nil, "", map[string]any{"workspace": workspace, "count": n})
	}
	return n, err
}

// FindDuplicates scans a workspace for near-duplicate memories and records
// them as pending candidates (spec §6 `find_duplicates`).
func (c *Core) FindDuplicates(ctx context.Context, workspace string) ([]quality.DuplicateMatch, error) {
	opts := quality.DuplicateOptions{
		NGram:     c.Config.Quality.DuplicateNGram,
		Threshold: c.Config.Quality.DuplicateThreshold,
		BatchSize: defaultRecomputeBatchSize,
	}
	matches, err := quality.FindDuplicates(ctx, c.DB, c.DB, workspace, opts)
	if err == nil && len(matches) > 0 {
		c.DB.AppendEvent(ctx, "duplicate_detected", nil, "", map[string]any{"workspace": workspace, "count": len(matches)})
	}
	return matches, err
}

// GetDuplicates returns previously recorded duplicate candidates at or
// above minSimilarity with the given status (spec §6 `get_duplicates`).
func (c *Core) GetDuplicates(ctx context.Context, minSimilarity float64, status string) ([]store.DuplicateCandidate, error) {
	return c.DB.DuplicateCandidates(ctx, minSimilarity, status)
}

// FindConflicts looks for memories sharing entities with contradictory
// facts (spec §6 `find_conflicts`).
func (c *Core) FindConflicts(ctx context.Context, memoryID int64) ([]quality.ConflictCandidate, error) {
	candidates, err := quality.FindConflicts(ctx, c.DB, memoryID)
	if err == nil && len(candidates) > 0 {
		c.DB.AppendEvent(ctx, "conflict_detected", &memoryID, "", map[string]any{"count": len(candidates)})
	}
	return candidates, err
}

// ResolveConflict marks a recorded conflict resolved (spec §6 `resolve_conflict`).
func (c *Core) ResolveConflict(ctx context.Context, id int64, resolution, resolvedBy string) error {
	if err := c.DB.ResolveConflict(ctx, id, resolution, resolvedBy); err != nil {
		return err
	}
	c.DB.AppendEvent(ctx, "conflict_resolved", nil, resolvedBy, map[string]any{"conflict_id": id, "resolution": resolution})
	return nil
}
