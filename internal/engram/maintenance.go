package engram

import (
	"context"

	"github.com/lazypower/engram/internal/store"
)

// RebuildEmbeddings drains the embedding queue fully instead of waiting for
// the background worker's poll interval, for callers that just reindexed a
// bulk import and want vectors ready immediately (spec §6 `rebuild_embeddings`).
func (c *Core) RebuildEmbeddings(ctx context.Context) (int, error) {
	if c.embedWorker == nil {
		return 0, nil
	}
	const batchSize = 50
	total := 0
	for {
		n, err := c.embedWorker.DrainOnce(ctx, batchSize)
		if err != nil {
			return total, err
		}
		total += n
		if n == 0 {
			return total, nil
		}
	}
}

// RebuildCrossrefs derives "co_mentioned" edges between every pair of
// memories that share an extracted entity, the structural signal
// internal/graph's Related/Clusters operate over (spec §6 `rebuild_crossrefs`).
// Existing pinned or manually-scored edges of other types are untouched;
// Link's upsert-on-conflict only ever touches the co_mentioned row for a pair.
func (c *Core) RebuildCrossrefs(ctx context.Context, workspace string) (int, error) {
	memories, err := c.DB.List(ctx, store.ListParams{Workspace: workspace})
	if err != nil {
		return 0, err
	}

	entityMembers := make(map[int64]map[int64]bool) // entityID -> memoryID set
	for _, m := range memories {
		ents, err := c.DB.EntitiesForMemory(ctx, m.ID)
		if err != nil {
			return 0, err
		}
		for _, e := range ents {
			if entityMembers[e.EntityID] == nil {
				entityMembers[e.EntityID] = make(map[int64]bool)
			}
			entityMembers[e.EntityID][m.ID] = true
		}
	}

	made := 0
	seenPairs := make(map[[2]int64]bool)
	for _, members := range entityMembers {
		ids := make([]int64, 0, len(members))
		for id := range members {
			ids = append(ids, id)
		}
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := ids[i], ids[j]
				if a > b {
					a, b = b, a
				}
				pair := [2]int64{a, b}
				if seenPairs[pair] {
					continue
				}
				seenPairs[pair] = true
				if _, err := c.DB.Link(ctx, store.LinkParams{
					FromID:     a,
					ToID:       b,
					EdgeType:   "co_mentioned",
					Confidence: 0.5,
					Strength:   1.0,
					Source:     "derived",
				}); err != nil {
					return made, err
				}
				made++
			}
		}
	}
	return made, nil
}

// Stats reports workspace-wide counts spec §6's `stats` operation exposes
// to callers building dashboards or health checks.
type Stats struct {
	TotalMemories  int64
	ByTier         map[string]int64
	ByLifecycle    map[string]int64
	EntitiesByType map[string]int
}

func (c *Core) Stats(ctx context.Context, workspace string) (Stats, error) {
	s := Stats{ByTier: map[string]int64{}, ByLifecycle: map[string]int64{}}

	total, err := c.DB.Count(ctx, store.ListParams{Workspace: workspace})
	if err != nil {
		return s, err
	}
	s.TotalMemories = total

	for _, tier := range []string{"daily", "permanent"} {
		n, err := c.DB.Count(ctx, store.ListParams{
			Workspace: workspace,
			Filter:    &store.FilterExpr{Field: "tier", Op: store.OpEq, Value: tier},
		})
		if err != nil {
			return s, err
		}
		s.ByTier[tier] = n
	}
	for _, state := range []string{"active", "stale", "archived", "expired"} {
		n, err := c.DB.Count(ctx, store.ListParams{
			Workspace: workspace,
			Filter:    &store.FilterExpr{Field: "lifecycle_state", Op: store.OpEq, Value: state},
		})
		if err != nil {
			return s, err
		}
		s.ByLifecycle[state] = n
	}

	entStats, err := c.DB.EntityStats(ctx)
	if err != nil {
		return s, err
	}
	s.EntitiesByType = entStats
	return s, nil
}

// Aggregate groups a workspace's memories by memory_type and reports the
// average importance per group (spec §6 `aggregate`), the simplest
// roll-up an analytics caller needs without shipping every memory's body.
type AggregateBucket struct {
	MemoryType      string
	Count           int
	AverageImportance float64
}

func (c *Core) Aggregate(ctx context.Context, p store.ListParams) ([]AggregateBucket, error) {
	memories, err := c.DB.List(ctx, p)
	if err != nil {
		return nil, err
	}

	type acc struct {
		count int
		sum   float64
	}
	byType := make(map[string]*acc)
	var order []string
	for _, m := range memories {
		a, ok := byType[m.MemoryType]
		if !ok {
			a = &acc{}
			byType[m.MemoryType] = a
			order = append(order, m.MemoryType)
		}
		a.count++
		a.sum += m.Importance
	}

	out := make([]AggregateBucket, 0, len(order))
	for _, t := range order {
		a := byType[t]
		out = append(out, AggregateBucket{
			MemoryType:        t,
			Count:             a.count,
			AverageImportance: a.sum / float64(a.count),
		})
	}
	return out, nil
}
