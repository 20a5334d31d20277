package graph

import (
	"context"
	"sort"

	"github.com/lazypower/engram/internal/store"
)

// RelatedOptions configures a BFS traversal (spec §4.7).
type RelatedOptions struct {
	Depth           int
	Direction       Direction
	EdgeTypes       []string
	MinConfidence   float64
	LimitPerHop     int
	ResultCap       int
	IncludeEntities bool
	IncludeDecayed  bool
	HalfLifeDays    float64
	Now             int64
}

type candidateEdge struct {
	neighbor   int64
	edge       store.CrossRef
	virtual    bool
	entityConf float64 // used only for virtual edges
	sharedEnt  int
}

// Related runs BFS outward from id up to opts.Depth hops, returning every
// reachable node and the edge first used to discover it.
func Related(ctx context.Context, st Store, id int64, opts RelatedOptions) (*TraversalResult, error) {
	if opts.Depth <= 0 {
		opts.Depth = 1
	}
	if opts.LimitPerHop <= 0 {
		opts.LimitPerHop = 50
	}
	if opts.ResultCap <= 0 {
		opts.ResultCap = 500
	}
	if opts.Direction == "" {
		opts.Direction = Both
	}

	visited := map[int64]bool{id: true}
	result := &TraversalResult{DiscoveryEdges: make(map[int64]DiscoveryEdge)}
	frontier := []int64{id}

	for hop := 0; hop < opts.Depth && len(result.Nodes) < opts.ResultCap; hop++ {
		var next []int64
		for _, nodeID := range frontier {
			candidates, err := candidatesFor(ctx, st, nodeID, opts)
			if err != nil {
				return nil, err
			}
			sortCandidates(candidates)
			if len(candidates) > opts.LimitPerHop {
				candidates = candidates[:opts.LimitPerHop]
			}
			for _, c := range candidates {
				if visited[c.neighbor] {
					continue
				}
				visited[c.neighbor] = true
				de := DiscoveryEdge{
					FromID:   nodeID,
					ToID:     c.neighbor,
					EdgeType: c.edge.EdgeType,
					Strength: c.edge.Strength,
					Virtual:  c.virtual,
				}
				if c.virtual {
					de.Confidence = c.entityConf
					de.Strength = float64(c.sharedEnt)
				} else {
					de.Confidence = DecayedConfidence(c.edge, opts.Now, opts.HalfLifeDays)
				}
				result.Nodes = append(result.Nodes, c.neighbor)
				result.DiscoveryEdges[c.neighbor] = de
				next = append(next, c.neighbor)
				if len(result.Nodes) >= opts.ResultCap {
					break
				}
			}
			if len(result.Nodes) >= opts.ResultCap {
				break
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return result, nil
}

func candidatesFor(ctx context.Context, st Store, nodeID int64, opts RelatedOptions) ([]candidateEdge, error) {
	var edges []store.CrossRef
	switch opts.Direction {
	case Outgoing:
		out, err := st.EdgesFrom(ctx, nodeID, opts.EdgeTypes, 0)
		if err != nil {
			return nil, err
		}
		edges = out
	case Incoming:
		in, err := st.EdgesTo(ctx, nodeID, opts.EdgeTypes, 0)
		if err != nil {
			return nil, err
		}
		edges = in
	default: // Both
		out, err := st.EdgesFrom(ctx, nodeID, opts.EdgeTypes, 0)
		if err != nil {
			return nil, err
		}
		in, err := st.EdgesTo(ctx, nodeID, opts.EdgeTypes, 0)
		if err != nil {
			return nil, err
		}
		edges = append(out, in...)
	}

	var candidates []candidateEdge
	for _, e := range edges {
		neighbor := e.ToID
		if neighbor == nodeID {
			neighbor = e.FromID
		}
		decayed := DecayedConfidence(e, opts.Now, opts.HalfLifeDays)
		if !opts.IncludeDecayed && IsDecayed(e, opts.Now, opts.HalfLifeDays) {
			continue
		}
		if decayed < opts.MinConfidence {
			continue
		}
		candidates = append(candidates, candidateEdge{neighbor: neighbor, edge: e})
	}

	if opts.IncludeEntities {
		virtual, err := entityVirtualEdges(ctx, st, nodeID)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, virtual...)
	}
	return candidates, nil
}

// entityVirtualEdges builds A-entity-B co-occurrence edges for nodeID: every
// other memory sharing at least one entity with nodeID contributes a virtual
// edge weighted by shared-entity count and averaged mention confidence.
func entityVirtualEdges(ctx context.Context, st Store, nodeID int64) ([]candidateEdge, error) {
	entities, err := st.EntitiesForMemory(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, nil
	}

	shared := make(map[int64]int)
	confSum := make(map[int64]float64)
	for _, me := range entities {
		cooccurring, err := st.MemoriesForEntity(ctx, me.EntityID)
		if err != nil {
			return nil, err
		}
		for _, mid := range cooccurring {
			if mid == nodeID {
				continue
			}
			shared[mid]++
			confSum[mid] += me.Confidence
		}
	}

	out := make([]candidateEdge, 0, len(shared))
	for mid, count := range shared {
		out = append(out, candidateEdge{
			neighbor:   mid,
			virtual:    true,
			sharedEnt:  count,
			entityConf: confSum[mid] / float64(count),
		})
	}
	return out, nil
}

// sortCandidates applies spec.md §4.7's BFS frontier tie-break: higher
// strength, then higher confidence, then lower neighbor id.
func sortCandidates(candidates []candidateEdge) {
	sort.Slice(candidates, func(i, j int) bool {
		si, sj := strengthOf(candidates[i]), strengthOf(candidates[j])
		if si != sj {
			return si > sj
		}
		ci, cj := confidenceOf(candidates[i]), confidenceOf(candidates[j])
		if ci != cj {
			return ci > cj
		}
		return candidates[i].neighbor < candidates[j].neighbor
	})
}

func strengthOf(c candidateEdge) float64 {
	if c.virtual {
		return float64(c.sharedEnt)
	}
	return c.edge.Strength
}

func confidenceOf(c candidateEdge) float64 {
	if c.virtual {
		return c.entityConf
	}
	return c.edge.Confidence
}
