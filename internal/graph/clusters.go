package graph

import (
	"context"
	"sort"

	"github.com/lazypower/engram/internal/store"
)

// Cluster is a connected component of the non-decayed edge graph, enriched
// with summary statistics (dominant memory type, tags common to most
// members, internal cohesion) grounded on original_source/src/graph/mod.rs's
// GraphCluster, whose label-propagation community detection this simplifies
// to connected components per SPEC_FULL.md §4.7.
type Cluster struct {
	ID            int
	Members       []int64
	DominantType  string
	CommonTags    []string
	InternalEdges int
	Cohesion      float64
}

// ClusterOptions configures Clusters.
type ClusterOptions struct {
	HalfLifeDays   float64
	IncludeDecayed bool
	Now            int64
	MinClusterSize int
}

type unionFind struct {
	parent map[int64]int64
	rank   map[int64]int
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[int64]int64), rank: make(map[int64]int)}
}

func (u *unionFind) find(x int64) int64 {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
		return x
	}
	if u.parent[x] != x {
		u.parent[x] = u.find(u.parent[x])
	}
	return u.parent[x]
}

func (u *unionFind) union(a, b int64) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}

// Clusters computes connected components over every non-decayed edge, per
// SPEC_FULL.md §4.7's supplement to spec.md §6's `clusters` operation.
func Clusters(ctx context.Context, st Store, opts ClusterOptions) ([]Cluster, error) {
	edges, err := st.AllActiveEdges(ctx)
	if err != nil {
		return nil, err
	}

	uf := newUnionFind()
	var kept []store.CrossRef
	for _, e := range edges {
		if !opts.IncludeDecayed && IsDecayed(e, opts.Now, opts.HalfLifeDays) {
			continue
		}
		kept = append(kept, e)
		uf.find(e.FromID)
		uf.find(e.ToID)
		uf.union(e.FromID, e.ToID)
	}

	membersByRoot := make(map[int64][]int64)
	for node := range uf.parent {
		root := uf.find(node)
		membersByRoot[root] = append(membersByRoot[root], node)
	}

	minSize := opts.MinClusterSize
	if minSize <= 0 {
		minSize = 2
	}

	var clusters []Cluster
	id := 0
	for _, members := range membersByRoot {
		if len(members) < minSize {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		c, err := buildCluster(ctx, st, id, members, kept)
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, c)
		id++
	}

	sort.Slice(clusters, func(i, j int) bool { return len(clusters[i].Members) > len(clusters[j].Members) })
	return clusters, nil
}

func buildCluster(ctx context.Context, st Store, id int, members []int64, edges []store.CrossRef) (Cluster, error) {
	memberSet := make(map[int64]bool, len(members))
	for _, m := range members {
		memberSet[m] = true
	}

	internal := 0
	for _, e := range edges {
		if memberSet[e.FromID] && memberSet[e.ToID] {
			internal++
		}
	}
	n := len(members)
	possible := 1
	if n > 1 {
		possible = n * (n - 1)
	}

	typeCounts := make(map[string]int)
	tagCounts := make(map[string]int)
	for _, m := range members {
		mem, err := st.Get(ctx, m)
		if err != nil || mem == nil {
			continue
		}
		typeCounts[mem.MemoryType]++
		for _, t := range mem.Tags {
			tagCounts[t]++
		}
	}

	dominant := ""
	best := 0
	for t, c := range typeCounts {
		if c > best {
			dominant, best = t, c
		}
	}

	threshold := n / 2
	var commonTags []string
	for t, c := range tagCounts {
		if c > threshold {
			commonTags = append(commonTags, t)
		}
	}
	sort.Strings(commonTags)

	return Cluster{
		ID:            id,
		Members:       members,
		DominantType:  dominant,
		CommonTags:    commonTags,
		InternalEdges: internal,
		Cohesion:      float64(internal) / float64(possible),
	}, nil
}
