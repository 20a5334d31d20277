// Package graph implements cross-reference traversal over the typed edges
// store.DB persists: BFS multi-hop expansion, bidirectional shortest-path,
// confidence decay, connected-component clustering, and graph export (spec
// §4.7). Edges themselves are written through store.DB.Link/Unlink; this
// package is a read-side traversal layer over store.CrossRef.
package graph

import (
	"context"

	"github.com/lazypower/engram/internal/store"
)

// Store is the subset of *store.DB the traversal engine depends on.
type Store interface {
	EdgesFrom(ctx context.Context, id int64, edgeTypes []string, minConfidence float64) ([]store.CrossRef, error)
	EdgesTo(ctx context.Context, id int64, edgeTypes []string, minConfidence float64) ([]store.CrossRef, error)
	AllActiveEdges(ctx context.Context) ([]store.CrossRef, error)
	EntitiesForMemory(ctx context.Context, memoryID int64) ([]store.MemoryEntity, error)
	MemoriesForEntity(ctx context.Context, entityID int64) ([]int64, error)
	Get(ctx context.Context, id int64) (*store.Memory, error)
}

// Direction constrains which edges a traversal follows relative to a node.
type Direction string

const (
	Outgoing Direction = "outgoing"
	Incoming Direction = "incoming"
	Both     Direction = "both"
)

// DiscoveryEdge records the edge used to first reach a node during BFS, so
// callers can reconstruct how a multi-hop result was found (spec §4.7).
type DiscoveryEdge struct {
	FromID     int64
	ToID       int64
	EdgeType   string
	Confidence float64
	Strength   float64
	Virtual    bool // true for entity co-occurrence edges, not a stored crossref
}

// TraversalResult is Related's return shape for depth > 1 traversals.
type TraversalResult struct {
	Nodes          []int64
	DiscoveryEdges map[int64]DiscoveryEdge // keyed by the discovered node id
}
