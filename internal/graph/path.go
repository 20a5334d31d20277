package graph

import (
	"context"

	"github.com/lazypower/engram/internal/store"
)

// PathOptions configures FindPath's decay handling.
type PathOptions struct {
	HalfLifeDays   float64
	IncludeDecayed bool
	Now            int64
}

// PathResult is a sequence of nodes from->to connected by the edges between
// each consecutive pair.
type PathResult struct {
	Nodes []int64
	Edges []store.CrossRef
}

type bfsNode struct {
	dist       int
	parent     int64
	parentEdge store.CrossRef
	hasParent  bool
}

// FindPath runs bidirectional BFS meeting in the middle (spec §4.7): among
// shortest paths it prefers the one with the maximum product of edge
// strengths, tie-breaking on the minimum sum of edge ids.
func FindPath(ctx context.Context, st Store, from, to int64, maxDepth int, opts PathOptions) (*PathResult, error) {
	if from == to {
		return &PathResult{Nodes: []int64{from}}, nil
	}
	if maxDepth <= 0 {
		maxDepth = 6
	}

	adj, err := buildAdjacency(ctx, st, opts)
	if err != nil {
		return nil, err
	}

	fromSide := map[int64]bfsNode{from: {dist: 0}}
	toSide := map[int64]bfsNode{to: {dist: 0}}
	frontierF := []int64{from}
	frontierB := []int64{to}

	for depth := 0; depth < maxDepth; depth++ {
		if len(frontierF) <= len(frontierB) {
			frontierF = expand(adj, fromSide, frontierF)
		} else {
			frontierB = expand(adj, toSide, frontierB)
		}
		if len(frontierF) == 0 && len(frontierB) == 0 {
			break
		}
		if meeting := bestMeeting(fromSide, toSide, maxDepth); meeting != nil {
			return reconstructPath(fromSide, toSide, *meeting, to), nil
		}
	}
	return nil, nil
}

func expand(adj map[int64][]store.CrossRef, side map[int64]bfsNode, frontier []int64) []int64 {
	var next []int64
	for _, nodeID := range frontier {
		cur := side[nodeID]
		for _, e := range adj[nodeID] {
			neighbor := e.ToID
			if neighbor == nodeID {
				neighbor = e.FromID
			}
			if _, seen := side[neighbor]; seen {
				continue
			}
			side[neighbor] = bfsNode{dist: cur.dist + 1, parent: nodeID, parentEdge: e, hasParent: true}
			next = append(next, neighbor)
		}
	}
	return next
}

// bestMeeting finds the meeting node minimizing total hop distance, tie-
// breaking by maximum product of edge strengths, then minimum sum of edge
// ids along the reconstructed path.
func bestMeeting(fromSide, toSide map[int64]bfsNode, maxDepth int) *int64 {
	var best *int64
	bestTotal := maxDepth + 1
	var bestProduct float64
	var bestIDSum int64

	for node, f := range fromSide {
		b, ok := toSide[node]
		if !ok {
			continue
		}
		total := f.dist + b.dist
		if total > maxDepth {
			continue
		}
		product, idSum := pathMetrics(fromSide, toSide, node)
		switch {
		case total < bestTotal:
			bestTotal, bestProduct, bestIDSum = total, product, idSum
			n := node
			best = &n
		case total == bestTotal:
			if product > bestProduct || (product == bestProduct && idSum < bestIDSum) {
				bestProduct, bestIDSum = product, idSum
				n := node
				best = &n
			}
		}
	}
	return best
}

func pathMetrics(fromSide, toSide map[int64]bfsNode, meeting int64) (product float64, idSum int64) {
	product = 1
	for n := meeting; ; {
		node := fromSide[n]
		if !node.hasParent {
			break
		}
		product *= node.parentEdge.Strength
		idSum += node.parentEdge.ID
		n = node.parent
	}
	for n := meeting; ; {
		node := toSide[n]
		if !node.hasParent {
			break
		}
		product *= node.parentEdge.Strength
		idSum += node.parentEdge.ID
		n = node.parent
	}
	return product, idSum
}

func reconstructPath(fromSide, toSide map[int64]bfsNode, meeting, to int64) *PathResult {
	var forwardNodes []int64
	var forwardEdges []store.CrossRef
	for n := meeting; ; {
		node := fromSide[n]
		forwardNodes = append([]int64{n}, forwardNodes...)
		if !node.hasParent {
			break
		}
		forwardEdges = append([]store.CrossRef{node.parentEdge}, forwardEdges...)
		n = node.parent
	}

	var backwardNodes []int64
	var backwardEdges []store.CrossRef
	for n := meeting; ; {
		node := toSide[n]
		if !node.hasParent {
			break
		}
		backwardEdges = append(backwardEdges, node.parentEdge)
		backwardNodes = append(backwardNodes, node.parent)
		n = node.parent
	}

	nodes := append(forwardNodes, backwardNodes...)
	edges := append(forwardEdges, backwardEdges...)
	return &PathResult{Nodes: nodes, Edges: edges}
}

func buildAdjacency(ctx context.Context, st Store, opts PathOptions) (map[int64][]store.CrossRef, error) {
	edges, err := st.AllActiveEdges(ctx)
	if err != nil {
		return nil, err
	}
	adj := make(map[int64][]store.CrossRef)
	for _, e := range edges {
		if !opts.IncludeDecayed && IsDecayed(e, opts.Now, opts.HalfLifeDays) {
			continue
		}
		adj[e.FromID] = append(adj[e.FromID], e)
		adj[e.ToID] = append(adj[e.ToID], e)
	}
	return adj, nil
}
