package engram

import (
	"context"

	"github.com/lazypower/engram/internal/graph"
	"github.com/lazypower/engram/internal/store"
)

// Link creates or updates a typed cross-reference edge (spec §6 `link`).
func (c *Core) Link(ctx context.Context, p store.LinkParams) (*store.CrossRef, error) {
	return c.DB.Link(ctx, p)
}

// Unlink removes an edge (spec §6 `unlink`).
func (c *Core) Unlink(ctx context.Context, fromID, toID int64, edgeType string) (int, error) {
	return c.DB.Unlink(ctx, fromID, toID, edgeType)
}

func (c *Core) graphHalfLife() float64 { return c.Config.Graph.EdgeHalfLifeDays }

// Related runs a BFS from id out to opts.Depth hops, a single hop when
// Depth is unset (spec §6 `related`).
func (c *Core) Related(ctx context.Context, id int64, opts graph.RelatedOptions) (*graph.TraversalResult, error) {
	opts = c.relatedDefaults(opts)
	return graph.Related(ctx, c.DB, id, opts)
}

// Traverse is Related generalized to an explicit hop depth (spec §6 `traverse`).
func (c *Core) Traverse(ctx context.Context, id int64, depth int, opts graph.RelatedOptions) (*graph.TraversalResult, error) {
	opts = c.relatedDefaults(opts)
	opts.Depth = depth
	return graph.Related(ctx, c.DB, id, opts)
}

func (c *Core) relatedDefaults(opts graph.RelatedOptions) graph.RelatedOptions {
	if opts.LimitPerHop <= 0 {
		opts.LimitPerHop = c.Config.Graph.LimitPerHop
	}
	if opts.ResultCap <= 0 {
		opts.ResultCap = c.Config.Graph.ResultCap
	}
	if opts.HalfLifeDays <= 0 {
		opts.HalfLifeDays = c.graphHalfLife()
	}
	if opts.Now == 0 {
		opts.Now = c.now()
	}
	return opts
}

// FindPath runs bidirectional BFS shortest-path search (spec §6 `find_path`).
func (c *Core) FindPath(ctx context.Context, from, to int64, maxDepth int, opts graph.PathOptions) (*graph.PathResult, error) {
	if opts.HalfLifeDays <= 0 {
		opts.HalfLifeDays = c.graphHalfLife()
	}
	if opts.Now == 0 {
		opts.Now = c.now()
	}
	return graph.FindPath(ctx, c.DB, from, to, maxDepth, opts)
}

// Clusters returns the graph's connected components (spec §6 `clusters`).
func (c *Core) Clusters(ctx context.Context, opts graph.ClusterOptions) ([]graph.Cluster, error) {
	if opts.HalfLifeDays <= 0 {
		opts.HalfLifeDays = c.graphHalfLife()
	}
	if opts.Now == 0 {
		opts.Now = c.now()
	}
	return graph.Clusters(ctx, c.DB, opts)
}

// ExportGraph serializes the cross-reference graph (spec §6 `export_graph`).
func (c *Core) ExportGraph(ctx context.Context, opts graph.ExportOptions) (*graph.ExportDocument, error) {
	if opts.HalfLifeDays <= 0 {
		opts.HalfLifeDays = c.graphHalfLife()
	}
	if opts.Now == 0 {
		opts.Now = c.now()
	}
	return graph.ExportGraph(ctx, c.DB, opts)
}
