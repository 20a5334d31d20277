package graph

import "context"

// ExportNode is one node in an exported graph document.
type ExportNode struct {
	ID         int64    `json:"id"`
	MemoryType string   `json:"memory_type"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags,omitempty"`
}

// ExportEdge is one edge in an exported graph document.
type ExportEdge struct {
	FromID     int64   `json:"from_id"`
	ToID       int64   `json:"to_id"`
	EdgeType   string  `json:"edge_type"`
	Confidence float64 `json:"confidence"`
	Strength   float64 `json:"strength"`
}

// ExportDocument is the full JSON-serializable shape for the `export_graph`
// operation named in spec.md §6.
type ExportDocument struct {
	Nodes []ExportNode `json:"nodes"`
	Edges []ExportEdge `json:"edges"`
}

// ExportOptions restricts export to a neighborhood rather than the whole
// graph; a zero-value NodeIDs means "every memory with at least one edge".
type ExportOptions struct {
	NodeIDs        []int64
	HalfLifeDays   float64
	IncludeDecayed bool
	Now            int64
}

// ExportGraph serializes the cross-reference graph as nodes+edges, scoping
// to opts.NodeIDs when given (spec.md §6 `export_graph`).
func ExportGraph(ctx context.Context, st Store, opts ExportOptions) (*ExportDocument, error) {
	edges, err := st.AllActiveEdges(ctx)
	if err != nil {
		return nil, err
	}

	scope := make(map[int64]bool, len(opts.NodeIDs))
	for _, id := range opts.NodeIDs {
		scope[id] = true
	}
	scoped := len(scope) > 0

	nodeIDs := make(map[int64]bool)
	var exportEdges []ExportEdge
	for _, e := range edges {
		if !opts.IncludeDecayed && IsDecayed(e, opts.Now, opts.HalfLifeDays) {
			continue
		}
		if scoped && !(scope[e.FromID] && scope[e.ToID]) {
			continue
		}
		nodeIDs[e.FromID] = true
		nodeIDs[e.ToID] = true
		exportEdges = append(exportEdges, ExportEdge{
			FromID: e.FromID, ToID: e.ToID, EdgeType: e.EdgeType,
			Confidence: DecayedConfidence(e, opts.Now, opts.HalfLifeDays), Strength: e.Strength,
		})
	}

	doc := &ExportDocument{Edges: exportEdges}
	for id := range nodeIDs {
		mem, err := st.Get(ctx, id)
		if err != nil || mem == nil {
			continue
		}
		doc.Nodes = append(doc.Nodes, ExportNode{
			ID: mem.ID, MemoryType: mem.MemoryType, Content: mem.Content, Tags: mem.Tags,
		})
	}
	return doc, nil
}
