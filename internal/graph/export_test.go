package graph

import (
	"context"
	"testing"
)

func TestExportGraphIncludesLinkedNodes(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := mustCreate(t, db, "a")
	b := mustCreate(t, db, "b")
	link(t, db, a.ID, b.ID, 1)

	doc, err := ExportGraph(ctx, db, ExportOptions{})
	if err != nil {
		t.Fatalf("ExportGraph: %v", err)
	}
	if len(doc.Nodes) != 2 || len(doc.Edges) != 1 {
		t.Fatalf("ExportGraph = %+v, want 2 nodes and 1 edge", doc)
	}
}

func TestExportGraphScopedToNodeIDs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := mustCreate(t, db, "a")
	b := mustCreate(t, db, "b")
	c := mustCreate(t, db, "c")
	link(t, db, a.ID, b.ID, 1)
	link(t, db, b.ID, c.ID, 1)

	doc, err := ExportGraph(ctx, db, ExportOptions{NodeIDs: []int64{a.ID, b.ID}})
	if err != nil {
		t.Fatalf("ExportGraph: %v", err)
	}
	if len(doc.Edges) != 1 || len(doc.Nodes) != 2 {
		t.Fatalf("ExportGraph scoped = %+v, want only a-b edge", doc)
	}
}

func TestExportGraphEmpty(t *testing.T) {
	db := newTestDB(t)
	doc, err := ExportGraph(context.Background(), db, ExportOptions{})
	if err != nil {
		t.Fatalf("ExportGraph: %v", err)
	}
	if len(doc.Nodes) != 0 || len(doc.Edges) != 0 {
		t.Errorf("ExportGraph on empty graph = %+v, want empty", doc)
	}
}
