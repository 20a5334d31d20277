package store

import (
	"context"
	"testing"
)

func TestListExcludesArchivedAndTranscriptChunksByDefault(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	active := mustCreate(t, db, "active memory")
	archived := mustCreate(t, db, "archived memory")
	if _, err := db.ExecContext(ctx, `UPDATE memories SET lifecycle_state = 'archived' WHERE id = ?`, archived.ID); err != nil {
		t.Fatalf("archive memory: %v", err)
	}
	if _, err := db.Create(ctx, CreateParams{Content: "chunk text", MemoryType: "transcript_chunk"}); err != nil {
		t.Fatalf("create transcript_chunk: %v", err)
	}

	out, err := db.List(ctx, ListParams{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 1 || out[0].ID != active.ID {
		t.Fatalf("List = %+v, want only the active memory", out)
	}
}

func TestListIncludeArchived(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	archived := mustCreate(t, db, "archived memory")
	if _, err := db.ExecContext(ctx, `UPDATE memories SET lifecycle_state = 'archived' WHERE id = ?`, archived.ID); err != nil {
		t.Fatalf("archive memory: %v", err)
	}

	out, err := db.List(ctx, ListParams{IncludeArchived: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 1 || out[0].ID != archived.ID {
		t.Fatalf("List with IncludeArchived = %+v", out)
	}
}

func TestListFilterEqAndTags(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.Create(ctx, CreateParams{Content: "todo one", MemoryType: "todo", Tags: []string{"urgent"}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := db.Create(ctx, CreateParams{Content: "note one", MemoryType: "note", Tags: []string{"urgent"}}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	out, err := db.List(ctx, ListParams{Filter: &FilterExpr{Field: "memory_type", Op: OpEq, Value: "todo"}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 1 || out[0].MemoryType != "todo" {
		t.Fatalf("filtered List = %+v", out)
	}

	byTag, err := db.List(ctx, ListParams{Filter: &FilterExpr{Field: "tags", TagValue: "urgent"}})
	if err != nil {
		t.Fatalf("List by tag: %v", err)
	}
	if len(byTag) != 2 {
		t.Fatalf("List by tag = %+v, want both memories", byTag)
	}
}

func TestListFilterAndOr(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.Create(ctx, CreateParams{Content: "high importance todo", MemoryType: "todo", Importance: 0.9}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := db.Create(ctx, CreateParams{Content: "low importance todo", MemoryType: "todo", Importance: 0.1}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := db.Create(ctx, CreateParams{Content: "high importance note", MemoryType: "note", Importance: 0.9}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	out, err := db.List(ctx, ListParams{Filter: &FilterExpr{And: []FilterExpr{
		{Field: "memory_type", Op: OpEq, Value: "todo"},
		{Field: "importance", Op: OpGte, Value: 0.5},
	}}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 1 || out[0].Content != "high importance todo" {
		t.Fatalf("AND filter = %+v", out)
	}

	orOut, err := db.List(ctx, ListParams{Filter: &FilterExpr{Or: []FilterExpr{
		{Field: "memory_type", Op: OpEq, Value: "note"},
		{Field: "importance", Op: OpLt, Value: 0.2},
	}}})
	if err != nil {
		t.Fatalf("List OR: %v", err)
	}
	if len(orOut) != 2 {
		t.Fatalf("OR filter = %+v, want 2 matches", orOut)
	}
}

func TestListSortAndPaging(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, content := range []string{"first", "second", "third"} {
		if _, err := db.Create(ctx, CreateParams{Content: content, MemoryType: "note"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	page1, err := db.List(ctx, ListParams{Sort: SortCreatedAt, Descending: false, Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("List page1: %v", err)
	}
	if len(page1) != 2 || page1[0].Content != "first" {
		t.Fatalf("page1 = %+v", page1)
	}

	page2, err := db.List(ctx, ListParams{Sort: SortCreatedAt, Descending: false, Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List page2: %v", err)
	}
	if len(page2) != 1 || page2[0].Content != "third" {
		t.Fatalf("page2 = %+v", page2)
	}
}

func TestCountMatchesListFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := db.Create(ctx, CreateParams{Content: "note", MemoryType: "note", DedupMode: "allow"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	n, err := db.Count(ctx, ListParams{})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}
