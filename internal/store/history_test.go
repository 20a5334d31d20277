package store

import (
	"context"
	"testing"
)

func TestAppendSalienceHistoryUpdatesCurrentScore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := mustCreate(t, db, "salient memory")
	err := db.AppendSalienceHistory(ctx, SalienceHistoryEntry{
		MemoryID: m.ID, Salience: 0.7, Recency: 0.9, Frequency: 0.5, Importance: 0.6, Feedback: 0,
	})
	if err != nil {
		t.Fatalf("AppendSalienceHistory: %v", err)
	}

	got, err := db.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SalienceScore != 0.7 {
		t.Errorf("SalienceScore = %f, want 0.7", got.SalienceScore)
	}

	hist, err := db.SalienceHistory(ctx, m.ID, 10)
	if err != nil {
		t.Fatalf("SalienceHistory: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("history = %+v, want one entry", hist)
	}
}

func TestTopBySalienceExcludesArchived(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	high := mustCreate(t, db, "high salience")
	if err := db.AppendSalienceHistory(ctx, SalienceHistoryEntry{MemoryID: high.ID, Salience: 0.9}); err != nil {
		t.Fatalf("AppendSalienceHistory: %v", err)
	}
	archived := mustCreate(t, db, "archived but technically higher")
	if err := db.AppendSalienceHistory(ctx, SalienceHistoryEntry{MemoryID: archived.ID, Salience: 0.99}); err != nil {
		t.Fatalf("AppendSalienceHistory: %v", err)
	}
	if _, err := db.ExecContext(ctx, `UPDATE memories SET lifecycle_state = 'archived' WHERE id = ?`, archived.ID); err != nil {
		t.Fatalf("archive memory: %v", err)
	}

	top, err := db.TopBySalience(ctx, 5)
	if err != nil {
		t.Fatalf("TopBySalience: %v", err)
	}
	for _, id := range top {
		if id == archived.ID {
			t.Errorf("TopBySalience included archived memory %d", archived.ID)
		}
	}
	if len(top) != 1 || top[0] != high.ID {
		t.Errorf("TopBySalience = %v, want [%d]", top, high.ID)
	}
}

func TestAppendQualityHistoryUpdatesCurrentScore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := mustCreate(t, db, "quality memory")
	err := db.AppendQualityHistory(ctx, QualityHistoryEntry{
		MemoryID: m.ID, Quality: 0.8, Clarity: 0.9, Completeness: 0.7, Freshness: 0.85, Consistency: 0.75, SourceTrust: 0.6,
	})
	if err != nil {
		t.Fatalf("AppendQualityHistory: %v", err)
	}
	got, err := db.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.QualityScore != 0.8 {
		t.Errorf("QualityScore = %f, want 0.8", got.QualityScore)
	}
}
