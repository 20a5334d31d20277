package store

import (
	"context"
	"testing"
)

func TestRecordDuplicateCandidateOrdersPair(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := mustCreate(t, db, "memory a")
	b := mustCreate(t, db, "memory b")

	if err := db.RecordDuplicateCandidate(ctx, b.ID, a.ID, 0.9); err != nil {
		t.Fatalf("RecordDuplicateCandidate: %v", err)
	}
	if err := db.RecordDuplicateCandidate(ctx, a.ID, b.ID, 0.95); err != nil {
		t.Fatalf("RecordDuplicateCandidate reordered: %v", err)
	}

	candidates, err := db.DuplicateCandidates(ctx, 0, "")
	if err != nil {
		t.Fatalf("DuplicateCandidates: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %+v, want exactly one regardless of pair order", candidates)
	}
	if candidates[0].Similarity != 0.95 {
		t.Errorf("Similarity = %f, want 0.95 (latest write wins)", candidates[0].Similarity)
	}
}

func TestSetDuplicateStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := mustCreate(t, db, "memory a")
	b := mustCreate(t, db, "memory b")
	if err := db.RecordDuplicateCandidate(ctx, a.ID, b.ID, 0.9); err != nil {
		t.Fatalf("RecordDuplicateCandidate: %v", err)
	}
	candidates, err := db.DuplicateCandidates(ctx, 0, "")
	if err != nil {
		t.Fatalf("DuplicateCandidates: %v", err)
	}
	if err := db.SetDuplicateStatus(ctx, candidates[0].ID, "confirmed"); err != nil {
		t.Fatalf("SetDuplicateStatus: %v", err)
	}

	pending, err := db.DuplicateCandidates(ctx, 0, "pending")
	if err != nil {
		t.Fatalf("DuplicateCandidates pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending candidates = %+v, want none after confirming", pending)
	}
}

func TestRecordAndResolveConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := mustCreate(t, db, "memory a says x")
	b := mustCreate(t, db, "memory b says not x")

	c, err := db.RecordConflict(ctx, a.ID, b.ID, "contradiction", 0.8)
	if err != nil {
		t.Fatalf("RecordConflict: %v", err)
	}

	open, err := db.OpenConflicts(ctx, a.ID)
	if err != nil {
		t.Fatalf("OpenConflicts: %v", err)
	}
	if len(open) != 1 || open[0].ID != c.ID {
		t.Fatalf("OpenConflicts = %+v", open)
	}

	if err := db.ResolveConflict(ctx, c.ID, "keep_a", "reviewer-1"); err != nil {
		t.Fatalf("ResolveConflict: %v", err)
	}
	stillOpen, err := db.OpenConflicts(ctx, a.ID)
	if err != nil {
		t.Fatalf("OpenConflicts after resolve: %v", err)
	}
	if len(stillOpen) != 0 {
		t.Errorf("OpenConflicts after resolve = %+v, want none", stillOpen)
	}
}
