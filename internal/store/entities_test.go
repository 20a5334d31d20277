package store

import (
	"context"
	"testing"
)

func TestUpsertEntityIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	e1, err := db.UpsertEntity(ctx, "acme corp", "organization")
	if err != nil {
		t.Fatalf("UpsertEntity: %v", err)
	}
	e2, err := db.UpsertEntity(ctx, "acme corp", "organization")
	if err != nil {
		t.Fatalf("UpsertEntity second call: %v", err)
	}
	if e1.ID != e2.ID {
		t.Errorf("UpsertEntity returned different ids: %d != %d", e1.ID, e2.ID)
	}
}

func TestLinkEntityMentionCountIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := mustCreate(t, db, "acme corp shipped a release")
	ent, err := db.UpsertEntity(ctx, "acme corp", "organization")
	if err != nil {
		t.Fatalf("UpsertEntity: %v", err)
	}

	if err := db.LinkEntity(ctx, m.ID, ent.ID, 0.9, "mentions", nil); err != nil {
		t.Fatalf("first LinkEntity: %v", err)
	}
	if err := db.LinkEntity(ctx, m.ID, ent.ID, 0.95, "mentions", nil); err != nil {
		t.Fatalf("second LinkEntity: %v", err)
	}

	stats, err := db.EntityStats(ctx)
	if err != nil {
		t.Fatalf("EntityStats: %v", err)
	}
	if stats["organization"] != 1 {
		t.Errorf("organization entity count = %d, want 1", stats["organization"])
	}

	mentions, err := db.EntitiesForMemory(ctx, m.ID)
	if err != nil {
		t.Fatalf("EntitiesForMemory: %v", err)
	}
	if len(mentions) != 1 || mentions[0].Confidence != 0.95 {
		t.Fatalf("mentions = %+v, want one updated to 0.95", mentions)
	}

	var mentionCount int
	if err := db.QueryRow(`SELECT mention_count FROM entities WHERE id = ?`, ent.ID).Scan(&mentionCount); err != nil {
		t.Fatalf("query mention_count: %v", err)
	}
	if mentionCount != 1 {
		t.Errorf("mention_count = %d, want 1 (second link must not inflate it)", mentionCount)
	}
}

func TestLinkEntityDistinctRelationsBumpSeparately(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := mustCreate(t, db, "acme corp acquired acme labs")
	ent, err := db.UpsertEntity(ctx, "acme corp", "organization")
	if err != nil {
		t.Fatalf("UpsertEntity: %v", err)
	}

	if err := db.LinkEntity(ctx, m.ID, ent.ID, 0.9, "mentions", nil); err != nil {
		t.Fatalf("LinkEntity mentions: %v", err)
	}
	if err := db.LinkEntity(ctx, m.ID, ent.ID, 0.9, "acquirer", nil); err != nil {
		t.Fatalf("LinkEntity acquirer: %v", err)
	}

	var mentionCount int
	if err := db.QueryRow(`SELECT mention_count FROM entities WHERE id = ?`, ent.ID).Scan(&mentionCount); err != nil {
		t.Fatalf("query mention_count: %v", err)
	}
	if mentionCount != 2 {
		t.Errorf("mention_count = %d, want 2 (distinct relations are distinct links)", mentionCount)
	}
}

func TestNormalizeEntityName(t *testing.T) {
	if got := NormalizeEntityName("  Acme Corp  "); got != "acme corp" {
		t.Errorf("NormalizeEntityName = %q, want %q", got, "acme corp")
	}
}
