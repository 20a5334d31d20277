package store

import (
	"context"
	"testing"
)

func TestExpiredDailyIDsExcludesPinnedAndFuture(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	past := int64(1000)
	future := int64(9999999999999)
	expired, err := db.Create(ctx, CreateParams{Content: "daily expired", MemoryType: "note", Tier: "daily", ExpiresAt: &past})
	if err != nil {
		t.Fatalf("Create expired: %v", err)
	}
	if _, err := db.Create(ctx, CreateParams{Content: "daily future", MemoryType: "note", Tier: "daily", ExpiresAt: &future}); err != nil {
		t.Fatalf("Create future: %v", err)
	}
	pinned, err := db.Create(ctx, CreateParams{Content: "daily pinned", MemoryType: "note", Tier: "daily", ExpiresAt: &past, Pinned: true})
	if err != nil {
		t.Fatalf("Create pinned: %v", err)
	}

	ids, err := db.ExpiredDailyIDs(ctx, 2000, 100)
	if err != nil {
		t.Fatalf("ExpiredDailyIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != expired.ID {
		t.Fatalf("ExpiredDailyIDs = %+v, want only %d (pinned %d and future excluded)", ids, expired.ID, pinned.ID)
	}
}

func TestSetLifecycleStateTransitionsAndEmitsEvent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := mustCreate(t, db, "content")

	if err := db.SetLifecycleState(ctx, m.ID, "stale"); err != nil {
		t.Fatalf("SetLifecycleState: %v", err)
	}
	got, err := db.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.LifecycleState != "stale" {
		t.Errorf("LifecycleState = %q, want stale", got.LifecycleState)
	}
}

func TestPromoteToPermanentRequiresDailyTier(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := mustCreate(t, db, "permanent already") // default tier is permanent

	if err := db.PromoteToPermanent(ctx, m.ID); err == nil {
		t.Fatalf("PromoteToPermanent(permanent) = nil error, want rejection")
	}
}

func TestPromoteToPermanentClearsExpiration(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	exp := int64(9999999999999)
	m, err := db.Create(ctx, CreateParams{Content: "daily", MemoryType: "note", Tier: "daily", ExpiresAt: &exp})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := db.PromoteToPermanent(ctx, m.ID); err != nil {
		t.Fatalf("PromoteToPermanent: %v", err)
	}
	got, err := db.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Tier != "permanent" || got.ExpiresAt != nil {
		t.Fatalf("after promote = tier=%q expires_at=%v, want permanent/nil", got.Tier, got.ExpiresAt)
	}
}

func TestSetExpirationZeroRejectedOnDaily(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	exp := int64(9999999999999)
	m, err := db.Create(ctx, CreateParams{Content: "daily", MemoryType: "note", Tier: "daily", ExpiresAt: &exp})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := db.SetExpiration(ctx, m.ID, 0); err == nil {
		t.Fatalf("SetExpiration(0, daily) = nil error, want rejection")
	}
}

func TestSetExpirationZeroIsNoOpOnPermanent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := mustCreate(t, db, "permanent")

	if err := db.SetExpiration(ctx, m.ID, 0); err != nil {
		t.Fatalf("SetExpiration(0, permanent): %v", err)
	}
}
