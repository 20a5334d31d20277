package salience

import (
	"context"
	"testing"
	"time"
)

type fakeAdjuster struct {
	memoryID  int64
	delta     float64
	expiresAt *int64
}

func (f *fakeAdjuster) RecordBoost(ctx context.Context, memoryID int64, delta float64, expiresAt *int64) error {
	f.memoryID = memoryID
	f.delta = delta
	f.expiresAt = expiresAt
	return nil
}

func TestBoostAppliesPositiveDelta(t *testing.T) {
	st := &fakeAdjuster{}
	if err := Boost(context.Background(), st, 1000, 1, 0.2, time.Hour); err != nil {
		t.Fatalf("Boost: %v", err)
	}
	if st.delta != 0.2 {
		t.Errorf("delta = %v, want 0.2", st.delta)
	}
	if st.expiresAt == nil || *st.expiresAt != 1000+time.Hour.Milliseconds() {
		t.Errorf("expiresAt = %v, want %d", st.expiresAt, 1000+time.Hour.Milliseconds())
	}
}

func TestDemoteAppliesNegativeDelta(t *testing.T) {
	st := &fakeAdjuster{}
	if err := Demote(context.Background(), st, 1000, 1, 0.2, 0); err != nil {
		t.Fatalf("Demote: %v", err)
	}
	if st.delta != -0.2 {
		t.Errorf("delta = %v, want -0.2", st.delta)
	}
	if st.expiresAt != nil {
		t.Errorf("expiresAt = %v, want nil (no duration means permanent)", st.expiresAt)
	}
}
