package salience

import (
	"context"
	"time"
)

// Adjuster is the store primitive Boost/Demote apply through.
type Adjuster interface {
	RecordBoost(ctx context.Context, memoryID int64, delta float64, expiresAt *int64) error
}

// Boost temporarily raises a memory's importance by delta. A zero duration
// means the boost never expires on its own (cleared only by an explicit
// opposite adjustment); otherwise the sweeper reverts it once the schedule
// reaches its expiry (spec §4.9).
func Boost(ctx context.Context, st Adjuster, now int64, id int64, delta float64, duration time.Duration) error {
	if delta < 0 {
		delta = -delta
	}
	return st.RecordBoost(ctx, id, delta, expiryOf(now, duration))
}

// Demote temporarily lowers a memory's importance by delta (given as a
// positive magnitude).
func Demote(ctx context.Context, st Adjuster, now int64, id int64, delta float64, duration time.Duration) error {
	if delta < 0 {
		delta = -delta
	}
	return st.RecordBoost(ctx, id, -delta, expiryOf(now, duration))
}

func expiryOf(now int64, d time.Duration) *int64 {
	if d <= 0 {
		return nil
	}
	at := now + d.Milliseconds()
	return &at
}
