package engram

import (
	"context"

	"github.com/lazypower/engram/internal/lifecycle"
)

func (c *Core) sweepOptions(dryRun bool) lifecycle.Options {
	return lifecycle.Options{
		Now:                    c.now(),
		StaleThresholdMillis:   c.Config.Lifecycle.StaleThreshold.Milliseconds(),
		ArchiveThresholdMillis: c.Config.Lifecycle.ArchiveThreshold.Milliseconds(),
		ArchiveImportanceMax:   c.Config.Lifecycle.ArchiveImportanceMax,
		BatchSize:              c.Config.Lifecycle.SweepBatchSize,
		DryRun:                 dryRun,
	}
}

// SetExpiration sets or clears a memory's expiry (spec §6 `set_expiration`).
func (c *Core) SetExpiration(ctx context.Context, id int64, at int64) error {
	return c.DB.SetExpiration(ctx, id, at)
}

// PromoteToPermanent lifts a tier=daily memory to tier=permanent (spec §6
// `promote_to_permanent`).
func (c *Core) PromoteToPermanent(ctx context.Context, id int64) error {
	return c.DB.PromoteToPermanent(ctx, id)
}

// SetLifecycle forces a memory's lifecycle_state directly (spec §6 `set_lifecycle`).
func (c *Core) SetLifecycle(ctx context.Context, id int64, state string) error {
	return c.DB.SetLifecycleState(ctx, id, state)
}

// CleanupExpired runs one lifecycle sweep and returns what it did (spec §6
// `cleanup_expired`) — the on-demand counterpart to the scheduled sweeper
// Start wires up.
func (c *Core) CleanupExpired(ctx context.Context) (lifecycle.Report, error) {
	return lifecycle.Sweep(ctx, c.DB, c.sweepOptions(false))
}

// LifecycleRun previews a sweep without mutating anything (spec §6
// `lifecycle_run` — a dry-run report; use CleanupExpired to actually apply
// it).
func (c *Core) LifecycleRun(ctx context.Context) (lifecycle.Report, error) {
	return lifecycle.Sweep(ctx, c.DB, c.sweepOptions(true))
}

// LifecycleStatus reports the current sweep configuration a caller can use
// to reason about when memories will next transition (spec §6
// `lifecycle_status`).
type LifecycleStatus struct {
	StaleThresholdMillis   int64
	ArchiveThresholdMillis int64
	ArchiveImportanceMax   float64
	SweepIntervalMillis    int64
}

func (c *Core) LifecycleStatus(ctx context.Context) LifecycleStatus {
	return LifecycleStatus{
		StaleThresholdMillis:   c.Config.Lifecycle.StaleThreshold.Milliseconds(),
		ArchiveThresholdMillis: c.Config.Lifecycle.ArchiveThreshold.Milliseconds(),
		ArchiveImportanceMax:   c.Config.Lifecycle.ArchiveImportanceMax,
		SweepIntervalMillis:    c.Config.Lifecycle.SweepInterval.Milliseconds(),
	}
}
