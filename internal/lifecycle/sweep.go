// Package lifecycle runs the background sweeper that expires, stales, and
// archives memories and reverts expired boosts on schedule (spec §4.8),
// generalizing the teacher's single daily DecayAllNodes tick into a
// four-phase sweep.
package lifecycle

import (
	"context"
)

// Store is the subset of *store.DB the sweeper depends on.
type Store interface {
	ExpiredDailyIDs(ctx context.Context, asOf int64, limit int) ([]int64, error)
	StaleCandidateIDs(ctx context.Context, olderThan int64, limit int) ([]int64, error)
	ArchiveCandidateIDs(ctx context.Context, olderThan int64, importanceMax float64, limit int) ([]int64, error)
	HardDelete(ctx context.Context, id int64) error
	SetLifecycleState(ctx context.Context, id int64, state string) error
	ExpireBoosts(ctx context.Context, asOf int64, limit int) (int, error)
}

// Options configures one Sweep call.
type Options struct {
	Now                    int64 // unix millis
	StaleThresholdMillis   int64
	ArchiveThresholdMillis int64
	ArchiveImportanceMax   float64
	BatchSize              int
	DryRun                 bool
}

// Report counts what a sweep did (or would do, in dry-run mode).
type Report struct {
	Expired       int
	Staled        int
	Archived      int
	BoostsDecayed int
}

const defaultBatchSize = 500

// Sweep runs four phases in order: expire daily memories past their TTL,
// demote stale-active memories, archive old low-importance stale memories,
// then revert boosts past their expiry (skipped in dry-run). Each phase repeatedly claims up to
// BatchSize candidates and yields to ctx between chunks, so a sweep over a
// large store doesn't block cancellation or starve foreground writes on the
// single-writer connection.
func Sweep(ctx context.Context, st Store, opts Options) (Report, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	var report Report

	// Phase 1: expire daily, non-pinned memories past expires_at.
	for {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}
		ids, err := st.ExpiredDailyIDs(ctx, opts.Now, batchSize)
		if err != nil {
			return report, err
		}
		if len(ids) == 0 {
			break
		}
		if opts.DryRun {
			report.Expired += len(ids)
			break
		}
		for _, id := range ids {
			if err := st.HardDelete(ctx, id); err != nil {
				return report, err
			}
		}
		report.Expired += len(ids)
		if len(ids) < batchSize {
			break
		}
	}

	// Phase 2: active memories stale past the stale threshold.
	staleCutoff := opts.Now - opts.StaleThresholdMillis
	for {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}
		ids, err := st.StaleCandidateIDs(ctx, staleCutoff, batchSize)
		if err != nil {
			return report, err
		}
		if len(ids) == 0 {
			break
		}
		if opts.DryRun {
			report.Staled += len(ids)
			break
		}
		for _, id := range ids {
			if err := st.SetLifecycleState(ctx, id, "stale"); err != nil {
				return report, err
			}
		}
		report.Staled += len(ids)
		if len(ids) < batchSize {
			break
		}
	}

	// Phase 3: stale, non-pinned, low-importance memories past the archive threshold.
	archiveCutoff := opts.Now - opts.ArchiveThresholdMillis
	for {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}
		ids, err := st.ArchiveCandidateIDs(ctx, archiveCutoff, opts.ArchiveImportanceMax, batchSize)
		if err != nil {
			return report, err
		}
		if len(ids) == 0 {
			break
		}
		if opts.DryRun {
			report.Archived += len(ids)
			break
		}
		for _, id := range ids {
			if err := st.SetLifecycleState(ctx, id, "archived"); err != nil {
				return report, err
			}
		}
		report.Archived += len(ids)
		if len(ids) < batchSize {
			break
		}
	}

	// Phase 4: revert importance temporarily added by boost/demote past
	// their expiry, per spec §4.9 ("the sweeper decays boosts on expiry").
	for {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}
		if opts.DryRun {
			break
		}
		n, err := st.ExpireBoosts(ctx, opts.Now, batchSize)
		if err != nil {
			return report, err
		}
		report.BoostsDecayed += n
		if n < batchSize {
			break
		}
	}

	return report, nil
}
