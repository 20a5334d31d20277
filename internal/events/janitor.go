package events

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// NowFunc returns the current time as unix millis.
type NowFunc func() int64

// Janitor periodically runs sync_cleanup, evicting sync cursors for agents
// that have gone quiet, mirroring internal/lifecycle's Scheduler (same
// cron + panic-recovery idiom, applied to a much smaller job).
type Janitor struct {
	store  Store
	maxAge time.Duration
	now    NowFunc
	logger zerolog.Logger
	cron   *cron.Cron
}

func NewJanitor(st Store, maxAge time.Duration, now NowFunc, logger zerolog.Logger) *Janitor {
	return &Janitor{store: st, maxAge: maxAge, now: now, logger: logger}
}

// Start schedules CleanupSyncState on spec (a cron expression) and runs it
// once immediately.
func (j *Janitor) Start(ctx context.Context, spec string) error {
	j.runOnce(ctx)

	c := cron.New()
	if _, err := c.AddFunc(spec, func() { j.runOnce(ctx) }); err != nil {
		return err
	}
	c.Start()
	j.cron = c
	return nil
}

// Stop halts the schedule and waits for any in-flight run to finish.
func (j *Janitor) Stop() {
	if j.cron == nil {
		return
	}
	stopCtx := j.cron.Stop()
	<-stopCtx.Done()
}

func (j *Janitor) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			j.logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("sync cleanup panicked, recovered")
		}
	}()

	before := j.now() - j.maxAge.Milliseconds()
	n, err := j.store.CleanupSyncState(ctx, before)
	if err != nil {
		j.logger.Error().Err(err).Msg("sync cleanup failed")
		return
	}
	if n > 0 {
		j.logger.Info().Int64("agents_evicted", n).Msg("sync cleanup completed")
	}
}
