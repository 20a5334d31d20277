package lifecycle

import (
	"context"
	"runtime/debug"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// NowFunc returns the current time as unix millis; lets callers inject a
// clock.Clock without this package depending on it directly.
type NowFunc func() int64

// Scheduler runs Sweep on a cron schedule, generalizing the teacher's
// StartDecayTimer/stopCh ticker loop (engine/engine.go) from one fixed daily
// tick into a configurable interval with cron's catch-up-on-restart
// semantics.
type Scheduler struct {
	store  Store
	opts   Options
	now    NowFunc
	logger zerolog.Logger
	cron   *cron.Cron
}

func NewScheduler(st Store, opts Options, now NowFunc, logger zerolog.Logger) *Scheduler {
	return &Scheduler{store: st, opts: opts, now: now, logger: logger}
}

// Start schedules Sweep to run on spec (a cron expression, e.g. "@every 1h")
// and runs it once immediately, matching the teacher's "run once at
// startup, then on schedule" shape. A panic inside the sweep job is
// recovered and logged rather than crashing the process (spec §5/§7:
// "panics in background loops abort the loop and emit an error event; the
// loop restarts") — cron's own schedule is the restart, so recovery here
// just needs to survive to the next tick.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	s.runOnce(ctx)

	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.runOnce(ctx) }); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	return nil
}

// Stop halts the schedule and waits for any in-flight sweep to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("lifecycle sweep panicked, recovered")
		}
	}()

	opts := s.opts
	opts.Now = s.now()
	report, err := Sweep(ctx, s.store, opts)
	if err != nil {
		s.logger.Error().Err(err).Msg("lifecycle sweep failed")
		return
	}
	if report.Expired > 0 || report.Staled > 0 || report.Archived > 0 || report.BoostsDecayed > 0 {
		s.logger.Info().
			Int("expired", report.Expired).
			Int("staled", report.Staled).
			Int("archived", report.Archived).
			Int("boosts_decayed", report.BoostsDecayed).
			Msg("lifecycle sweep completed")
	}
}
