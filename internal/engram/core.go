// Package engram wires the store and every algorithmic package
// (lexical/vectorindex/fuzzy/hybrid, graph, lifecycle/salience/quality,
// events, session) behind the single Core facade that spec.md §6 names as
// the operation surface the excluded MCP/REST/CLI front ends call into.
// Core plays the role the teacher's internal/engine.Engine plays for
// continuity: the one type cmd/engramd (and any other embedder) depends on.
package engram

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lazypower/engram/internal/clock"
	"github.com/lazypower/engram/internal/config"
	"github.com/lazypower/engram/internal/events"
	"github.com/lazypower/engram/internal/lifecycle"
	"github.com/lazypower/engram/internal/salience"
	"github.com/lazypower/engram/internal/store"
	"github.com/lazypower/engram/internal/vectorindex"
)

// Core is the memory store's facade: one struct embedding the open store
// plus the background loops (lifecycle sweep, sync-state janitor, salience
// access batcher), configured from config.Config.
type Core struct {
	DB       *store.DB
	Config   config.Config
	Embedder vectorindex.Embedder
	Clock    clock.Clock
	Logger   zerolog.Logger

	embedWorker *vectorindex.Worker
	embedCache  *vectorindex.Cache
	sweeper     *lifecycle.Scheduler
	janitor     *events.Janitor
	batcher     *salience.Batcher

	cancelBackground context.CancelFunc
}

// Options configures New beyond what config.Config carries.
type Options struct {
	Embedder vectorindex.Embedder // nil runs lexical/fuzzy only, per spec §4.4 graceful degradation
	Clock    clock.Clock          // nil defaults to clock.Real{}
	Logger   zerolog.Logger
}

// New wires a Core around an already-open store, following the teacher's
// engine.New(db, client) shape, generalized to the larger collaborator set
// spec §6 names (Embedder, Clock, IdGen).
func New(db *store.DB, cfg config.Config, opts Options) *Core {
	cl := opts.Clock
	if cl == nil {
		cl = clock.Real{}
	}
	cache, _ := vectorindex.NewCache(cfg.Embedding.CacheSize)

	c := &Core{
		DB:         db,
		Config:     cfg,
		Embedder:   opts.Embedder,
		Clock:      cl,
		Logger:     opts.Logger,
		embedCache: cache,
	}
	if opts.Embedder != nil {
		c.embedWorker = vectorindex.NewWorker(db, opts.Embedder, cache, cfg.Embedding)
	}
	return c
}

func (c *Core) now() int64 { return c.Clock.Now().UnixMilli() }

// Start launches the background loops: the lifecycle sweeper (on
// config.Lifecycle.SweepInterval), the sync-state janitor (on
// config.Events.SyncStateCleanupInterval), the salience access batcher,
// and (if an Embedder is configured) the embedding queue worker. Mirrors
// the teacher's Engine.StartDecayTimer, generalized from one fixed loop to
// the full background set.
func (c *Core) Start(ctx context.Context) error {
	bgCtx, cancel := context.WithCancel(ctx)
	c.cancelBackground = cancel

	lifecycleOpts := lifecycle.Options{
		StaleThresholdMillis:   c.Config.Lifecycle.StaleThreshold.Milliseconds(),
		ArchiveThresholdMillis: c.Config.Lifecycle.ArchiveThreshold.Milliseconds(),
		ArchiveImportanceMax:   c.Config.Lifecycle.ArchiveImportanceMax,
		BatchSize:              c.Config.Lifecycle.SweepBatchSize,
	}
	c.sweeper = lifecycle.NewScheduler(c.DB, lifecycleOpts, c.now, c.Logger)
	if err := c.sweeper.Start(bgCtx, cronEvery(c.Config.Lifecycle.SweepInterval)); err != nil {
		return err
	}

	c.janitor = events.NewJanitor(c.DB, c.Config.Events.SyncStateMaxAge, c.now, c.Logger)
	if err := c.janitor.Start(bgCtx, cronEvery(c.Config.Events.SyncStateCleanupInterval)); err != nil {
		return err
	}

	c.batcher = salience.NewBatcher(c.DB, c.now, c.Config.Salience.AccessFlushPeriod, c.Config.Salience.AccessFlushSize)
	c.batcher.Start(bgCtx)

	if c.embedWorker != nil {
		go func() {
			if err := c.embedWorker.Run(bgCtx); err != nil && bgCtx.Err() == nil {
				c.Logger.Error().Err(err).Msg("embedding worker exited")
			}
		}()
	}
	return nil
}

// Stop halts every background loop started by Start.
func (c *Core) Stop() {
	if c.cancelBackground != nil {
		c.cancelBackground()
	}
	if c.sweeper != nil {
		c.sweeper.Stop()
	}
	if c.janitor != nil {
		c.janitor.Stop()
	}
	if c.batcher != nil {
		c.batcher.Stop()
	}
}

// cronEvery renders a time.Duration as the "@every" cron expression
// robfig/cron expects.
func cronEvery(d time.Duration) string {
	if d <= 0 {
		d = time.Hour
	}
	return "@every " + d.String()
}
