package config

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Load reads configuration from path (TOML), falling back to Default() for
// anything the file doesn't set, with ENGRAM_* environment variables taking
// precedence over the file. path may be empty, in which case only defaults
// and environment overrides apply.
func Load(path string) (Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// BindFlags binds a pflag.FlagSet's flags into the config resolution order
// (flags > env > file > default), following the precedence chain
// josephgoksu-TaskWing's config package wires for its own CLI.
func BindFlags(flags *pflag.FlagSet, path string) (Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("config: bind flags: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// Watch reloads the file at path whenever it changes on disk, invoking
// onChange with the freshly parsed Config. It returns once ctx is cancelled
// or the watcher fails to start.
func Watch(ctx context.Context, path string, onChange func(Config)) error {
	if path == "" {
		<-ctx.Done()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				continue // keep watching; a transient write mid-save can yield a partial file
			}
			onChange(cfg)
		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix("ENGRAM")
	v.AutomaticEnv()
	d := Default()
	v.SetDefault("server.bind", d.Server.Bind)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.max_readers", d.Database.MaxReaders)
	v.SetDefault("database.busy_timeout_ms", d.Database.BusyTimeoutMs)
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.worker_count", d.Embedding.WorkerCount)
	v.SetDefault("embedding.max_retries", d.Embedding.MaxRetries)
	v.SetDefault("embedding.retry_base_delay", d.Embedding.RetryBaseDelay)
	v.SetDefault("embedding.cache_size", d.Embedding.CacheSize)
	v.SetDefault("embedding.queue_poll_period", d.Embedding.QueuePollPeriod)
	v.SetDefault("lexical.k1", d.Lexical.K1)
	v.SetDefault("lexical.b", d.Lexical.B)
	v.SetDefault("fuzzy.short_query_max_len", d.Fuzzy.ShortQueryMaxLen)
	v.SetDefault("fuzzy.short_distance", d.Fuzzy.ShortDistance)
	v.SetDefault("fuzzy.long_distance", d.Fuzzy.LongDistance)
	v.SetDefault("hybrid.rrf_k", d.Hybrid.RRFK)
	v.SetDefault("hybrid.min_score", d.Hybrid.MinScore)
	v.SetDefault("hybrid.recency_half_life_days", d.Hybrid.RecencyHalfLife)
	v.SetDefault("graph.edge_half_life_days", d.Graph.EdgeHalfLifeDays)
	v.SetDefault("graph.limit_per_hop", d.Graph.LimitPerHop)
	v.SetDefault("graph.result_cap", d.Graph.ResultCap)
	v.SetDefault("lifecycle.sweep_interval", d.Lifecycle.SweepInterval)
	v.SetDefault("lifecycle.stale_threshold", d.Lifecycle.StaleThreshold)
	v.SetDefault("lifecycle.archive_threshold", d.Lifecycle.ArchiveThreshold)
	v.SetDefault("lifecycle.archive_importance_max", d.Lifecycle.ArchiveImportanceMax)
	v.SetDefault("lifecycle.sweep_batch_size", d.Lifecycle.SweepBatchSize)
	v.SetDefault("salience.decay_interval", d.Salience.DecayInterval)
	v.SetDefault("salience.half_life_recency_days", d.Salience.HalfLifeRecencyDay)
	v.SetDefault("salience.access_flush_period", d.Salience.AccessFlushPeriod)
	v.SetDefault("salience.access_flush_size", d.Salience.AccessFlushSize)
	v.SetDefault("quality.half_life_freshness_days", d.Quality.HalfLifeFreshnessDay)
	v.SetDefault("quality.duplicate_ngram", d.Quality.DuplicateNGram)
	v.SetDefault("quality.duplicate_threshold", d.Quality.DuplicateThreshold)
	v.SetDefault("events.sync_state_cleanup_interval", d.Events.SyncStateCleanupInterval)
	v.SetDefault("events.sync_state_max_age", d.Events.SyncStateMaxAge)
	v.SetDefault("session.chunk_max_messages", d.Session.ChunkMaxMessages)
	v.SetDefault("session.chunk_max_chars", d.Session.ChunkMaxChars)
	v.SetDefault("session.chunk_overlap", d.Session.ChunkOverlap)
	v.SetDefault("hooks.enabled", d.Hooks.Enabled)
	v.SetDefault("hooks.timeout", d.Hooks.Timeout)
	return v
}
