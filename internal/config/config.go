// Package config holds Engram's configuration tree and loader. The struct
// shape follows the teacher's internal/config/config.go (ServerConfig,
// DatabaseConfig nested under one Config), extended with the sections every
// other component of spec §4 needs, and loaded with viper the way
// josephgoksu-TaskWing and harunnryd-ranyaa both load their own config.
package config

import "time"

// Config holds all Engram configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Lexical   LexicalConfig   `mapstructure:"lexical"`
	Fuzzy     FuzzyConfig     `mapstructure:"fuzzy"`
	Hybrid    HybridConfig    `mapstructure:"hybrid"`
	Graph     GraphConfig     `mapstructure:"graph"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Salience  SalienceConfig  `mapstructure:"salience"`
	Quality   QualityConfig   `mapstructure:"quality"`
	Events    EventsConfig    `mapstructure:"events"`
	Session   SessionConfig   `mapstructure:"session"`
	Hooks     HooksConfig     `mapstructure:"hooks"`
}

type ServerConfig struct {
	Bind string `mapstructure:"bind"`
	Port int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	Path          string `mapstructure:"path"`
	MaxReaders    int    `mapstructure:"max_readers"`
	BusyTimeoutMs int    `mapstructure:"busy_timeout_ms"`
}

type EmbeddingConfig struct {
	Provider        string        `mapstructure:"provider"` // "tfidf", "openai-compatible"
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	Dimensions      int           `mapstructure:"dimensions"`
	WorkerCount     int           `mapstructure:"worker_count"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBaseDelay  time.Duration `mapstructure:"retry_base_delay"`
	CacheSize       int           `mapstructure:"cache_size"`
	QueuePollPeriod time.Duration `mapstructure:"queue_poll_period"`
}

type LexicalConfig struct {
	K1 float64 `mapstructure:"k1"`
	B  float64 `mapstructure:"b"`
}

type FuzzyConfig struct {
	ShortQueryMaxLen int `mapstructure:"short_query_max_len"` // <=4 -> distance 1
	ShortDistance    int `mapstructure:"short_distance"`
	LongDistance     int `mapstructure:"long_distance"`
}

type HybridConfig struct {
	RRFK            int     `mapstructure:"rrf_k"`
	MinScore        float64 `mapstructure:"min_score"`
	RecencyHalfLife float64 `mapstructure:"recency_half_life_days"`
}

type GraphConfig struct {
	EdgeHalfLifeDays float64 `mapstructure:"edge_half_life_days"`
	LimitPerHop      int     `mapstructure:"limit_per_hop"`
	ResultCap        int     `mapstructure:"result_cap"`
}

type LifecycleConfig struct {
	SweepInterval        time.Duration `mapstructure:"sweep_interval"`
	StaleThreshold       time.Duration `mapstructure:"stale_threshold"`
	ArchiveThreshold     time.Duration `mapstructure:"archive_threshold"`
	ArchiveImportanceMax float64       `mapstructure:"archive_importance_max"`
	SweepBatchSize       int           `mapstructure:"sweep_batch_size"`
}

type SalienceConfig struct {
	DecayInterval      time.Duration `mapstructure:"decay_interval"`
	HalfLifeRecencyDay float64       `mapstructure:"half_life_recency_days"`
	AccessFlushPeriod  time.Duration `mapstructure:"access_flush_period"`
	AccessFlushSize    int           `mapstructure:"access_flush_size"`
}

type QualityConfig struct {
	HalfLifeFreshnessDay float64 `mapstructure:"half_life_freshness_days"`
	DuplicateNGram       int     `mapstructure:"duplicate_ngram"`
	DuplicateThreshold   float64 `mapstructure:"duplicate_threshold"`
}

type EventsConfig struct {
	SyncStateCleanupInterval time.Duration `mapstructure:"sync_state_cleanup_interval"`
	SyncStateMaxAge          time.Duration `mapstructure:"sync_state_max_age"`
}

type SessionConfig struct {
	ChunkMaxMessages int `mapstructure:"chunk_max_messages"`
	ChunkMaxChars    int `mapstructure:"chunk_max_chars"`
	ChunkOverlap     int `mapstructure:"chunk_overlap"`
}

type HooksConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Default returns a Config with sensible defaults, matching the teacher's
// Default() constructor shape and extended to the new sections.
func Default() Config {
	return Config{
		Server: ServerConfig{Bind: "127.0.0.1", Port: 37781},
		Database: DatabaseConfig{
			Path:          "", // resolved at runtime via store.DefaultDBPath()
			MaxReaders:    4,
			BusyTimeoutMs: 5000,
		},
		Embedding: EmbeddingConfig{
			Provider:        "tfidf",
			WorkerCount:     2,
			MaxRetries:      5,
			RetryBaseDelay:  2 * time.Second,
			CacheSize:       1024,
			QueuePollPeriod: 2 * time.Second,
		},
		Lexical: LexicalConfig{K1: 1.2, B: 0.75},
		Fuzzy:   FuzzyConfig{ShortQueryMaxLen: 4, ShortDistance: 1, LongDistance: 2},
		Hybrid:  HybridConfig{RRFK: 60, MinScore: 0, RecencyHalfLife: 14},
		Graph:   GraphConfig{EdgeHalfLifeDays: 30, LimitPerHop: 50, ResultCap: 500},
		Lifecycle: LifecycleConfig{
			SweepInterval:        time.Hour,
			StaleThreshold:       30 * 24 * time.Hour,
			ArchiveThreshold:     90 * 24 * time.Hour,
			ArchiveImportanceMax: 0.4,
			SweepBatchSize:       500,
		},
		Salience: SalienceConfig{
			DecayInterval:      24 * time.Hour,
			HalfLifeRecencyDay: 14,
			AccessFlushPeriod:  5 * time.Second,
			AccessFlushSize:    200,
		},
		Quality: QualityConfig{
			HalfLifeFreshnessDay: 60,
			DuplicateNGram:       3,
			DuplicateThreshold:   0.85,
		},
		Events: EventsConfig{
			SyncStateCleanupInterval: 24 * time.Hour,
			SyncStateMaxAge:          30 * 24 * time.Hour,
		},
		Session: SessionConfig{
			ChunkMaxMessages: 10,
			ChunkMaxChars:    8000,
			ChunkOverlap:     2,
		},
		Hooks: HooksConfig{Enabled: true, Timeout: 120 * time.Second},
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return c.Server.Bind + ":" + itoa(c.Server.Port)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
