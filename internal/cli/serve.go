package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lazypower/engram/internal/config"
	"github.com/lazypower/engram/internal/engram"
	"github.com/lazypower/engram/internal/server"
	"github.com/lazypower/engram/internal/store"
	"github.com/lazypower/engram/internal/vectorindex"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	cfg := config.Default()
	if loaded, err := config.Load(os.Getenv("ENGRAM_CONFIG")); err == nil {
		cfg = loaded
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath, cfg.Database.MaxReaders, cfg.Database.BusyTimeoutMs)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	embedder := buildEmbedder(db, cfg, logger)

	core := engram.New(db, cfg, engram.Options{Embedder: embedder, Logger: logger})
	ctx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()
	if err := core.Start(ctx); err != nil {
		return fmt.Errorf("start background loops: %w", err)
	}
	defer core.Stop()

	srv := server.New(core, VersionString(), logger)
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info().Str("addr", addr).Str("db", dbPath).Msg("engram serving")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-done
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// buildEmbedder selects the configured embedding provider, falling back to
// the dependency-free TFIDF embedder seeded from existing memory content
// when no remote provider is configured (spec §4.4 graceful degradation).
func buildEmbedder(db *store.DB, cfg config.Config, logger zerolog.Logger) vectorindex.Embedder {
	if cfg.Embedding.Provider == "openai-compatible" && cfg.Embedding.BaseURL != "" {
		logger.Info().Str("provider", "openai-compatible").Str("model", cfg.Embedding.Model).Msg("embedder configured")
		return vectorindex.NewOpenAICompatibleEmbedder(cfg.Embedding.BaseURL, cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimensions)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	memories, err := db.List(ctx, store.ListParams{Limit: 5000})
	if err != nil {
		logger.Warn().Err(err).Msg("tfidf corpus seed failed, starting with empty vocabulary")
	}
	corpus := make([]string, len(memories))
	for i, m := range memories {
		corpus[i] = m.Content
	}
	dims := cfg.Embedding.Dimensions
	if dims <= 0 {
		dims = 512
	}
	logger.Info().Str("provider", "tfidf").Int("corpus_size", len(corpus)).Msg("embedder configured")
	return vectorindex.NewTFIDFEmbedder(corpus, dims)
}
