// Package server exposes internal/engram's Core facade over HTTP, the way
// the teacher's internal/server wraps internal/engine — same chi router,
// recoverer middleware, and JSON-in/JSON-out handler shape, generalized
// from the teacher's fixed session/observation/context routes to the
// memory/search/graph/lifecycle/salience/quality/events/session operation
// groups spec §6 names.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/lazypower/engram/internal/engram"
)

// Server is Engram's HTTP API server.
type Server struct {
	core    *engram.Core
	router  chi.Router
	version string
	started time.Time
	logger  zerolog.Logger
}

// New creates a Server wrapping core.
func New(core *engram.Core, version string, logger zerolog.Logger) *Server {
	s := &Server{
		core:    core,
		version: version,
		started: time.Now(),
		logger:  logger,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/memories", func(r chi.Router) {
			r.Post("/", s.handleCreateMemory)
			r.Get("/", s.handleListMemories)
			r.Get("/{id}", s.handleGetMemory)
			r.Patch("/{id}", s.handleUpdateMemory)
			r.Delete("/{id}", s.handleDeleteMemory)
			r.Get("/{id}/versions", s.handleListVersions)
			r.Post("/{id}/revert/{version}", s.handleRevertVersion)
			r.Post("/{id}/extract-entities", s.handleExtractEntities)
			r.Post("/{id}/expire", s.handleSetExpiration)
			r.Post("/{id}/promote", s.handlePromoteToPermanent)
			r.Post("/{id}/boost", s.handleSalienceBoost)
			r.Post("/{id}/demote", s.handleSalienceDemote)
		})

		r.Get("/search", s.handleSearch)
		r.Get("/suggest", s.handleSuggest)

		r.Route("/graph", func(r chi.Router) {
			r.Post("/link", s.handleLink)
			r.Post("/unlink", s.handleUnlink)
			r.Get("/related/{id}", s.handleRelated)
			r.Get("/path", s.handleFindPath)
			r.Get("/clusters", s.handleClusters)
			r.Get("/export", s.handleExportGraph)
		})

		r.Route("/lifecycle", func(r chi.Router) {
			r.Get("/status", s.handleLifecycleStatus)
			r.Post("/run", s.handleLifecycleRun)
			r.Post("/cleanup", s.handleCleanupExpired)
		})

		r.Route("/quality", func(r chi.Router) {
			r.Get("/duplicates", s.handleFindDuplicates)
			r.Get("/conflicts/{id}", s.handleFindConflicts)
			r.Post("/conflicts/{id}/resolve", s.handleResolveConflict)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/{sessionID}/index", s.handleSessionIndex)
			r.Get("/{sessionID}", s.handleSessionGet)
			r.Get("/", s.handleSessionList)
			r.Delete("/{sessionID}", s.handleSessionDelete)
			r.Get("/{sessionID}/search", s.handleSessionSearch)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.handleEventsPoll)
			r.Post("/clear", s.handleEventsClear)
		})

		r.Get("/sync/version", s.handleSyncVersion)
		r.Get("/sync/delta", s.handleSyncDelta)

		r.Get("/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.core.DB.Ping(); err != nil {
		dbOK = false
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
