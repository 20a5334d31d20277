package server

import (
	"net/http"
	"strconv"

	"github.com/lazypower/engram/internal/apperr"
	"github.com/lazypower/engram/internal/hybrid"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, apperr.InvalidInputf("search", "q parameter required"))
		return
	}
	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	var opts hybrid.SearchOptions
	opts.Limit = limit
	if mode := r.URL.Query().Get("mode"); mode == "semantic" {
		results, err := s.core.SemanticSearch(r.Context(), query, opts)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"query": query, "results": results})
		return
	}

	results, err := s.core.Search(r.Context(), query, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": query, "count": len(results), "results": results})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("q")
	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	results, err := s.core.Suggest(r.Context(), prefix, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": results})
}
