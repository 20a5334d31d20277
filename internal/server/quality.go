package server

import (
	"net/http"

	"github.com/lazypower/engram/internal/apperr"
)

func (s *Server) handleFindDuplicates(w http.ResponseWriter, r *http.Request) {
	workspace := r.URL.Query().Get("workspace")
	matches, err := s.core.FindDuplicates(r.Context(), workspace)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"duplicates": matches})
}

func (s *Server) handleFindConflicts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, apperr.InvalidInputf("find_conflicts", "invalid id"))
		return
	}
	conflicts, err := s.core.FindConflicts(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}

func (s *Server) handleResolveConflict(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, apperr.InvalidInputf("resolve_conflict", "invalid id"))
		return
	}
	var body struct {
		Resolution string `json:"resolution"`
		ResolvedBy string `json:"resolved_by"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, apperr.InvalidInputf("resolve_conflict", "invalid json body: %v", err))
		return
	}
	if err := s.core.ResolveConflict(r.Context(), id, body.Resolution, body.ResolvedBy); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
