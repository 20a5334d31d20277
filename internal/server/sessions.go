package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lazypower/engram/internal/apperr"
	"github.com/lazypower/engram/internal/hybrid"
	"github.com/lazypower/engram/internal/session"
)

func (s *Server) handleSessionIndex(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var body struct {
		Project  string            `json:"project"`
		Messages []session.Message `json:"messages"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, apperr.InvalidInputf("session_index", "invalid json body: %v", err))
		return
	}
	result, err := s.core.SessionIndex(r.Context(), sessionID, body.Project, body.Messages)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.core.SessionGet(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if sess == nil {
		writeError(w, apperr.NotFoundf("session_get", "session not found"))
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionList(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.core.SessionList(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.core.SessionDelete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleSessionSearch(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, apperr.InvalidInputf("session_search", "q parameter required"))
		return
	}
	results, err := s.core.SessionSearch(r.Context(), sessionID, query, hybrid.SearchOptions{Limit: queryInt(r, "limit", 10)})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
