package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lazypower/engram/internal/apperr"
	"github.com/lazypower/engram/internal/store"
)

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func (s *Server) handleCreateMemory(w http.ResponseWriter, r *http.Request) {
	var p store.CreateParams
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, apperr.InvalidInputf("create", "invalid json body: %v", err))
		return
	}
	m, err := s.core.Create(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, apperr.InvalidInputf("get", "invalid id"))
		return
	}
	m, err := s.core.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if m == nil {
		writeError(w, apperr.NotFoundf("get", "memory %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleUpdateMemory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, apperr.InvalidInputf("update", "invalid id"))
		return
	}
	var p store.UpdateParams
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, apperr.InvalidInputf("update", "invalid json body: %v", err))
		return
	}
	m, err := s.core.Update(r.Context(), id, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMemory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, apperr.InvalidInputf("delete", "invalid id"))
		return
	}
	hard := r.URL.Query().Get("hard") == "true"
	if err := s.core.Delete(r.Context(), id, hard); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	memories, err := s.core.List(r.Context(), store.ListParams{
		Workspace: r.URL.Query().Get("workspace"),
		Limit:     limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"memories": memories, "count": len(memories)})
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, apperr.InvalidInputf("versions", "invalid id"))
		return
	}
	versions, err := s.core.Versions(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
}

func (s *Server) handleRevertVersion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, apperr.InvalidInputf("revert", "invalid id"))
		return
	}
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		writeError(w, apperr.InvalidInputf("revert", "invalid version"))
		return
	}
	m, err := s.core.Revert(r.Context(), id, version)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleExtractEntities(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, apperr.InvalidInputf("extract_entities", "invalid id"))
		return
	}
	ents, err := s.core.ExtractEntities(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": ents})
}

func (s *Server) handleSetExpiration(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, apperr.InvalidInputf("set_expiration", "invalid id"))
		return
	}
	var body struct {
		ExpiresAt int64 `json:"expires_at"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, apperr.InvalidInputf("set_expiration", "invalid json body: %v", err))
		return
	}
	if err := s.core.SetExpiration(r.Context(), id, body.ExpiresAt); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePromoteToPermanent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, apperr.InvalidInputf("promote_to_permanent", "invalid id"))
		return
	}
	if err := s.core.PromoteToPermanent(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type salienceAdjustBody struct {
	Delta        float64 `json:"delta"`
	DurationMins int     `json:"duration_minutes"`
}

func (s *Server) handleSalienceBoost(w http.ResponseWriter, r *http.Request) {
	id, body, ok := s.decodeSalienceAdjust(w, r)
	if !ok {
		return
	}
	if err := s.core.SalienceBoost(r.Context(), id, body.Delta, time.Duration(body.DurationMins)*time.Minute); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSalienceDemote(w http.ResponseWriter, r *http.Request) {
	id, body, ok := s.decodeSalienceAdjust(w, r)
	if !ok {
		return
	}
	if err := s.core.SalienceDemote(r.Context(), id, body.Delta, time.Duration(body.DurationMins)*time.Minute); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decodeSalienceAdjust(w http.ResponseWriter, r *http.Request) (int64, salienceAdjustBody, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, apperr.InvalidInputf("salience_adjust", "invalid id"))
		return 0, salienceAdjustBody{}, false
	}
	var body salienceAdjustBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, apperr.InvalidInputf("salience_adjust", "invalid json body: %v", err))
		return 0, salienceAdjustBody{}, false
	}
	return id, body, true
}
