package server

import (
	"net/http"
	"strconv"

	"github.com/lazypower/engram/internal/apperr"
)

func (s *Server) handleEventsPoll(w http.ResponseWriter, r *http.Request) {
	sinceID := int64(0)
	if v := r.URL.Query().Get("since_id"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, apperr.InvalidInputf("events_poll", "invalid since_id"))
			return
		}
		sinceID = n
	}
	agentID := r.URL.Query().Get("agent_id")
	events, err := s.core.EventsPoll(r.Context(), sinceID, agentID, queryInt(r, "limit", 100))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleEventsClear(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UpToID int64 `json:"upto_id"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, apperr.InvalidInputf("events_clear", "invalid json body: %v", err))
		return
	}
	n, err := s.core.EventsClear(r.Context(), body.UpToID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"cleared": n})
}

func (s *Server) handleSyncVersion(w http.ResponseWriter, r *http.Request) {
	info, err := s.core.SyncVersion(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleSyncDelta(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agent_id")
	if agentID == "" {
		writeError(w, apperr.InvalidInputf("sync_delta", "agent_id parameter required"))
		return
	}
	if v := r.URL.Query().Get("since_version"); v != "" {
		since, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			writeError(w, apperr.InvalidInputf("sync_delta", "invalid since_version"))
			return
		}
		d, err := s.core.SyncDelta(r.Context(), agentID, since)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
		return
	}

	d, err := s.core.SyncState(r.Context(), agentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
