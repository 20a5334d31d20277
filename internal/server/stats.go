package server

import "net/http"

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.core.Stats(r.Context(), r.URL.Query().Get("workspace"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
