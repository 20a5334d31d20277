package server

import "net/http"

func (s *Server) handleLifecycleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.core.LifecycleStatus(r.Context()))
}

func (s *Server) handleLifecycleRun(w http.ResponseWriter, r *http.Request) {
	report, err := s.core.LifecycleRun(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCleanupExpired(w http.ResponseWriter, r *http.Request) {
	report, err := s.core.CleanupExpired(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
