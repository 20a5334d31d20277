package server

import (
	"net/http"
	"strconv"

	"github.com/lazypower/engram/internal/apperr"
	"github.com/lazypower/engram/internal/graph"
	"github.com/lazypower/engram/internal/store"
)

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	var p store.LinkParams
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, apperr.InvalidInputf("link", "invalid json body: %v", err))
		return
	}
	edge, err := s.core.Link(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, edge)
}

func (s *Server) handleUnlink(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FromID   int64  `json:"from_id"`
		ToID     int64  `json:"to_id"`
		EdgeType string `json:"edge_type"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, apperr.InvalidInputf("unlink", "invalid json body: %v", err))
		return
	}
	n, err := s.core.Unlink(r.Context(), body.FromID, body.ToID, body.EdgeType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, apperr.InvalidInputf("related", "invalid id"))
		return
	}
	var opts graph.RelatedOptions
	opts.Depth = queryInt(r, "depth", 1)
	result, err := s.core.Related(r.Context(), id, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFindPath(w http.ResponseWriter, r *http.Request) {
	from, err := strconv.ParseInt(r.URL.Query().Get("from"), 10, 64)
	if err != nil {
		writeError(w, apperr.InvalidInputf("find_path", "invalid from"))
		return
	}
	to, err := strconv.ParseInt(r.URL.Query().Get("to"), 10, 64)
	if err != nil {
		writeError(w, apperr.InvalidInputf("find_path", "invalid to"))
		return
	}
	maxDepth := queryInt(r, "max_depth", 6)
	result, err := s.core.FindPath(r.Context(), from, to, maxDepth, graph.PathOptions{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	clusters, err := s.core.Clusters(r.Context(), graph.ClusterOptions{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clusters": clusters})
}

func (s *Server) handleExportGraph(w http.ResponseWriter, r *http.Request) {
	doc, err := s.core.ExportGraph(r.Context(), graph.ExportOptions{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
