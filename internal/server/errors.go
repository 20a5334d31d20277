package server

import (
	"errors"
	"net/http"

	"github.com/lazypower/engram/internal/apperr"
)

// writeError maps the spec §7 error taxonomy onto HTTP status codes and
// renders a JSON body, so every handler shares one error path instead of
// re-deriving a status code per call site.
func writeError(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch ae.Kind {
	case apperr.InvalidInput:
		status = http.StatusBadRequest
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Conflict:
		status = http.StatusConflict
	case apperr.Dependency:
		status = http.StatusFailedDependency
	case apperr.Cancelled:
		status = 499 // client closed request, nginx convention
	case apperr.Storage:
		if ae.Transient {
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, map[string]any{
		"error":     ae.Message,
		"kind":      string(ae.Kind),
		"operation": ae.Operation,
	})
}
