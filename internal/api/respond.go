package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/jnguyen/visual-aoi/internal/aoierr"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[api] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := aoierr.KindOf(err)
	status := statusForKind(kind)
	writeJSON(w, status, map[string]string{"error": err.Error(), "kind": string(kind)})
}

// statusForKind maps the error taxonomy (§7) to an HTTP status, per §6.4:
// "the kinds matter; specific codes do not need to be preserved."
func statusForKind(kind aoierr.Kind) int {
	switch kind {
	case aoierr.InvalidInput:
		return http.StatusBadRequest
	case aoierr.NotFound:
		return http.StatusNotFound
	case aoierr.Conflict:
		return http.StatusConflict
	case aoierr.UpstreamUnavailable:
		return http.StatusBadGateway
	case aoierr.DetectorError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, aoierr.Wrap(aoierr.InvalidInput, "decode request body", err))
		return false
	}
	return true
}
