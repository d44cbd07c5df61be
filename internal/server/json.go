package server

import (
	"encoding/json"
	"net/http"

	"github.com/shikhar109/Downloder/internal/retrieval"
)

// errorResponse is the wire shape of every failure body. Detail is only
// set when there is something actionable to say.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding failures past the header are unrecoverable; the status is
	// already on the wire.
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, errorResponse{Error: message, Detail: detail})
}

// statusForKind maps the closed error taxonomy onto HTTP status codes.
func statusForKind(kind retrieval.ErrorKind) int {
	switch kind {
	case retrieval.KindInvalidInput:
		return http.StatusBadRequest
	case retrieval.KindAuthRequired:
		return http.StatusForbidden
	case retrieval.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
