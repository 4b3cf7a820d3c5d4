package httpext

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// ErrorResponse is the standardised JSON error body. Details carries the
// longer diagnostic string the frontend prefers when present; Extra merges
// endpoint-specific diagnostic fields (debug payloads, available targets)
// into the top-level object.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Details string         `json:"details,omitempty"`
	Extra   map[string]any `json:"-"`
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// JSONError writes a minimal JSON error response.
func JSONError(w http.ResponseWriter, message string, code int) {
	JSONError2(w, code, ErrorResponse{Error: message})
}

// JSONError2 writes a detailed JSON error response, flattening Extra fields
// into the object alongside error/details.
func JSONError2(w http.ResponseWriter, code int, resp ErrorResponse) {
	body := map[string]any{"error": resp.Error}
	if resp.Details != "" {
		body["details"] = resp.Details
	}
	for k, v := range resp.Extra {
		body[k] = v
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode error response")
	}
}
