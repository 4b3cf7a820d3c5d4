package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tonielift/tonielift/pkg/httpext"
)

type verifyPasswordRequest struct {
	Password string `json:"password"`
}

// HandleVerifyPassword checks the shared secret without touching the
// upstream API.
func (h *Handlers) HandleVerifyPassword(w http.ResponseWriter, r *http.Request) {
	var req verifyPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpext.JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !h.gate.Verify(req.Password) {
		httpext.JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	httpext.JSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Password verified",
		"timestamp": timestamp(),
	})
}
