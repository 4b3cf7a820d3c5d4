package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tonielift/tonielift/pkg/httpext"
)

type tonieLoginRequest struct {
	AppPassword string `json:"appPassword"`
}

// HandleTonieLogin verifies the shared secret and performs one upstream
// service-account login, surfacing the bearer token to the frontend.
func (h *Handlers) HandleTonieLogin(w http.ResponseWriter, r *http.Request) {
	var req tonieLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpext.JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !h.gate.Verify(req.AppPassword) {
		httpext.JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	session, err := h.sessions.Login(r.Context())
	if err != nil {
		httpext.JSONError2(w, http.StatusUnauthorized, httpext.ErrorResponse{
			Error:   "Tonie login failed",
			Details: err.Error(),
		})
		return
	}

	httpext.JSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"sessionToken": session.AccessToken,
		"timestamp":    timestamp(),
	})
}
