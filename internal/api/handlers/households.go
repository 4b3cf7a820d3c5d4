package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tonielift/tonielift/internal/infrastructure/tonie"
	"github.com/tonielift/tonielift/pkg/httpext"
)

type householdsRequest struct {
	AppPassword string `json:"appPassword"`
}

// HandleHouseholds returns the directory listing: every household with its
// creative tonies. Upstream failures forward the upstream's status code.
func (h *Handlers) HandleHouseholds(w http.ResponseWriter, r *http.Request) {
	var req householdsRequest
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

	households, err := h.directory.Households(r.Context(), session.AccessToken)
	if err != nil {
		status := http.StatusInternalServerError
		var apiErr *tonie.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatus != 0 {
			status = apiErr.HTTPStatus
		}
		httpext.JSONError2(w, status, httpext.ErrorResponse{
			Error:   "Failed to list households",
			Details: err.Error(),
		})
		return
	}

	httpext.JSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"households": households,
		"timestamp":  timestamp(),
	})
}
