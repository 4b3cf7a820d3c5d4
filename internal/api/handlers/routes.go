package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tonielift/tonielift/internal/api/middleware"
	"github.com/tonielift/tonielift/pkg/httpext"
	"github.com/tonielift/tonielift/pkg/ratelimit"
)

// RegisterRoutes wires the five frontend operations under /api. Every
// endpoint is POST-only, answers OPTIONS preflight with a bare 200 (via the
// CORS middleware) and 405 for anything else.
func RegisterRoutes(router *mux.Router, h *Handlers, limiter *ratelimit.Limiter) {
	router.Use(middleware.RequestID, middleware.CORS)
	// mux skips the Use chain for its fallback handlers, so both get the
	// CORS wrap explicitly.
	router.MethodNotAllowedHandler = middleware.CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpext.JSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}))
	router.NotFoundHandler = middleware.CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpext.JSONError(w, "Not found", http.StatusNotFound)
	}))

	api := router.PathPrefix("/api").Subrouter()
	limited := middleware.RateLimit(limiter)

	post := func(path string, handler http.HandlerFunc) {
		api.Handle(path, limited(handler)).Methods(http.MethodPost, http.MethodOptions)
	}

	post("/verify-password", h.HandleVerifyPassword)
	post("/tonie-login", h.HandleTonieLogin)
	post("/households", h.HandleHouseholds)
	post("/upload", h.HandleDeviceUpload)
	post("/upload-url", h.HandleURLUpload)
}
