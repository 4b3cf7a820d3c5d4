// Package handlers exposes the five frontend operations over HTTP.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/tonielift/tonielift/internal/config"
	"github.com/tonielift/tonielift/internal/infrastructure/tonie"
	"github.com/tonielift/tonielift/internal/infrastructure/youtube"
	"github.com/tonielift/tonielift/internal/multipart"
	"github.com/tonielift/tonielift/internal/services/directory"
	"github.com/tonielift/tonielift/internal/services/uploader"
	"github.com/tonielift/tonielift/pkg/httpext"
)

// AudioFetcher downloads remote audio. Satisfied by *youtube.Fetcher.
type AudioFetcher interface {
	Fetch(ctx context.Context, rawURL, destPath string) (*youtube.FetchResult, error)
}

// HouseholdLister lists the directory. Satisfied by *directory.Service.
type HouseholdLister interface {
	Households(ctx context.Context, accessToken string) ([]tonie.Household, error)
}

// Handlers bundles the components the endpoints compose.
type Handlers struct {
	gate      *uploader.Gate
	sessions  uploader.SessionProvider
	directory HouseholdLister
	uploads   *uploader.Service
	fetcher   AudioFetcher
	decoder   multipart.Decoder
	tempDir   string
}

func New(cfg *config.Config, sessions uploader.SessionProvider, api *tonie.Client, fetcher AudioFetcher) *Handlers {
	gate := uploader.NewGate(cfg.AppPassword)
	return &Handlers{
		gate:      gate,
		sessions:  sessions,
		directory: directory.NewService(api),
		uploads:   uploader.NewService(gate, sessions, api),
		fetcher:   fetcher,
		tempDir:   cfg.TempDir,
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// writePipelineError maps a pipeline failure onto the wire: error summary,
// details, and for 4xx outcomes the diagnostic payloads the frontend shows
// the operator.
func writePipelineError(w http.ResponseWriter, uploadErr *uploader.Error) {
	resp := httpext.ErrorResponse{Error: uploadErr.Message, Details: uploadErr.Details}

	status := uploadErr.HTTPStatus()
	if status >= 400 && status < 500 {
		extra := map[string]any{}
		if len(uploadErr.Violations) > 0 {
			extra["debug"] = map[string]any{"violations": uploadErr.Violations}
		}
		if len(uploadErr.Available) > 0 {
			extra["availableCreativetonies"] = uploadErr.Available
		}
		if len(extra) > 0 {
			resp.Extra = extra
		}
	}

	httpext.JSONError2(w, status, resp)
}
