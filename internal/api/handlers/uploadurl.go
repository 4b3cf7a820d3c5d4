package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tonielift/tonielift/internal/services/uploader"
	"github.com/tonielift/tonielift/pkg/httpext"
)

type urlUploadRequest struct {
	AppPassword string `json:"appPassword"`
	TonieID     string `json:"tonieId"`
	Title       string `json:"title"`
	URL         string `json:"url"`
}

// HandleURLUpload downloads the audio track of a video URL into a temporary
// file, then runs the upload pipeline on its bytes. The temporary file is
// removed on every exit path once it exists.
func (h *Handlers) HandleURLUpload(w http.ResponseWriter, r *http.Request) {
	var req urlUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpext.JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Gate before the download so a bad secret never costs a fetch.
	if !h.gate.Verify(req.AppPassword) {
		httpext.JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	tempPath := filepath.Join(h.tempDir, "tonielift-"+uuid.NewString()+".m4a")

	fetched, err := h.fetcher.Fetch(r.Context(), req.URL, tempPath)
	if err != nil {
		// The fetcher never leaves a partial file behind, so there is
		// nothing to clean here.
		writePipelineError(w, uploader.MapFetchError(err))
		return
	}
	defer func() {
		if err := os.Remove(tempPath); err != nil {
			log.Warn().Err(err).Str("path", tempPath).Msg("Failed to remove temp file")
		}
	}()

	data, err := os.ReadFile(tempPath)
	if err != nil {
		httpext.JSONError2(w, http.StatusInternalServerError, httpext.ErrorResponse{
			Error:   "Internal error",
			Details: "failed to read downloaded audio: " + err.Error(),
		})
		return
	}

	result, uploadErr := h.uploads.Upload(r.Context(), uploader.Request{
		AppPassword: req.AppPassword,
		TonieID:     req.TonieID,
		Title:       req.Title,
		Payload:     uploader.NewPayload(data, fetched.Filename),
		MaxBytes:    uploader.RemoteMaxBytes,
	})
	if uploadErr != nil {
		writePipelineError(w, uploadErr)
		return
	}

	videoInfo := map[string]any{
		"title":    fetched.Title,
		"author":   fetched.Author,
		"duration": fetched.DurationSeconds,
		"videoId":  fetched.VideoID,
	}

	if result.DebugBypass {
		httpext.JSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Debug bypass: payload validated, upstream pipeline skipped",
			"debug": map[string]any{
				"filename": result.Filename,
				"fileSize": result.SizeBytes,
				"title":    result.Title,
			},
			"videoInfo": videoInfo,
			"timestamp": timestamp(),
		})
		return
	}

	httpext.JSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Chapter created",
		"fileId":      result.FileID,
		"chapterData": result.Chapter,
		"videoInfo":   videoInfo,
		"filename":    result.Filename,
		"fileSize":    result.SizeBytes,
		"timestamp":   timestamp(),
	})
}
