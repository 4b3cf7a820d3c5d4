package handlers

import (
	"io"
	"net/http"

	"github.com/tonielift/tonielift/internal/services/uploader"
	"github.com/tonielift/tonielift/pkg/httpext"
)

// HandleDeviceUpload accepts a raw multipart/form-data body with the fields
// appPassword, tonieId, title and one file part, and runs the upload
// pipeline on it.
func (h *Handlers) HandleDeviceUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, uploader.DeviceMaxBytes+(8<<20))
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		httpext.JSONError2(w, http.StatusBadRequest, httpext.ErrorResponse{
			Error:   "Failed to read request body",
			Details: err.Error(),
		})
		return
	}

	form, err := h.decoder.Decode(raw, r.Header.Get("Content-Type"))
	if err != nil {
		httpext.JSONError2(w, http.StatusBadRequest, httpext.ErrorResponse{
			Error:   "Malformed multipart body",
			Details: err.Error(),
		})
		return
	}

	var payload uploader.Payload
	if form.File != nil {
		payload = uploader.NewPayload(form.File.Bytes, form.File.Filename)
	}

	result, uploadErr := h.uploads.Upload(r.Context(), uploader.Request{
		AppPassword: form.Fields["appPassword"],
		TonieID:     form.Fields["tonieId"],
		Title:       form.Fields["title"],
		Payload:     payload,
		MaxBytes:    uploader.DeviceMaxBytes,
	})
	if uploadErr != nil {
		writePipelineError(w, uploadErr)
		return
	}

	if result.DebugBypass {
		fields := make(map[string]string, len(form.Fields))
		for k, v := range form.Fields {
			if k == "appPassword" {
				continue
			}
			fields[k] = v
		}
		httpext.JSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Debug bypass: payload validated, upstream pipeline skipped",
			"debug": map[string]any{
				"filename": result.Filename,
				"fileSize": result.SizeBytes,
				"title":    result.Title,
				"fields":   fields,
			},
			"timestamp": timestamp(),
		})
		return
	}

	httpext.JSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Chapter created",
		"fileId":      result.FileID,
		"chapterData": result.Chapter,
		"timestamp":   timestamp(),
	})
}
