// Package uploader composes the upload pipeline: gate, validation, upstream
// login, presigned target acquisition, byte transfer, target resolution and
// chapter registration.
package uploader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tonielift/tonielift/internal/infrastructure/tonie"
)

// DebugTitlePrefix short-circuits the pipeline right after validation so the
// decoder can be exercised without touching the live upstream API.
const DebugTitlePrefix = "DEBUG:"

// SessionProvider logs the service account in. Satisfied by
// *tonie.SessionProvider.
type SessionProvider interface {
	Login(ctx context.Context) (*tonie.Session, error)
}

// APIClient is the slice of the Tonie cloud client the pipeline needs.
// Satisfied by *tonie.Client.
type APIClient interface {
	CreateFileUpload(ctx context.Context, accessToken string) (*tonie.UploadTarget, error)
	CreativeTonies(ctx context.Context, accessToken, householdID string) ([]tonie.CreativeTonie, error)
	CreateChapter(ctx context.Context, accessToken, householdID, tonieID, title, fileID string) (*tonie.Chapter, error)
}

// Request is one upload, independent of which entry path produced the
// payload. TonieID is the caller-supplied composite
// "householdId/creativeTonieId" routing key; MaxBytes the path-specific size
// ceiling.
type Request struct {
	AppPassword string
	TonieID     string
	Title       string
	Payload     Payload
	MaxBytes    int64
}

// Result echoes what was uploaded. DebugBypass marks a run that stopped after
// validation without any upstream call.
type Result struct {
	FileID      string
	Filename    string
	Title       string
	SizeBytes   int64
	Chapter     *tonie.Chapter
	DebugBypass bool
}

// Service is the upload orchestrator.
type Service struct {
	gate     *Gate
	sessions SessionProvider
	api      APIClient
	storage  *http.Client
}

func NewService(gate *Gate, sessions SessionProvider, api APIClient) *Service {
	return &Service{
		gate:     gate,
		sessions: sessions,
		api:      api,
		storage:  &http.Client{},
	}
}

// Upload runs the pipeline. Every step's failure is terminal; the first
// fatal error comes back enriched with whatever upstream diagnostics exist.
func (s *Service) Upload(ctx context.Context, req Request) (*Result, *Error) {
	if !s.gate.Verify(req.AppPassword) {
		return nil, newError(KindAuthorizationDenied, "Unauthorized", "invalid application password")
	}

	if violations := validatePayload(req.Payload, req.MaxBytes); len(violations) > 0 {
		return nil, &Error{
			Kind:       KindValidationFailed,
			Message:    "Validation failed",
			Details:    strings.Join(violations, "; "),
			Violations: violations,
		}
	}

	if strings.HasPrefix(req.Title, DebugTitlePrefix) {
		log.Info().Str("filename", req.Payload.Filename).Int64("size_bytes", req.Payload.SizeBytes).
			Msg("Debug title prefix present, skipping upstream pipeline")
		return &Result{
			Filename:    req.Payload.Filename,
			Title:       req.Title,
			SizeBytes:   req.Payload.SizeBytes,
			DebugBypass: true,
		}, nil
	}

	householdID, creativeTonieID, found := strings.Cut(req.TonieID, "/")
	if !found || householdID == "" || creativeTonieID == "" {
		return nil, newError(KindValidationFailed, "Validation failed",
			fmt.Sprintf("tonieId %q must be in the form householdId/creativeTonieId", req.TonieID))
	}

	session, err := s.sessions.Login(ctx)
	if err != nil {
		return nil, mapAuthError(err)
	}

	target, err := s.api.CreateFileUpload(ctx, session.AccessToken)
	if err != nil {
		return nil, mapAPIError(err)
	}

	if uploadErr := s.transfer(ctx, target, req.Payload); uploadErr != nil {
		return nil, uploadErr
	}

	tonieErr := s.resolveTarget(ctx, session.AccessToken, householdID, creativeTonieID)
	if tonieErr != nil {
		return nil, tonieErr
	}

	chapter, err := s.api.CreateChapter(ctx, session.AccessToken, householdID, creativeTonieID, req.Title, target.FileID)
	if err != nil {
		return nil, mapAPIError(err)
	}

	log.Info().
		Str("file_id", target.FileID).
		Str("tonie_id", req.TonieID).
		Str("title", req.Title).
		Msg("Chapter registered")

	return &Result{
		FileID:    target.FileID,
		Filename:  req.Payload.Filename,
		Title:     req.Title,
		SizeBytes: req.Payload.SizeBytes,
		Chapter:   chapter,
	}, nil
}

// transfer POSTs the repackaged multipart body to the presigned URL. The
// durable identifier stays the target's fileId; the storage response body is
// diagnostics only.
func (s *Service) transfer(ctx context.Context, target *tonie.UploadTarget, payload Payload) *Error {
	body, contentType, err := buildTransferBody(target.Request.Fields, payload.Filename, payload.Bytes)
	if err != nil {
		return newError(KindInternal, "Internal error", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.Request.URL, bytes.NewReader(body))
	if err != nil {
		return newError(KindInternal, "Internal error", err.Error())
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.storage.Do(req)
	if err != nil {
		return newError(KindStorageUploadFailed, "Storage upload failed", fmt.Sprintf("network error: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return newError(KindStorageUploadFailed, "Storage upload failed",
			fmt.Sprintf("storage endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}
	return nil
}

// resolveTarget confirms the creative tonie exists before the chapter call.
// Absence enumerates the household's available tonies for operator diagnosis.
func (s *Service) resolveTarget(ctx context.Context, accessToken, householdID, creativeTonieID string) *Error {
	tonies, err := s.api.CreativeTonies(ctx, accessToken, householdID)
	if err != nil {
		return mapAPIError(err)
	}

	available := make([]TargetOption, 0, len(tonies))
	for _, t := range tonies {
		if t.ID == creativeTonieID {
			return nil
		}
		available = append(available, TargetOption{ID: t.ID, Name: t.Name})
	}

	return &Error{
		Kind:      KindTargetNotFound,
		Message:   "Creative tonie not found",
		Details:   fmt.Sprintf("no creative tonie %q in household %q", creativeTonieID, householdID),
		Available: available,
	}
}

func mapAuthError(err error) *Error {
	var authErr *tonie.AuthError
	if errors.As(err, &authErr) {
		return &Error{
			Kind:           KindUpstreamAuthFailed,
			Message:        "Tonie login failed",
			Details:        authErr.Error(),
			UpstreamStatus: authErr.HTTPStatus,
		}
	}
	return newError(KindInternal, "Internal error", err.Error())
}

func mapAPIError(err error) *Error {
	var apiErr *tonie.APIError
	if errors.As(err, &apiErr) {
		return &Error{
			Kind:           KindUpstreamAPIFailed,
			Message:        "Tonie API request failed",
			Details:        apiErr.Error(),
			UpstreamStatus: apiErr.HTTPStatus,
		}
	}
	return newError(KindInternal, "Internal error", err.Error())
}
