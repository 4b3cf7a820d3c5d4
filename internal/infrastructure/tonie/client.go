package tonie

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tonielift/tonielift/internal/config"
)

// APIError reports a failed Tonie cloud call. HTTPStatus carries the
// upstream's own status code (zero for transport failures) and is forwarded
// unchanged to this system's caller.
type APIError struct {
	HTTPStatus int
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("tonie API %s returned status %d: %s", e.Path, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("tonie API %s: network error: %s", e.Path, e.Message)
}

// Client is the thin authenticated wrapper around the Tonie cloud REST API.
// It attaches the bearer token, speaks JSON, and never retries.
type Client struct {
	client  *http.Client
	baseURL string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		client:  &http.Client{},
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
	}
}

// Request issues one authenticated JSON call. A non-2xx response becomes an
// *APIError carrying the upstream status and body text.
func (c *Client) Request(ctx context.Context, method, path, accessToken string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &APIError{Path: path, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &APIError{Path: path, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().Str("path", path).Int("status", resp.StatusCode).Msg("Tonie API call failed")
		return nil, &APIError{
			HTTPStatus: resp.StatusCode,
			Path:       path,
			Message:    strings.TrimSpace(string(respBody)),
		}
	}

	return respBody, nil
}

// Households lists the account's households. The upstream wraps the list in
// an object on some API versions and returns a bare array on others.
func (c *Client) Households(ctx context.Context, accessToken string) ([]Household, error) {
	raw, err := c.Request(ctx, http.MethodGet, "/households", accessToken, nil)
	if err != nil {
		return nil, err
	}

	entries, err := decodeList(raw, "households")
	if err != nil {
		return nil, &APIError{Path: "/households", Message: fmt.Sprintf("malformed response: %v", err)}
	}

	households := make([]Household, 0, len(entries))
	for _, entry := range entries {
		households = append(households, Household{
			ID:   pickString(entry, "id", "householdId"),
			Name: pickString(entry, "name", "title"),
		})
	}
	return households, nil
}

// creativeToniePaths are the candidate endpoint templates for the listing,
// tried in order. Upstream API versions disagree on the hyphenation.
var creativeToniePaths = []string{
	"/households/%s/creativetonies",
	"/households/%s/creative-tonies",
}

// CreativeTonies lists a household's creative tonies, falling back to the
// alternate endpoint naming when the primary path fails.
func (c *Client) CreativeTonies(ctx context.Context, accessToken, householdID string) ([]CreativeTonie, error) {
	var lastErr error
	for _, template := range creativeToniePaths {
		path := fmt.Sprintf(template, householdID)
		raw, err := c.Request(ctx, http.MethodGet, path, accessToken, nil)
		if err != nil {
			lastErr = err
			continue
		}
		return decodeCreativeTonies(raw, path)
	}
	return nil, lastErr
}

func decodeCreativeTonies(raw json.RawMessage, path string) ([]CreativeTonie, error) {
	entries, err := decodeList(raw, "creativeTonies")
	if err != nil {
		return nil, &APIError{Path: path, Message: fmt.Sprintf("malformed response: %v", err)}
	}

	tonies := make([]CreativeTonie, 0, len(entries))
	for _, entry := range entries {
		tonie := CreativeTonie{
			ID:          pickString(entry, "id", "creativeTonieId"),
			Name:        pickString(entry, "name", "title"),
			Image:       pickString(entry, "imageUrl", "image"),
			LastContent: pickString(entry, "lastContent"),
		}
		unmarshalField(entry, "live", &tonie.Live)
		unmarshalField(entry, "private", &tonie.Private)
		unmarshalField(entry, "noCloud", &tonie.NoCloud)
		unmarshalField(entry, "chaptersCount", &tonie.ChaptersCount)
		unmarshalField(entry, "secondsRemaining", &tonie.TotalLength)
		tonies = append(tonies, tonie)
	}
	return tonies, nil
}

// CreateFileUpload asks the API for a presigned storage target.
func (c *Client) CreateFileUpload(ctx context.Context, accessToken string) (*UploadTarget, error) {
	raw, err := c.Request(ctx, http.MethodPost, "/file", accessToken, map[string]any{})
	if err != nil {
		return nil, err
	}

	var target UploadTarget
	if err := json.Unmarshal(raw, &target); err != nil {
		return nil, &APIError{Path: "/file", Message: fmt.Sprintf("malformed upload target: %v", err)}
	}
	if target.FileID == "" || target.Request.URL == "" {
		return nil, &APIError{Path: "/file", Message: "upload target is missing fileId or url"}
	}
	return &target, nil
}

// CreateChapter registers an uploaded file as a new chapter on a creative
// tonie.
func (c *Client) CreateChapter(ctx context.Context, accessToken, householdID, tonieID, title, fileID string) (*Chapter, error) {
	path := fmt.Sprintf("/households/%s/creativetonies/%s/chapters", householdID, tonieID)
	raw, err := c.Request(ctx, http.MethodPost, path, accessToken, map[string]string{
		"title": title,
		"file":  fileID,
	})
	if err != nil {
		return nil, err
	}

	chapter := &Chapter{Title: title, File: fileID}
	// The response body is informative only; registration succeeded once the
	// call came back 2xx.
	_ = json.Unmarshal(raw, chapter)
	return chapter, nil
}

// decodeList accepts either a bare JSON array or an object wrapping the array
// under wrapperKey, and returns the raw object entries.
func decodeList(raw json.RawMessage, wrapperKey string) ([]map[string]json.RawMessage, error) {
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err == nil {
		return entries, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, err
	}
	inner, ok := wrapper[wrapperKey]
	if !ok {
		return nil, fmt.Errorf("response has neither a list nor a %q key", wrapperKey)
	}
	if err := json.Unmarshal(inner, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// pickString returns the first present, non-empty string among the candidate
// keys. Upstream versions disagree on field naming.
func pickString(entry map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := entry[key]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err == nil && value != "" {
			return value
		}
	}
	return ""
}

func unmarshalField(entry map[string]json.RawMessage, key string, dst any) {
	if raw, ok := entry[key]; ok {
		_ = json.Unmarshal(raw, dst)
	}
}

// decodeOrderedObject walks a JSON object token by token so the field order
// of the presigned policy survives decoding.
func decodeOrderedObject(data []byte) (Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("upload fields must be a JSON object")
	}

	var fields Fields
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in upload fields", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("upload field %q is not a string: %w", key, err)
		}
		fields = append(fields, Field{Name: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}
