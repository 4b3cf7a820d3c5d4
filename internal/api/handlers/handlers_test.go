package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonielift/tonielift/internal/config"
	"github.com/tonielift/tonielift/internal/infrastructure/tonie"
	"github.com/tonielift/tonielift/internal/infrastructure/youtube"
)

type fakeFetcher struct {
	result *youtube.FetchResult
	err    error
	data   []byte
	calls  int
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL, destPath string) (*youtube.FetchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if err := os.WriteFile(destPath, f.data, 0o600); err != nil {
		return nil, err
	}
	result := *f.result
	result.SizeBytes = int64(len(f.data))
	return &result, nil
}

// newUpstream fakes the token endpoint, the REST API and the presigned
// storage target in one server.
func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			w.Write([]byte(`{"access_token":"tok","token_type":"Bearer"}`))
		case "/v2/households":
			w.Write([]byte(`[{"id":"house1","name":"Home"}]`))
		case "/v2/households/house1/creativetonies":
			w.Write([]byte(`[{"id":"tonieA","name":"Lion"}]`))
		case "/v2/file":
			fmt.Fprintf(w, `{"fileId":"f-1","request":{"url":"%s/storage","fields":{"key":"k"}}}`, server.URL)
		case "/storage":
			w.WriteHeader(http.StatusNoContent)
		case "/v2/households/house1/creativetonies/tonieA/chapters":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"c-1"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	return server
}

func newTestHandlers(t *testing.T, upstream *httptest.Server, fetcher AudioFetcher) (*Handlers, string) {
	t.Helper()
	tempDir := t.TempDir()
	cfg := &config.Config{
		AppPassword:   "pw",
		TonieUsername: "u",
		ToniePassword: "p",
		TokenURL:      upstream.URL + "/token",
		APIBaseURL:    upstream.URL + "/v2",
		ClientID:      "my-tonies",
		TempDir:       tempDir,
	}
	return New(cfg, tonie.NewSessionProvider(cfg), tonie.NewClient(cfg), fetcher), tempDir
}

func TestHandleDeviceUploadMalformedBody(t *testing.T) {
	upstream := newUpstream(t)
	defer upstream.Close()
	h, _ := newTestHandlers(t, upstream, &fakeFetcher{})

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "multipart/form-data") // no boundary
	w := httptest.NewRecorder()

	h.HandleDeviceUpload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Malformed multipart body", body["error"])
	assert.NotEmpty(t, body["details"])
}

func TestHandleURLUploadSuccessAndCleanup(t *testing.T) {
	upstream := newUpstream(t)
	defer upstream.Close()

	fetcher := &fakeFetcher{
		result: &youtube.FetchResult{
			Title:           "Good Night Songs",
			Author:          "Lullaby Channel",
			VideoID:         "abc123def45",
			DurationSeconds: 183,
			Filename:        "Good Night Songs (abc123def45).m4a",
		},
		data: bytes.Repeat([]byte{0x22}, 4096),
	}
	h, tempDir := newTestHandlers(t, upstream, fetcher)

	payload := `{"appPassword":"pw","tonieId":"house1/tonieA","title":"My Chapter","url":"https://youtu.be/abc123def45"}`
	req := httptest.NewRequest(http.MethodPost, "/api/upload-url", strings.NewReader(payload))
	w := httptest.NewRecorder()

	h.HandleURLUpload(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Success   bool   `json:"success"`
		FileID    string `json:"fileId"`
		Filename  string `json:"filename"`
		FileSize  int64  `json:"fileSize"`
		VideoInfo struct {
			Title    string `json:"title"`
			Author   string `json:"author"`
			Duration int    `json:"duration"`
			VideoID  string `json:"videoId"`
		} `json:"videoInfo"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "f-1", body.FileID)
	assert.Equal(t, "Good Night Songs (abc123def45).m4a", body.Filename)
	assert.Equal(t, int64(4096), body.FileSize)
	assert.Equal(t, "Lullaby Channel", body.VideoInfo.Author)
	assert.Equal(t, 183, body.VideoInfo.Duration)
	assert.Equal(t, "abc123def45", body.VideoInfo.VideoID)

	// Temp file must be gone after the response.
	entries, err := filepath.Glob(filepath.Join(tempDir, "tonielift-*"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandleURLUploadLiveContent(t *testing.T) {
	upstream := newUpstream(t)
	defer upstream.Close()

	fetcher := &fakeFetcher{err: fmt.Errorf("%w: concert stream", youtube.ErrLiveContent)}
	h, tempDir := newTestHandlers(t, upstream, fetcher)

	payload := `{"appPassword":"pw","tonieId":"house1/tonieA","title":"t","url":"https://youtu.be/live123live1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/upload-url", strings.NewReader(payload))
	w := httptest.NewRecorder()

	h.HandleURLUpload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Video unavailable", body["error"])

	// Nothing was downloaded, so nothing was cleaned up.
	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandleURLUploadGateBeforeFetch(t *testing.T) {
	upstream := newUpstream(t)
	defer upstream.Close()

	fetcher := &fakeFetcher{}
	h, _ := newTestHandlers(t, upstream, fetcher)

	payload := `{"appPassword":"wrong","tonieId":"house1/tonieA","title":"t","url":"https://youtu.be/abc123def45"}`
	req := httptest.NewRequest(http.MethodPost, "/api/upload-url", strings.NewReader(payload))
	w := httptest.NewRecorder()

	h.HandleURLUpload(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, fetcher.calls)
}

func TestHandleDeviceUploadDebugBypass(t *testing.T) {
	// Upstream that fails every call proves the bypass never reaches it.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream call: %s", r.URL.Path)
	}))
	defer upstream.Close()
	h, _ := newTestHandlers(t, upstream, &fakeFetcher{})

	var buf bytes.Buffer
	writeMultipart(t, &buf, map[string]string{
		"appPassword": "pw",
		"tonieId":     "house1/tonieA",
		"title":       "DEBUG: decoder probe",
	}, "probe.mp3", []byte("abc"))

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=testboundary")
	w := httptest.NewRecorder()

	h.HandleDeviceUpload(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Success bool `json:"success"`
		Debug   struct {
			Filename string            `json:"filename"`
			FileSize int64             `json:"fileSize"`
			Fields   map[string]string `json:"fields"`
		} `json:"debug"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "probe.mp3", body.Debug.Filename)
	assert.Equal(t, int64(3), body.Debug.FileSize)
	assert.NotContains(t, body.Debug.Fields, "appPassword")
}

func writeMultipart(t *testing.T, buf *bytes.Buffer, fields map[string]string, filename string, data []byte) {
	t.Helper()
	for _, key := range []string{"appPassword", "tonieId", "title"} {
		if value, ok := fields[key]; ok {
			fmt.Fprintf(buf, "--testboundary\r\nContent-Disposition: form-data; name=%q\r\n\r\n%s\r\n", key, value)
		}
	}
	fmt.Fprintf(buf, "--testboundary\r\nContent-Disposition: form-data; name=\"file\"; filename=%q\r\n\r\n", filename)
	buf.Write(data)
	buf.WriteString("\r\n--testboundary--\r\n")
}
