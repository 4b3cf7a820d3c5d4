package tonie

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonielift/tonielift/internal/config"
)

func newTestProvider(serverURL string) *SessionProvider {
	return NewSessionProvider(&config.Config{
		TokenURL:      serverURL,
		ClientID:      "my-tonies",
		TonieUsername: "user@example.com",
		ToniePassword: "secret",
	})
}

func TestLoginSuccess(t *testing.T) {
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "my-tonies", r.PostForm.Get("client_id"))
		assert.Equal(t, "openid", r.PostForm.Get("scope"))
		assert.Equal(t, "user@example.com", r.PostForm.Get("username"))
		assert.Equal(t, "secret", r.PostForm.Get("password"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-123","token_type":"Bearer","expires_in":300}`))
	}))
	defer server.Close()

	session, err := newTestProvider(server.URL).Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "tok-123", session.AccessToken)
	assert.Equal(t, "Bearer", session.TokenType)
	assert.Equal(t, 300, session.ExpiresIn)
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"upstream 401", http.StatusUnauthorized, `{"error":"invalid_grant"}`, http.StatusUnauthorized, `{"error":"invalid_grant"}`},
		{"upstream 500", http.StatusInternalServerError, "boom", http.StatusInternalServerError, "boom"},
		{"missing token", http.StatusOK, `{"token_type":"Bearer"}`, 0, "no token received"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestProvider(server.URL).Login(context.Background())
			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tt.wantStatus, authErr.HTTPStatus)
			assert.Equal(t, tt.wantMsg, authErr.Message)
		})
	}
}

func TestLoginNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	_, err := newTestProvider(server.URL).Login(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Zero(t, authErr.HTTPStatus)
	assert.Contains(t, authErr.Message, "network error")
}
