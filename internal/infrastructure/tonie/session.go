package tonie

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/tonielift/tonielift/internal/config"
)

// AuthError reports a failed service-account login. HTTPStatus is zero for
// transport-level failures.
type AuthError struct {
	HTTPStatus int
	Message    string
}

func (e *AuthError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("tonie login failed with status %d: %s", e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("tonie login failed: %s", e.Message)
}

// SessionProvider exchanges the configured service account for a bearer
// token via the OAuth2 resource-owner password grant. The legacy cookie login
// of older API generations is intentionally not supported; the password grant
// is the single mode of record.
type SessionProvider struct {
	client   *http.Client
	tokenURL string
	clientID string
	username string
	password string
}

func NewSessionProvider(cfg *config.Config) *SessionProvider {
	return &SessionProvider{
		client:   &http.Client{},
		tokenURL: cfg.TokenURL,
		clientID: cfg.ClientID,
		username: cfg.TonieUsername,
		password: cfg.ToniePassword,
	}
}

// Login performs one password-grant exchange. Callers get a fresh token per
// top-level request; nothing is cached or refreshed.
func (p *SessionProvider) Login(ctx context.Context) (*Session, error) {
	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {p.clientID},
		"scope":      {"openid"},
		"username":   {p.username},
		"password":   {p.password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &AuthError{Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &AuthError{Message: fmt.Sprintf("network error: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &AuthError{Message: fmt.Sprintf("network error: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &AuthError{
			HTTPStatus: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, &AuthError{Message: fmt.Sprintf("malformed token response: %v", err)}
	}
	if session.AccessToken == "" {
		return nil, &AuthError{Message: "no token received"}
	}

	logTokenClaims(session.AccessToken)

	return &session, nil
}

// logTokenClaims surfaces subject and expiry from the bearer token for
// operator diagnostics. The parse is unverified; nothing here trusts the
// claims, and the token itself is never logged.
func logTokenClaims(token string) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		log.Debug().Err(err).Msg("Access token is not a parseable JWT")
		return
	}

	event := log.Debug()
	if sub, err := parsed.Claims.GetSubject(); err == nil && sub != "" {
		event = event.Str("subject", sub)
	}
	if exp, err := parsed.Claims.GetExpirationTime(); err == nil && exp != nil {
		event = event.Time("expires_at", exp.Time)
	}
	event.Msg("Tonie login succeeded")
}
