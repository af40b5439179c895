package baidu

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"ocrgateway/internal/ocr"
)

// TokenSource caches the client-credentials access token.
// The token is fetched lazily and replaced only by Refresh or after the
// vendor rejects it; expiry times are not tracked.
type TokenSource struct {
	mu        sync.Mutex
	token     string
	apiKey    string
	secretKey string
	endpoint  string
	client    *http.Client
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Token returns the cached token, fetching one if none is cached.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		return s.token, nil
	}
	return s.fetchLocked(ctx)
}

// Refresh fetches a new token unconditionally.
func (s *TokenSource) Refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchLocked(ctx)
}

// Invalidate drops token if it is still the cached one.
func (s *TokenSource) Invalidate(token string) {
	s.mu.Lock()
	if s.token == token {
		s.token = ""
	}
	s.mu.Unlock()
}

// Cached returns the current token without fetching.
func (s *TokenSource) Cached() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *TokenSource) fetchLocked(ctx context.Context) (string, error) {
	query := url.Values{}
	query.Set("grant_type", "client_credentials")
	query.Set("client_id", s.apiKey)
	query.Set("client_secret", s.secretKey)

	var raw tokenResponse
	if err := ocr.PostBytes(ctx, s.client, Name, s.endpoint, query, "", nil, &raw); err != nil {
		return "", err
	}
	if raw.AccessToken == "" {
		msg := "cannot obtain access token"
		if raw.ErrorDescription != "" {
			msg += ": " + raw.ErrorDescription
		} else if raw.Error != "" {
			msg += ": " + raw.Error
		}
		return "", ocr.VendorError(Name, msg)
	}
	s.token = raw.AccessToken
	return s.token, nil
}
