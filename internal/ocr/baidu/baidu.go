// Package baidu adapts the Baidu AI Cloud general_basic OCR API.
package baidu

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ocrgateway/internal/ocr"
)

const (
	// Name tags errors and logs.
	Name                 = "Baidu"
	DefaultEndpoint      = "https://aip.baidubce.com/rest/2.0/ocr/v1/general_basic"
	DefaultTokenEndpoint = "https://aip.baidubce.com/oauth/2.0/token"
	DefaultTimeout       = 15 * time.Second
	DefaultTokenTimeout  = 10 * time.Second
)

// Error codes meaning the access token must be fetched again.
const (
	codeInvalidToken = 110
	codeExpiredToken = 111
)

// Config holds the application credentials. AppID identifies the console
// application; the API itself only needs APIKey and SecretKey.
type Config struct {
	AppID         string
	APIKey        string
	SecretKey     string
	Endpoint      string
	TokenEndpoint string
	Timeout       time.Duration
	TokenTimeout  time.Duration
}

// Provider calls Baidu OCR with a cached bearer token.
type Provider struct {
	endpoint string
	tokens   *TokenSource
	client   *http.Client
}

// New creates a Provider. No network call is made until first use.
func New(cfg Config) *Provider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.TokenEndpoint == "" {
		cfg.TokenEndpoint = DefaultTokenEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.TokenTimeout <= 0 {
		cfg.TokenTimeout = DefaultTokenTimeout
	}
	return &Provider{
		endpoint: cfg.Endpoint,
		tokens: &TokenSource{
			apiKey:    cfg.APIKey,
			secretKey: cfg.SecretKey,
			endpoint:  cfg.TokenEndpoint,
			client:    ocr.NewHTTPClient(cfg.TokenTimeout),
		},
		client: ocr.NewHTTPClient(cfg.Timeout),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return Name }

// Tokens exposes the token cache.
func (p *Provider) Tokens() *TokenSource { return p.tokens }

// Recognize posts the base64 image with the access token as a query parameter.
func (p *Provider) Recognize(ctx context.Context, image []byte) ocr.Result {
	text, err := p.recognize(ctx, image)
	if err != nil {
		return ocr.Failure(err)
	}
	return ocr.Success(text)
}

// CheckAvailability re-fetches the access token.
func (p *Provider) CheckAvailability(ctx context.Context) bool {
	token, err := p.tokens.Refresh(ctx)
	return err == nil && token != ""
}

type ocrResponse struct {
	ErrorCode   *int   `json:"error_code"`
	ErrorMsg    string `json:"error_msg"`
	WordsResult *[]struct {
		Words string `json:"words"`
	} `json:"words_result"`
}

func (p *Provider) recognize(ctx context.Context, image []byte) (string, error) {
	token, err := p.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set("access_token", token)
	form := url.Values{}
	form.Set("image", base64.StdEncoding.EncodeToString(image))

	var raw ocrResponse
	if err := ocr.PostForm(ctx, p.client, Name, p.endpoint, query, nil, form, &raw); err != nil {
		return "", err
	}

	if raw.ErrorCode != nil {
		if *raw.ErrorCode == codeInvalidToken || *raw.ErrorCode == codeExpiredToken {
			p.tokens.Invalidate(token)
		}
		return "", ocr.VendorError(Name, raw.ErrorMsg)
	}
	if raw.WordsResult == nil {
		return "", ocr.ProtocolError(Name, "unexpected response format", nil)
	}

	lines := make([]string, 0, len(*raw.WordsResult))
	for _, w := range *raw.WordsResult {
		lines = append(lines, w.Words)
	}
	return strings.Join(lines, "\n"), nil
}
