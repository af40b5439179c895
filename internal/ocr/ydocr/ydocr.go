// Package ydocr adapts the YDOCR page recognition API, which authenticates
// each request with an MD5 signature over the body digest and credentials.
package ydocr

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"net/url"
	"time"

	"ocrgateway/internal/ocr"
)

const (
	// Name tags errors and logs.
	Name                   = "YDOCR"
	DefaultEndpoint        = "http://cn-hangzhou.api.ydocr.com/ocr"
	DefaultBalanceEndpoint = "http://cn-hangzhou.ydocr.com/getBalance"
	DefaultTimeout         = 15 * time.Second
)

// Config holds the user credentials.
type Config struct {
	UserID          string
	UserKey         string
	Endpoint        string
	BalanceEndpoint string
	Timeout         time.Duration
}

// Provider calls YDOCR.
type Provider struct {
	userID          string
	userKey         string
	endpoint        string
	balanceEndpoint string
	client          *http.Client
}

// New creates a Provider.
func New(cfg Config) *Provider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.BalanceEndpoint == "" {
		cfg.BalanceEndpoint = DefaultBalanceEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Provider{
		userID:          cfg.UserID,
		userKey:         cfg.UserKey,
		endpoint:        cfg.Endpoint,
		balanceEndpoint: cfg.BalanceEndpoint,
		client:          ocr.NewHTTPClient(cfg.Timeout),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return Name }

// Recognize posts the raw image bytes with a signed query string.
func (p *Provider) Recognize(ctx context.Context, image []byte) ocr.Result {
	text, err := p.recognize(ctx, image)
	if err != nil {
		return ocr.Failure(err)
	}
	return ocr.Success(text)
}

// CheckAvailability queries the account balance endpoint.
func (p *Provider) CheckAvailability(ctx context.Context) bool {
	payload := map[string]string{
		"userID":          p.userID,
		"signature":       p.userKey,
		"signatureMethod": "secretKey",
	}
	var raw response
	if err := ocr.PostJSON(ctx, p.client, Name, p.balanceEndpoint, payload, &raw); err != nil {
		return false
	}
	return raw.Code != nil && *raw.Code == 0
}

type response struct {
	Code    *int   `json:"code"`
	Message string `json:"message"`
	Data    *struct {
		Text string `json:"text"`
	} `json:"data"`
}

func (p *Provider) recognize(ctx context.Context, image []byte) (string, error) {
	bodyMD5, signature := Sign(image, p.userID, p.userKey)

	query := url.Values{}
	query.Set("userID", p.userID)
	query.Set("signature", signature)
	query.Set("signatureMethod", "md5")
	query.Set("bodyMD5", bodyMD5)
	query.Set("version", "v2")
	query.Set("action", "page")
	query.Set("language", "ch")
	query.Set("rotate", "0")

	var raw response
	if err := ocr.PostBytes(ctx, p.client, Name, p.endpoint, query, "application/octet-stream", image, &raw); err != nil {
		return "", err
	}
	if raw.Code == nil {
		return "", ocr.ProtocolError(Name, "missing code field", nil)
	}
	if *raw.Code != 0 {
		return "", ocr.VendorError(Name, raw.Message)
	}
	if raw.Data == nil {
		return "", nil
	}
	return raw.Data.Text, nil
}

// Sign returns the hex MD5 of body and the request signature
// md5(md5(bodyMD5 + userID + userKey)), both hex encoded.
func Sign(body []byte, userID, userKey string) (bodyMD5, signature string) {
	bodyMD5 = md5Hex(body)
	signature = md5Hex([]byte(md5Hex([]byte(bodyMD5 + userID + userKey))))
	return bodyMD5, signature
}

func md5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
