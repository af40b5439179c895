// Package ocrspace adapts the OCR.space parse/image API.
package ocrspace

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ocrgateway/internal/ocr"
)

const (
	// Name tags errors and logs.
	Name            = "OCR.space"
	DefaultEndpoint = "https://api.ocr.space/parse/image"
	DefaultLanguage = "chs"
	DefaultEngine   = 2
	DefaultTimeout  = 15 * time.Second
)

// Config holds one OCR.space credential and request options.
type Config struct {
	APIKey   string
	Endpoint string
	Language string
	Engine   int
	Timeout  time.Duration
	// Label overrides the provider name, e.g. "OCR.space#2".
	Label string
}

// Provider calls OCR.space with a single API key.
type Provider struct {
	name     string
	apiKey   string
	endpoint string
	language string
	engine   int
	client   *http.Client
}

// New creates a Provider, filling unset options with defaults.
func New(cfg Config) *Provider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Engine == 0 {
		cfg.Engine = DefaultEngine
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Label == "" {
		cfg.Label = Name
	}
	return &Provider{
		name:     cfg.Label,
		apiKey:   cfg.APIKey,
		endpoint: cfg.Endpoint,
		language: cfg.Language,
		engine:   cfg.Engine,
		client:   ocr.NewHTTPClient(cfg.Timeout),
	}
}

// Name returns the provider label.
func (p *Provider) Name() string { return p.name }

// Recognize posts the image as a base64 data URI.
func (p *Provider) Recognize(ctx context.Context, image []byte) ocr.Result {
	text, err := p.recognize(ctx, image)
	if err != nil {
		return ocr.Failure(err)
	}
	return ocr.Success(text)
}

// CheckAvailability recognizes a 1x1 PNG.
func (p *Provider) CheckAvailability(ctx context.Context) bool {
	return p.Recognize(ctx, probeImage).Success
}

type parseResponse struct {
	OCRExitCode   *json.Number    `json:"OCRExitCode"`
	ErrorMessage  json.RawMessage `json:"ErrorMessage"`
	ErrorDetails  string          `json:"ErrorDetails"`
	ParsedResults []struct {
		ParsedText   string `json:"ParsedText"`
		ErrorMessage string `json:"ErrorMessage"`
	} `json:"ParsedResults"`
}

func (p *Provider) recognize(ctx context.Context, image []byte) (string, error) {
	format := ocr.DetectFormat(image)

	form := url.Values{}
	form.Set("language", p.language)
	form.Set("isOverlayRequired", "false")
	form.Set("detectOrientation", "false")
	form.Set("OCREngine", strconv.Itoa(p.engine))
	form.Set("scale", "true")
	if format.FileType != "" {
		form.Set("filetype", format.FileType)
	}
	form.Set("base64Image", fmt.Sprintf("data:%s;base64,%s", format.MIME, base64.StdEncoding.EncodeToString(image)))

	header := http.Header{}
	header.Set("apikey", p.apiKey)

	var raw parseResponse
	if err := ocr.PostForm(ctx, p.client, p.name, p.endpoint, nil, header, form, &raw); err != nil {
		return "", err
	}
	if raw.OCRExitCode == nil {
		return "", ocr.ProtocolError(p.name, "missing OCRExitCode", nil)
	}

	if raw.OCRExitCode.String() == "1" && len(raw.ParsedResults) > 0 {
		return raw.ParsedResults[0].ParsedText, nil
	}
	return "", ocr.VendorError(p.name, raw.message())
}

// message extracts the vendor error; ErrorMessage is a string or a list of strings.
func (r *parseResponse) message() string {
	var single string
	if err := json.Unmarshal(r.ErrorMessage, &single); err == nil && single != "" {
		return single
	}
	var list []string
	if err := json.Unmarshal(r.ErrorMessage, &list); err == nil && len(list) > 0 {
		return strings.Join(list, "; ")
	}
	if r.ErrorDetails != "" {
		return r.ErrorDetails
	}
	for _, pr := range r.ParsedResults {
		if pr.ErrorMessage != "" {
			return pr.ErrorMessage
		}
	}
	return ""
}

var probeImage = func() []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1)))
	return buf.Bytes()
}()
