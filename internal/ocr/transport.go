package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxResponseBytes caps how much of a vendor response is read.
const maxResponseBytes = 8 << 20

// NewHTTPClient returns a client bounded by timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &http.Client{Transport: transport, Timeout: timeout}
}

// PostForm sends an urlencoded form and decodes the JSON reply into out.
func PostForm(ctx context.Context, client *http.Client, provider, endpoint string, query url.Values, header http.Header, form url.Values, out any) error {
	req, err := newRequest(ctx, provider, endpoint, query, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(client, provider, req, out)
}

// PostBytes sends a raw body and decodes the JSON reply into out.
func PostBytes(ctx context.Context, client *http.Client, provider, endpoint string, query url.Values, contentType string, body []byte, out any) error {
	req, err := newRequest(ctx, provider, endpoint, query, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return do(client, provider, req, out)
}

// PostJSON sends payload as JSON and decodes the JSON reply into out.
func PostJSON(ctx context.Context, client *http.Client, provider, endpoint string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return ProtocolError(provider, "encode request", err)
	}
	return PostBytes(ctx, client, provider, endpoint, nil, "application/json", data, out)
}

func newRequest(ctx context.Context, provider, endpoint string, query url.Values, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, TransportError(provider, fmt.Errorf("create request: %w", err))
	}
	if len(query) > 0 {
		q := req.URL.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}
	return req, nil
}

func do(client *http.Client, provider string, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return TransportError(provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return TransportError(provider, fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return VendorError(provider, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, snippet(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return ProtocolError(provider, "invalid JSON response", err)
	}
	return nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "empty body"
	}
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
