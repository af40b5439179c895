package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"ocrgateway/internal/bootstrap"
	"ocrgateway/internal/config"
	"ocrgateway/internal/ocr"
)

func fakeOCRSpace(t *testing.T, text string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"OCRExitCode":   1,
			"ParsedResults": []map[string]any{{"ParsedText": text}},
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testConfig(endpoint, apiKey string) *config.Config {
	cfg := &config.Config{}
	cfg.Server = config.ServerConfig{Port: "0", APIKey: apiKey, MaxUploadMB: 1}
	cfg.OCRSpace = config.OCRSpaceConfig{Keys: []string{"k1"}, Endpoint: endpoint}
	return cfg
}

func TestServer_OCRFlowWithAPIKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := testConfig(fakeOCRSpace(t, "hello world").URL, "secret")
	manager, err := bootstrap.NewManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ts := httptest.NewServer(NewHandler(cfg, manager))
	defer ts.Close()

	// Missing key => 401
	resp, err := http.DefaultClient.Do(newImageRequest(t, ts.URL+"/api/v1/ocr/image"))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", resp.StatusCode)
	}

	// Include key => 200
	req := newImageRequest(t, ts.URL+"/api/v1/ocr/image")
	req.Header.Set("x-api-key", "secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	var res ocr.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Success || res.Text != "hello world" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestServer_LegacyEndpointWithoutAPIKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := testConfig(fakeOCRSpace(t, "legacy").URL, "")
	manager, err := bootstrap.NewManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ts := httptest.NewServer(NewHandler(cfg, manager))
	defer ts.Close()

	resp, err := http.DefaultClient.Do(newImageRequest(t, ts.URL+"/ocr"))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK || string(body) != `{"success":true,"text":"legacy"}` {
		t.Fatalf("unexpected response %d: %s", resp.StatusCode, body)
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, ln, http.NotFoundHandler(), time.Second)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func newImageRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "sample.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("\x89PNG\r\n\x1a\n"))
	writer.Close()

	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
