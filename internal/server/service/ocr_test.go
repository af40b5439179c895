package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"sync/atomic"
	"testing"

	"ocrgateway/internal/ocr"
)

type fakeRecognizer struct {
	result ocr.Result
	calls  int
	last   []byte
}

func (f *fakeRecognizer) Recognize(ctx context.Context, image []byte) ocr.Result {
	f.calls++
	f.last = image
	return f.result
}

func (f *fakeRecognizer) CheckAvailability(ctx context.Context) []ocr.Availability {
	return []ocr.Availability{{Provider: "OCR.space#1", Available: true}}
}

func TestOCRService_RecognizeUpload_Success(t *testing.T) {
	rec := &fakeRecognizer{result: ocr.Success("hello")}
	svc := NewOCRService(rec, Options{MaxUploadBytes: 1 << 20})

	res, err := svc.RecognizeUpload(context.Background(), strings.NewReader("image-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Text != "hello" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if string(rec.last) != "image-bytes" {
		t.Fatalf("expected image to pass through, got %q", rec.last)
	}
}

func TestOCRService_RecognizeUpload_HandledFailureIsNotAnError(t *testing.T) {
	rec := &fakeRecognizer{result: ocr.Failed("OCR.space#1 timeout | Baidu timeout")}
	svc := NewOCRService(rec, Options{})

	res, err := svc.RecognizeUpload(context.Background(), strings.NewReader("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success || res.Error == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestOCRService_RecognizeUpload_Empty(t *testing.T) {
	rec := &fakeRecognizer{}
	svc := NewOCRService(rec, Options{})

	_, err := svc.RecognizeUpload(context.Background(), bytes.NewReader(nil))
	if !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
	if rec.calls != 0 {
		t.Fatal("recognizer must not be called for empty images")
	}
}

func TestOCRService_RecognizeUpload_TooLarge(t *testing.T) {
	svc := NewOCRService(&fakeRecognizer{}, Options{MaxUploadBytes: 4})

	_, err := svc.RecognizeUpload(context.Background(), strings.NewReader("12345"))
	if !errors.Is(err, ocr.ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
}

func TestOCRService_RecognizeURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/img.png":
			w.Write([]byte("png-bytes"))
		case "/empty.png":
		case "/big.png":
			w.Write(bytes.Repeat([]byte("a"), 64))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	rec := &fakeRecognizer{result: ocr.Success("from url")}
	svc := NewOCRService(rec, Options{MaxFetchBytes: 32, AllowPrivateNetworks: true})

	res, err := svc.RecognizeURL(context.Background(), ts.URL+"/img.png")
	if err != nil || res.Text != "from url" || string(rec.last) != "png-bytes" {
		t.Fatalf("unexpected result %+v err=%v last=%q", res, err, rec.last)
	}

	_, err = svc.RecognizeURL(context.Background(), ts.URL+"/missing.png")
	var fe *FetchError
	if !errors.As(err, &fe) || !strings.Contains(fe.Error(), "HTTP 404") {
		t.Fatalf("expected fetch error, got %v", err)
	}

	if _, err := svc.RecognizeURL(context.Background(), ts.URL+"/empty.png"); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
	if _, err := svc.RecognizeURL(context.Background(), ts.URL+"/big.png"); !errors.Is(err, ocr.ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
}

func TestOCRService_RecognizeURL_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	svc := NewOCRService(&fakeRecognizer{}, Options{AllowPrivateNetworks: true})
	_, err := svc.RecognizeURL(context.Background(), url+"/img.png")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestOCRService_Providers(t *testing.T) {
	svc := NewOCRService(&fakeRecognizer{}, Options{})
	got := svc.Providers(context.Background())
	if len(got) != 1 || got[0].Provider != "OCR.space#1" || !got[0].Available {
		t.Fatalf("unexpected availability: %+v", got)
	}
}

func TestOCRService_RecognizeURL_RejectsInternalAddresses(t *testing.T) {
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("instance metadata"))
	}))
	defer internal.Close()

	rec := &fakeRecognizer{result: ocr.Success("leaked")}
	svc := NewOCRService(rec, Options{})

	_, err := svc.RecognizeURL(context.Background(), internal.URL+"/latest/meta-data")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if !errors.Is(err, ErrForbiddenAddress) {
		t.Fatalf("expected ErrForbiddenAddress in chain, got %v", err)
	}
	if rec.calls != 0 {
		t.Fatal("internal content must not reach the recognizer")
	}
}

func TestOCRService_RecognizeURL_Redirects(t *testing.T) {
	var hops atomic.Int32
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/loop":
			hops.Add(1)
			http.Redirect(w, r, ts.URL+"/loop", http.StatusFound)
		case "/once":
			http.Redirect(w, r, ts.URL+"/img.png", http.StatusFound)
		default:
			w.Write([]byte("png-bytes"))
		}
	}))
	defer ts.Close()

	rec := &fakeRecognizer{result: ocr.Success("ok")}
	svc := NewOCRService(rec, Options{AllowPrivateNetworks: true})

	if _, err := svc.RecognizeURL(context.Background(), ts.URL+"/once"); err != nil {
		t.Fatalf("single redirect should be followed: %v", err)
	}
	_, err := svc.RecognizeURL(context.Background(), ts.URL+"/loop")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected fetch error for redirect loop, got %v", err)
	}
	if hops.Load() != maxRedirects+1 {
		t.Fatalf("expected %d hops, got %d", maxRedirects+1, hops.Load())
	}
}

func TestPublicAddr(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"8.8.8.8", true},
		{"2606:4700:4700::1111", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"10.1.2.3", false},
		{"172.16.0.1", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"fe80::1", false},
		{"fc00::1", false},
		{"0.0.0.0", false},
		{"::ffff:127.0.0.1", false},
		{"100.64.0.1", false},
		{"224.0.0.1", false},
	}
	for _, tt := range tests {
		if got := publicAddr(netip.MustParseAddr(tt.addr)); got != tt.want {
			t.Errorf("%s: expected %v got %v", tt.addr, tt.want, got)
		}
	}
}
