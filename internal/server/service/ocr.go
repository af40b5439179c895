package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ocrgateway/internal/logger"
	"ocrgateway/internal/ocr"
)

// ErrEmptyImage is returned for a zero-length upload or download.
var ErrEmptyImage = errors.New("empty image")

// FetchError reports a failed image download.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Recognizer defines the OCR dependency.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) ocr.Result
	CheckAvailability(ctx context.Context) []ocr.Availability
}

// Options bounds uploads and downloads.
type Options struct {
	MaxUploadBytes int64
	FetchTimeout   time.Duration
	MaxFetchBytes  int64
	// AllowPrivateNetworks lets URL recognition reach loopback and
	// private addresses.
	AllowPrivateNetworks bool
}

// OCRService reads images from uploads or URLs and runs the fallback chain.
type OCRService struct {
	recognizer Recognizer
	client     *http.Client
	opts       Options
	log        *logger.Logger
}

// NewOCRService creates OCRService.
func NewOCRService(rec Recognizer, opts Options) *OCRService {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 15 * time.Second
	}
	return &OCRService{
		recognizer: rec,
		client:     newFetchClient(opts.FetchTimeout, opts.AllowPrivateNetworks),
		opts:       opts,
		log:        logger.Get("service"),
	}
}

// RecognizeUpload reads an uploaded image and recognizes it.
func (s *OCRService) RecognizeUpload(ctx context.Context, r io.Reader) (ocr.Result, error) {
	data, err := ocr.ReadImage(r, s.opts.MaxUploadBytes)
	if err != nil {
		return ocr.Result{}, err
	}
	return s.recognize(ctx, data)
}

// RecognizeURL downloads an image and recognizes it.
func (s *OCRService) RecognizeURL(ctx context.Context, rawURL string) (ocr.Result, error) {
	data, err := s.fetch(ctx, rawURL)
	if err != nil {
		return ocr.Result{}, err
	}
	return s.recognize(ctx, data)
}

// Providers reports provider availability.
func (s *OCRService) Providers(ctx context.Context) []ocr.Availability {
	return s.recognizer.CheckAvailability(ctx)
}

func (s *OCRService) recognize(ctx context.Context, data []byte) (ocr.Result, error) {
	if len(data) == 0 {
		return ocr.Result{}, ErrEmptyImage
	}
	format := ocr.DetectFormat(data)
	s.log.Debug("recognizing image", logger.Fields("bytes", len(data), "format", format.Name))
	return s.recognizer.Recognize(ctx, data), nil
}

func (s *OCRService) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}
	data, err := ocr.ReadImage(resp.Body, s.opts.MaxFetchBytes)
	if errors.Is(err, ocr.ErrImageTooLarge) {
		return nil, err
	}
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	return data, nil
}
