// Package ocr holds the provider abstraction for third-party OCR services and
// the Manager that falls back through them in a fixed priority order.
package ocr

import "context"

// Provider wraps one vendor's OCR endpoint.
//
// Recognize never returns a Go error: transport, vendor and protocol failures
// are all reported through Result.Error.
type Provider interface {
	// Name identifies the provider (and credential) in logs and error segments.
	Name() string
	// Recognize extracts text from raw image bytes.
	Recognize(ctx context.Context, image []byte) Result
	// CheckAvailability is a best-effort liveness probe.
	CheckAvailability(ctx context.Context) bool
}

// Availability is the outcome of probing one provider.
type Availability struct {
	Provider  string `json:"provider"`
	Available bool   `json:"available"`
}
