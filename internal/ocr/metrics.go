package ocr

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the OpenTelemetry instruments recorded by the Manager.
// A nil *Metrics records nothing.
type Metrics struct {
	attempts metric.Int64Counter
	duration metric.Float64Histogram
	requests metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	attempts, err := meter.Int64Counter("ocr.attempts",
		metric.WithDescription("Provider attempts by provider and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ocr.attempts counter: %w", err)
	}

	duration, err := meter.Float64Histogram("ocr.attempt.duration",
		metric.WithDescription("Duration of provider attempts in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ocr.attempt.duration histogram: %w", err)
	}

	requests, err := meter.Int64Counter("ocr.requests",
		metric.WithDescription("Recognition requests by final outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ocr.requests counter: %w", err)
	}

	return &Metrics{attempts: attempts, duration: duration, requests: requests}, nil
}

func (m *Metrics) recordAttempt(ctx context.Context, provider string, res Result, d time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if !res.Success {
		outcome = OutcomeFailure
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	)
	m.attempts.Add(ctx, 1, attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
}

func (m *Metrics) recordRequest(ctx context.Context, res Result) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if !res.Success {
		outcome = OutcomeFailure
	}
	m.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
