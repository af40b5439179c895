package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ocrgateway/internal/logger"
)

// ErrorSeparator joins per-attempt errors in an aggregated failure.
const ErrorSeparator = " | "

const noProviders = "no OCR providers configured"

// Manager runs one recognition through the configured providers in a fixed
// order: every credential of the rotation stage first, then each fallback
// provider once. The first success wins; no attempt is retried.
type Manager struct {
	rotation  *Rotation
	fallbacks []Provider
	metrics   *Metrics
	log       *logger.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithRotation sets the first stage: interchangeable credentials of one vendor.
func WithRotation(r *Rotation) Option {
	return func(m *Manager) { m.rotation = r }
}

// WithFallback appends providers tried once each, after the rotation stage.
func WithFallback(providers ...Provider) Option {
	return func(m *Manager) { m.fallbacks = append(m.fallbacks, providers...) }
}

// WithMetrics records attempt metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithLogger overrides the component logger.
func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager creates a Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logger.Get("ocr")
	}
	return m
}

// Rotation returns the first-stage rotation, which may be nil.
func (m *Manager) Rotation() *Rotation {
	return m.rotation
}

// Providers returns provider names in attempt order, as of the current cursor.
func (m *Manager) Providers() []string {
	var names []string
	for _, s := range m.rotation.order() {
		names = append(names, s.provider.Name())
	}
	for _, p := range m.fallbacks {
		names = append(names, p.Name())
	}
	return names
}

// Recognize returns the first successful result, or a failure whose error
// joins one segment per attempted provider. It never panics on provider faults.
func (m *Manager) Recognize(ctx context.Context, image []byte) Result {
	var errs []string

	for _, s := range m.rotation.order() {
		res := m.attempt(ctx, s.provider, image)
		if res.Success {
			m.rotation.advance(s.index)
			m.metrics.recordRequest(ctx, res)
			return res
		}
		errs = append(errs, res.Error)
	}

	for _, p := range m.fallbacks {
		res := m.attempt(ctx, p, image)
		if res.Success {
			m.metrics.recordRequest(ctx, res)
			return res
		}
		errs = append(errs, res.Error)
	}

	var res Result
	if len(errs) == 0 {
		res = Failed(noProviders)
	} else {
		res = Failed(strings.Join(errs, ErrorSeparator))
	}
	m.log.Error("all OCR providers failed", logger.Fields("attempts", len(errs), logger.FieldError, res.Error))
	m.metrics.recordRequest(ctx, res)
	return res
}

// CheckAvailability probes every configured provider in attempt order.
func (m *Manager) CheckAvailability(ctx context.Context) []Availability {
	var providers []Provider
	providers = append(providers, m.rotation.Providers()...)
	providers = append(providers, m.fallbacks...)

	out := make([]Availability, 0, len(providers))
	for _, p := range providers {
		out = append(out, Availability{Provider: p.Name(), Available: probe(ctx, p)})
	}
	return out
}

func (m *Manager) attempt(ctx context.Context, p Provider, image []byte) (res Result) {
	name := p.Name()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res = Failed(fmt.Sprintf("%s panic: %v", name, r))
		}
		res = tag(name, normalize(res))

		d := time.Since(start)
		fields := logger.Fields(logger.FieldProvider, name)
		if res.Success {
			m.log.Info("recognition succeeded", fields, logger.DurationFields(d))
		} else {
			fields[logger.FieldError] = res.Error
			m.log.Warn("recognition failed", fields, logger.DurationFields(d))
		}
		m.metrics.recordAttempt(ctx, name, res, d)
	}()

	m.log.Debug("trying provider", logger.Fields(logger.FieldProvider, name, "bytes", len(image)))
	return p.Recognize(ctx, image)
}

func probe(ctx context.Context, p Provider) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return p.CheckAvailability(ctx)
}

// normalize enforces that exactly one of Text and Error is set.
func normalize(res Result) Result {
	if res.Success {
		return Success(res.Text)
	}
	return Failed(res.Error)
}

// tag prefixes a failure with the provider name unless already present.
func tag(name string, res Result) Result {
	if res.Success || strings.HasPrefix(res.Error, name) {
		return res
	}
	return Failed(name + ": " + res.Error)
}
