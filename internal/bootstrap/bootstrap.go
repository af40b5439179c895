// Package bootstrap wires configuration into a ready OCR manager and the
// process-wide meter provider.
package bootstrap

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"ocrgateway/internal/config"
	"ocrgateway/internal/logger"
	"ocrgateway/internal/ocr"
	"ocrgateway/internal/ocr/baidu"
	"ocrgateway/internal/ocr/ocrspace"
	"ocrgateway/internal/ocr/ydocr"
)

const meterName = "ocrgateway/ocr"

// NewManager builds the provider chain: one OCR.space provider per key in a
// rotation labelled OCR.space#1..n, then Baidu and YDOCR when their credentials are set.
func NewManager(cfg *config.Config) (*ocr.Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}

	var rotation []ocr.Provider
	for i, key := range cfg.OCRSpace.Keys {
		rotation = append(rotation, ocrspace.New(ocrspace.Config{
			APIKey:   key,
			Endpoint: cfg.OCRSpace.Endpoint,
			Language: cfg.OCRSpace.Language,
			Engine:   cfg.OCRSpace.Engine,
			Timeout:  cfg.OCRSpace.Timeout,
			Label:    fmt.Sprintf("%s#%d", ocrspace.Name, i+1),
		}))
	}

	var fallbacks []ocr.Provider
	if cfg.Baidu.Enabled() {
		fallbacks = append(fallbacks, baidu.New(baidu.Config{
			AppID:         cfg.Baidu.AppID,
			APIKey:        cfg.Baidu.APIKey,
			SecretKey:     cfg.Baidu.SecretKey,
			Endpoint:      cfg.Baidu.Endpoint,
			TokenEndpoint: cfg.Baidu.TokenEndpoint,
			Timeout:       cfg.Baidu.Timeout,
			TokenTimeout:  cfg.Baidu.TokenTimeout,
		}))
	}
	if cfg.YDOCR.Enabled() {
		fallbacks = append(fallbacks, ydocr.New(ydocr.Config{
			UserID:          cfg.YDOCR.UserID,
			UserKey:         cfg.YDOCR.UserKey,
			Endpoint:        cfg.YDOCR.Endpoint,
			BalanceEndpoint: cfg.YDOCR.BalanceEndpoint,
			Timeout:         cfg.YDOCR.Timeout,
		}))
	}

	if len(rotation) == 0 && len(fallbacks) == 0 {
		return nil, config.ErrNoProviders
	}

	metrics, err := ocr.NewMetrics(otel.Meter(meterName))
	if err != nil {
		return nil, fmt.Errorf("create ocr metrics: %w", err)
	}

	m := ocr.NewManager(
		ocr.WithRotation(ocr.NewRotation(rotation...)),
		ocr.WithFallback(fallbacks...),
		ocr.WithMetrics(metrics),
	)
	logger.Get("bootstrap").Info("ocr providers configured", logger.Fields(
		"providers", m.Providers(),
		"ocrspace_keys", len(rotation),
	))
	return m, nil
}

// InitMetrics installs an OTLP/HTTP meter provider as the global provider.
// When metrics are disabled the returned shutdown is a no-op.
func InitMetrics(ctx context.Context, cfg config.MetricsConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "ocrgateway"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Get("bootstrap").Info("meter initialized", logger.Fields(
		"service", serviceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp.Shutdown, nil
}
