package instrumentation

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const meterName = "github.com/hal9000y/gmail-reader"

// Config controls the provider.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
}

// Provider owns the meter provider and the Prometheus registry it feeds.
type Provider struct {
	meterProvider *metric.MeterProvider
	registry      *prometheus.Registry
	metrics       *Metrics
}

// NewProvider creates a provider. A disabled provider hands out a no-op
// Metrics and serves 404 on its handler.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{metrics: &Metrics{}}, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	return newProvider(metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(exporter),
	), registry)
}

// NewProviderWithReader builds an enabled provider on an arbitrary reader.
// Tests use it with a manual reader.
func NewProviderWithReader(reader metric.Reader) (*Provider, error) {
	return newProvider(metric.NewMeterProvider(metric.WithReader(reader)), nil)
}

func newProvider(mp *metric.MeterProvider, registry *prometheus.Registry) (*Provider, error) {
	m, err := NewMetrics(mp.Meter(meterName))
	if err != nil {
		_ = mp.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create metrics recorder: %w", err)
	}

	return &Provider{
		meterProvider: mp,
		registry:      registry,
		metrics:       m,
	}, nil
}

// Metrics returns the recorder; never nil.
func (p *Provider) Metrics() *Metrics {
	return p.metrics
}

// Handler serves the Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	if p.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Enabled reports whether metrics are being collected.
func (p *Provider) Enabled() bool {
	return p.meterProvider != nil
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.meterProvider == nil {
		return nil
	}
	if err := p.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}
