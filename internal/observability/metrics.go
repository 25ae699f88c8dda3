// Package observability provides the optional OTLP metrics pipeline for the
// worker runtime. It is adapted from this stack's tracer/meter/logger
// bootstrap, trimmed to the metrics half: a single-host CLI has no inbound
// request spans to trace and already logs through log/slog directly, so
// the tracing and log-bridge providers aren't wired here (see DESIGN.md).
package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// DefaultServiceName is used when Config.ServiceName is empty.
const DefaultServiceName = "queuectl"

// Config controls whether the metrics pipeline talks to a real OTLP
// collector or stays a local no-op.
type Config struct {
	Enabled     bool
	ServiceName string
}

func (c Config) serviceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

// newResource mirrors this stack's resource.Merge pattern: SDK defaults
// merged with whatever OTEL_RESOURCE_ATTRIBUTES/OTEL_SERVICE_NAME supply.
func newResource(ctx context.Context) (*resource.Resource, error) {
	serviceResource, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithSchemaURL(semconv.SchemaURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create service resource: %w", err)
	}

	res, err := resource.Merge(resource.Default(), serviceResource)
	if err != nil {
		if errors.Is(err, resource.ErrPartialResource) || errors.Is(err, resource.ErrSchemaURLConflict) {
			return res, nil
		}
		return nil, fmt.Errorf("failed to merge resources: %w", err)
	}
	return res, nil
}

// Metrics holds the job-lifecycle instruments the worker runtime reports to.
// Every method is a nil-receiver no-op, so a disabled pipeline needs no
// branching at the call sites in internal/worker.
type Metrics struct {
	provider  *sdkmetric.MeterProvider
	claimed   metric.Int64Counter
	completed metric.Int64Counter
	failed    metric.Int64Counter
	dead      metric.Int64Counter
	duration  metric.Float64Histogram
}

// New builds the metrics pipeline. When cfg.Enabled is false it still
// returns a usable *Metrics, backed by a no-op MeterProvider, rather than
// nil — callers never need a "metrics configured?" branch.
func New(ctx context.Context, cfg Config) (*Metrics, error) {
	var provider *sdkmetric.MeterProvider

	if !cfg.Enabled {
		provider = sdkmetric.NewMeterProvider()
	} else {
		res, err := newResource(ctx)
		if err != nil {
			return nil, err
		}

		exporter, err := otlpmetrichttp.New(context.Background(), otlpmetrichttp.WithTimeout(10*time.Second))
		if err != nil {
			return nil, fmt.Errorf("failed to create metric exporter: %w", err)
		}

		provider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))),
		)
	}
	otel.SetMeterProvider(provider)

	meter := provider.Meter(cfg.serviceName())
	m := &Metrics{provider: provider}

	var err error
	if m.claimed, err = meter.Int64Counter("queuectl.jobs.claimed"); err != nil {
		return nil, fmt.Errorf("failed to create claimed counter: %w", err)
	}
	if m.completed, err = meter.Int64Counter("queuectl.jobs.completed"); err != nil {
		return nil, fmt.Errorf("failed to create completed counter: %w", err)
	}
	if m.failed, err = meter.Int64Counter("queuectl.jobs.failed"); err != nil {
		return nil, fmt.Errorf("failed to create failed counter: %w", err)
	}
	if m.dead, err = meter.Int64Counter("queuectl.jobs.dead"); err != nil {
		return nil, fmt.Errorf("failed to create dead counter: %w", err)
	}
	if m.duration, err = meter.Float64Histogram("queuectl.jobs.duration_seconds"); err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}
	return m, nil
}

// Claimed records a successful claim.
func (m *Metrics) Claimed(ctx context.Context) {
	if m == nil {
		return
	}
	m.claimed.Add(ctx, 1)
}

// Completed records a job finishing successfully, d measured claim-to-finish.
func (m *Metrics) Completed(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	m.completed.Add(ctx, 1)
	m.duration.Record(ctx, d.Seconds())
}

// Failed records a job being scheduled for retry.
func (m *Metrics) Failed(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	m.failed.Add(ctx, 1)
	m.duration.Record(ctx, d.Seconds())
}

// Dead records a job exhausting its retries.
func (m *Metrics) Dead(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	m.dead.Add(ctx, 1)
	m.duration.Record(ctx, d.Seconds())
}

// Shutdown flushes and releases the underlying provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
