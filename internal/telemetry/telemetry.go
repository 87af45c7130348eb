// Package telemetry provides OpenTelemetry integration for crashreporter.
//
// Telemetry is disabled by default. Enabling it requires an exporter; the
// stdout exporters pretty-print spans and metrics to stderr.
//
//	telemetry.enabled: true   (CRASHREPORTER_TELEMETRY_ENABLED=true)
//	telemetry.stdout:  true   (CRASHREPORTER_TELEMETRY_STDOUT=true)
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationScope = "github.com/andywolf/crashreporter"

var shutdownFns []func(context.Context) error

// exportWriter receives stdout exporter output.
var exportWriter io.Writer = os.Stderr

// Options selects which providers Init installs.
type Options struct {
	Enabled bool
	Stdout  bool
}

// ErrNoExporter is returned by Init when telemetry is enabled without any
// exporter to send it to.
var ErrNoExporter = errors.New("telemetry: enabled but no exporter configured (set telemetry.stdout)")

// Init configures OTel providers. When telemetry is disabled this installs
// no-op providers and returns immediately.
func Init(ctx context.Context, serviceName, version string, opts Options) error {
	if !opts.Enabled {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return nil
	}
	if !opts.Stdout {
		return ErrNoExporter
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version),
		),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return fmt.Errorf("telemetry: resource: %w", err)
	}

	traceOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	metricOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	texp, err := stdouttrace.New(stdouttrace.WithWriter(exportWriter), stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("telemetry: stdout trace exporter: %w", err)
	}
	traceOpts = append(traceOpts, sdktrace.WithBatcher(texp))

	mexp, err := stdoutmetric.New(stdoutmetric.WithWriter(exportWriter))
	if err != nil {
		return fmt.Errorf("telemetry: stdout metric exporter: %w", err)
	}
	metricOpts = append(metricOpts, sdkmetric.WithReader(
		sdkmetric.NewPeriodicReader(mexp, sdkmetric.WithInterval(15*time.Second)),
	))

	tp := sdktrace.NewTracerProvider(traceOpts...)
	otel.SetTracerProvider(tp)
	shutdownFns = append(shutdownFns, tp.Shutdown)

	mp := sdkmetric.NewMeterProvider(metricOpts...)
	otel.SetMeterProvider(mp)
	shutdownFns = append(shutdownFns, mp.Shutdown)

	return nil
}

// Tracer returns a tracer with the given instrumentation name (or the global scope).
func Tracer(name string) trace.Tracer {
	if name == "" {
		name = instrumentationScope
	}
	return otel.Tracer(name)
}

// Meter returns a meter with the given instrumentation name (or the global scope).
func Meter(name string) metric.Meter {
	if name == "" {
		name = instrumentationScope
	}
	return otel.Meter(name)
}

// Shutdown flushes all spans/metrics and shuts down OTel providers.
func Shutdown(ctx context.Context) {
	for _, fn := range shutdownFns {
		_ = fn(ctx)
	}
	shutdownFns = nil
}
