// Package telemetry installs the process-wide OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	ModeOff    = "off"
	ModeOTLP   = "otlp"
	ModeStdout = "stdout"
)

// Shutdown flushes and stops the provider.
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Setup configures tracing for mode. The OTLP exporter reads the standard
// OTEL_EXPORTER_OTLP_* variables; stdout writes pretty JSON spans to w.
func Setup(ctx context.Context, mode, serviceName string, w io.Writer) (Shutdown, error) {
	var exporter sdktrace.SpanExporter
	var err error
	switch mode {
	case "", ModeOff:
		return noop, nil
	case ModeOTLP:
		exporter, err = otlptracehttp.New(ctx)
	case ModeStdout:
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("unknown tracing mode %q", mode)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", mode, err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(time.Second)),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
