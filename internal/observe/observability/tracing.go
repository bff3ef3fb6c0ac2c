// Package observability provides tracing helpers.
package observability

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// NoopTracer is a tracer that records nothing.
type NoopTracer struct{}

// NoopSpan is a span that records nothing.
type NoopSpan struct{}

// StartSpan starts a span that does nothing.
func (t NoopTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	return ctx, NoopSpan{}
}

// SetAttribute is a no-op.
func (s NoopSpan) SetAttribute(key, value string) {}

// RecordError is a no-op.
func (s NoopSpan) RecordError(err error) {}

// End is a no-op.
func (s NoopSpan) End() {}

// TracingOptions configures NewTracerProvider.
type TracingOptions struct {
	ServiceName string
	// Exporter is "stdout" or "none".
	Exporter    string
	SampleRatio float64
	Writer      io.Writer
}

// NewTracerProvider builds an SDK provider that batches spans to a console
// exporter, sampling root spans by ratio.
func NewTracerProvider(opts TracingOptions) (*sdktrace.TracerProvider, error) {
	name := opts.ServiceName
	if name == "" {
		name = "observe"
	}
	ratio := opts.SampleRatio
	if ratio < 0 || ratio > 1 {
		return nil, errors.New("trace sample ratio must be between 0 and 1")
	}
	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
	}
	switch strings.ToLower(opts.Exporter) {
	case "", "stdout", "console":
		w := opts.Writer
		if w == nil {
			w = os.Stdout
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, err
		}
		providerOpts = append(providerOpts, sdktrace.WithBatcher(exporter))
	case "none":
	default:
		return nil, errors.New("unknown trace exporter " + opts.Exporter)
	}
	return sdktrace.NewTracerProvider(providerOpts...), nil
}

// OTelTracer adapts an OpenTelemetry tracer to the Tracer interface.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer returns a Tracer backed by the provider.
func NewOTelTracer(provider trace.TracerProvider, instrumentation string) OTelTracer {
	return OTelTracer{tracer: provider.Tracer(instrumentation)}
}

// StartSpan starts a child span of whatever span ctx carries.
func (t OTelTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	if t.tracer == nil {
		return ctx, NoopSpan{}
	}
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s otelSpan) SetAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

func (s otelSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s otelSpan) End() {
	s.span.End()
}

// SpanFromContext wraps the span already active in ctx, if any.
func SpanFromContext(ctx context.Context) Span {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return NoopSpan{}
	}
	return otelSpan{span: span}
}
