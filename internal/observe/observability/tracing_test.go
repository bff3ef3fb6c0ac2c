package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestOTelTracer_RecordsAttributesAndErrors(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := NewOTelTracer(provider, "test")

	ctx, parent := tracer.StartSpan(context.Background(), "parent")
	require.IsType(t, otelSpan{}, SpanFromContext(ctx))
	_, child := tracer.StartSpan(ctx, "sample.create")
	child.SetAttribute("sample.id", "1")
	child.RecordError(errors.New("boom"))
	child.RecordError(nil)
	child.End()
	parent.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	got := spans[0]
	require.Equal(t, "sample.create", got.Name())
	require.Equal(t, spans[1].SpanContext().SpanID(), got.Parent().SpanID())
	require.Contains(t, got.Attributes(), attribute.String("sample.id", "1"))
	require.Equal(t, codes.Error, got.Status().Code)
	require.Len(t, got.Events(), 1)
}

func TestSpanFromContext_NoSpan(t *testing.T) {
	t.Parallel()

	span := SpanFromContext(context.Background())
	require.Equal(t, NoopSpan{}, span)
	span.SetAttribute("k", "v")
	span.RecordError(errors.New("ignored"))
	span.End()

	_, noop := NoopTracer{}.StartSpan(context.Background(), "x")
	require.Equal(t, NoopSpan{}, noop)
}

func TestNewTracerProvider_StdoutExporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	provider, err := NewTracerProvider(TracingOptions{ServiceName: "svc", Exporter: "stdout", SampleRatio: 1, Writer: &buf})
	require.NoError(t, err)

	_, span := NewOTelTracer(provider, "test").StartSpan(context.Background(), "exported")
	span.End()
	require.NoError(t, provider.Shutdown(context.Background()))

	require.Contains(t, buf.String(), `"Name":"exported"`)
	require.Contains(t, buf.String(), `"svc"`)
}

func TestNewTracerProvider_RatioZeroDropsRoots(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	provider, err := NewTracerProvider(TracingOptions{Exporter: "console", SampleRatio: 0, Writer: &buf})
	require.NoError(t, err)

	_, span := NewOTelTracer(provider, "test").StartSpan(context.Background(), "dropped")
	span.End()
	require.NoError(t, provider.Shutdown(context.Background()))
	require.NotContains(t, buf.String(), "dropped")
}

func TestNewTracerProvider_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewTracerProvider(TracingOptions{SampleRatio: 1.5})
	require.Error(t, err)

	_, err = NewTracerProvider(TracingOptions{Exporter: "jaeger", SampleRatio: 1})
	require.Error(t, err)

	provider, err := NewTracerProvider(TracingOptions{Exporter: "none", SampleRatio: 1})
	require.NoError(t, err)
	require.NoError(t, provider.Shutdown(context.Background()))
}
