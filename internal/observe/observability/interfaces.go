// Package observability defines logging, tracing and metrics interfaces.
package observability

import (
	"context"
	"time"
)

// Logger provides structured logging hooks.
type Logger interface {
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// Span captures tracing span operations.
type Span interface {
	SetAttribute(key, value string)
	RecordError(err error)
	End()
}

// Tracer is an optional tracing dependency.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Metrics records service measurements.
type Metrics interface {
	ObserveRequest(route, method string, status int, d time.Duration)
	IncPanic(route string)
	IncSampleCreated()
}
