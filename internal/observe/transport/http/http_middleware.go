// Package httptransport provides HTTP middleware.
package httptransport

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"observe/internal/observe/core"
	"observe/internal/observe/observability"
)

const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// instrument wraps a route handler, outermost first, with a server span,
// the drain gate, access logging and metrics, and panic recovery.
func (t *HTTPTransport) instrument(route string, fn http.HandlerFunc) http.Handler {
	var handler http.Handler = fn
	handler = t.recoverer(route, handler)
	handler = t.observe(route, handler)
	handler = t.drainGate(handler)
	if t.tracerProvider != nil {
		handler = otelhttp.NewHandler(handler, route,
			otelhttp.WithTracerProvider(t.tracerProvider),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + route
			}),
		)
	}
	return handler
}

func (t *HTTPTransport) drainGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if t.inflight == nil {
			next.ServeHTTP(w, r)
			return
		}
		if !t.inflight.Begin() {
			writeJSON(w, http.StatusServiceUnavailable, httpErrorResponse{Error: core.ErrUnavailable.Error()})
			return
		}
		defer t.inflight.End()
		next.ServeHTTP(w, r)
	})
}

func (t *HTTPTransport) observe(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, requestID))

		m := httpsnoop.CaptureMetrics(next, w, r)
		if t.metrics != nil {
			t.metrics.ObserveRequest(route, r.Method, m.Code, m.Duration)
		}
		if t.logger != nil {
			t.logger.Info("http request", map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"route":       route,
				"status":      m.Code,
				"bytes":       m.Written,
				"duration_ms": m.Duration.Milliseconds(),
				"request_id":  requestID,
			})
		}
	})
}

// recoverer is the fault boundary: a panicking handler becomes a 500.
func (t *HTTPTransport) recoverer(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", rec)
			}
			observability.SpanFromContext(r.Context()).RecordError(err)
			if t.metrics != nil {
				t.metrics.IncPanic(route)
			}
			if t.logger != nil {
				t.logger.Error("http handler panic", map[string]any{
					"method":     r.Method,
					"path":       r.URL.Path,
					"panic":      err.Error(),
					"stack":      string(debug.Stack()),
					"request_id": requestIDFrom(r.Context()),
				})
			}
			writeJSON(w, http.StatusInternalServerError, httpErrorResponse{Error: http.StatusText(http.StatusInternalServerError)})
		}()
		next.ServeHTTP(w, r)
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
