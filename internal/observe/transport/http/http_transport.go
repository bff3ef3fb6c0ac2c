// Package httptransport provides an HTTP transport.
package httptransport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"observe/internal/observe/core"
	"observe/internal/observe/observability"
)

// HTTPTransport serves the demo and sample APIs over HTTP.
type HTTPTransport struct {
	addr           string
	srv            *http.Server
	lis            net.Listener
	demo           core.DemoService
	samples        core.SampleCreator
	appReady       func() bool
	metrics        observability.Metrics
	metricsHandler http.Handler
	tracerProvider trace.TracerProvider
	inflight       *core.InFlight
	mux            http.Handler
	mu             sync.Mutex
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
	maxBodyBytes   int64
	logger         observability.Logger
}

// HTTPTransportConfig configures the HTTP transport.
type HTTPTransportConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxBodyBytes   int64
	Logger         observability.Logger
	Metrics        observability.Metrics
	MetricsHandler http.Handler
	TracerProvider trace.TracerProvider
	InFlight       *core.InFlight
}

// NewHTTPTransport constructs a transport bound to an address.
func NewHTTPTransport(addr string, ready func() bool) *HTTPTransport {
	if addr == "" {
		addr = ":8000"
	}
	if ready == nil {
		ready = func() bool { return false }
	}
	return &HTTPTransport{addr: addr, appReady: ready}
}

// ServeDemo registers the synthetic endpoint service.
func (t *HTTPTransport) ServeDemo(service core.DemoService) error {
	if service == nil {
		return errors.New("demo service is required")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.demo = service
	return nil
}

// ServeSamples registers the sample creation service.
func (t *HTTPTransport) ServeSamples(service core.SampleCreator) error {
	if service == nil {
		return errors.New("sample service is required")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = service
	return nil
}

// Listen binds the listener without serving, so callers can learn the port.
func (t *HTTPTransport) Listen() (net.Addr, error) {
	if t == nil {
		return nil, errors.New("http transport is nil")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lis == nil {
		lis, err := net.Listen("tcp", t.addr)
		if err != nil {
			return nil, err
		}
		t.lis = lis
	}
	return t.lis.Addr(), nil
}

// Start begins serving HTTP requests.
func (t *HTTPTransport) Start() error {
	if t == nil {
		return errors.New("http transport is nil")
	}
	handler, err := t.handler()
	if err != nil {
		return err
	}
	if _, err := t.Listen(); err != nil {
		return err
	}
	t.mu.Lock()
	if t.srv == nil {
		t.srv = &http.Server{
			Addr:         t.addr,
			Handler:      handler,
			ReadTimeout:  t.readTimeout,
			WriteTimeout: t.writeTimeout,
			IdleTimeout:  t.idleTimeout,
		}
	}
	srv := t.srv
	listener := t.lis
	t.mu.Unlock()

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Configure applies transport configuration values.
func (t *HTTPTransport) Configure(cfg HTTPTransportConfig) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readTimeout = cfg.ReadTimeout
	t.writeTimeout = cfg.WriteTimeout
	t.idleTimeout = cfg.IdleTimeout
	if cfg.MaxBodyBytes > 0 {
		t.maxBodyBytes = cfg.MaxBodyBytes
	}
	t.logger = cfg.Logger
	t.metrics = cfg.Metrics
	t.metricsHandler = cfg.MetricsHandler
	t.tracerProvider = cfg.TracerProvider
	t.inflight = cfg.InFlight
}

// Shutdown stops the HTTP server.
func (t *HTTPTransport) Shutdown(ctx context.Context) error {
	if t == nil {
		return errors.New("http transport is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	t.mu.Lock()
	srv := t.srv
	listener := t.lis
	t.mu.Unlock()
	if srv == nil {
		if listener != nil {
			return listener.Close()
		}
		return nil
	}
	return srv.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (t *HTTPTransport) Handler() (http.Handler, error) {
	return t.handler()
}

func (t *HTTPTransport) handler() (http.Handler, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mux != nil {
		return t.mux, nil
	}
	if t.demo == nil || t.samples == nil {
		return nil, errors.New("services must be registered before starting")
	}
	mux := http.NewServeMux()
	t.registerRoutes(mux)
	t.mux = mux
	return mux, nil
}
