// Package app wires application dependencies.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"observe/internal/observe/config"
	"observe/internal/observe/core"
	"observe/internal/observe/observability"
	"observe/internal/observe/store/inmemory"
	"observe/internal/observe/store/sqlite"
	grpctransport "observe/internal/observe/transport/grpc"
	httptransport "observe/internal/observe/transport/http"
)

// Application holds core components for the service.
type Application struct {
	Config         *config.Config
	Store          core.SampleStore
	Simulator      *core.Simulator
	SampleService  *core.SampleService
	Metrics        *observability.PromMetrics
	TracerProvider *sdktrace.TracerProvider
	ready          atomic.Bool
	httpTransport  *httptransport.HTTPTransport
	grpcTransport  *grpctransport.GRPCTransport
	transports     []core.Transport
	inflight       *core.InFlight
	drainTimeout   time.Duration
	logger         observability.Logger
	closers        []io.Closer
	ownsProvider   bool
	wg             sync.WaitGroup
}

// NewApplication validates configuration and prepares the application.
func NewApplication(cfg *config.Config) (*Application, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	app := &Application{
		Config:       cfg,
		inflight:     core.NewInFlight(),
		drainTimeout: cfg.DrainTimeout,
	}

	if cfg.Logger == nil {
		logger, closer, err := observability.NewLogger(observability.LogOptions{
			Level:     cfg.LogLevel,
			Format:    cfg.LogFormat,
			File:      cfg.LogFile,
			MaxSizeMB: cfg.LogMaxSizeMB,
			MaxFiles:  cfg.LogMaxFiles,
		})
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		cfg.Logger = logger
		app.closers = append(app.closers, closer)
	}
	app.logger = cfg.Logger

	store := cfg.Store
	if store == nil {
		opened, err := openStore(cfg)
		if err != nil {
			app.closeAll()
			return nil, err
		}
		store = opened
		app.closers = append(app.closers, opened)
	}
	app.Store = store

	simulator := cfg.Simulator
	if simulator == nil {
		simulator = core.NewSimulator(core.SimulatorOptions{
			FetchMinDelay:   cfg.FetchMinDelay,
			FetchMaxDelay:   cfg.FetchMaxDelay,
			TimeoutDelay:    cfg.TimeoutDelay,
			RandomErrorRate: cfg.RandomErrorRate,
			Seed:            cfg.RandomSeed,
		})
	}
	app.Simulator = simulator

	var metrics observability.Metrics
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		app.Metrics = cfg.Metrics
		if app.Metrics == nil {
			app.Metrics = observability.NewPromMetrics(metricsNamespace(cfg.ServiceName))
		}
		metrics = app.Metrics
		metricsHandler = app.Metrics.Handler()
	}

	var provider trace.TracerProvider
	tracer := observability.Tracer(observability.NoopTracer{})
	if cfg.TraceEnabled {
		app.TracerProvider = cfg.TracerProvider
		if app.TracerProvider == nil {
			tp, err := observability.NewTracerProvider(observability.TracingOptions{
				ServiceName: cfg.ServiceName,
				Exporter:    cfg.TraceExporter,
				SampleRatio: cfg.TraceSampleRatio,
			})
			if err != nil {
				app.closeAll()
				return nil, fmt.Errorf("init tracing: %w", err)
			}
			app.TracerProvider = tp
			app.ownsProvider = true
		}
		provider = app.TracerProvider
		tracer = observability.NewOTelTracer(app.TracerProvider, cfg.ServiceName)
	}

	app.SampleService = core.NewSampleService(store, tracer, metrics)

	transport := httptransport.NewHTTPTransport(cfg.HTTPListenAddr, app.Ready)
	if err := transport.ServeDemo(app.Simulator); err != nil {
		app.closeAll()
		return nil, err
	}
	if err := transport.ServeSamples(app.SampleService); err != nil {
		app.closeAll()
		return nil, err
	}
	transport.Configure(httptransport.HTTPTransportConfig{
		ReadTimeout:    cfg.HTTPReadTimeout,
		WriteTimeout:   cfg.HTTPWriteTimeout,
		IdleTimeout:    cfg.HTTPIdleTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		Logger:         cfg.Logger,
		Metrics:        metrics,
		MetricsHandler: metricsHandler,
		TracerProvider: provider,
		InFlight:       app.inflight,
	})
	app.httpTransport = transport
	app.transports = append(app.transports, transport)

	if cfg.EnableGRPC {
		grpcTransport := grpctransport.NewGRPCTransport(cfg.GRPCListenAddr, app.Ready, grpctransport.GRPCTransportConfig{
			KeepAlive:   cfg.GRPCKeepAlive,
			ServiceName: cfg.ServiceName,
			Logger:      cfg.Logger,
			Metrics:     metrics,
		})
		app.grpcTransport = grpcTransport
		app.transports = append(app.transports, grpcTransport)
	}

	return app, nil
}

func validate(cfg *config.Config) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if cfg.HTTPListenAddr == "" {
		return errors.New("http listen address is required")
	}
	if cfg.EnableGRPC && cfg.GRPCListenAddr == "" {
		return errors.New("grpc listen address is required")
	}
	if cfg.HTTPReadTimeout < 0 {
		return errors.New("http read timeout must be positive")
	}
	if cfg.HTTPWriteTimeout < 0 {
		return errors.New("http write timeout must be positive")
	}
	if cfg.HTTPIdleTimeout < 0 {
		return errors.New("http idle timeout must be positive")
	}
	if cfg.GRPCKeepAlive < 0 {
		return errors.New("grpc keep alive must be positive")
	}
	if cfg.DrainTimeout < 0 {
		return errors.New("drain timeout must be positive")
	}
	if cfg.FetchMinDelay < 0 || cfg.FetchMaxDelay < 0 || cfg.TimeoutDelay < 0 {
		return errors.New("demo delays must be positive")
	}
	if cfg.FetchMaxDelay > 0 && cfg.FetchMinDelay > cfg.FetchMaxDelay {
		return errors.New("fetch min delay must not exceed fetch max delay")
	}
	if cfg.HTTPWriteTimeout > 0 && (cfg.HTTPWriteTimeout < cfg.FetchMaxDelay || cfg.HTTPWriteTimeout < cfg.TimeoutDelay) {
		return errors.New("http write timeout must cover the fetch and timeout delays")
	}
	if cfg.RandomErrorRate < 0 || cfg.RandomErrorRate > 1 {
		return errors.New("random error rate must be between 0 and 1")
	}
	if cfg.TraceSampleRatio < 0 || cfg.TraceSampleRatio > 1 {
		return errors.New("trace sample ratio must be between 0 and 1")
	}
	if cfg.Store == nil {
		switch strings.ToLower(cfg.StoreDriver) {
		case "", config.StoreSQLite:
			if cfg.SQLitePath == "" {
				return errors.New("sqlite path is required")
			}
		case config.StoreMemory:
		default:
			return fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
		}
	}
	return nil
}

func applyDefaults(cfg *config.Config) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "observe"
	}
	if cfg.HTTPReadTimeout == 0 {
		cfg.HTTPReadTimeout = 5 * time.Second
	}
	if cfg.HTTPWriteTimeout == 0 {
		cfg.HTTPWriteTimeout = 30 * time.Second
	}
	if cfg.HTTPIdleTimeout == 0 {
		cfg.HTTPIdleTimeout = 60 * time.Second
	}
	if cfg.GRPCListenAddr == "" {
		cfg.GRPCListenAddr = ":9090"
	}
	if cfg.GRPCKeepAlive == 0 {
		cfg.GRPCKeepAlive = 60 * time.Second
	}
	if cfg.DrainTimeout == 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.StoreDriver == "" {
		cfg.StoreDriver = config.StoreSQLite
	}
}

func openStore(cfg *config.Config) (core.SampleStore, error) {
	switch strings.ToLower(cfg.StoreDriver) {
	case config.StoreMemory:
		return inmemory.NewInMemorySampleStore(nil), nil
	default:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sample store: %w", err)
		}
		return store, nil
	}
}

func metricsNamespace(service string) string {
	return strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(service)
}

// Start begins serving on every enabled transport.
func (app *Application) Start(ctx context.Context) error {
	if app == nil {
		return errors.New("application is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := app.httpTransport.Listen(); err != nil {
		return fmt.Errorf("listen http: %w", err)
	}
	if app.grpcTransport != nil {
		if _, err := app.grpcTransport.Listen(); err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
	}

	app.ready.Store(true)
	app.serve("http", app.httpTransport)
	if app.grpcTransport != nil {
		app.serve("grpc", app.grpcTransport)
	}

	if app.logger != nil {
		app.logger.Info("application started", map[string]any{
			"http_addr":    app.HTTPAddr(),
			"grpc_addr":    app.GRPCAddr(),
			"store":        app.Config.StoreDriver,
			"tracing":      app.Config.TraceEnabled,
		})
	}
	return nil
}

func (app *Application) serve(name string, transport core.Transport) {
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		if err := transport.Start(); err != nil && app.logger != nil {
			app.logger.Error("transport stopped", map[string]any{
				"transport": name,
				"error":     err.Error(),
			})
		}
	}()
}

// Shutdown drains in-flight requests and releases every owned resource.
func (app *Application) Shutdown(ctx context.Context) error {
	if app == nil {
		return errors.New("application is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	app.ready.Store(false)
	if app.grpcTransport != nil {
		app.grpcTransport.SetServing(false)
	}
	if app.logger != nil {
		app.logger.Info("application shutdown", map[string]any{
			"in_flight": app.inflight.Count(),
		})
	}
	app.inflight.Close()
	drainCtx := ctx
	if app.drainTimeout > 0 {
		var cancel context.CancelFunc
		drainCtx, cancel = context.WithTimeout(ctx, app.drainTimeout)
		defer cancel()
	}
	drainErr := app.inflight.Wait(drainCtx)

	var errs []error
	if drainErr != nil {
		errs = append(errs, fmt.Errorf("drain: %w", drainErr))
	}
	for _, transport := range app.transports {
		if err := transport.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}

	if app.ownsProvider && app.TracerProvider != nil {
		if err := app.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer provider: %w", err))
		}
	}
	if err := app.closeAll(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (app *Application) closeAll() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

// Ready reports whether the application has completed startup.
func (app *Application) Ready() bool {
	if app == nil {
		return false
	}
	return app.ready.Load()
}

// HTTPAddr returns the bound HTTP address, binding the listener if needed.
func (app *Application) HTTPAddr() string {
	return listenerAddr(app.httpTransport)
}

// GRPCAddr returns the bound gRPC address, or "" when gRPC is disabled.
func (app *Application) GRPCAddr() string {
	if app.grpcTransport == nil {
		return ""
	}
	return listenerAddr(app.grpcTransport)
}

func listenerAddr(l interface{ Listen() (net.Addr, error) }) string {
	addr, err := l.Listen()
	if err != nil || addr == nil {
		return ""
	}
	return addr.String()
}
