// Package grpctransport serves the standard gRPC health protocol.
package grpctransport

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	"observe/internal/observe/observability"
)

// GRPCTransport exposes grpc.health.v1.Health mirroring application readiness.
type GRPCTransport struct {
	addr   string
	lis    net.Listener
	srv    *grpc.Server
	health *health.Server
	ready  func() bool
	cfg    GRPCTransportConfig
	mu     sync.Mutex
}

// GRPCTransportConfig configures the gRPC transport.
type GRPCTransportConfig struct {
	KeepAlive   time.Duration
	ServiceName string
	Logger      observability.Logger
	Metrics     observability.Metrics
}

// NewGRPCTransport constructs a transport bound to an address.
func NewGRPCTransport(addr string, ready func() bool, cfg GRPCTransportConfig) *GRPCTransport {
	if addr == "" {
		addr = ":9090"
	}
	if ready == nil {
		ready = func() bool { return false }
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = 60 * time.Second
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "observe"
	}
	return &GRPCTransport{addr: addr, ready: ready, cfg: cfg, health: health.NewServer()}
}

// Listen binds the listener without serving.
func (t *GRPCTransport) Listen() (net.Addr, error) {
	if t == nil {
		return nil, errors.New("grpc transport is nil")
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

// Start begins serving gRPC requests.
func (t *GRPCTransport) Start() error {
	if t == nil {
		return errors.New("grpc transport is nil")
	}
	if _, err := t.Listen(); err != nil {
		return err
	}
	t.mu.Lock()
	if t.srv == nil {
		opts := []grpc.ServerOption{
			grpc.ChainUnaryInterceptor(grpcRequestIDInterceptor(t.cfg.Logger, t.cfg.Metrics)),
			grpc.ChainStreamInterceptor(grpcStreamLoggingInterceptor(t.cfg.Logger)),
			grpc.KeepaliveParams(keepalive.ServerParameters{Time: t.cfg.KeepAlive}),
		}
		t.srv = grpc.NewServer(opts...)
		healthpb.RegisterHealthServer(t.srv, t.health)
	}
	srv := t.srv
	listener := t.lis
	t.mu.Unlock()

	t.SetServing(t.ready())
	if err := srv.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// SetServing updates the overall and per-service health status.
func (t *GRPCTransport) SetServing(serving bool) {
	if t == nil || t.health == nil {
		return
	}
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	t.health.SetServingStatus("", status)
	t.health.SetServingStatus(t.cfg.ServiceName, status)
}

// Shutdown stops the gRPC server.
func (t *GRPCTransport) Shutdown(ctx context.Context) error {
	if t == nil {
		return errors.New("grpc transport is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	t.health.Shutdown()
	t.mu.Lock()
	srv := t.srv
	listener := t.lis
	t.mu.Unlock()
	if srv == nil {
		if listener != nil {
			_ = listener.Close()
		}
		return nil
	}
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		srv.Stop()
		return ctx.Err()
	}
	return nil
}
