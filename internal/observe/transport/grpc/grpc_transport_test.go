package grpctransport

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"observe/internal/observe/observability"
)

const grpcBufSize = 1024 * 1024

func newGRPCTestServer(t *testing.T, ready func() bool, metrics observability.Metrics) (*GRPCTransport, *grpc.ClientConn) {
	t.Helper()

	lis := bufconn.Listen(grpcBufSize)
	transport := NewGRPCTransport("bufnet", ready, GRPCTransportConfig{
		Logger:  observability.NewDiscardLogger(),
		Metrics: metrics,
	})
	transport.lis = lis

	errCh := make(chan error, 1)
	go func() {
		errCh <- transport.Start()
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, transport.Shutdown(ctx))
		select {
		case err := <-errCh:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("grpc server did not stop")
		}
	})
	return transport, conn
}

func checkHealth(t *testing.T, conn *grpc.ClientConn, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestGRPC_Health_ReflectsReadiness(t *testing.T) {
	t.Parallel()

	var ready atomic.Bool
	ready.Store(true)
	transport, conn := newGRPCTestServer(t, ready.Load, nil)

	require.Eventually(t, func() bool {
		return checkHealth(t, conn, "") == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 10*time.Millisecond)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, checkHealth(t, conn, "observe"))

	transport.SetServing(false)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checkHealth(t, conn, ""))
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checkHealth(t, conn, "observe"))
}

func TestGRPC_Health_NotReadyAtStart(t *testing.T) {
	t.Parallel()

	_, conn := newGRPCTestServer(t, func() bool { return false }, nil)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checkHealth(t, conn, ""))
}

func TestGRPC_Interceptor_RecordsMetrics(t *testing.T) {
	t.Parallel()

	metrics := observability.NewPromMetrics("grpc_test")
	_, conn := newGRPCTestServer(t, func() bool { return true }, metrics)

	checkHealth(t, conn, "")
	checkHealth(t, conn, "")

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Contains(t, rec.Body.String(),
		`grpc_test_http_requests_total{method="`+grpcMetricsMethod+`",route="`+healthpb.Health_Check_FullMethodName+`",status="0"} 2`)
}

func TestGRPC_ShutdownWithoutStart(t *testing.T) {
	t.Parallel()

	transport := NewGRPCTransport("127.0.0.1:0", nil, GRPCTransportConfig{})
	_, err := transport.Listen()
	require.NoError(t, err)
	require.NoError(t, transport.Shutdown(context.Background()))
}
