// Package grpctransport provides gRPC interceptors.
package grpctransport

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"observe/internal/observe/observability"
)

const grpcMetricsMethod = "GRPC"

func grpcRequestIDInterceptor(logger observability.Logger, metrics observability.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := uuid.NewString()
		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)
		if metrics != nil {
			metrics.ObserveRequest(info.FullMethod, grpcMetricsMethod, int(status.Code(err)), elapsed)
		}
		if logger != nil {
			fields := map[string]any{
				"method":      info.FullMethod,
				"request_id":  requestID,
				"duration_ms": elapsed.Milliseconds(),
				"code":        status.Code(err).String(),
			}
			if err != nil {
				fields["error"] = err.Error()
				logger.Error("grpc request error", fields)
			} else {
				logger.Info("grpc request", fields)
			}
		}
		return resp, err
	}
}

func grpcStreamLoggingInterceptor(logger observability.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		if logger != nil {
			fields := map[string]any{
				"method":      info.FullMethod,
				"request_id":  uuid.NewString(),
				"duration_ms": time.Since(start).Milliseconds(),
				"code":        status.Code(err).String(),
			}
			if err != nil {
				fields["error"] = err.Error()
				logger.Error("grpc stream error", fields)
			} else {
				logger.Info("grpc stream", fields)
			}
		}
		return err
	}
}
