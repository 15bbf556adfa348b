package middleware

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	appLog "jobgate-appointment-api/internal/log"
)

// Logging records every call with its status code and latency. Server-side
// failures log at error level, client mistakes at debug.
func Logging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		code := status.Code(err)
		kv := []any{"method", info.FullMethod, "code", code.String(), "latency", time.Since(start).Round(time.Microsecond)}

		switch code {
		case codes.OK:
			appLog.Info("rpc", kv...)
		case codes.Internal, codes.Unknown, codes.Unavailable, codes.DataLoss:
			appLog.Error("rpc failed", err, kv...)
		default:
			appLog.Debug("rpc rejected", append(kv, "msg", status.Convert(err).Message())...)
		}
		return resp, err
	}
}
