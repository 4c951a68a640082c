package middleware

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const RequestIDKey ctxKey = "request_id"

// RequestID returns the id assigned to the current call, if any.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextInterceptor tags every unary call with a request id (x-request-id or a fresh uuid),
// logs its outcome and turns panics into codes.Internal.
func ContextInterceptor(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("x-request-id"); len(v) > 0 {
				requestID = v[0]
			}
		}
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx = context.WithValue(ctx, RequestIDKey, requestID)

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic in handler",
					zap.String("method", info.FullMethod),
					zap.String("request_id", requestID),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				err = status.Error(codes.Internal, "internal error")
			}

			fields := []zap.Field{
				zap.String("method", info.FullMethod),
				zap.String("request_id", requestID),
				zap.Duration("duration", time.Since(start)),
				zap.String("code", status.Code(err).String()),
			}
			if err != nil {
				log.Warn("grpc call failed", append(fields, zap.Error(err))...)
				return
			}
			log.Debug("grpc call", fields...)
		}()

		return handler(ctx, req)
	}
}
