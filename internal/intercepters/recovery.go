package intercepters

import (
	"runtime/debug"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RecoveryHandler logs a handler panic with its stack and turns it into an
// Internal error for the caller.
func RecoveryHandler(l *zap.Logger) recovery.RecoveryHandlerFunc {
	return func(p any) error {
		l.Error("recovered from panic in gRPC handler",
			zap.Any("panic", p),
			zap.ByteString("stack", debug.Stack()),
		)
		return status.Error(codes.Internal, "internal error")
	}
}
