package intercepters

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/atinyakov/shorty/internal/middleware"
)

// RequestIDMetadataKey is the gRPC counterpart of the X-Request-ID header.
const RequestIDMetadataKey = "x-request-id"

// RequestIDInterceptor reuses the caller's x-request-id or generates one,
// stores it in the context and returns it in the response header.
func RequestIDInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	var id string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(RequestIDMetadataKey); len(ids) > 0 {
			id = ids[0]
		}
	}
	if id == "" || len(id) > 64 {
		id = uuid.NewString()
	}

	// fails only outside a real server transport, e.g. in direct calls
	_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDMetadataKey, id))

	ctx = context.WithValue(ctx, middleware.RequestIDKey, id)
	return handler(ctx, req)
}
