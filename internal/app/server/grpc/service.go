package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "shorty.v1.Shortener"

// ShortenerServiceServer is the server side of ServiceName. Requests and
// responses are protobuf well-known types, so no generated code is needed.
type ShortenerServiceServer interface {
	// Shorten takes a raw URL and returns original_url, short_url,
	// short_code, message and already_existed.
	Shorten(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// Resolve takes a short code, counts a click and returns the original URL.
	Resolve(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	// Stats takes a short code and returns original_url, short_code, clicks
	// and created_at.
	Stats(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// ShortenerServiceDesc describes ServiceName for grpc.Server.RegisterService.
var ShortenerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ShortenerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Shorten",
			Handler:    unaryHandler("Shorten", ShortenerServiceServer.Shorten),
		},
		{
			MethodName: "Resolve",
			Handler:    unaryHandler("Resolve", ShortenerServiceServer.Resolve),
		},
		{
			MethodName: "Stats",
			Handler:    unaryHandler("Stats", ShortenerServiceServer.Stats),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shorty/v1/shortener.proto",
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unaryHandler builds the grpc.MethodDesc handler that protoc-gen-go-grpc
// would generate for a unary method taking a StringValue.
func unaryHandler[Resp any](
	method string,
	call func(ShortenerServiceServer, context.Context, *wrapperspb.StringValue) (Resp, error),
) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(wrapperspb.StringValue)
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(ShortenerServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ShortenerServiceServer), ctx, req.(*wrapperspb.StringValue))
		}

		return interceptor(ctx, in, info, handler)
	}
}

// ShortenerClient calls ServiceName over a client connection.
type ShortenerClient struct {
	cc grpc.ClientConnInterface
}

func NewShortenerClient(cc grpc.ClientConnInterface) *ShortenerClient {
	return &ShortenerClient{cc: cc}
}

func (c *ShortenerClient) Shorten(ctx context.Context, rawURL string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("Shorten"), wrapperspb.String(rawURL), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ShortenerClient) Resolve(ctx context.Context, code string, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, fullMethod("Resolve"), wrapperspb.String(code), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (c *ShortenerClient) Stats(ctx context.Context, code string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("Stats"), wrapperspb.String(code), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
