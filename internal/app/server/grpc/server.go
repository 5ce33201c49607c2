// Package grpc exposes the shortening service over gRPC, next to the
// standard health service.
package grpc

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/atinyakov/shorty/internal/app/service"
	"github.com/atinyakov/shorty/internal/intercepters"
	"github.com/atinyakov/shorty/internal/models"
	"github.com/atinyakov/shorty/internal/storage"
)

// Server wraps the gRPC server and dependencies.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	addr       string
	logger     *zap.Logger
}

// New creates a gRPC server for svc listening on addr.
func New(baseURL string, logger *zap.Logger, svc service.URLServiceIface, addr string) *Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			intercepters.RequestIDInterceptor,
			logging.UnaryServerInterceptor(
				intercepters.InterceptorLogger(logger),
				logging.WithLogOnEvents(logging.FinishCall),
				logging.WithFieldsFromContext(intercepters.RequestIDFields),
			),
			recovery.UnaryServerInterceptor(
				recovery.WithRecoveryHandler(intercepters.RecoveryHandler(logger)),
			),
		),
	)

	s.RegisterService(&ShortenerServiceDesc, &ShortenerServer{
		Service: svc,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Logger:  logger,
	})

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(s)

	return &Server{
		grpcServer: s,
		health:     hs,
		addr:       addr,
		logger:     logger,
	}
}

// Health returns the health service so storage checks can update it.
func (s *Server) Health() *health.Server {
	return s.health
}

// Start listens on the configured address and serves until stopped.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.logger.Error("gRPC server failed to listen", zap.Error(err))
		return err
	}

	return s.Serve(lis)
}

// Serve serves on an existing listener.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))

	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// GracefulStop marks the server as not serving and waits for in-flight calls.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

// --- Implementation of the gRPC interface ---

// ShortenerServer implements ShortenerServiceServer on top of the service.
type ShortenerServer struct {
	Service service.URLServiceIface
	BaseURL string
	Logger  *zap.Logger
}

func (s *ShortenerServer) Shorten(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	r, err := s.Service.Shorten(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(err)
	}

	message := models.MessageCreated
	if r.AlreadyExisted {
		message = models.MessageExisted
	}

	resp, err := structpb.NewStruct(map[string]any{
		"original_url":    r.Mapping.OriginalURL,
		"short_url":       s.BaseURL + "/" + r.Mapping.ShortCode,
		"short_code":      r.Mapping.ShortCode,
		"message":         message,
		"already_existed": r.AlreadyExisted,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return resp, nil
}

func (s *ShortenerServer) Resolve(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	original, err := s.Service.Resolve(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(err)
	}

	return wrapperspb.String(original), nil
}

func (s *ShortenerServer) Stats(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	m, err := s.Service.Stats(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(err)
	}

	resp, err := structpb.NewStruct(map[string]any{
		"original_url": m.OriginalURL,
		"short_code":   m.ShortCode,
		"clicks":       m.Clicks,
		"created_at":   m.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return resp, nil
}

func (s *ShortenerServer) toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidURL):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, "URL not found")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}

	if s.Logger != nil {
		s.Logger.Error("gRPC call failed", zap.Error(err))
	}
	return status.Error(codes.Internal, "internal error")
}
