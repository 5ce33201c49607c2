package intercepters

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/atinyakov/shorty/internal/middleware"
)

func TestRequestIDInterceptor(t *testing.T) {
	// A dummy handler that returns the request ID from context if present
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return middleware.RequestIDFromContext(ctx), nil
	}

	tests := []struct {
		name   string
		ctx    context.Context
		wantID string
	}{
		{
			name:   "with x-request-id metadata",
			ctx:    metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", "req-7")),
			wantID: "req-7",
		},
		{
			name: "with empty x-request-id metadata",
			ctx:  metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", "")),
		},
		{
			name: "without metadata",
			ctx:  context.Background(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := RequestIDInterceptor(tt.ctx, nil, &grpc.UnaryServerInfo{
				FullMethod: "/test.TestMethod",
			}, handler)
			require.NoError(t, err)

			gotID, _ := resp.(string)
			if tt.wantID != "" {
				assert.Equal(t, tt.wantID, gotID)
				return
			}
			_, err = uuid.Parse(gotID)
			assert.NoError(t, err, "expected a generated uuid, got %q", gotID)
		})
	}
}

func TestRequestIDFields(t *testing.T) {
	assert.Nil(t, RequestIDFields(context.Background()))

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	assert.Equal(t, []any{"request_id", "req-1"}, []any(RequestIDFields(ctx)))
}
