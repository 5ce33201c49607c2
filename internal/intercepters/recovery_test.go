package intercepters_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/atinyakov/shorty/internal/intercepters"
)

func TestRecoveryHandler(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)

	err := intercepters.RecoveryHandler(zap.New(core))("boom")

	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, "boom", logs.All()[0].ContextMap()["panic"])
}
