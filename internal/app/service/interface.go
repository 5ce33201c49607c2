package service

//go:generate mockgen -source=interface.go -destination=../../mocks/service_mock.go -package=mocks

import (
	"context"

	"github.com/atinyakov/shorty/internal/storage"
)

// Storage is the mapping store. TryCreate and IncrementClicks must be atomic
// with respect to concurrent callers.
type Storage interface {
	FindByURL(context.Context, string) (*storage.URLMapping, error)
	FindByCode(context.Context, string) (*storage.URLMapping, error)
	TryCreate(context.Context, string, string) (*storage.URLMapping, error)
	IncrementClicks(context.Context, string) (*storage.URLMapping, error)
	PingContext(context.Context) error
}

// Generator produces candidate short codes.
type Generator interface {
	Generate() (string, error)
}

// URLServiceIface is what the HTTP and gRPC transports depend on.
type URLServiceIface interface {
	Shorten(context.Context, string) (*ShortenResult, error)
	Resolve(context.Context, string) (string, error)
	Stats(context.Context, string) (*storage.URLMapping, error)
	PingContext(context.Context) error
}
