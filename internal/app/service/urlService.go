// Package service holds the shortening use cases: get-or-create of a short
// code for a URL, resolution with click counting, and stats lookup.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/atinyakov/shorty/internal/codegen"
	"github.com/atinyakov/shorty/internal/storage"
	"github.com/atinyakov/shorty/internal/urlnorm"
)

// DefaultMaxAttempts bounds code generation retries per Shorten call.
const DefaultMaxAttempts = 10

var (
	// ErrInvalidURL wraps every validation failure returned by Shorten.
	ErrInvalidURL = errors.New("invalid url")
	// ErrCodeSpaceExhausted is returned when every generated code collided.
	ErrCodeSpaceExhausted = errors.New("could not allocate a unique short code")
)

// ShortenResult is the mapping for a URL and whether it existed before the call.
type ShortenResult struct {
	Mapping        *storage.URLMapping
	AlreadyExisted bool
}

type Option func(*URLService)

// WithMaxAttempts overrides DefaultMaxAttempts. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(s *URLService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

type URLService struct {
	storage     Storage
	gen         Generator
	logger      *zap.Logger
	maxAttempts int
}

func NewURL(store Storage, gen Generator, logger *zap.Logger, opts ...Option) *URLService {
	s := &URLService{
		storage:     store,
		gen:         gen,
		logger:      logger,
		maxAttempts: DefaultMaxAttempts,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Shorten returns the mapping for raw, creating one if the normalized URL
// has not been shortened before. Concurrent calls for the same URL all
// return the same mapping.
func (s *URLService) Shorten(ctx context.Context, raw string) (*ShortenResult, error) {
	normalized, err := urlnorm.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	existing, err := s.storage.FindByURL(ctx, normalized)
	if err == nil {
		return &ShortenResult{Mapping: existing, AlreadyExisted: true}, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.gen.Generate()
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}

		created, err := s.storage.TryCreate(ctx, normalized, code)
		switch {
		case err == nil:
			s.logger.Info("short code created",
				zap.String("code", created.ShortCode),
				zap.String("url", created.OriginalURL),
			)
			return &ShortenResult{Mapping: created}, nil

		case errors.Is(err, storage.ErrCodeCollision):
			s.logger.Debug("short code collision", zap.String("code", code), zap.Int("attempt", attempt))

		case errors.Is(err, storage.ErrDuplicateURL):
			// another request stored this URL between our lookup and insert
			existing, err := s.storage.FindByURL(ctx, normalized)
			if err != nil {
				return nil, fmt.Errorf("read mapping after duplicate insert: %w", err)
			}
			return &ShortenResult{Mapping: existing, AlreadyExisted: true}, nil

		default:
			return nil, err
		}
	}

	s.logger.Error("short code space exhausted",
		zap.String("url", normalized),
		zap.Int("attempts", s.maxAttempts),
	)

	return nil, ErrCodeSpaceExhausted
}

// Resolve returns the original URL for code and counts one click.
func (s *URLService) Resolve(ctx context.Context, code string) (string, error) {
	if !codegen.IsCode(code) {
		return "", storage.ErrNotFound
	}

	m, err := s.storage.IncrementClicks(ctx, code)
	if err != nil {
		return "", err
	}

	return m.OriginalURL, nil
}

// Stats returns the mapping for code without counting a click.
func (s *URLService) Stats(ctx context.Context, code string) (*storage.URLMapping, error) {
	if !codegen.IsCode(code) {
		return nil, storage.ErrNotFound
	}

	return s.storage.FindByCode(ctx, code)
}

func (s *URLService) PingContext(ctx context.Context) error {
	return s.storage.PingContext(ctx)
}
