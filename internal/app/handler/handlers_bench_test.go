package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atinyakov/shorty/internal/app/service"
	"github.com/atinyakov/shorty/internal/codegen"
	"github.com/atinyakov/shorty/internal/logger"
	"github.com/atinyakov/shorty/internal/storage"
)

func newBenchService(b *testing.B) *service.URLService {
	mem, err := storage.CreateMemoryStorage()
	if err != nil {
		b.Fatal(err)
	}

	return service.NewURL(mem, codegen.New(codegen.DefaultLength), logger.New().Log)
}

func BenchmarkShorten(b *testing.B) {
	urlService := newBenchService(b)
	postHandler := NewPost("http://localhost:8080", urlService, logger.New().Log)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		body := fmt.Sprintf(`{"url":"https://example.com/%d"}`, i)
		req := httptest.NewRequest(http.MethodPost, "/shorten", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")

		postHandler.Shorten(httptest.NewRecorder(), req)
	}
}

func BenchmarkShortenExisting(b *testing.B) {
	urlService := newBenchService(b)
	postHandler := NewPost("http://localhost:8080", urlService, logger.New().Log)
	body := []byte(`{"url":"https://example.com"}`)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/shorten", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		postHandler.Shorten(httptest.NewRecorder(), req)
	}
}

func BenchmarkRedirect(b *testing.B) {
	urlService := newBenchService(b)
	getHandler := NewGet(urlService, logger.New().Log)

	res, err := urlService.Shorten(context.Background(), "https://example.com")
	if err != nil {
		b.Fatal(err)
	}
	code := res.Mapping.ShortCode

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		req := withCode(httptest.NewRequest(http.MethodGet, "/"+code, nil), code)

		getHandler.Redirect(httptest.NewRecorder(), req)
	}
}
