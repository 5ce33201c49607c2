// Package server assembles the HTTP router of the shortener.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	gorillahandlers "github.com/gorilla/handlers"
	"go.uber.org/zap"

	"github.com/atinyakov/shorty/internal/app/handler"
	"github.com/atinyakov/shorty/internal/app/service"
	"github.com/atinyakov/shorty/internal/middleware"
)

// Init builds the router. baseURL prefixes short links; when empty they
// are derived from each request.
func Init(baseURL string, logger *zap.Logger, s service.URLServiceIface) *chi.Mux {
	postHandler := handler.NewPost(baseURL, s, logger)
	getHandler := handler.NewGet(s, logger)

	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.WithRequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins([]string{"*"}),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type", middleware.RequestIDHeader}),
		gorillahandlers.ExposedHeaders([]string{middleware.RequestIDHeader}),
	))
	r.Use(middleware.WithGzipRequest)
	r.Use(middleware.WithGzipResponse)

	r.Post("/shorten", postHandler.Shorten)
	r.Get("/ping", getHandler.PingDB)
	r.Get("/stats/{code}", getHandler.Stats)
	r.Get("/{code}", getHandler.Redirect)
	r.Get("/", getHandler.MissingCode)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	r.NotFound(getHandler.NotFound)

	return r
}
