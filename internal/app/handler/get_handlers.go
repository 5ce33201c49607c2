package handler

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/shorty/internal/app/service"
	"github.com/atinyakov/shorty/internal/models"
	"github.com/atinyakov/shorty/internal/storage"
)

var notFoundPage = template.Must(template.New("404").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Link not found</title>
</head>
<body>
<h1>404</h1>
<p>The short link <code>/{{.}}</code> does not exist.</p>
<p><a href="/">Shorten a new URL</a></p>
</body>
</html>
`))

type GetHandler struct {
	service service.URLServiceIface
	logger  *zap.Logger
}

func NewGet(s service.URLServiceIface, l *zap.Logger) *GetHandler {
	return &GetHandler{
		service: s,
		logger:  l,
	}
}

// Redirect handles GET /{code}: it counts a click and redirects to the
// original URL.
func (h *GetHandler) Redirect(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	code := chi.URLParam(req, "code")

	original, err := h.service.Resolve(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		h.logger.Info("short code not found", zap.String("code", code))
		h.notFound(res, code)
		return
	}
	if err != nil {
		h.logger.Error("unable to resolve short code", zap.String("code", code), zap.Error(err))
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	http.Redirect(res, req, original, http.StatusFound)
}

// Stats handles GET /stats/{code}. It does not count a click.
func (h *GetHandler) Stats(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	code := chi.URLParam(req, "code")

	m, err := h.service.Stats(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(res, http.StatusNotFound, "URL not found", h.logger)
		return
	}
	if err != nil {
		h.logger.Error("unable to load stats", zap.String("code", code), zap.Error(err))
		writeError(res, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), h.logger)
		return
	}

	writeJSON(res, http.StatusOK, models.StatsResponse{
		OriginalURL: m.OriginalURL,
		ShortCode:   m.ShortCode,
		Clicks:      m.Clicks,
		CreatedAt:   m.CreatedAt,
	}, h.logger)
}

func (h *GetHandler) PingDB(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	if err := h.service.PingContext(ctx); err != nil {
		h.logger.Error("storage ping failed", zap.Error(err))
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}

	res.WriteHeader(http.StatusOK)
}

// MissingCode handles GET / without a code.
func (h *GetHandler) MissingCode(res http.ResponseWriter, _ *http.Request) {
	http.Error(res, "Short code is required", http.StatusBadRequest)
}

// NotFound renders the 404 page for any path without a route.
func (h *GetHandler) NotFound(res http.ResponseWriter, req *http.Request) {
	h.notFound(res, strings.TrimPrefix(req.URL.Path, "/"))
}

func (h *GetHandler) notFound(res http.ResponseWriter, code string) {
	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	res.WriteHeader(http.StatusNotFound)

	if err := notFoundPage.Execute(res, code); err != nil {
		h.logger.Warn("failed to render 404 page", zap.Error(err))
	}
}
