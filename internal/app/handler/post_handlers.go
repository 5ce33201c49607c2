package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/shorty/internal/app/service"
	"github.com/atinyakov/shorty/internal/models"
	"github.com/atinyakov/shorty/internal/urlnorm"
)

type PostHandler struct {
	baseURL    string
	urlService service.URLServiceIface
	logger     *zap.Logger
}

// NewPost returns the shorten handler. An empty baseURL makes short links
// use the scheme and host of each request.
func NewPost(baseURL string, s service.URLServiceIface, l *zap.Logger) *PostHandler {
	return &PostHandler{
		baseURL:    strings.TrimRight(baseURL, "/"),
		urlService: s,
		logger:     l,
	}
}

// Shorten handles POST /shorten. It answers 200 whether or not the URL was
// shortened before; the message tells the two apart.
func (h *PostHandler) Shorten(res http.ResponseWriter, req *http.Request) {
	var request models.ShortenRequest

	if err := decodeJSONBody(res, req, &request); err != nil {
		var mr *malformedRequest
		if errors.As(err, &mr) {
			writeError(res, mr.status, mr.msg, h.logger)
			return
		}

		h.logger.Error("failed to read request body", zap.Error(err))
		writeError(res, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), h.logger)
		return
	}

	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	r, err := h.urlService.Shorten(ctx, request.URL)
	if err != nil {
		switch {
		case errors.Is(err, urlnorm.ErrEmptyInput):
			writeError(res, http.StatusBadRequest, "URL is required", h.logger)
		case errors.Is(err, service.ErrInvalidURL):
			writeError(res, http.StatusBadRequest, "Invalid URL format", h.logger)
		default:
			h.logger.Error("unable to shorten url", zap.String("url", request.URL), zap.Error(err))
			writeError(res, http.StatusInternalServerError, "Failed to shorten URL", h.logger)
		}
		return
	}

	message := models.MessageCreated
	if r.AlreadyExisted {
		message = models.MessageExisted
	}

	writeJSON(res, http.StatusOK, models.ShortenResponse{
		OriginalURL: r.Mapping.OriginalURL,
		ShortURL:    h.shortURL(req, r.Mapping.ShortCode),
		ShortCode:   r.Mapping.ShortCode,
		Message:     message,
	}, h.logger)
}

func (h *PostHandler) shortURL(req *http.Request, code string) string {
	base := h.baseURL
	if base == "" {
		base = requestBaseURL(req)
	}

	return base + "/" + code
}
