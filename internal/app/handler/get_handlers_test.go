package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/atinyakov/shorty/internal/mocks"
	"github.com/atinyakov/shorty/internal/models"
	"github.com/atinyakov/shorty/internal/storage"
)

func createTestHandler(t *testing.T) (*GetHandler, *mocks.MockURLServiceIface) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockURLServiceIface(ctrl)

	return NewGet(mockService, zap.NewNop()), mockService
}

// withCode sets the chi route param the way the router would.
func withCode(req *http.Request, code string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("code", code)

	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestRedirect(t *testing.T) {
	tests := []struct {
		name         string
		code         string
		mockReturn   string
		mockErr      error
		expectedCode int
		location     string
		contentType  string
	}{
		{
			name:         "known code",
			code:         "abc123",
			mockReturn:   "https://example.com",
			expectedCode: http.StatusFound,
			location:     "https://example.com",
		},
		{
			name:         "unknown code",
			code:         "nope00",
			mockErr:      storage.ErrNotFound,
			expectedCode: http.StatusNotFound,
			contentType:  "text/html; charset=utf-8",
		},
		{
			name:         "storage failure",
			code:         "abc123",
			mockErr:      errors.New("connection refused"),
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mockService := createTestHandler(t)
			mockService.EXPECT().Resolve(gomock.Any(), tt.code).Return(tt.mockReturn, tt.mockErr)

			req := withCode(httptest.NewRequest(http.MethodGet, "/"+tt.code, nil), tt.code)
			w := httptest.NewRecorder()

			handler.Redirect(w, req)

			resp := w.Result()
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedCode, resp.StatusCode)
			if tt.location != "" {
				assert.Equal(t, tt.location, resp.Header.Get("Location"))
			}
			if tt.contentType != "" {
				assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			}
		})
	}
}

func TestNotFound_AnyPath(t *testing.T) {
	handler, _ := createTestHandler(t)

	w := httptest.NewRecorder()
	handler.NotFound(w, httptest.NewRequest(http.MethodGet, "/a/b/c", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<code>/a/b/c</code>")
}

func TestRedirect_NotFoundPageEscapesCode(t *testing.T) {
	handler, mockService := createTestHandler(t)
	code := "<script>"
	mockService.EXPECT().Resolve(gomock.Any(), code).Return("", storage.ErrNotFound)

	req := withCode(httptest.NewRequest(http.MethodGet, "/x", nil), code)
	w := httptest.NewRecorder()

	handler.Redirect(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "&lt;script&gt;")
	assert.NotContains(t, w.Body.String(), "<script>")
}

func TestStats(t *testing.T) {
	t.Run("known code", func(t *testing.T) {
		handler, mockService := createTestHandler(t)
		m := mapping("abc123", "https://example.com")
		m.Clicks = 7
		mockService.EXPECT().Stats(gomock.Any(), "abc123").Return(m, nil)

		req := withCode(httptest.NewRequest(http.MethodGet, "/stats/abc123", nil), "abc123")
		w := httptest.NewRecorder()

		handler.Stats(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"original_url": "https://example.com",
			"short_code": "abc123",
			"clicks": 7,
			"created_at": "2024-05-01T12:00:00Z"
		}`, w.Body.String())
	})

	t.Run("unknown code", func(t *testing.T) {
		handler, mockService := createTestHandler(t)
		mockService.EXPECT().Stats(gomock.Any(), "nope00").Return(nil, storage.ErrNotFound)

		req := withCode(httptest.NewRequest(http.MethodGet, "/stats/nope00", nil), "nope00")
		w := httptest.NewRecorder()

		handler.Stats(w, req)

		require.Equal(t, http.StatusNotFound, w.Code)
		var body models.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "URL not found", body.Error)
	})

	t.Run("storage failure", func(t *testing.T) {
		handler, mockService := createTestHandler(t)
		mockService.EXPECT().Stats(gomock.Any(), "abc123").Return(nil, errors.New("timeout"))

		req := withCode(httptest.NewRequest(http.MethodGet, "/stats/abc123", nil), "abc123")
		w := httptest.NewRecorder()

		handler.Stats(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestPingDB(t *testing.T) {
	handler, mockService := createTestHandler(t)

	mockService.EXPECT().PingContext(gomock.Any()).Return(nil)
	w := httptest.NewRecorder()
	handler.PingDB(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	mockService.EXPECT().PingContext(gomock.Any()).Return(errors.New("db down"))
	w = httptest.NewRecorder()
	handler.PingDB(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMissingCode(t *testing.T) {
	handler, _ := createTestHandler(t)

	w := httptest.NewRecorder()
	handler.MissingCode(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Short code is required")
}
