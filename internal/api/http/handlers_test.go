package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/hireko/url-shortener/internal/database"
	"github.com/hireko/url-shortener/internal/models"
	"github.com/hireko/url-shortener/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const testBaseURL = "https://sho.rt"

type MockURLService struct {
	mock.Mock
}

func (s *MockURLService) CreateOrGet(ctx context.Context, longURL, customSuffix string) (*models.URLMapping, bool, error) {
	args := s.Called(ctx, longURL, customSuffix)
	mapping, _ := args.Get(0).(*models.URLMapping)
	return mapping, args.Bool(1), args.Error(2)
}

func (s *MockURLService) Resolve(ctx context.Context, shortID string) (*models.URLMapping, error) {
	args := s.Called(ctx, shortID)
	mapping, _ := args.Get(0).(*models.URLMapping)
	return mapping, args.Error(1)
}

func (s *MockURLService) Stats(ctx context.Context, shortID string) (*models.URLMapping, error) {
	args := s.Called(ctx, shortID)
	mapping, _ := args.Get(0).(*models.URLMapping)
	return mapping, args.Error(1)
}

func (s *MockURLService) Delete(ctx context.Context, shortID string) error {
	args := s.Called(ctx, shortID)
	return args.Error(0)
}

func setupRouter(t testing.TB) (*MockURLService, http.Handler) {
	t.Helper()

	svcMock := new(MockURLService)
	r := NewRouter(httplog.NewLogger(""), svcMock, testBaseURL)

	t.Cleanup(func() {
		svcMock.AssertExpectations(t)
	})

	return svcMock, r
}

func doRequest(r http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func decodeBody(t testing.TB, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}

	return body
}

func TestHandlePing(t *testing.T) {
	_, r := setupRouter(t)

	rec := doRequest(r, http.MethodGet, "/api/v1/ping", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong\n", rec.Body.String())
}

func TestHandleCreateShortURL(t *testing.T) {
	const path = "/api/v1/shorten"

	t.Run("empty request body", func(t *testing.T) {
		_, r := setupRouter(t)

		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "error", body["status"])
	})

	t.Run("invalid request body", func(t *testing.T) {
		_, r := setupRouter(t)

		rec := doRequest(r, http.MethodPost, path, []byte(`{"long_url":`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "error", body["status"])
	})

	t.Run("validation error", func(t *testing.T) {
		_, r := setupRouter(t)

		rec := doRequest(r, http.MethodPost, path, []byte(`{"long_url":"not a url"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "error", body["status"])
		assert.NotEmpty(t, body["errors"])
	})

	t.Run("invalid custom suffix", func(t *testing.T) {
		svcMock, r := setupRouter(t)

		svcMock.
			On("CreateOrGet", mock.Anything, "https://example.com", "ab").
			Once().
			Return(nil, false, shortener.ErrInvalidCustomSuffix)

		rec := doRequest(r, http.MethodPost, path, []byte(`{"long_url":"https://example.com","custom_suffix":"ab"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Validation Error", body["error"])
	})

	t.Run("custom suffix conflict", func(t *testing.T) {
		svcMock, r := setupRouter(t)

		svcMock.
			On("CreateOrGet", mock.Anything, "https://example.com", "my-link").
			Once().
			Return(nil, false, shortener.ErrCustomSuffixConflict)

		rec := doRequest(r, http.MethodPost, path, []byte(`{"long_url":"https://example.com","custom_suffix":"my-link"}`))

		assert.Equal(t, http.StatusConflict, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Conflict", body["error"])
	})

	t.Run("attempts exhausted", func(t *testing.T) {
		svcMock, r := setupRouter(t)

		svcMock.
			On("CreateOrGet", mock.Anything, "https://example.com", "").
			Once().
			Return(nil, false, shortener.ErrMaxAttemptsExceeded)

		rec := doRequest(r, http.MethodPost, path, []byte(`{"long_url":"https://example.com"}`))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Service Unavailable", body["error"])
	})

	t.Run("created", func(t *testing.T) {
		svcMock, r := setupRouter(t)

		svcMock.
			On("CreateOrGet", mock.Anything, "https://example.com", "").
			Once().
			Return(&models.URLMapping{
				ShortID:    "abc123",
				LongURL:    "https://example.com",
				ExpiryDate: "2099-01-01T00:00:00Z",
			}, true, nil)

		rec := doRequest(r, http.MethodPost, path, []byte(`{"long_url":"https://example.com"}`))

		assert.Equal(t, http.StatusCreated, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "success", body["status"])

		data, _ := body["data"].(map[string]any)
		assert.Equal(t, "abc123", data["short_id"])
		assert.Equal(t, testBaseURL+"/abc123", data["short_url"])
		assert.Equal(t, "https://example.com", data["long_url"])
		assert.Equal(t, true, data["created"])
	})

	t.Run("existing live mapping reused", func(t *testing.T) {
		svcMock, r := setupRouter(t)

		svcMock.
			On("CreateOrGet", mock.Anything, "https://example.com", "").
			Once().
			Return(&models.URLMapping{
				ShortID:    "abc123",
				LongURL:    "https://example.com",
				ExpiryDate: "2099-01-01T00:00:00Z",
			}, false, nil)

		rec := doRequest(r, http.MethodPost, path, []byte(`{"long_url":"https://example.com"}`))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)

		data, _ := body["data"].(map[string]any)
		assert.Equal(t, false, data["created"])
	})
}

func TestHandleRedirect(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		svcMock, r := setupRouter(t)

		svcMock.
			On("Resolve", mock.Anything, "abc123").
			Once().
			Return(nil, database.ErrMappingNotFound)

		rec := doRequest(r, http.MethodGet, "/abc123", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "URL Not Found", body["error"])
	})

	t.Run("expired mapping answers gone", func(t *testing.T) {
		svcMock, r := setupRouter(t)

		svcMock.
			On("Resolve", mock.Anything, "abc123").
			Once().
			Return(nil, shortener.ErrMappingExpired)

		rec := doRequest(r, http.MethodGet, "/abc123", nil)

		assert.Equal(t, http.StatusGone, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "URL Expired", body["error"])
	})

	t.Run("store failure degrades to unavailable", func(t *testing.T) {
		svcMock, r := setupRouter(t)

		svcMock.
			On("Resolve", mock.Anything, "abc123").
			Once().
			Return(nil, assert.AnError)

		rec := doRequest(r, http.MethodGet, "/abc123", nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Service Unavailable", body["error"])
	})

	t.Run("success", func(t *testing.T) {
		svcMock, r := setupRouter(t)

		svcMock.
			On("Resolve", mock.Anything, "abc123").
			Once().
			Return(&models.URLMapping{
				ShortID:    "abc123",
				LongURL:    "https://example.com",
				ExpiryDate: "2099-01-01T00:00:00Z",
			}, nil)

		rec := doRequest(r, http.MethodGet, "/abc123", nil)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "https://example.com", rec.Header().Get("Location"))
		assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	})
}

func TestHandleGetMappingStats(t *testing.T) {
	const path = "/api/v1/shorten/abc123/stats"

	t.Run("not found", func(t *testing.T) {
		svcMock, r := setupRouter(t)

		svcMock.
			On("Stats", mock.Anything, "abc123").
			Once().
			Return(nil, database.ErrMappingNotFound)

		rec := doRequest(r, http.MethodGet, path, nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		svcMock, r := setupRouter(t)

		accessed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		svcMock.
			On("Stats", mock.Anything, "abc123").
			Once().
			Return(&models.URLMapping{
				ShortID:        "abc123",
				LongURL:        "https://example.com",
				ExpiryDate:     "2020-01-01T00:00:00Z",
				ClickCount:     42,
				LastAccessedAt: &accessed,
			}, nil)

		rec := doRequest(r, http.MethodGet, path, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)

		data, _ := body["data"].(map[string]any)
		assert.Equal(t, float64(42), data["click_count"])
		assert.Equal(t, true, data["expired"])
		assert.NotEmpty(t, data["last_accessed_at"])
	})
}

func TestHandleDeleteMapping(t *testing.T) {
	const path = "/api/v1/shorten/abc123"

	t.Run("not found", func(t *testing.T) {
		svcMock, r := setupRouter(t)

		svcMock.
			On("Delete", mock.Anything, "abc123").
			Once().
			Return(database.ErrMappingNotFound)

		rec := doRequest(r, http.MethodDelete, path, nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		svcMock, r := setupRouter(t)

		svcMock.
			On("Delete", mock.Anything, "abc123").
			Once().
			Return(nil)

		rec := doRequest(r, http.MethodDelete, path, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "success", body["status"])
	})
}
