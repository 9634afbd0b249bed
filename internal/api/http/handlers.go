package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/hireko/url-shortener/internal/database"
	"github.com/hireko/url-shortener/internal/models"
	"github.com/hireko/url-shortener/internal/shortener"
	"github.com/hireko/url-shortener/pkg/response"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

type shortenRequest struct {
	LongURL      string `json:"long_url" validate:"required,url,max=2048"`
	CustomSuffix string `json:"custom_suffix,omitempty"`
}

type mappingResponse struct {
	ShortID    string    `json:"short_id"`
	ShortURL   string    `json:"short_url"`
	LongURL    string    `json:"long_url"`
	ExpiryDate string    `json:"expiry_date"`
	CreatedAt  time.Time `json:"created_at"`
	Created    bool      `json:"created"`
}

func toMappingResponse(m *models.URLMapping, baseURL string, created bool) mappingResponse {
	return mappingResponse{
		ShortID:    m.ShortID,
		ShortURL:   fmt.Sprintf("%s/%s", baseURL, m.ShortID),
		LongURL:    m.LongURL,
		ExpiryDate: m.ExpiryDate,
		CreatedAt:  m.CreatedAt,
		Created:    created,
	}
}

type mappingStatsResponse struct {
	ShortID        string     `json:"short_id"`
	LongURL        string     `json:"long_url"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiryDate     string     `json:"expiry_date"`
	ClickCount     int64      `json:"click_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	Expired        bool       `json:"expired"`
}

func toMappingStatsResponse(m *models.URLMapping) mappingStatsResponse {
	return mappingStatsResponse{
		ShortID:        m.ShortID,
		LongURL:        m.LongURL,
		CreatedAt:      m.CreatedAt,
		ExpiryDate:     m.ExpiryDate,
		ClickCount:     m.ClickCount,
		LastAccessedAt: m.LastAccessedAt,
		Expired:        shortener.IsExpired(m.ExpiryDate),
	}
}

func handleCreateShortURL(svc URLService, validate *validator.Validate, baseURL string) http.HandlerFunc {
	const op = "api.http.handleCreateShortURL"
	const createdMsg = "The short URL has been created successfully."
	const reusedMsg = "An existing short URL was returned."

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortenRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		mapping, created, err := svc.CreateOrGet(r.Context(), req.LongURL, req.CustomSuffix)
		if err != nil {
			switch {
			case errors.Is(err, shortener.ErrInvalidURL):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.ErrorResponse("Validation Error", "Invalid URL format."))
			case errors.Is(err, shortener.ErrInvalidCustomSuffix):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.ErrorResponse("Validation Error",
					"Custom suffix must be 3-20 characters of letters, digits, '-' or '_'."))
			case errors.Is(err, shortener.ErrCustomSuffixConflict):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.ErrorResponse("Conflict",
					"The requested custom suffix is already in use."))
			case errors.Is(err, shortener.ErrMaxAttemptsExceeded):
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServiceUnavailableResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		if !created {
			render.Status(r, http.StatusOK)
			render.JSON(w, r, response.SuccessResponse(reusedMsg, toMappingResponse(mapping, baseURL, false)))
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(createdMsg, toMappingResponse(mapping, baseURL, true)))
	}
}

func handleRedirect(svc URLService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortID := chi.URLParam(r, "shortID")

		mapping, err := svc.Resolve(r.Context(), shortID)
		if err != nil {
			switch {
			case errors.Is(err, database.ErrMappingNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ErrorResponse("URL Not Found",
					"The short URL you're looking for doesn't exist.",
					map[string]string{"short_id": shortID}))
			case errors.Is(err, shortener.ErrMappingExpired):
				render.Status(r, http.StatusGone)
				render.JSON(w, r, response.ErrorResponse("URL Expired",
					"This short URL has expired and is no longer valid.",
					map[string]string{"short_id": shortID}))
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServiceUnavailableResponse)
			}
			return
		}

		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		http.Redirect(w, r, mapping.LongURL, http.StatusFound)
	}
}

func handleGetMappingStats(svc URLService) http.HandlerFunc {
	const op = "api.http.handleGetMappingStats"
	const successMsg = "The URL statistics retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		shortID := chi.URLParam(r, "shortID")

		mapping, err := svc.Stats(r.Context(), shortID)
		if err != nil {
			if errors.Is(err, database.ErrMappingNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toMappingStatsResponse(mapping)))
	}
}

func handleDeleteMapping(svc URLService) http.HandlerFunc {
	const op = "api.http.handleDeleteMapping"
	const successMsg = "The short URL was successfully deleted."

	return func(w http.ResponseWriter, r *http.Request) {
		shortID := chi.URLParam(r, "shortID")

		err := svc.Delete(r.Context(), shortID)
		if err != nil {
			if errors.Is(err, database.ErrMappingNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg))
	}
}
