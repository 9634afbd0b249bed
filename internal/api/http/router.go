package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/hireko/url-shortener/internal/models"
	httpSwagger "github.com/swaggo/http-swagger"
)

// URLService is the domain collaborator the HTTP layer drives. The handlers
// do request parsing and response framing only; all mapping semantics live
// behind this interface.
type URLService interface {
	CreateOrGet(ctx context.Context, longURL, customSuffix string) (*models.URLMapping, bool, error)
	Resolve(ctx context.Context, shortID string) (*models.URLMapping, error)
	Stats(ctx context.Context, shortID string) (*models.URLMapping, error)
	Delete(ctx context.Context, shortID string) error
}

func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter wires the API and redirect routes. The redirect route sits at the
// root; short ids can never collide with API paths because the /api prefix is
// reserved here, not inside the domain logic.
func NewRouter(logger *httplog.Logger, urlSvc URLService, baseURL string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.yml")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))

		validate := getValidate()

		r.Get("/ping", handlePing)

		r.Route("/shorten", func(r chi.Router) {
			r.Post("/", handleCreateShortURL(urlSvc, validate, baseURL))

			r.Route("/{shortID}", func(r chi.Router) {
				r.Get("/stats", handleGetMappingStats(urlSvc))
				r.Delete("/", handleDeleteMapping(urlSvc))
			})
		})
	})

	r.Get("/{shortID}", handleRedirect(urlSvc))

	return r
}
