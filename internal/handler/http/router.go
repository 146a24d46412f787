package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sy17258/Book-Review-Platform/internal/auth"
	"github.com/sy17258/Book-Review-Platform/internal/service"
	"github.com/sy17258/Book-Review-Platform/pkg/health"
	"github.com/sy17258/Book-Review-Platform/pkg/middleware"
)

// facetCacheMaxAge is the Cache-Control max-age for the facet endpoints, in
// seconds. The lists change only when a book is added.
const facetCacheMaxAge = 300

// NewRouter creates a chi router with all catalogue routes registered.
func NewRouter(
	catalogService *service.CatalogService,
	reviewService *service.ReviewService,
	userService *service.UserService,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("catalog"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Token validator that bridges to our internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Name:   claims.Name,
		}, nil
	}

	bookHandler := NewBookHandler(catalogService, logger)
	reviewHandler := NewReviewHandler(catalogService, reviewService, logger)
	facetHandler := NewFacetHandler(catalogService, logger)
	authHandler := NewAuthHandler(userService, logger)

	// Catalogue read endpoints (public)
	r.Route("/api/v1/books", func(r chi.Router) {
		r.Get("/", bookHandler.ListBooks)
		r.Get("/{id}", bookHandler.GetBook)
		r.Get("/{bookId}/reviews", reviewHandler.ListReviews)

		// Write endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(middleware.Auth(tokenValidator))

			r.Post("/", bookHandler.CreateBook)
			r.Post("/{bookId}/reviews", reviewHandler.CreateReview)
		})
	})

	// Facet endpoints (public, cacheable)
	r.Group(func(r chi.Router) {
		r.Use(middleware.CacheControl(facetCacheMaxAge))

		r.Get("/api/v1/genres", facetHandler.Genres)
		r.Get("/api/v1/authors", facetHandler.Authors)
	})

	// Auth endpoints (public)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Get("/me", authHandler.Me)
		})
	})

	return r
}
