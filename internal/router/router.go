package router

import (
	"net/http"
	"time"

	"github.com/actuallystonmai/product-recommendation-service/internal/handler"
	"github.com/actuallystonmai/product-recommendation-service/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	// CORSAllowedOrigins lists origins allowed to call the API from a browser.
	// With none configured no CORS headers are sent.
	CORSAllowedOrigins []string
	// RateLimitRequests per RateLimitWindow per client IP; 0 disables.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
}

func DefaultOptions() Options {
	return Options{
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    30 * time.Second,
	}
}

func Setup(h *handler.Handler, opts Options) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger)
	r.Use(middleware.Recoverer)
	// cors treats an empty origin list as "allow all", so only install it
	// when origins are configured.
	if len(opts.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}
	r.Use(middleware.Timeout(opts.RequestTimeout))

	// Routes
	r.Route("/api", func(r chi.Router) {
		if opts.RateLimitRequests > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimitRequests, opts.RateLimitWindow))
		}

		r.Get("/recommendations/batch", h.GetBatchRecommendations)
		r.Get("/recommendations/{userID}", h.GetRecommendations)
		r.Get("/similar-products/{productID}", h.GetSimilarProducts)
		r.Get("/users/{userID}/similar-users", h.GetSimilarUsers)

		r.Post("/ratings", h.SubmitRating)
		r.Get("/ratings/{userID}", h.GetUserRatings)
		r.Delete("/ratings/{ratingID}", h.DeleteRating)
		r.Get("/product-ratings/{productID}", h.GetProductRatings)
	})
	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
