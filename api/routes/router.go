package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/bookstore-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/bookstore-backend/api/controllers/cart"
	catalogcontrollers "github.com/angelmondragon/bookstore-backend/api/controllers/catalog"
	"github.com/angelmondragon/bookstore-backend/api/middleware"
	"github.com/angelmondragon/bookstore-backend/internal/cart"
	"github.com/angelmondragon/bookstore-backend/internal/catalog"
	"github.com/angelmondragon/bookstore-backend/pkg/config"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/metrics"
	"github.com/angelmondragon/bookstore-backend/pkg/redis"
)

// Deps carries what both service routers share. Redis, Metrics and Gatherer
// are optional.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    *redis.Client
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer
}

// NewCatalogRouter serves the book catalog at the root and under /api.
func NewCatalogRouter(deps Deps, catalogService catalog.Service) http.Handler {
	r := newBaseRouter(deps)

	policy := middleware.NewAdminRateLimitPolicy(deps.Config.Admin.RateLimitWindow, deps.Config.Admin.RateLimit)
	var limiter middleware.RateLimiter
	if deps.Redis != nil {
		limiter = middleware.NewRedisRateLimiter(deps.Redis, policy)
	} else {
		limiter = middleware.NewLocalRateLimiter(policy)
	}
	adminLimit := middleware.AdminRateLimit(policy, limiter, deps.Logger)
	idempotent := idempotency(deps)

	books := func(r chi.Router) {
		r.Get("/books", catalogcontrollers.ListBooks(catalogService, deps.Logger))
		r.With(adminLimit, idempotent).Post("/books", catalogcontrollers.CreateBook(catalogService, deps.Logger))
		r.With(adminLimit).Put("/books/{id}", catalogcontrollers.UpdateBook(catalogService, deps.Logger))
		r.With(adminLimit).Delete("/books/{id}", catalogcontrollers.DeleteBook(catalogService, deps.Logger))
	}

	books(r)
	r.Route("/api", func(r chi.Router) {
		legacyHealth(r)
		books(r)
	})
	return r
}

// NewCartRouter serves the single global cart at the root and under /api.
func NewCartRouter(deps Deps, cartService cart.Service) http.Handler {
	r := newBaseRouter(deps)
	idempotent := idempotency(deps)

	items := func(r chi.Router) {
		r.Get("/cart", cartcontrollers.ListItems(cartService, deps.Logger))
		r.With(idempotent).Post("/cart", cartcontrollers.AddItem(cartService, deps.Logger))
		// registered before /cart/{id} so "clear" is never taken for an id
		r.Delete("/cart/clear", cartcontrollers.Clear(cartService, deps.Logger))
		r.Delete("/cart/{id}", cartcontrollers.RemoveOne(cartService, deps.Logger))
	}

	items(r)
	r.Route("/api", func(r chi.Router) {
		legacyHealth(r)
		items(r)
	})
	return r
}

func newBaseRouter(deps Deps) chi.Router {
	r := chi.NewRouter()
	var origins []string
	if deps.Config != nil {
		origins = deps.Config.CORS.AllowedOrigins
	}
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.CORS(origins),
		middleware.Metrics(deps.Metrics),
	)

	checks := []controllers.ReadinessCheck{{Name: "database", Pinger: deps.DB}}
	if deps.Redis != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "redis", Pinger: deps.Redis})
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, checks...))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func legacyHealth(r chi.Router) {
	r.Get("/health", controllers.LegacyHealth())
	r.Get("/liveness", controllers.LegacyLiveness())
}

func idempotency(deps Deps) func(http.Handler) http.Handler {
	if deps.Redis == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.Idempotency(deps.Redis, deps.Logger)
}
