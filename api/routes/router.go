package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/demoforge/demoforge-backend/api/controllers"
	cartsynccontrollers "github.com/demoforge/demoforge-backend/api/controllers/cartsync"
	quotecontrollers "github.com/demoforge/demoforge-backend/api/controllers/quote"
	"github.com/demoforge/demoforge-backend/api/middleware"
	cartsvc "github.com/demoforge/demoforge-backend/internal/cartsync"
	quotesvc "github.com/demoforge/demoforge-backend/internal/quote"
	"github.com/demoforge/demoforge-backend/pkg/config"
	"github.com/demoforge/demoforge-backend/pkg/db"
	"github.com/demoforge/demoforge-backend/pkg/logger"
	"github.com/demoforge/demoforge-backend/pkg/pubsub"
	"github.com/demoforge/demoforge-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	pubsubClient *pubsub.Client,
	cartSyncService cartsvc.Service,
	quoteService quotesvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	quotePolicy := middleware.NewRateLimitPolicy(
		"quote",
		cfg.RateLimit.QuoteWindow,
		cfg.RateLimit.QuoteIPLimit,
		cfg.RateLimit.QuoteEmailLimit,
	)

	var redisDep, pubsubDep interface{ Ping(context.Context) error }
	if redisClient != nil {
		redisDep = redisClient
	}
	if pubsubClient != nil {
		pubsubDep = pubsubClient
	}
	readiness := controllers.ReadinessDeps(dbP, redisDep, pubsubDep)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/cart-sync", func(r chi.Router) {
		r.Use(middleware.SessionCookie(cfg.Session))
		r.Use(middleware.Identity(cfg.JWT, logg))
		r.Get("/", cartsynccontrollers.Fetch(cartSyncService, logg))
		r.Post("/", cartsynccontrollers.Save(cartSyncService, logg))
		r.Patch("/", cartsynccontrollers.Merge(cartSyncService, logg))
		r.Delete("/", cartsynccontrollers.Clear(cartSyncService, logg))
	})

	r.Route("/api/v1/quote", func(r chi.Router) {
		r.With(middleware.RateLimit(quotePolicy, redisClient, logg)).Post("/", quotecontrollers.Submit(quoteService, logg))
	})

	return r
}
