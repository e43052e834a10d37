package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/demoforge/demoforge-backend/api/routes"
	"github.com/demoforge/demoforge-backend/internal/cartsync"
	"github.com/demoforge/demoforge-backend/internal/quote"
	"github.com/demoforge/demoforge-backend/pkg/config"
	"github.com/demoforge/demoforge-backend/pkg/db"
	"github.com/demoforge/demoforge-backend/pkg/logger"
	"github.com/demoforge/demoforge-backend/pkg/metrics"
	"github.com/demoforge/demoforge-backend/pkg/migrate"
	"github.com/demoforge/demoforge-backend/pkg/pubsub"
	"github.com/demoforge/demoforge-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	var pubsubClient *pubsub.Client
	if cfg.GCP.ProjectID != "" {
		pubsubClient, err = pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "GCP project not configured, lead events disabled")
	}

	cartMetrics := metrics.NewCartSyncMetrics(prometheus.DefaultRegisterer)
	cartFeed := cartsync.NewFeed(redisClient, cfg.CartSync.FeedChannelPrefix, logg, cartMetrics)

	cartService, err := cartsync.NewService(cartsync.ServiceParams{
		Repo:    cartsync.NewRepository(dbClient.DB()),
		Tx:      dbClient,
		Feed:    cartFeed,
		Logger:  logg,
		Metrics: cartMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart sync service", err)
		os.Exit(1)
	}

	quoteService, err := quote.NewService(quote.ServiceParams{
		Repo:      quote.NewRepository(dbClient.DB()),
		Publisher: pubsubClient.LeadPublisher(),
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create quote service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, pubsubClient, cartService, quoteService),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	closeErr := multierr.Combine(
		server.Shutdown(shutdownCtx),
		redisClient.Close(),
		pubsubClient.Close(),
		dbClient.Close(),
	)
	if closeErr != nil {
		logg.Error(ctx, "shutdown finished with errors", closeErr)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
