package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/demoforge/demoforge-backend/api/responses"
	"github.com/demoforge/demoforge-backend/pkg/config"
	pkgerrors "github.com/demoforge/demoforge-backend/pkg/errors"
	"github.com/demoforge/demoforge-backend/pkg/logger"
)

const readinessTimeout = 5 * time.Second

type pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-DemoForge-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every backing dependency. Nil pingers are skipped so
// environments without, say, Pub/Sub still report ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-DemoForge-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

// ReadinessDeps builds the dependency map for HealthReady.
func ReadinessDeps(db, redis, pubsub pinger) map[string]pinger {
	return map[string]pinger{
		"database": db,
		"redis":    redis,
		"pubsub":   pubsub,
	}
}
