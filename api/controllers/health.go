package controllers

import (
	"context"
	"net/http"

	"github.com/dmferrer/stockpilot-backend/api/responses"
	"github.com/dmferrer/stockpilot-backend/pkg/config"
	pkgerrors "github.com/dmferrer/stockpilot-backend/pkg/errors"
	"github.com/dmferrer/stockpilot-backend/pkg/logger"
)

const envHeader = "X-Stockpilot-Env"

// Pinger is a dependency that can report its own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every wired dependency answers a ping.
// Nil pingers are skipped so partial deployments stay honest about what they
// checked.
func HealthReady(cfg *config.Config, logg *logger.Logger, pingers map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		checks := map[string]string{}
		healthy := true
		for name, pinger := range pingers {
			if pinger == nil {
				checks[name] = "skipped"
				continue
			}
			if err := pinger.Ping(r.Context()); err != nil {
				checks[name] = "down"
				healthy = false
				if logg != nil {
					ctx := logg.WithField(r.Context(), "dependency", name)
					logg.Error(ctx, "health.dependency_down", err)
				}
				continue
			}
			checks[name] = "up"
		}

		if !healthy {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").
				WithDetails(map[string]any{"checks": checks})
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
