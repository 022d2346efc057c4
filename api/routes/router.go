package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmferrer/stockpilot-backend/api/controllers"
	"github.com/dmferrer/stockpilot-backend/api/middleware"
	"github.com/dmferrer/stockpilot-backend/internal/connectors"
	"github.com/dmferrer/stockpilot-backend/internal/inventory"
	"github.com/dmferrer/stockpilot-backend/internal/snapshots"
	"github.com/dmferrer/stockpilot-backend/pkg/config"
	"github.com/dmferrer/stockpilot-backend/pkg/logger"
)

// Deps carries everything the router mounts.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	Inventory       inventory.Service
	Connectors      *connectors.Registry
	Snapshots       *snapshots.Repository
	Pingers         map[string]controllers.Pinger
	MetricsGatherer prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.CORS(deps.Config.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.Pingers))
	})

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/api/public/ping", controllers.Ping())

	r.Route("/commerce", func(r chi.Router) {
		r.Route("/inventory", func(r chi.Router) {
			r.Get("/unified", controllers.UnifiedInventory(deps.Inventory, deps.Logger))
			r.Get("/sources", controllers.ListSources(deps.Inventory, deps.Logger))
			r.Put("/sources", controllers.SetSources(deps.Inventory, deps.Logger))
		})
		r.Post("/ingest/inventory", controllers.IngestInventory(deps.Connectors, deps.Inventory, deps.Logger))
		r.Post("/snapshots", controllers.PushSnapshot(deps.Inventory, deps.Logger))
		if deps.Snapshots != nil {
			r.Get("/snapshots/{sku}", controllers.SKUSnapshots(deps.Snapshots, deps.Logger))
		}
	})

	return r
}
