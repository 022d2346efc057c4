package controllers

import (
	"net/http"

	"github.com/dmferrer/stockpilot-backend/api/responses"
	"github.com/dmferrer/stockpilot-backend/api/validators"
	"github.com/dmferrer/stockpilot-backend/internal/connectors"
	"github.com/dmferrer/stockpilot-backend/internal/inventory"
	"github.com/dmferrer/stockpilot-backend/pkg/enums"
	pkgerrors "github.com/dmferrer/stockpilot-backend/pkg/errors"
	"github.com/dmferrer/stockpilot-backend/pkg/logger"
	"github.com/dmferrer/stockpilot-backend/pkg/types"
)

type ingestInventoryRequest struct {
	Platform    string            `json:"platform" validate:"required"`
	Credentials map[string]string `json:"credentials" validate:"required"`
}

// IngestInventory triggers a pull through the platform connector and upserts
// every snapshot it returns.
func IngestInventory(registry *connectors.Registry, svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ingestInventoryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		platform, err := enums.ParseCommercePlatform(req.Platform)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown platform").
					WithDetails(map[string]any{"platform": req.Platform}))
			return
		}

		conn, err := registry.Get(platform)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithPlatform(ctx, platform.String())
		}

		snaps, err := conn.FetchSnapshots(ctx, connectors.Credentials(req.Credentials))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		accepted, skipped, err := svc.IngestBatch(ctx, platform, snaps)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"accepted": accepted,
				"skipped":  skipped,
			})
			logg.Info(ctx, "ingest.complete")
		}
		responses.WriteRaw(w, http.StatusOK, types.OKResponse{OK: true})
	}
}
