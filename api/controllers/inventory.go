package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmferrer/stockpilot-backend/api/responses"
	"github.com/dmferrer/stockpilot-backend/api/validators"
	"github.com/dmferrer/stockpilot-backend/internal/inventory"
	"github.com/dmferrer/stockpilot-backend/pkg/db/models"
	"github.com/dmferrer/stockpilot-backend/pkg/enums"
	pkgerrors "github.com/dmferrer/stockpilot-backend/pkg/errors"
	"github.com/dmferrer/stockpilot-backend/pkg/logger"
	"github.com/dmferrer/stockpilot-backend/pkg/types"
)

const maxSKULen = 128

// UnifiedInventory serves the merged per-SKU view. The payload is written
// unwrapped: its field layout is a compatibility contract.
func UnifiedInventory(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.GetUnifiedInventory(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteRaw(w, http.StatusOK, view)
	}
}

// ListSources serves the current override table.
func ListSources(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := svc.ListSources(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteRaw(w, http.StatusOK, sources)
	}
}

type setSourcesRequest struct {
	Entries []sourceEntryRequest `json:"entries" validate:"required,min=1,dive"`
}

type sourceEntryRequest struct {
	SKU             string `json:"sku" validate:"required,max=128"`
	PrimaryPlatform string `json:"primary_platform" validate:"required"`
}

// SetSources replaces override entries as one atomic batch.
func SetSources(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setSourcesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries := make([]inventory.SourceEntry, 0, len(req.Entries))
		for _, entry := range req.Entries {
			entries = append(entries, inventory.SourceEntry{
				SKU:             validators.SanitizeString(entry.SKU, maxSKULen),
				PrimaryPlatform: enums.CommercePlatform(entry.PrimaryPlatform),
			})
		}

		if err := svc.SetSources(r.Context(), entries); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteRaw(w, http.StatusOK, types.OKResponse{OK: true})
	}
}

type pushSnapshotRequest struct {
	SKU            string    `json:"sku" validate:"required,max=128"`
	Platform       string    `json:"platform" validate:"required"`
	UnitsAvailable int       `json:"units_available" validate:"gte=0"`
	UnitsReserved  int       `json:"units_reserved" validate:"gte=0"`
	CapturedAt     time.Time `json:"captured_at" validate:"required"`
}

// PushSnapshot ingests one snapshot from a push-style connector.
func PushSnapshot(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pushSnapshotRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err := svc.IngestSnapshot(r.Context(), inventory.SnapshotInput{
			SKU:            validators.SanitizeString(req.SKU, maxSKULen),
			Platform:       enums.CommercePlatform(req.Platform),
			UnitsAvailable: req.UnitsAvailable,
			UnitsReserved:  req.UnitsReserved,
			CapturedAt:     req.CapturedAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteRaw(w, http.StatusOK, types.OKResponse{OK: true})
	}
}

type snapshotFinder interface {
	FindBySKU(ctx context.Context, sku string) ([]models.PlatformSnapshot, error)
}

// SKUSnapshots lists the raw stored snapshots behind one SKU. Debug surface
// for operators chasing a surprising unified row.
func SKUSnapshots(repo snapshotFinder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sku := validators.SanitizeString(chi.URLParam(r, "sku"), maxSKULen)
		if sku == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "sku is required"))
			return
		}

		snaps, err := repo.FindBySKU(r.Context(), sku)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list snapshots"))
			return
		}
		if snaps == nil {
			// No data yet is a normal state, not an error.
			snaps = []models.PlatformSnapshot{}
		}
		responses.WriteSuccess(w, snaps)
	}
}
