package inventory

import (
	"time"

	"github.com/dmferrer/stockpilot-backend/pkg/db/models"
	"github.com/dmferrer/stockpilot-backend/pkg/enums"
)

// SnapshotSet is the full snapshot store state, grouped by SKU.
type SnapshotSet map[string][]models.PlatformSnapshot

// OverrideSet maps SKU to its operator-pinned primary platform.
type OverrideSet map[string]enums.CommercePlatform

// UnifiedInventoryItem is the merged view of one SKU across all platforms.
// Quantities are copied verbatim from the chosen source snapshot; nothing is
// aggregated across platforms. Field names are a stable wire contract.
type UnifiedInventoryItem struct {
	SKU            string                 `json:"sku"`
	UnitsAvailable int                    `json:"units_available"`
	UnitsReserved  int                    `json:"units_reserved"`
	SourcePlatform enums.CommercePlatform `json:"source_platform"`
	SnapshotAt     time.Time              `json:"snapshot_at"`
	HadConflict    bool                   `json:"had_conflict"`
	Resolution     enums.Resolution       `json:"resolution"`
}

// UnifiedInventoryResponse is the output of one reconciliation run.
type UnifiedInventoryResponse struct {
	Items          []UnifiedInventoryItem `json:"items"`
	TotalSKUs      int                    `json:"total_skus"`
	ConflictedSKUs int                    `json:"conflicted_skus"`
	UnresolvedSKUs int                    `json:"unresolved_skus"`
	Warnings       []string               `json:"warnings"`
	ComputedAt     time.Time              `json:"computed_at"`
}

// SourceEntry is one override row on the wire.
type SourceEntry struct {
	SKU             string                 `json:"sku"`
	PrimaryPlatform enums.CommercePlatform `json:"primary_platform"`
}

// SourcesResponse lists every override entry.
type SourcesResponse struct {
	Entries []SourceEntry `json:"entries"`
}

// SnapshotInput is one snapshot as reported by a connector.
type SnapshotInput struct {
	SKU            string
	Platform       enums.CommercePlatform
	UnitsAvailable int
	UnitsReserved  int
	CapturedAt     time.Time
}
