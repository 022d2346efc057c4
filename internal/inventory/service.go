package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmferrer/stockpilot-backend/pkg/db/models"
	"github.com/dmferrer/stockpilot-backend/pkg/enums"
	pkgerrors "github.com/dmferrer/stockpilot-backend/pkg/errors"
	"github.com/dmferrer/stockpilot-backend/pkg/logger"
	"github.com/dmferrer/stockpilot-backend/pkg/metrics"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"
)

type snapshotRepository interface {
	Upsert(ctx context.Context, snap models.PlatformSnapshot) (bool, error)
	ListAll(ctx context.Context) (map[string][]models.PlatformSnapshot, error)
}

type sourceRepository interface {
	List(ctx context.Context) ([]models.InventorySource, error)
	MapBySKU(ctx context.Context) (map[string]enums.CommercePlatform, error)
	SetBatch(ctx context.Context, entries []models.InventorySource) error
}

type viewCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	UnifiedInventoryKey() string
}

// Service bridges the snapshot and override stores with the reconciler.
type Service interface {
	IngestSnapshot(ctx context.Context, input SnapshotInput) error
	IngestBatch(ctx context.Context, platform enums.CommercePlatform, inputs []SnapshotInput) (accepted, skipped int, err error)
	GetUnifiedInventory(ctx context.Context) (*UnifiedInventoryResponse, error)
	ListSources(ctx context.Context) (*SourcesResponse, error)
	SetSources(ctx context.Context, entries []SourceEntry) error
}

// ServiceParams collects the service dependencies. Cache, metrics and events
// are optional; the stores are not.
type ServiceParams struct {
	Snapshots snapshotRepository
	Sources   sourceRepository
	Cache     viewCache
	CacheTTL  time.Duration
	Metrics   *metrics.ReconcileMetrics
	Events    *EventPublisher
	Logger    *logger.Logger
}

type service struct {
	snapshots snapshotRepository
	sources   sourceRepository
	cache     viewCache
	cacheTTL  time.Duration
	metrics   *metrics.ReconcileMetrics
	events    *EventPublisher
	logg      *logger.Logger
	group     singleflight.Group
}

// NewService builds the reconciliation service.
func NewService(params ServiceParams) (Service, error) {
	if params.Snapshots == nil {
		return nil, fmt.Errorf("snapshot repository required")
	}
	if params.Sources == nil {
		return nil, fmt.Errorf("source repository required")
	}
	return &service{
		snapshots: params.Snapshots,
		sources:   params.Sources,
		cache:     params.Cache,
		cacheTTL:  params.CacheTTL,
		metrics:   params.Metrics,
		events:    params.Events,
		logg:      params.Logger,
	}, nil
}

func validateSnapshot(input SnapshotInput) error {
	if strings.TrimSpace(input.SKU) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if !input.Platform.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown platform %q", input.Platform))
	}
	if input.UnitsAvailable < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "units_available must be >= 0").
			WithDetails(map[string]any{"sku": input.SKU, "units_available": input.UnitsAvailable})
	}
	if input.UnitsReserved < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "units_reserved must be >= 0").
			WithDetails(map[string]any{"sku": input.SKU, "units_reserved": input.UnitsReserved})
	}
	if input.CapturedAt.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "captured_at is required")
	}
	return nil
}

// IngestSnapshot validates and upserts a single connector-pushed snapshot.
// It does not trigger reconciliation; the next read recomputes.
func (s *service) IngestSnapshot(ctx context.Context, input SnapshotInput) error {
	if err := validateSnapshot(input); err != nil {
		return err
	}

	applied, err := s.snapshots.Upsert(ctx, models.PlatformSnapshot{
		SKU:            strings.TrimSpace(input.SKU),
		Platform:       input.Platform,
		UnitsAvailable: input.UnitsAvailable,
		UnitsReserved:  input.UnitsReserved,
		CapturedAt:     input.CapturedAt.UTC(),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("upsert snapshot %s/%s", input.SKU, input.Platform))
	}
	if applied {
		s.metrics.IncSnapshotsIngested(input.Platform.String(), 1)
	}

	s.invalidateUnified(ctx)
	return nil
}

// IngestBatch upserts every snapshot a connector pulled in one run. Stale
// rows (older than the stored snapshot for the same key) are counted as
// skipped, not failed: at-least-once delivery makes duplicates routine.
func (s *service) IngestBatch(ctx context.Context, platform enums.CommercePlatform, inputs []SnapshotInput) (int, int, error) {
	if !platform.IsValid() {
		return 0, 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown platform %q", platform))
	}

	accepted, skipped := 0, 0
	for _, input := range inputs {
		input.Platform = platform
		if err := validateSnapshot(input); err != nil {
			return accepted, skipped, err
		}
		applied, err := s.snapshots.Upsert(ctx, models.PlatformSnapshot{
			SKU:            strings.TrimSpace(input.SKU),
			Platform:       platform,
			UnitsAvailable: input.UnitsAvailable,
			UnitsReserved:  input.UnitsReserved,
			CapturedAt:     input.CapturedAt.UTC(),
		})
		if err != nil {
			return accepted, skipped, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("upsert snapshot %s/%s", input.SKU, platform))
		}
		if applied {
			accepted++
		} else {
			skipped++
		}
	}

	s.metrics.IncSnapshotsIngested(platform.String(), accepted)
	s.invalidateUnified(ctx)
	s.events.PublishSnapshotsIngested(ctx, platform, accepted, skipped)
	return accepted, skipped, nil
}

// GetUnifiedInventory serves the memoized unified view, recomputing from the
// two stores on a miss. Concurrent misses collapse into one recomputation.
func (s *service) GetUnifiedInventory(ctx context.Context) (*UnifiedInventoryResponse, error) {
	if cached := s.readCached(ctx); cached != nil {
		return cached, nil
	}

	result, err, _ := s.group.Do("unified", func() (any, error) {
		// The flight serves every waiter, so it must not die with whichever
		// request happened to lead it.
		return s.recompute(context.WithoutCancel(ctx))
	})
	if err != nil {
		s.metrics.IncRunFailure("read")
		return nil, err
	}
	return result.(*UnifiedInventoryResponse), nil
}

func (s *service) recompute(ctx context.Context) (*UnifiedInventoryResponse, error) {
	start := time.Now()

	snaps, err := s.snapshots.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list snapshots")
	}
	overrides, err := s.sources.MapBySKU(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overrides")
	}

	resp, err := Reconcile(ctx, snaps, overrides, start.UTC())
	if err != nil {
		return nil, err
	}

	if resp.UnresolvedSKUs > 0 && s.logg != nil {
		// A SKU with snapshots that selected nothing is a reconciler defect.
		s.logg.Error(ctx, "reconcile.unresolved_skus",
			pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("%d skus left unresolved", resp.UnresolvedSKUs)))
	}

	s.metrics.ObserveRun("read", time.Since(start))
	s.metrics.IncRunSuccess("read")
	s.metrics.SetRunTotals(resp.TotalSKUs, resp.ConflictedSKUs)

	s.writeCached(ctx, resp)
	return resp, nil
}

// ListSources returns every override entry as a flat sequence.
func (s *service) ListSources(ctx context.Context) (*SourcesResponse, error) {
	entries, err := s.sources.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overrides")
	}
	resp := &SourcesResponse{Entries: make([]SourceEntry, 0, len(entries))}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, SourceEntry{
			SKU:             entry.SKU,
			PrimaryPlatform: entry.PrimaryPlatform,
		})
	}
	return resp, nil
}

// SetSources applies an override batch atomically: when any entry is invalid
// nothing is written, so the operator never ends up with half a correction.
func (s *service) SetSources(ctx context.Context, entries []SourceEntry) error {
	if len(entries) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "entries must not be empty")
	}

	var invalid error
	records := make([]models.InventorySource, 0, len(entries))
	for i, entry := range entries {
		sku := strings.TrimSpace(entry.SKU)
		if sku == "" {
			invalid = multierr.Append(invalid, fmt.Errorf("entry %d: sku is required", i))
			continue
		}
		if !entry.PrimaryPlatform.IsValid() {
			invalid = multierr.Append(invalid, fmt.Errorf("entry %d (%s): unknown platform %q", i, sku, entry.PrimaryPlatform))
			continue
		}
		records = append(records, models.InventorySource{
			SKU:             sku,
			PrimaryPlatform: entry.PrimaryPlatform,
		})
	}
	if invalid != nil {
		details := make([]string, 0)
		for _, err := range multierr.Errors(invalid) {
			details = append(details, err.Error())
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid override entries").
			WithDetails(map[string]any{"errors": details})
	}

	if err := s.sources.SetBatch(ctx, records); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set overrides")
	}

	s.invalidateUnified(ctx)
	return nil
}

func (s *service) readCached(ctx context.Context) *UnifiedInventoryResponse {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	raw, err := s.cache.Get(ctx, s.cache.UnifiedInventoryKey())
	if err != nil || raw == "" {
		return nil
	}
	var resp UnifiedInventoryResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "unified cache entry corrupt, recomputing")
		}
		return nil
	}
	return &resp
}

func (s *service) writeCached(ctx context.Context, resp *UnifiedInventoryResponse) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.UnifiedInventoryKey(), string(raw), s.cacheTTL); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "failed to write unified cache")
	}
}

func (s *service) invalidateUnified(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.UnifiedInventoryKey()); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "failed to invalidate unified cache")
	}
}
