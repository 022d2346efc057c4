package snapshots

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dmferrer/stockpilot-backend/pkg/db/models"
	"github.com/dmferrer/stockpilot-backend/pkg/enums"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.PlatformSnapshot{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return NewRepository(conn)
}

func TestUpsertInsertAndUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	capturedAt := time.Date(2025, 9, 2, 9, 0, 0, 0, time.UTC)

	applied, err := repo.Upsert(ctx, models.PlatformSnapshot{
		SKU:            "SHIRT-S",
		Platform:       enums.PlatformShopify,
		UnitsAvailable: 10,
		UnitsReserved:  2,
		CapturedAt:     capturedAt,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !applied {
		t.Fatal("initial insert must be applied")
	}

	applied, err = repo.Upsert(ctx, models.PlatformSnapshot{
		SKU:            "SHIRT-S",
		Platform:       enums.PlatformShopify,
		UnitsAvailable: 7,
		UnitsReserved:  1,
		CapturedAt:     capturedAt.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !applied {
		t.Fatal("newer capture must be applied")
	}

	rows, err := repo.FindBySKU(ctx, "SHIRT-S")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("want 1 row per (sku, platform), got %d", len(rows))
	}
	if rows[0].UnitsAvailable != 7 {
		t.Errorf("units_available = %d, want 7", rows[0].UnitsAvailable)
	}
}

func TestUpsertRejectsStaleCapture(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	capturedAt := time.Date(2025, 9, 2, 9, 0, 0, 0, time.UTC)

	if _, err := repo.Upsert(ctx, models.PlatformSnapshot{
		SKU:            "SHIRT-M",
		Platform:       enums.PlatformTiendanube,
		UnitsAvailable: 5,
		CapturedAt:     capturedAt,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Out-of-order redelivery from the same connector run.
	applied, err := repo.Upsert(ctx, models.PlatformSnapshot{
		SKU:            "SHIRT-M",
		Platform:       enums.PlatformTiendanube,
		UnitsAvailable: 99,
		CapturedAt:     capturedAt.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("stale upsert: %v", err)
	}
	if applied {
		t.Error("stale capture must be rejected")
	}

	rows, err := repo.FindBySKU(ctx, "SHIRT-M")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if rows[0].UnitsAvailable != 5 {
		t.Errorf("stale capture overwrote rows: units_available = %d", rows[0].UnitsAvailable)
	}
}

func TestUpsertEqualCaptureIsApplied(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	capturedAt := time.Date(2025, 9, 2, 9, 0, 0, 0, time.UTC)

	if _, err := repo.Upsert(ctx, models.PlatformSnapshot{
		SKU: "A", Platform: enums.PlatformShopify, UnitsAvailable: 1, CapturedAt: capturedAt,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	applied, err := repo.Upsert(ctx, models.PlatformSnapshot{
		SKU: "A", Platform: enums.PlatformShopify, UnitsAvailable: 2, CapturedAt: capturedAt,
	})
	if err != nil {
		t.Fatalf("equal upsert: %v", err)
	}
	if !applied {
		t.Error("equal captured_at must overwrite (idempotent redelivery)")
	}
}

func TestListAllGroupsBySKU(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	capturedAt := time.Date(2025, 9, 2, 9, 0, 0, 0, time.UTC)

	seed := []models.PlatformSnapshot{
		{SKU: "A", Platform: enums.PlatformShopify, UnitsAvailable: 1, CapturedAt: capturedAt},
		{SKU: "A", Platform: enums.PlatformTiendanube, UnitsAvailable: 2, CapturedAt: capturedAt},
		{SKU: "B", Platform: enums.PlatformWooCommerce, UnitsAvailable: 3, CapturedAt: capturedAt},
	}
	for _, snap := range seed {
		if _, err := repo.Upsert(ctx, snap); err != nil {
			t.Fatalf("seed %s/%s: %v", snap.SKU, snap.Platform, err)
		}
	}

	grouped, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(grouped) != 2 {
		t.Fatalf("want 2 skus, got %d", len(grouped))
	}
	if len(grouped["A"]) != 2 || len(grouped["B"]) != 1 {
		t.Errorf("unexpected grouping: %+v", grouped)
	}
}
