package sources

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dmferrer/stockpilot-backend/pkg/db/models"
	"github.com/dmferrer/stockpilot-backend/pkg/enums"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.InventorySource{}))
	return NewRepository(conn)
}

func TestSetAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "SHIRT-S", enums.PlatformTiendanube))

	entry, err := repo.Get(ctx, "SHIRT-S")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, enums.PlatformTiendanube, entry.PrimaryPlatform)

	// Re-pinning the same sku replaces the row.
	require.NoError(t, repo.Set(ctx, "SHIRT-S", enums.PlatformShopify))

	entry, err = repo.Get(ctx, "SHIRT-S")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, enums.PlatformShopify, entry.PrimaryPlatform)
}

func TestGetMissing(t *testing.T) {
	repo := newTestRepo(t)

	entry, err := repo.Get(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestListOrderedBySKU(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, entry := range []models.InventorySource{
		{SKU: "C", PrimaryPlatform: enums.PlatformShopify},
		{SKU: "A", PrimaryPlatform: enums.PlatformTiendanube},
		{SKU: "B", PrimaryPlatform: enums.PlatformWooCommerce},
	} {
		require.NoError(t, repo.Set(ctx, entry.SKU, entry.PrimaryPlatform))
	}

	entries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, want := range []string{"A", "B", "C"} {
		assert.Equal(t, want, entries[i].SKU)
	}
}

func TestMapBySKU(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "A", enums.PlatformWooCommerce))

	bySKU, err := repo.MapBySKU(ctx)
	require.NoError(t, err)
	assert.Equal(t, enums.PlatformWooCommerce, bySKU["A"])
}

func TestSetBatchReplacesEntries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetBatch(ctx, []models.InventorySource{
		{SKU: "A", PrimaryPlatform: enums.PlatformTiendanube},
		{SKU: "B", PrimaryPlatform: enums.PlatformShopify},
	}))

	require.NoError(t, repo.SetBatch(ctx, []models.InventorySource{
		{SKU: "A", PrimaryPlatform: enums.PlatformWooCommerce},
	}))

	bySKU, err := repo.MapBySKU(ctx)
	require.NoError(t, err)
	assert.Equal(t, enums.PlatformWooCommerce, bySKU["A"], "batch upsert must replace A")
	assert.Equal(t, enums.PlatformShopify, bySKU["B"], "batch must not clear untouched entries")
}
