package snapshots

import (
	"context"

	"github.com/dmferrer/stockpilot-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the snapshot store: it keeps the latest PlatformSnapshot per
// (sku, platform) pair.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to snapshot operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert replaces the stored snapshot for (sku, platform) in a single
// statement. Snapshots strictly older than the stored row are ignored so a
// delayed connector retry can never regress the store. Returns whether the
// write was applied.
func (r *Repository) Upsert(ctx context.Context, snap models.PlatformSnapshot) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sku"}, {Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"units_available", "units_reserved", "captured_at", "updated_at",
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "platform_snapshots.captured_at <= excluded.captured_at"},
		}},
	}).Create(&snap)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindBySKU returns every platform's snapshot for the given SKU.
func (r *Repository) FindBySKU(ctx context.Context, sku string) ([]models.PlatformSnapshot, error) {
	var snaps []models.PlatformSnapshot
	if err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		Find(&snaps).Error; err != nil {
		return nil, err
	}
	return snaps, nil
}

// ListAll returns every stored snapshot grouped by SKU. This is the input
// to a reconciliation run; no ordering beyond the grouping is guaranteed.
func (r *Repository) ListAll(ctx context.Context) (map[string][]models.PlatformSnapshot, error) {
	var snaps []models.PlatformSnapshot
	if err := r.db.WithContext(ctx).Find(&snaps).Error; err != nil {
		return nil, err
	}
	grouped := make(map[string][]models.PlatformSnapshot, len(snaps))
	for _, snap := range snaps {
		grouped[snap.SKU] = append(grouped[snap.SKU], snap)
	}
	return grouped, nil
}
