package sources

import (
	"context"
	"errors"

	"github.com/dmferrer/stockpilot-backend/pkg/db/models"
	"github.com/dmferrer/stockpilot-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the override store: operator-pinned primary platforms per SKU.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to override operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Set upserts the pinned primary platform for one SKU.
func (r *Repository) Set(ctx context.Context, sku string, platform enums.CommercePlatform) error {
	entry := models.InventorySource{SKU: sku, PrimaryPlatform: platform}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sku"}},
		DoUpdates: clause.AssignmentColumns([]string{"primary_platform", "updated_at"}),
	}).Create(&entry).Error
}

// Get returns the pinned platform for a SKU, or nil when none is set.
func (r *Repository) Get(ctx context.Context, sku string) (*models.InventorySource, error) {
	var entry models.InventorySource
	err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns every override entry ordered by SKU.
func (r *Repository) List(ctx context.Context) ([]models.InventorySource, error) {
	var entries []models.InventorySource
	if err := r.db.WithContext(ctx).Order("sku asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// MapBySKU returns every override as sku -> platform, the shape the
// reconciler consumes.
func (r *Repository) MapBySKU(ctx context.Context) (map[string]enums.CommercePlatform, error) {
	entries, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	bySKU := make(map[string]enums.CommercePlatform, len(entries))
	for _, entry := range entries {
		bySKU[entry.SKU] = entry.PrimaryPlatform
	}
	return bySKU, nil
}

// SetBatch upserts all entries inside one transaction: either every override
// in the batch lands or none do, so readers never observe a partial batch.
func (r *Repository) SetBatch(ctx context.Context, entries []models.InventorySource) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			record := entry
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "sku"}},
				DoUpdates: clause.AssignmentColumns([]string{"primary_platform", "updated_at"}),
			}).Create(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
