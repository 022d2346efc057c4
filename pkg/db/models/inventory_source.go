package models

import (
	"time"

	"github.com/dmferrer/stockpilot-backend/pkg/enums"
)

// InventorySource pins an operator-chosen primary platform for a SKU. Once
// set it persists until an operator changes it; it may point at a platform
// with no current snapshot, in which case it is inert until one appears.
type InventorySource struct {
	SKU             string                 `gorm:"column:sku;primaryKey;size:128"`
	PrimaryPlatform enums.CommercePlatform `gorm:"column:primary_platform;size:32;not null"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the goose-managed table name.
func (InventorySource) TableName() string {
	return "inventory_sources"
}
