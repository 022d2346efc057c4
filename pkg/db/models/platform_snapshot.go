package models

import (
	"time"

	"github.com/dmferrer/stockpilot-backend/pkg/enums"
)

// PlatformSnapshot is the latest stock report for one (sku, platform) pair.
// The store keeps exactly one row per pair; a fresh report replaces the old
// one wholesale, never field by field.
type PlatformSnapshot struct {
	SKU            string                 `gorm:"column:sku;primaryKey;size:128"`
	Platform       enums.CommercePlatform `gorm:"column:platform;primaryKey;size:32"`
	UnitsAvailable int                    `gorm:"column:units_available;not null;default:0"`
	UnitsReserved  int                    `gorm:"column:units_reserved;not null;default:0"`
	CapturedAt     time.Time              `gorm:"column:captured_at;not null"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the goose-managed table name.
func (PlatformSnapshot) TableName() string {
	return "platform_snapshots"
}
