package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WorkingGroupPrice overrides a product's unit price for one working group.
type WorkingGroupPrice struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID      uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_group_price"`
	WorkingGroupID uuid.UUID       `gorm:"column:working_group_id;type:uuid;not null;uniqueIndex:idx_group_price"`
	UnitPrice      decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
