package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRoll defines a material roll a product can be cut from: a rate per
// square foot and an optional discounted offcut rate for remnant cuts.
type ProductRoll struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID   uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	Name        string           `gorm:"column:name;not null"`
	RatePerSqFt decimal.Decimal  `gorm:"column:rate_per_sqft;type:numeric(12,4);not null"`
	OffcutRate  *decimal.Decimal `gorm:"column:offcut_rate;type:numeric(12,4)"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
