package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxRate stores a tax rate as a fraction, e.g. 0.1500 for 15%.
type TaxRate struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string          `gorm:"column:name;not null;uniqueIndex"`
	Rate      decimal.Decimal `gorm:"column:rate;type:numeric(5,4);not null"`
	IsDefault bool            `gorm:"column:is_default;not null;default:false"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
