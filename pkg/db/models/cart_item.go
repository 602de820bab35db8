package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/pkg/enums"
)

// CartItem is one stacked cart line. Lines that share a Fingerprint
// (product/roll/dimensions/options) merge into a single item with a summed
// quantity instead of repeating.
type CartItem struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID        uuid.UUID           `gorm:"column:cart_id;type:uuid;not null"`
	ProductID     uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	RollID        *uuid.UUID          `gorm:"column:roll_id;type:uuid"`
	Fingerprint   string              `gorm:"column:fingerprint;not null;index"`
	PricingMethod enums.PricingMethod `gorm:"column:pricing_method;type:pricing_method;not null"`
	Quantity      decimal.Decimal     `gorm:"column:quantity;type:numeric(12,3);not null"`
	UnitPrice     decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null;default:0"`
	SizeUnit      enums.SizeUnit      `gorm:"column:size_unit;type:size_unit;not null;default:'in'"`
	Width         *decimal.Decimal    `gorm:"column:width;type:numeric(12,3)"`
	Height        *decimal.Decimal    `gorm:"column:height;type:numeric(12,3)"`
	RollRate      *decimal.Decimal    `gorm:"column:roll_rate;type:numeric(12,4)"`
	OffcutRate    *decimal.Decimal    `gorm:"column:offcut_rate;type:numeric(12,4)"`
	UseOffcutRate bool                `gorm:"column:use_offcut_rate;not null;default:false"`
	LineTotal     decimal.Decimal     `gorm:"column:line_total;type:numeric(12,2);not null;default:0"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
