package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/pkg/enums"
)

// OrderItem is a priced line on an order. The pricing inputs are captured at
// the time the order was created so subsequent product edits do not change
// existing orders.
type OrderItem struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID     uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	RollID        *uuid.UUID          `gorm:"column:roll_id;type:uuid"`
	Description   string              `gorm:"column:description;not null"`
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
