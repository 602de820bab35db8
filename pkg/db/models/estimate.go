package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/pkg/enums"
)

// Estimate is a quoted document that can be sent to a customer and later
// converted into an order. ConvertedOrderID is set exactly once.
type Estimate struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EstimateNumber   int64                `gorm:"column:estimate_number;not null;uniqueIndex;autoIncrement"`
	CustomerID       uuid.UUID            `gorm:"column:customer_id;type:uuid;not null"`
	Status           enums.EstimateStatus `gorm:"column:status;type:estimate_status;not null;default:'draft'"`
	ValidUntil       *time.Time           `gorm:"column:valid_until"`
	DiscountMode     enums.AdjustMode     `gorm:"column:discount_mode;type:adjust_mode;not null;default:'none'"`
	DiscountValue    decimal.Decimal      `gorm:"column:discount_value;type:numeric(12,2);not null;default:0"`
	TaxMode          enums.AdjustMode     `gorm:"column:tax_mode;type:adjust_mode;not null;default:'none'"`
	TaxValue         decimal.Decimal      `gorm:"column:tax_value;type:numeric(12,4);not null;default:0"`
	Subtotal         decimal.Decimal      `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	DiscountAmount   decimal.Decimal      `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	TaxAmount        decimal.Decimal      `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	ShippingAmount   decimal.Decimal      `gorm:"column:shipping_amount;type:numeric(12,2);not null;default:0"`
	TotalAmount      decimal.Decimal      `gorm:"column:total_amount;type:numeric(12,2);not null;default:0"`
	ConvertedOrderID *uuid.UUID           `gorm:"column:converted_order_id;type:uuid"`
	SentAt           *time.Time           `gorm:"column:sent_at"`
	Notes            *string              `gorm:"column:notes"`
	Items            []EstimateItem       `gorm:"foreignKey:EstimateID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
