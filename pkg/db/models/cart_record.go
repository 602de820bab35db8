package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/pkg/enums"
)

// CartRecord is a customer's open cart with totals recomputed on every edit.
type CartRecord struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID     uuid.UUID        `gorm:"column:customer_id;type:uuid;not null"`
	Status         enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'active'"`
	OfferCode      *string          `gorm:"column:offer_code"`
	Subtotal       decimal.Decimal  `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	DiscountAmount decimal.Decimal  `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	TaxAmount      decimal.Decimal  `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	ShippingAmount decimal.Decimal  `gorm:"column:shipping_amount;type:numeric(12,2);not null;default:0"`
	TotalAmount    decimal.Decimal  `gorm:"column:total_amount;type:numeric(12,2);not null;default:0"`
	ConvertedAt    *time.Time       `gorm:"column:converted_at"`
	Items          []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
