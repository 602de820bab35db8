package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/pkg/enums"
)

// Order is a production order. Once locked, its items and totals are frozen
// until an explicit unlock, which is recorded in the lock event ledger.
type Order struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber    int64             `gorm:"column:order_number;not null;uniqueIndex;autoIncrement"`
	CustomerID     uuid.UUID         `gorm:"column:customer_id;type:uuid;not null"`
	WorkingGroupID *uuid.UUID        `gorm:"column:working_group_id;type:uuid"`
	Status         enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'draft'"`
	OfferID        *uuid.UUID        `gorm:"column:offer_id;type:uuid"`
	DiscountMode   enums.AdjustMode  `gorm:"column:discount_mode;type:adjust_mode;not null;default:'none'"`
	DiscountValue  decimal.Decimal   `gorm:"column:discount_value;type:numeric(12,2);not null;default:0"`
	TaxMode        enums.AdjustMode  `gorm:"column:tax_mode;type:adjust_mode;not null;default:'none'"`
	TaxValue       decimal.Decimal   `gorm:"column:tax_value;type:numeric(12,4);not null;default:0"`
	Subtotal       decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	DiscountAmount decimal.Decimal   `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	TaxAmount      decimal.Decimal   `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	ShippingAmount decimal.Decimal   `gorm:"column:shipping_amount;type:numeric(12,2);not null;default:0"`
	TotalAmount    decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null;default:0"`
	LockedAt       *time.Time        `gorm:"column:locked_at"`
	LockedBy       *uuid.UUID        `gorm:"column:locked_by;type:uuid"`
	Notes          *string           `gorm:"column:notes"`
	Items          []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	LockEvents     []OrderLockEvent  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// IsLocked reports whether the order currently rejects item mutation.
func (o *Order) IsLocked() bool {
	return o != nil && o.LockedAt != nil
}
