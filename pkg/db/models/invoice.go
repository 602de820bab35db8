package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/pkg/enums"
)

// Invoice is issued from an order. Totals are copied from the order at issue
// time; AmountPaid is maintained as payments are recorded.
type Invoice struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceNumber int64               `gorm:"column:invoice_number;not null;uniqueIndex;autoIncrement"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	CustomerID    uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	Status        enums.InvoiceStatus `gorm:"column:status;type:invoice_status;not null;default:'issued'"`
	Subtotal      decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	DiscountAmt   decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	TaxAmount     decimal.Decimal     `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	ShippingAmt   decimal.Decimal     `gorm:"column:shipping_amount;type:numeric(12,2);not null;default:0"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null;default:0"`
	AmountPaid    decimal.Decimal     `gorm:"column:amount_paid;type:numeric(12,2);not null;default:0"`
	DueDate       *time.Time          `gorm:"column:due_date"`
	IssuedAt      time.Time           `gorm:"column:issued_at;not null"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`
	VoidedAt      *time.Time          `gorm:"column:voided_at"`
	Payments      []InvoicePayment    `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Balance is the amount still owed on the invoice.
func (i *Invoice) Balance() decimal.Decimal {
	return i.TotalAmount.Sub(i.AmountPaid)
}
