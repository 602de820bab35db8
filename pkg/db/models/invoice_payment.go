package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoicePayment records a single payment applied to an invoice.
type InvoicePayment struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceID uuid.UUID       `gorm:"column:invoice_id;type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Method    string          `gorm:"column:method;not null"`
	Reference *string         `gorm:"column:reference"`
	Notes     *string         `gorm:"column:notes"`
	PaidAt    time.Time       `gorm:"column:paid_at;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
