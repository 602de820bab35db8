package invoices

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/pkg/db/models"
)

// IssueInput raises an invoice from an order.
type IssueInput struct {
	OrderID uuid.UUID
	DueDate *time.Time
}

// PaymentInput records one payment against an invoice.
type PaymentInput struct {
	Amount    decimal.Decimal
	Method    string
	Reference *string
	Notes     *string
	PaidAt    *time.Time
}

// Statement is a customer's open-balance view across non-void invoices.
type Statement struct {
	CustomerID  uuid.UUID        `json:"customer_id"`
	Invoices    []models.Invoice `json:"invoices"`
	TotalBilled decimal.Decimal  `json:"total_billed"`
	TotalPaid   decimal.Decimal  `json:"total_paid"`
	OpenBalance decimal.Decimal  `json:"open_balance"`
}
