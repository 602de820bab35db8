package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/api/responses"
	"github.com/printdesk/printdesk-backend/api/validators"
	invoicesvc "github.com/printdesk/printdesk-backend/internal/invoices"
	"github.com/printdesk/printdesk-backend/pkg/db/models"
	pkgerrors "github.com/printdesk/printdesk-backend/pkg/errors"
	"github.com/printdesk/printdesk-backend/pkg/logger"
)

// InvoiceIssue raises an invoice from a confirmed order, copying its totals.
func InvoiceIssue(svc invoicesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload issueInvoiceRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		invoice, err := svc.Issue(r.Context(), invoicesvc.IssueInput{
			OrderID: orderID,
			DueDate: payload.DueDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newInvoiceResponse(invoice))
	}
}

// InvoiceGet returns one invoice with its payments.
func InvoiceGet(svc invoicesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "invoiceID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newInvoiceResponse(invoice))
	}
}

// InvoiceRecordPayment applies a payment and advances the invoice status.
func InvoiceRecordPayment(svc invoicesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "invoiceID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload recordPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.RecordPayment(r.Context(), id, invoicesvc.PaymentInput{
			Amount:    payload.Amount,
			Method:    payload.Method,
			Reference: payload.Reference,
			Notes:     payload.Notes,
			PaidAt:    payload.PaidAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newInvoiceResponse(invoice))
	}
}

// InvoiceVoid cancels an unpaid invoice.
func InvoiceVoid(svc invoicesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "invoiceID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.Void(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newInvoiceResponse(invoice))
	}
}

// CustomerStatement sums the customer's non-void invoices into an open balance.
func CustomerStatement(svc invoicesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		customerID, err := validators.ParseUUIDParam(r, "customerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		statement, err := svc.CustomerStatement(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoices := make([]invoiceResponse, 0, len(statement.Invoices))
		for i := range statement.Invoices {
			invoices = append(invoices, newInvoiceResponse(&statement.Invoices[i]))
		}
		responses.WriteSuccess(w, statementResponse{
			CustomerID:  statement.CustomerID,
			Invoices:    invoices,
			TotalBilled: statement.TotalBilled,
			TotalPaid:   statement.TotalPaid,
			OpenBalance: statement.OpenBalance,
		})
	}
}

type issueInvoiceRequest struct {
	DueDate *time.Time `json:"due_date,omitempty"`
}

type recordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Method    string          `json:"method" validate:"required"`
	Reference *string         `json:"reference,omitempty"`
	Notes     *string         `json:"notes,omitempty"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
}

type statementResponse struct {
	CustomerID  uuid.UUID         `json:"customer_id"`
	Invoices    []invoiceResponse `json:"invoices"`
	TotalBilled decimal.Decimal   `json:"total_billed"`
	TotalPaid   decimal.Decimal   `json:"total_paid"`
	OpenBalance decimal.Decimal   `json:"open_balance"`
}

type invoiceResponse struct {
	ID             uuid.UUID         `json:"id"`
	InvoiceNumber  int64             `json:"invoice_number"`
	OrderID        uuid.UUID         `json:"order_id"`
	CustomerID     uuid.UUID         `json:"customer_id"`
	Status         string            `json:"status"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	TaxAmount      decimal.Decimal   `json:"tax_amount"`
	ShippingAmount decimal.Decimal   `json:"shipping_amount"`
	TotalAmount    decimal.Decimal   `json:"total_amount"`
	AmountPaid     decimal.Decimal   `json:"amount_paid"`
	Balance        decimal.Decimal   `json:"balance"`
	DueDate        *time.Time        `json:"due_date,omitempty"`
	IssuedAt       time.Time         `json:"issued_at"`
	PaidAt         *time.Time        `json:"paid_at,omitempty"`
	VoidedAt       *time.Time        `json:"voided_at,omitempty"`
	Payments       []paymentResponse `json:"payments,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type paymentResponse struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference *string         `json:"reference,omitempty"`
	Notes     *string         `json:"notes,omitempty"`
	PaidAt    time.Time       `json:"paid_at"`
}

func newInvoiceResponse(invoice *models.Invoice) invoiceResponse {
	if invoice == nil {
		return invoiceResponse{}
	}
	payments := make([]paymentResponse, 0, len(invoice.Payments))
	for _, payment := range invoice.Payments {
		payments = append(payments, paymentResponse{
			ID:        payment.ID,
			Amount:    payment.Amount,
			Method:    payment.Method,
			Reference: payment.Reference,
			Notes:     payment.Notes,
			PaidAt:    payment.PaidAt,
		})
	}

	return invoiceResponse{
		ID:             invoice.ID,
		InvoiceNumber:  invoice.InvoiceNumber,
		OrderID:        invoice.OrderID,
		CustomerID:     invoice.CustomerID,
		Status:         string(invoice.Status),
		Subtotal:       invoice.Subtotal,
		DiscountAmount: invoice.DiscountAmt,
		TaxAmount:      invoice.TaxAmount,
		ShippingAmount: invoice.ShippingAmt,
		TotalAmount:    invoice.TotalAmount,
		AmountPaid:     invoice.AmountPaid,
		Balance:        invoice.Balance(),
		DueDate:        invoice.DueDate,
		IssuedAt:       invoice.IssuedAt,
		PaidAt:         invoice.PaidAt,
		VoidedAt:       invoice.VoidedAt,
		Payments:       payments,
		CreatedAt:      invoice.CreatedAt,
		UpdatedAt:      invoice.UpdatedAt,
	}
}
