package invoices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
	pkgerrors "github.com/printdesk/printdesk-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines invoice operations.
type Service interface {
	Issue(ctx context.Context, input IssueInput) (*models.Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	RecordPayment(ctx context.Context, invoiceID uuid.UUID, input PaymentInput) (*models.Invoice, error)
	Void(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error)
	CustomerStatement(ctx context.Context, customerID uuid.UUID) (*Statement, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds an invoices service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoices repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Issue copies the order's totals onto a new invoice. An order can carry at
// most one invoice, and draft or canceled orders cannot be billed.
func (s *service) Issue(ctx context.Context, input IssueInput) (*models.Invoice, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindOrder(ctx, input.OrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	switch order.Status {
	case enums.OrderStatusDraft:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "draft orders cannot be invoiced")
	case enums.OrderStatusCanceled:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "canceled orders cannot be invoiced")
	}

	if existing, err := s.repo.FindByOrder(ctx, order.ID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already has an invoice").
			WithDetails(map[string]any{"invoice_id": existing.ID})
	} else if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing invoice")
	}

	invoice := &models.Invoice{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		Status:      enums.InvoiceStatusIssued,
		Subtotal:    order.Subtotal,
		DiscountAmt: order.DiscountAmount,
		TaxAmount:   order.TaxAmount,
		ShippingAmt: order.ShippingAmount,
		TotalAmount: order.TotalAmount,
		AmountPaid:  decimal.Zero,
		DueDate:     input.DueDate,
		IssuedAt:    time.Now().UTC(),
	}

	created, err := s.repo.Create(ctx, invoice)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
	}
	return s.Get(ctx, created.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id required")
	}
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	return invoice, nil
}

// RecordPayment applies a payment and advances the invoice status. A payment
// can never exceed the open balance.
func (s *service) RecordPayment(ctx context.Context, invoiceID uuid.UUID, input PaymentInput) (*models.Invoice, error) {
	if input.Amount.Sign() <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if strings.TrimSpace(input.Method) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method required")
	}

	invoice, err := s.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	switch invoice.Status {
	case enums.InvoiceStatusVoid:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice is void")
	case enums.InvoiceStatusPaid:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice is already paid")
	}

	balance := invoice.Balance()
	if input.Amount.GreaterThan(balance) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment exceeds open balance").
			WithDetails(map[string]any{"balance": balance})
	}

	paidAt := time.Now().UTC()
	if input.PaidAt != nil {
		paidAt = *input.PaidAt
	}
	newPaid := invoice.AmountPaid.Add(input.Amount)
	status := enums.InvoiceStatusPartiallyPaid
	var settledAt *time.Time
	if newPaid.Equal(invoice.TotalAmount) {
		status = enums.InvoiceStatusPaid
		settledAt = &paidAt
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment := &models.InvoicePayment{
			InvoiceID: invoice.ID,
			Amount:    input.Amount,
			Method:    input.Method,
			Reference: input.Reference,
			Notes:     input.Notes,
			PaidAt:    paidAt,
		}
		if _, err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
		}
		updates := map[string]any{
			"amount_paid": newPaid,
			"status":      status,
		}
		if settledAt != nil {
			updates["paid_at"] = *settledAt
		}
		if err := repo.Update(ctx, invoice.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, invoiceID)
}

// Void cancels an unpaid invoice. Invoices with recorded payments cannot be
// voided and need a correcting entry instead.
func (s *service) Void(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status == enums.InvoiceStatusVoid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice is already void")
	}
	if invoice.AmountPaid.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoices with payments cannot be voided")
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"status":    enums.InvoiceStatusVoid,
		"voided_at": now,
	}
	if err := s.repo.Update(ctx, invoice.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void invoice")
	}
	return s.Get(ctx, invoiceID)
}

// CustomerStatement sums a customer's non-void invoices into billed, paid
// and open-balance figures.
func (s *service) CustomerStatement(ctx context.Context, customerID uuid.UUID) (*Statement, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if _, err := s.repo.FindCustomer(ctx, customerID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	invoices, err := s.repo.FindOpenByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoices")
	}

	statement := &Statement{
		CustomerID:  customerID,
		Invoices:    invoices,
		TotalBilled: decimal.Zero,
		TotalPaid:   decimal.Zero,
		OpenBalance: decimal.Zero,
	}
	for _, invoice := range invoices {
		statement.TotalBilled = statement.TotalBilled.Add(invoice.TotalAmount)
		statement.TotalPaid = statement.TotalPaid.Add(invoice.AmountPaid)
	}
	statement.OpenBalance = statement.TotalBilled.Sub(statement.TotalPaid)
	return statement, nil
}
