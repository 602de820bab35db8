package invoices

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printdesk/printdesk-backend/pkg/db/models"
)

// Repository defines persistence operations for invoices and payments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invoice *models.Invoice) (*models.Invoice, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error)
	FindOpenByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Invoice, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CreatePayment(ctx context.Context, payment *models.InvoicePayment) (*models.InvoicePayment, error)
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}
