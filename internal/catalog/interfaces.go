package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/pagination"
)

// Repository defines persistence operations for the product catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductBySKU(ctx context.Context, sku string) (*models.Product, error)
	ListProducts(ctx context.Context, params pagination.Params, filters ProductFilters) (*ProductList, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CreateRoll(ctx context.Context, roll *models.ProductRoll) (*models.ProductRoll, error)
	FindRoll(ctx context.Context, id uuid.UUID) (*models.ProductRoll, error)
	ListRollsByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductRoll, error)
	UpsertGroupPrice(ctx context.Context, price *models.WorkingGroupPrice) error
	FindGroupPrice(ctx context.Context, productID, workingGroupID uuid.UUID) (*models.WorkingGroupPrice, error)
	FindDefaultTaxRate(ctx context.Context) (*models.TaxRate, error)
}
