package estimates

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/pagination"
)

// Repository defines persistence operations for estimates. CreateOrder is
// here so conversion can write the resulting order in the same transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, estimate *models.Estimate) (*models.Estimate, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Estimate, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*EstimateList, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
}
