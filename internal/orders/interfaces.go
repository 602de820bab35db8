package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/pagination"
)

// Repository defines persistence operations for orders, their items and the
// lock event ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error)
	UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	AppendLockEvent(ctx context.Context, event *models.OrderLockEvent) error
	FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindActiveCart(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error)
	MarkCartConverted(ctx context.Context, cartID uuid.UUID) error
	ProductNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}
