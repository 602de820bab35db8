package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printdesk/printdesk-backend/pkg/db/models"
)

// Repository defines persistence operations for carts and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, cart *models.CartRecord) (*models.CartRecord, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CartRecord, error)
	FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error)
	UpdateCart(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error)
	FindItemByFingerprint(ctx context.Context, cartID uuid.UUID, fingerprint string) (*models.CartItem, error)
	UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}
