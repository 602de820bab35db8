package offers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
	"github.com/printdesk/printdesk-backend/pkg/pagination"
)

// Repository defines persistence operations for offers and usage ledgers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	FindByCode(ctx context.Context, code string) (*models.Offer, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OfferList, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OfferStatus) error
	FindUsage(ctx context.Context, offerID, customerID uuid.UUID) (*models.OfferUsage, error)
	RecordUsage(ctx context.Context, offerID, customerID uuid.UUID, usedAt time.Time) error
}
