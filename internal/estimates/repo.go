package estimates

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an estimates repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, estimate *models.Estimate) (*models.Estimate, error) {
	if err := r.db.WithContext(ctx).Create(estimate).Error; err != nil {
		return nil, err
	}
	return estimate, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	var estimate models.Estimate
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&estimate).Error
	if err != nil {
		return nil, err
	}
	return &estimate, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*EstimateList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Estimate{})
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Estimate
	err = query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &EstimateList{Estimates: rows}
	if len(rows) > limit {
		list.Estimates = rows[:limit]
		last := list.Estimates[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Estimate{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}
