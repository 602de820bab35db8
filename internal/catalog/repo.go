package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Rolls").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("sku = ?", strings.TrimSpace(sku)).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ListProducts(ctx context.Context, params pagination.Params, filters ProductFilters) (*ProductList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filters.PricingMethod != nil {
		query = query.Where("pricing_method = ?", *filters.PricingMethod)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(sku) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	err = query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &ProductList{Products: rows}
	if len(rows) > limit {
		list.Products = rows[:limit]
		last := list.Products[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

func (r *repository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CreateRoll(ctx context.Context, roll *models.ProductRoll) (*models.ProductRoll, error) {
	if err := r.db.WithContext(ctx).Create(roll).Error; err != nil {
		return nil, err
	}
	return roll, nil
}

func (r *repository) FindRoll(ctx context.Context, id uuid.UUID) (*models.ProductRoll, error) {
	var roll models.ProductRoll
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&roll).Error
	if err != nil {
		return nil, err
	}
	return &roll, nil
}

func (r *repository) ListRollsByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductRoll, error) {
	var rolls []models.ProductRoll
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&rolls).Error
	if err != nil {
		return nil, err
	}
	return rolls, nil
}

func (r *repository) UpsertGroupPrice(ctx context.Context, price *models.WorkingGroupPrice) error {
	if price.ID == uuid.Nil {
		price.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}, {Name: "working_group_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"unit_price": price.UnitPrice,
			}),
		}).
		Create(price).Error
}

func (r *repository) FindGroupPrice(ctx context.Context, productID, workingGroupID uuid.UUID) (*models.WorkingGroupPrice, error) {
	var price models.WorkingGroupPrice
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND working_group_id = ?", productID, workingGroupID).
		First(&price).Error
	if err != nil {
		return nil, err
	}
	return &price, nil
}

func (r *repository) FindDefaultTaxRate(ctx context.Context) (*models.TaxRate, error) {
	var rate models.TaxRate
	err := r.db.WithContext(ctx).
		Where("is_default = ? AND is_active = ?", true, true).
		First(&rate).Error
	if err != nil {
		return nil, err
	}
	return &rate, nil
}
