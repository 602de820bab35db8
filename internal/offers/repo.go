package offers

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
	"github.com/printdesk/printdesk-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an offers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	if err := r.db.WithContext(ctx).Create(offer).Error; err != nil {
		return nil, err
	}
	return offer, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*OfferList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Offer{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.OfferType != nil {
		query = query.Where("offer_type = ?", *filters.OfferType)
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Offer
	err = query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &OfferList{Offers: rows}
	if len(rows) > limit {
		list.Offers = rows[:limit]
		last := list.Offers[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OfferStatus) error {
	return r.Update(ctx, id, map[string]any{"status": status})
}

func (r *repository) FindUsage(ctx context.Context, offerID, customerID uuid.UUID) (*models.OfferUsage, error) {
	var usage models.OfferUsage
	err := r.db.WithContext(ctx).
		Where("offer_id = ? AND customer_id = ?", offerID, customerID).
		First(&usage).Error
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

// RecordUsage bumps the global counter and upserts the per-customer ledger row.
func (r *repository) RecordUsage(ctx context.Context, offerID, customerID uuid.UUID, usedAt time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ?", offerID).
		UpdateColumn("times_used", gorm.Expr("times_used + 1")).Error
	if err != nil {
		return err
	}

	usage := models.OfferUsage{
		ID:         uuid.New(),
		OfferID:    offerID,
		CustomerID: customerID,
		TimesUsed:  1,
		LastUsedAt: usedAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "offer_id"}, {Name: "customer_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"times_used":   gorm.Expr("offer_usages.times_used + 1"),
				"last_used_at": usedAt,
			}),
		}).
		Create(&usage).Error
}
