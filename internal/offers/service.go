package offers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/printdesk/printdesk-backend/pkg/db"
	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
	pkgerrors "github.com/printdesk/printdesk-backend/pkg/errors"
	"github.com/printdesk/printdesk-backend/pkg/pagination"
)

// usageCache caches per-customer usage snapshots so repeated code checks while
// a customer edits their cart do not hammer the ledger table.
type usageCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	OfferUsageKey(offerCode, customerID string) string
}

// Service defines offer management and code validation operations.
type Service interface {
	Create(ctx context.Context, input CreateOfferInput) (*models.Offer, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OfferList, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.OfferStatus) error
	ValidateCode(ctx context.Context, input ValidateCodeInput) (*Validation, error)
	Redeem(ctx context.Context, tx *gorm.DB, offerID, customerID uuid.UUID, usedAt time.Time) error
}

type service struct {
	repo     Repository
	cache    usageCache
	cacheTTL time.Duration
}

// NewService builds an offers service. The cache is optional; passing nil
// disables usage snapshot caching.
func NewService(repo Repository, cache usageCache, cacheTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	return &service{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOfferInput) (*models.Offer, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer code required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer name required")
	}
	if !input.OfferType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid offer type")
	}
	if !input.EndDate.After(input.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer end date must be after start date")
	}
	if input.DiscountValue.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value cannot be negative")
	}
	if input.MinPurchaseAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum purchase cannot be negative")
	}

	offer := &models.Offer{
		Code:                    code,
		Name:                    strings.TrimSpace(input.Name),
		Description:             input.Description,
		OfferType:               input.OfferType,
		Status:                  enums.OfferStatusDraft,
		DiscountValue:           input.DiscountValue,
		MinPurchaseAmount:       input.MinPurchaseAmount,
		StartDate:               input.StartDate,
		EndDate:                 input.EndDate,
		UsageLimit:              input.UsageLimit,
		PerCustomerLimit:        input.PerCustomerLimit,
		EligibleWorkingGroupIDs: pq.StringArray(idStrings(input.EligibleWorkingGroupIDs)),
		EligibleProductIDs:      pq.StringArray(idStrings(input.EligibleProductIDs)),
	}

	created, err := s.repo.Create(ctx, offer)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_offers_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "offer code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create offer")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}
	offer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	return offer, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*OfferList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	return list, nil
}

func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status enums.OfferStatus) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid offer status")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer status")
	}
	return nil
}

// ValidateCode loads the offer behind a code, snapshots its usage counters and
// runs the eligibility rules. It never mutates counters; Redeem does that once
// the surrounding document is committed.
func (s *service) ValidateCode(ctx context.Context, input ValidateCodeInput) (*Validation, error) {
	if strings.TrimSpace(input.Code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer code required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	offer, err := s.repo.FindByCode(ctx, input.Code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer by code")
	}

	now := input.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	customerUsage, err := s.customerUsageCount(ctx, offer, input.CustomerID)
	if err != nil {
		return nil, err
	}

	decision := Evaluate(offer, EligibilityContext{
		Now:                now,
		CustomerID:         input.CustomerID,
		WorkingGroupID:     input.WorkingGroupID,
		ProductIDs:         input.ProductIDs,
		PurchaseAmount:     input.PurchaseAmount,
		PriorUsageCount:    offer.TimesUsed,
		PriorCustomerUsage: customerUsage,
	})

	return &Validation{
		Offer:        offer,
		Eligible:     decision.Eligible,
		Reason:       decision.Reason,
		FreeShipping: decision.Eligible && offer.OfferType == enums.OfferTypeFreeShipping,
	}, nil
}

// Redeem records a successful redemption inside the caller's transaction and
// drops the cached usage snapshot so the next validation sees the new count.
func (s *service) Redeem(ctx context.Context, tx *gorm.DB, offerID, customerID uuid.UUID, usedAt time.Time) error {
	if offerID == uuid.Nil || customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer and customer ids required")
	}
	repo := s.repo.WithTx(tx)
	if err := repo.RecordUsage(ctx, offerID, customerID, usedAt); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record offer usage")
	}

	if s.cache != nil && s.cacheTTL > 0 {
		offer, err := repo.FindByID(ctx, offerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer for usage invalidation")
		}
		if err := s.cache.Del(ctx, s.cache.OfferUsageKey(offer.Code, customerID.String())); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalidate offer usage snapshot")
		}
	}
	return nil
}

func (s *service) customerUsageCount(ctx context.Context, offer *models.Offer, customerID uuid.UUID) (int64, error) {
	var cacheKey string
	if s.cache != nil && s.cacheTTL > 0 {
		cacheKey = s.cache.OfferUsageKey(offer.Code, customerID.String())
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil {
			if count, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil {
				return count, nil
			}
		}
	}

	var count int64
	usage, err := s.repo.FindUsage(ctx, offer.ID, customerID)
	switch {
	case err == gorm.ErrRecordNotFound:
		count = 0
	case err != nil:
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer usage")
	default:
		count = usage.TimesUsed
	}

	if cacheKey != "" {
		_ = s.cache.Set(ctx, cacheKey, strconv.FormatInt(count, 10), s.cacheTTL)
	}
	return count, nil
}

func idStrings(ids []uuid.UUID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
