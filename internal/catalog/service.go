package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/printdesk/printdesk-backend/internal/pricing"
	"github.com/printdesk/printdesk-backend/pkg/db"
	"github.com/printdesk/printdesk-backend/pkg/db/models"
	pkgerrors "github.com/printdesk/printdesk-backend/pkg/errors"
	"github.com/printdesk/printdesk-backend/pkg/pagination"
)

// Service defines catalog management and price resolution operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, params pagination.Params, filters ProductFilters) (*ProductList, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	AddRoll(ctx context.Context, input CreateRollInput) (*models.ProductRoll, error)
	GetRoll(ctx context.Context, id uuid.UUID) (*models.ProductRoll, error)
	SetGroupPrice(ctx context.Context, productID, workingGroupID uuid.UUID, unitPrice decimal.Decimal) error
	ResolveUnitPrice(ctx context.Context, productID uuid.UUID, workingGroupID *uuid.UUID) (*ResolvedPrice, error)
	DefaultTaxSpec(ctx context.Context) (pricing.AdjustSpec, bool, error)
}

type service struct {
	repo Repository
}

// NewService builds a catalog service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product sku required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if !input.PricingMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid pricing method")
	}
	if input.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}

	product := &models.Product{
		SKU:           sku,
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		PricingMethod: input.PricingMethod,
		UnitPrice:     input.UnitPrice,
		IsActive:      true,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_products_sku") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product sku already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, params pagination.Params, filters ProductFilters) (*ProductList, error) {
	list, err := s.repo.ListProducts(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return list, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be blank")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.UnitPrice != nil {
		if input.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
		}
		updates["unit_price"] = *input.UnitPrice
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) > 0 {
		if err := s.repo.UpdateProduct(ctx, id, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
	}
	return s.GetProduct(ctx, id)
}

func (s *service) AddRoll(ctx context.Context, input CreateRollInput) (*models.ProductRoll, error) {
	product, err := s.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "roll name required")
	}
	if !input.RatePerSqFt.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "roll rate must be positive")
	}
	if input.OffcutRate != nil && !input.OffcutRate.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offcut rate must be positive")
	}

	roll := &models.ProductRoll{
		ProductID:   product.ID,
		Name:        strings.TrimSpace(input.Name),
		RatePerSqFt: input.RatePerSqFt,
		OffcutRate:  input.OffcutRate,
		IsActive:    true,
	}
	created, err := s.repo.CreateRoll(ctx, roll)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product roll")
	}
	return created, nil
}

func (s *service) GetRoll(ctx context.Context, id uuid.UUID) (*models.ProductRoll, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "roll id required")
	}
	roll, err := s.repo.FindRoll(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "roll not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load roll")
	}
	return roll, nil
}

func (s *service) SetGroupPrice(ctx context.Context, productID, workingGroupID uuid.UUID, unitPrice decimal.Decimal) error {
	if workingGroupID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "working group id required")
	}
	if unitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return err
	}

	price := &models.WorkingGroupPrice{
		ProductID:      productID,
		WorkingGroupID: workingGroupID,
		UnitPrice:      unitPrice,
	}
	if err := s.repo.UpsertGroupPrice(ctx, price); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert group price")
	}
	return nil
}

// ResolveUnitPrice returns the working-group price when one is configured,
// falling back to the product's base unit price.
func (s *service) ResolveUnitPrice(ctx context.Context, productID uuid.UUID, workingGroupID *uuid.UUID) (*ResolvedPrice, error) {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if workingGroupID != nil && *workingGroupID != uuid.Nil {
		price, err := s.repo.FindGroupPrice(ctx, productID, *workingGroupID)
		switch {
		case err == gorm.ErrRecordNotFound:
			// fall through to base price
		case err != nil:
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group price")
		default:
			return &ResolvedPrice{UnitPrice: price.UnitPrice, Source: PriceSourceWorkingGroup}, nil
		}
	}

	return &ResolvedPrice{UnitPrice: product.UnitPrice, Source: PriceSourceBase}, nil
}

// DefaultTaxSpec resolves the active default tax rate into an adjustment.
// The second return is false when no default rate row exists, letting the
// caller fall back to its configured percentage.
func (s *service) DefaultTaxSpec(ctx context.Context) (pricing.AdjustSpec, bool, error) {
	rate, err := s.repo.FindDefaultTaxRate(ctx)
	switch {
	case err == gorm.ErrRecordNotFound:
		return pricing.NoAdjust(), false, nil
	case err != nil:
		return pricing.NoAdjust(), false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default tax rate")
	}
	return pricing.PercentAdjustFromFraction(rate.Rate), true, nil
}
