package estimates

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/printdesk/printdesk-backend/internal/catalog"
	"github.com/printdesk/printdesk-backend/internal/pricing"
	"github.com/printdesk/printdesk-backend/pkg/config"
	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
	pkgerrors "github.com/printdesk/printdesk-backend/pkg/errors"
	"github.com/printdesk/printdesk-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// priceResolver is the slice of the catalog service estimates need.
type priceResolver interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetRoll(ctx context.Context, id uuid.UUID) (*models.ProductRoll, error)
	ResolveUnitPrice(ctx context.Context, productID uuid.UUID, workingGroupID *uuid.UUID) (*catalog.ResolvedPrice, error)
	DefaultTaxSpec(ctx context.Context) (pricing.AdjustSpec, bool, error)
}

// Service defines estimate operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Estimate, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Estimate, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*EstimateList, error)
	Retotal(ctx context.Context, id uuid.UUID) (*models.Estimate, error)
	Send(ctx context.Context, id uuid.UUID) (*models.Estimate, error)
	Accept(ctx context.Context, id uuid.UUID) (*models.Estimate, error)
	Decline(ctx context.Context, id uuid.UUID) (*models.Estimate, error)
	Convert(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type service struct {
	repo       Repository
	catalog    priceResolver
	tx         txRunner
	maxLines   int
	taxPercent decimal.Decimal
	sizeUnit   enums.SizeUnit
}

// NewService builds an estimates service with the required dependencies.
func NewService(repo Repository, catalogSvc priceResolver, tx txRunner, cfg config.PricingConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("estimates repository required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}

	taxPercent := decimal.Zero
	if cfg.DefaultTaxPercent != "" {
		parsed, err := decimal.NewFromString(cfg.DefaultTaxPercent)
		if err != nil {
			return nil, fmt.Errorf("invalid default tax percent %q: %w", cfg.DefaultTaxPercent, err)
		}
		taxPercent = parsed
	}

	sizeUnit := enums.SizeUnitInch
	if cfg.DefaultSizeUnit != "" {
		parsed, err := enums.ParseSizeUnit(cfg.DefaultSizeUnit)
		if err != nil {
			return nil, fmt.Errorf("invalid default size unit: %w", err)
		}
		sizeUnit = parsed
	}

	return &service{
		repo:       repo,
		catalog:    catalogSvc,
		tx:         tx,
		maxLines:   cfg.MaxLinesPerDocument,
		taxPercent: taxPercent,
		sizeUnit:   sizeUnit,
	}, nil
}

// Create prices every quoted line through the catalog and persists the
// estimate with its totals in one shot.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Estimate, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "an estimate needs at least one line")
	}
	if s.maxLines > 0 && len(input.Lines) > s.maxLines {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many lines")
	}
	if input.ShippingAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping amount cannot be negative")
	}

	customer, err := s.repo.FindCustomer(ctx, input.CustomerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	discount := pricing.NoAdjust()
	if input.DiscountMode != nil {
		if !input.DiscountMode.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown discount mode %q", *input.DiscountMode))
		}
		value := decimal.Zero
		if input.DiscountValue != nil {
			value = *input.DiscountValue
		}
		discount = pricing.AdjustSpec{Mode: *input.DiscountMode, Value: value}
	}

	// The tax rate in force at creation is snapshotted onto the estimate;
	// later retotals reuse the snapshot.
	tax, found, err := s.catalog.DefaultTaxSpec(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		tax = pricing.NoAdjust()
		if s.taxPercent.IsPositive() {
			tax = pricing.PercentAdjust(s.taxPercent)
		}
	}

	items := make([]models.EstimateItem, 0, len(input.Lines))
	lines := make([]pricing.LineItem, 0, len(input.Lines))
	for _, lineInput := range input.Lines {
		item, err := s.buildItem(ctx, customer, lineInput)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
		lines = append(lines, estimateLine(item))
	}

	totals, err := pricing.ComputeTotals(lines, discount, tax, input.ShippingAmount)
	if err != nil {
		return nil, err
	}

	estimate := &models.Estimate{
		CustomerID:     customer.ID,
		Status:         enums.EstimateStatusDraft,
		ValidUntil:     input.ValidUntil,
		DiscountMode:   discount.Mode,
		DiscountValue:  discount.Value,
		TaxMode:        tax.Mode,
		TaxValue:       tax.Value,
		Subtotal:       totals.Subtotal,
		DiscountAmount: totals.DiscountAmount,
		TaxAmount:      totals.TaxAmount,
		ShippingAmount: totals.ShippingAmount,
		TotalAmount:    totals.TotalAmount,
		Notes:          input.Notes,
		Items:          items,
	}

	created, err := s.repo.Create(ctx, estimate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create estimate")
	}
	return s.Get(ctx, created.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimate id required")
	}
	estimate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "estimate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load estimate")
	}
	return estimate, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*EstimateList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list estimates")
	}
	return list, nil
}

// Retotal recomputes the totals of a draft estimate. Anything past draft is
// a sent document whose numbers must not drift.
func (s *service) Retotal(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	estimate, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if estimate.Status != enums.EstimateStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft estimates can be retotaled")
	}

	lines := make([]pricing.LineItem, 0, len(estimate.Items))
	for i := range estimate.Items {
		lines = append(lines, estimateLine(&estimate.Items[i]))
	}
	discount := pricing.AdjustSpec{Mode: estimate.DiscountMode, Value: estimate.DiscountValue}
	tax := pricing.AdjustSpec{Mode: estimate.TaxMode, Value: estimate.TaxValue}

	totals, err := pricing.ComputeTotals(lines, discount, tax, estimate.ShippingAmount)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"subtotal":        totals.Subtotal,
		"discount_amount": totals.DiscountAmount,
		"tax_amount":      totals.TaxAmount,
		"shipping_amount": totals.ShippingAmount,
		"total_amount":    totals.TotalAmount,
	}
	if err := s.repo.Update(ctx, estimate.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist estimate totals")
	}
	return s.Get(ctx, id)
}

func (s *service) Send(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	estimate, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if estimate.Status != enums.EstimateStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft estimates can be sent")
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"status":  enums.EstimateStatusSent,
		"sent_at": now,
	}
	if err := s.repo.Update(ctx, estimate.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send estimate")
	}
	return s.Get(ctx, id)
}

func (s *service) Accept(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	return s.setDecision(ctx, id, enums.EstimateStatusAccepted)
}

func (s *service) Decline(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	return s.setDecision(ctx, id, enums.EstimateStatusDeclined)
}

func (s *service) setDecision(ctx context.Context, id uuid.UUID, status enums.EstimateStatus) (*models.Estimate, error) {
	estimate, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if estimate.Status != enums.EstimateStatusSent {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only sent estimates can be decided")
	}
	if estimate.ValidUntil != nil && !time.Now().UTC().Before(*estimate.ValidUntil) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "estimate has expired")
	}

	if err := s.repo.Update(ctx, estimate.ID, map[string]any{"status": status}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update estimate status")
	}
	return s.Get(ctx, id)
}

// Convert turns an accepted estimate into a draft order carrying the same
// lines and totals. ConvertedOrderID is written exactly once; a second
// conversion attempt conflicts.
func (s *service) Convert(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	estimate, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if estimate.ConvertedOrderID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "estimate was already converted").
			WithDetails(map[string]any{"order_id": *estimate.ConvertedOrderID})
	}
	if estimate.Status != enums.EstimateStatusAccepted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only accepted estimates can be converted")
	}

	customer, err := s.repo.FindCustomer(ctx, estimate.CustomerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	items := make([]models.OrderItem, 0, len(estimate.Items))
	for _, item := range estimate.Items {
		items = append(items, models.OrderItem{
			ProductID:     item.ProductID,
			RollID:        item.RollID,
			Description:   item.Description,
			PricingMethod: item.PricingMethod,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			SizeUnit:      item.SizeUnit,
			Width:         item.Width,
			Height:        item.Height,
			RollRate:      item.RollRate,
			OffcutRate:    item.OffcutRate,
			UseOffcutRate: item.UseOffcutRate,
			LineTotal:     item.LineTotal,
		})
	}

	order := &models.Order{
		CustomerID:     customer.ID,
		WorkingGroupID: customer.WorkingGroupID,
		Status:         enums.OrderStatusDraft,
		DiscountMode:   estimate.DiscountMode,
		DiscountValue:  estimate.DiscountValue,
		TaxMode:        estimate.TaxMode,
		TaxValue:       estimate.TaxValue,
		Subtotal:       estimate.Subtotal,
		DiscountAmount: estimate.DiscountAmount,
		TaxAmount:      estimate.TaxAmount,
		ShippingAmount: estimate.ShippingAmount,
		TotalAmount:    estimate.TotalAmount,
		Notes:          estimate.Notes,
		Items:          items,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order from estimate")
		}
		updates := map[string]any{
			"status":             enums.EstimateStatusConverted,
			"converted_order_id": order.ID,
		}
		if err := repo.Update(ctx, estimate.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark estimate converted")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) buildItem(ctx context.Context, customer *models.Customer, input LineInput) (*models.EstimateItem, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.catalog.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not available")
	}

	item := &models.EstimateItem{
		ProductID:     product.ID,
		Description:   product.Name,
		PricingMethod: product.PricingMethod,
		Quantity:      input.Quantity,
		SizeUnit:      s.sizeUnit,
		Width:         input.Width,
		Height:        input.Height,
		UseOffcutRate: input.UseOffcutRate,
	}
	if input.SizeUnit != nil {
		item.SizeUnit = *input.SizeUnit
	}

	switch product.PricingMethod {
	case enums.PricingMethodStandard:
		resolved, err := s.catalog.ResolveUnitPrice(ctx, product.ID, customer.WorkingGroupID)
		if err != nil {
			return nil, err
		}
		item.UnitPrice = resolved.UnitPrice

	case enums.PricingMethodRoll:
		if input.RollID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "roll id required for roll-priced products")
		}
		roll, err := s.catalog.GetRoll(ctx, *input.RollID)
		if err != nil {
			return nil, err
		}
		if roll.ProductID != product.ID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "roll does not belong to product")
		}
		item.RollID = &roll.ID
		rate := roll.RatePerSqFt
		item.RollRate = &rate
		item.OffcutRate = roll.OffcutRate

	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported pricing method")
	}

	total, err := pricing.PriceLine(estimateLine(item))
	if err != nil {
		return nil, err
	}
	item.LineTotal = total
	return item, nil
}

func estimateLine(item *models.EstimateItem) pricing.LineItem {
	return pricing.LineItem{
		Quantity:      item.Quantity,
		Method:        item.PricingMethod,
		UnitPrice:     item.UnitPrice,
		SizeUnit:      item.SizeUnit,
		Width:         item.Width,
		Height:        item.Height,
		RollRate:      item.RollRate,
		OffcutRate:    item.OffcutRate,
		UseOffcutRate: item.UseOffcutRate,
	}
}
