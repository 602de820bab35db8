package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/printdesk/printdesk-backend/internal/catalog"
	"github.com/printdesk/printdesk-backend/internal/offers"
	"github.com/printdesk/printdesk-backend/internal/pricing"
	"github.com/printdesk/printdesk-backend/pkg/config"
	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
	pkgerrors "github.com/printdesk/printdesk-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// priceResolver is the slice of the catalog service the cart needs.
type priceResolver interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetRoll(ctx context.Context, id uuid.UUID) (*models.ProductRoll, error)
	ResolveUnitPrice(ctx context.Context, productID uuid.UUID, workingGroupID *uuid.UUID) (*catalog.ResolvedPrice, error)
	DefaultTaxSpec(ctx context.Context) (pricing.AdjustSpec, bool, error)
}

// offerValidator is the slice of the offers service the cart needs.
type offerValidator interface {
	ValidateCode(ctx context.Context, input offers.ValidateCodeInput) (*offers.Validation, error)
}

// Service defines cart operations for the storefront.
type Service interface {
	Get(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error)
	AddItem(ctx context.Context, customerID uuid.UUID, input AddItemInput) (*models.CartRecord, error)
	UpdateItemQuantity(ctx context.Context, customerID, itemID uuid.UUID, quantity decimal.Decimal) (*models.CartRecord, error)
	RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*models.CartRecord, error)
	SetShipping(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal) (*models.CartRecord, error)
	ApplyOffer(ctx context.Context, customerID uuid.UUID, code string) (*OfferAttempt, error)
	RemoveOffer(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error)
	Clear(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error)
}

type service struct {
	repo     Repository
	catalog  priceResolver
	offers   offerValidator
	tx       txRunner
	maxLines int
	taxSpec  pricing.AdjustSpec
	sizeUnit enums.SizeUnit
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, catalogSvc priceResolver, offersSvc offerValidator, tx txRunner, cfg config.PricingConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if offersSvc == nil {
		return nil, fmt.Errorf("offers service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}

	taxSpec := pricing.NoAdjust()
	if cfg.DefaultTaxPercent != "" {
		percent, err := decimal.NewFromString(cfg.DefaultTaxPercent)
		if err != nil {
			return nil, fmt.Errorf("invalid default tax percent %q: %w", cfg.DefaultTaxPercent, err)
		}
		if percent.IsPositive() {
			taxSpec = pricing.PercentAdjust(percent)
		}
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
		repo:     repo,
		catalog:  catalogSvc,
		offers:   offersSvc,
		tx:       tx,
		maxLines: cfg.MaxLinesPerDocument,
		taxSpec:  taxSpec,
		sizeUnit: sizeUnit,
	}, nil
}

// Get returns the customer's active cart, creating an empty one on first use.
func (s *service) Get(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	cart, err := s.repo.FindActiveByCustomer(ctx, customerID)
	if err == nil {
		return cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if _, err := s.repo.FindCustomer(ctx, customerID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	created, err := s.repo.Create(ctx, &models.CartRecord{
		CustomerID: customerID,
		Status:     enums.CartStatusActive,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

func (s *service) AddItem(ctx context.Context, customerID uuid.UUID, input AddItemInput) (*models.CartRecord, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	cart, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if s.maxLines > 0 && len(cart.Items) >= s.maxLines {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line limit reached")
	}

	customer, err := s.repo.FindCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	product, err := s.catalog.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not available")
	}

	item, err := s.buildItem(ctx, cart.ID, customer, product, input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindItemByFingerprint(ctx, cart.ID, item.Fingerprint)
		switch {
		case err == gorm.ErrRecordNotFound:
			if _, err := repo.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
			}
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find stacked item")
		default:
			merged := existing.Quantity.Add(item.Quantity)
			total, err := s.lineTotal(existing, merged)
			if err != nil {
				return err
			}
			updates := map[string]any{
				"quantity":   merged,
				"line_total": total,
			}
			if err := repo.UpdateItem(ctx, existing.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stack cart item")
			}
		}

		return s.retotal(ctx, repo, cart.ID, customer)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, cart.ID)
}

func (s *service) UpdateItemQuantity(ctx context.Context, customerID, itemID uuid.UUID, quantity decimal.Decimal) (*models.CartRecord, error) {
	if quantity.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if quantity.IsZero() {
		return s.RemoveItem(ctx, customerID, itemID)
	}

	cart, customer, item, err := s.loadOwnedItem(ctx, customerID, itemID)
	if err != nil {
		return nil, err
	}

	total, err := s.lineTotal(item, quantity)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		updates := map[string]any{
			"quantity":   quantity,
			"line_total": total,
		}
		if err := repo.UpdateItem(ctx, item.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		return s.retotal(ctx, repo, cart.ID, customer)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, cart.ID)
}

func (s *service) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*models.CartRecord, error) {
	cart, customer, item, err := s.loadOwnedItem(ctx, customerID, itemID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
		}
		return s.retotal(ctx, repo, cart.ID, customer)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, cart.ID)
}

func (s *service) SetShipping(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal) (*models.CartRecord, error) {
	if amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping amount cannot be negative")
	}
	cart, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	customer, err := s.repo.FindCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateCart(ctx, cart.ID, map[string]any{"shipping_amount": amount}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set shipping")
		}
		return s.retotal(ctx, repo, cart.ID, customer)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, cart.ID)
}

// ApplyOffer validates the code against the current cart and stores it when
// eligible. An ineligible code is reported in the attempt, not as an error.
func (s *service) ApplyOffer(ctx context.Context, customerID uuid.UUID, code string) (*OfferAttempt, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer code required")
	}

	cart, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	customer, err := s.repo.FindCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	validation, err := s.validateOffer(ctx, cart, customer, code)
	if err != nil {
		return nil, err
	}
	if !validation.Eligible {
		return &OfferAttempt{Cart: cart, Eligible: false, Reason: validation.Reason}, nil
	}

	// reject offer types the engine cannot price automatically
	if _, _, err := pricing.SpecFromOffer(validation.Offer.OfferType, validation.Offer.DiscountValue); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateCart(ctx, cart.ID, map[string]any{"offer_code": validation.Offer.Code}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply offer code")
		}
		return s.retotal(ctx, repo, cart.ID, customer)
	})
	if err != nil {
		return nil, err
	}

	reloaded, err := s.reload(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	return &OfferAttempt{Cart: reloaded, Eligible: true}, nil
}

func (s *service) RemoveOffer(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	cart, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	customer, err := s.repo.FindCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateCart(ctx, cart.ID, map[string]any{"offer_code": nil}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove offer code")
		}
		return s.retotal(ctx, repo, cart.ID, customer)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, cart.ID)
}

func (s *service) Clear(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	cart, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		updates := map[string]any{
			"offer_code":      nil,
			"subtotal":        decimal.Zero,
			"discount_amount": decimal.Zero,
			"tax_amount":      decimal.Zero,
			"shipping_amount": decimal.Zero,
			"total_amount":    decimal.Zero,
		}
		return repo.UpdateCart(ctx, cart.ID, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, cart.ID)
}

func (s *service) reload(ctx context.Context, cartID uuid.UUID) (*models.CartRecord, error) {
	cart, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return cart, nil
}

func (s *service) loadOwnedItem(ctx context.Context, customerID, itemID uuid.UUID) (*models.CartRecord, *models.Customer, *models.CartItem, error) {
	cart, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, nil, nil, err
	}
	customer, err := s.repo.FindCustomer(ctx, customerID)
	if err != nil {
		return nil, nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	item, err := s.repo.FindItem(ctx, itemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if item.CartID != cart.ID {
		return nil, nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, "item does not belong to cart")
	}
	return cart, customer, item, nil
}

// buildItem resolves prices and rates, prices the line once to validate the
// inputs, and stamps the stacking fingerprint.
func (s *service) buildItem(ctx context.Context, cartID uuid.UUID, customer *models.Customer, product *models.Product, input AddItemInput) (*models.CartItem, error) {
	item := &models.CartItem{
		CartID:        cartID,
		ProductID:     product.ID,
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
		if !roll.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "roll is not available")
		}
		item.RollID = &roll.ID
		rate := roll.RatePerSqFt
		item.RollRate = &rate
		item.OffcutRate = roll.OffcutRate

	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported pricing method")
	}

	total, err := s.lineTotal(item, item.Quantity)
	if err != nil {
		return nil, err
	}
	item.LineTotal = total
	item.Fingerprint = fingerprint(item)
	return item, nil
}

func (s *service) lineTotal(item *models.CartItem, quantity decimal.Decimal) (decimal.Decimal, error) {
	line := pricingLine(item)
	line.Quantity = quantity
	return pricing.PriceLine(line)
}

func pricingLine(item *models.CartItem) pricing.LineItem {
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

func (s *service) validateOffer(ctx context.Context, cart *models.CartRecord, customer *models.Customer, code string) (*offers.Validation, error) {
	productIDs := make([]uuid.UUID, 0, len(cart.Items))
	subtotal := decimal.Zero
	for _, item := range cart.Items {
		productIDs = append(productIDs, item.ProductID)
		subtotal = subtotal.Add(item.LineTotal)
	}

	return s.offers.ValidateCode(ctx, offers.ValidateCodeInput{
		Code:           code,
		CustomerID:     customer.ID,
		WorkingGroupID: customer.WorkingGroupID,
		ProductIDs:     productIDs,
		PurchaseAmount: subtotal,
		Now:            time.Now().UTC(),
	})
}

// effectiveTaxSpec prefers the default tax rate record over the configured
// percentage, so rate changes apply without a restart.
func (s *service) effectiveTaxSpec(ctx context.Context) (pricing.AdjustSpec, error) {
	spec, found, err := s.catalog.DefaultTaxSpec(ctx)
	if err != nil {
		return pricing.NoAdjust(), err
	}
	if found {
		return spec, nil
	}
	return s.taxSpec, nil
}

// retotal reprices the whole cart from its items. The stored offer code is
// revalidated against the new subtotal; a code that no longer qualifies
// contributes no discount but stays on the cart so the customer can see it.
func (s *service) retotal(ctx context.Context, repo Repository, cartID uuid.UUID, customer *models.Customer) error {
	cart, err := repo.FindByID(ctx, cartID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart for totals")
	}

	lines := make([]pricing.LineItem, 0, len(cart.Items))
	for i := range cart.Items {
		lines = append(lines, pricingLine(&cart.Items[i]))
	}

	discount := pricing.NoAdjust()
	shipping := cart.ShippingAmount
	if cart.OfferCode != nil && *cart.OfferCode != "" {
		validation, err := s.validateOffer(ctx, cart, customer, *cart.OfferCode)
		if err != nil {
			return err
		}
		if validation.Eligible {
			spec, freeShipping, err := pricing.SpecFromOffer(validation.Offer.OfferType, validation.Offer.DiscountValue)
			if err != nil {
				return err
			}
			discount = spec
			if freeShipping {
				shipping = decimal.Zero
			}
		}
	}

	taxSpec, err := s.effectiveTaxSpec(ctx)
	if err != nil {
		return err
	}
	totals, err := pricing.ComputeTotals(lines, discount, taxSpec, shipping)
	if err != nil {
		return err
	}

	// The stored shipping_amount is never rewritten here. A free-shipping
	// offer zeroes shipping inside the totals only, so removing the offer
	// later restores the charge the customer configured.
	updates := map[string]any{
		"subtotal":        totals.Subtotal,
		"discount_amount": totals.DiscountAmount,
		"tax_amount":      totals.TaxAmount,
		"total_amount":    totals.TotalAmount,
	}
	if err := repo.UpdateCart(ctx, cart.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart totals")
	}
	return nil
}
