package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/printdesk/printdesk-backend/internal/offers"
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

// offerRedeemer is the slice of the offers service checkout needs.
type offerRedeemer interface {
	ValidateCode(ctx context.Context, input offers.ValidateCodeInput) (*offers.Validation, error)
	Redeem(ctx context.Context, tx *gorm.DB, offerID, customerID uuid.UUID, usedAt time.Time) error
}

// taxSource is the slice of the catalog service checkout needs. Optional; a
// nil source falls back to the configured percentage.
type taxSource interface {
	DefaultTaxSpec(ctx context.Context) (pricing.AdjustSpec, bool, error)
}

// statusTransitions is the order lifecycle. Completed and canceled orders
// accept no further transitions.
var statusTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusDraft:        {enums.OrderStatusConfirmed, enums.OrderStatusCanceled},
	enums.OrderStatusConfirmed:    {enums.OrderStatusInProduction, enums.OrderStatusCanceled},
	enums.OrderStatusInProduction: {enums.OrderStatusCompleted, enums.OrderStatusCanceled},
}

// Service defines order operations.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	Retotal(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateItemQuantity(ctx context.Context, orderID, itemID uuid.UUID, quantity decimal.Decimal) (*models.Order, error)
	RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.Order, error)
	Lock(ctx context.Context, orderID uuid.UUID, input LockInput) (*models.Order, error)
	Unlock(ctx context.Context, orderID uuid.UUID, input LockInput) (*models.Order, error)
	SetStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error)
}

type service struct {
	repo       Repository
	offers     offerRedeemer
	tx         txRunner
	taxes      taxSource
	taxPercent decimal.Decimal
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, offersSvc offerRedeemer, tx txRunner, taxes taxSource, cfg config.PricingConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if offersSvc == nil {
		return nil, fmt.Errorf("offers service required")
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

	return &service{
		repo:       repo,
		offers:     offersSvc,
		tx:         tx,
		taxes:      taxes,
		taxPercent: taxPercent,
	}, nil
}

// Checkout snapshots the customer's active cart into an order. The pricing
// inputs are copied onto the order items so later catalog edits leave the
// order untouched. The cart's offer code is revalidated at checkout time and
// its usage is recorded in the same transaction that creates the order.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	cart, err := s.repo.FindActiveCart(ctx, input.CustomerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "no active cart to check out")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	customer, err := s.repo.FindCustomer(ctx, input.CustomerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	productIDs := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	names, err := s.repo.ProductNames(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product names")
	}

	now := time.Now().UTC()
	discount := pricing.NoAdjust()
	shipping := cart.ShippingAmount
	var offerID *uuid.UUID

	if cart.OfferCode != nil && *cart.OfferCode != "" {
		validation, err := s.validateCartOffer(ctx, cart, customer, now)
		if err != nil {
			return nil, err
		}
		// A code that lost its eligibility between cart and checkout is
		// dropped rather than failing the whole checkout.
		if validation.Eligible {
			spec, freeShipping, err := pricing.SpecFromOffer(validation.Offer.OfferType, validation.Offer.DiscountValue)
			if err != nil {
				return nil, err
			}
			discount = spec
			if freeShipping {
				shipping = decimal.Zero
			}
			id := validation.Offer.ID
			offerID = &id
		}
	}

	lines := make([]pricing.LineItem, 0, len(cart.Items))
	items := make([]models.OrderItem, 0, len(cart.Items))
	for i := range cart.Items {
		cartItem := &cart.Items[i]
		lines = append(lines, cartLine(cartItem))
		items = append(items, models.OrderItem{
			ProductID:     cartItem.ProductID,
			RollID:        cartItem.RollID,
			Description:   names[cartItem.ProductID],
			PricingMethod: cartItem.PricingMethod,
			Quantity:      cartItem.Quantity,
			UnitPrice:     cartItem.UnitPrice,
			SizeUnit:      cartItem.SizeUnit,
			Width:         cartItem.Width,
			Height:        cartItem.Height,
			RollRate:      cartItem.RollRate,
			OffcutRate:    cartItem.OffcutRate,
			UseOffcutRate: cartItem.UseOffcutRate,
			LineTotal:     cartItem.LineTotal,
		})
	}

	// The rate in force at checkout is snapshotted onto the order; later
	// retotals reuse the snapshot.
	taxSpec, err := s.checkoutTaxSpec(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := pricing.ComputeTotals(lines, discount, taxSpec, shipping)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerID:     customer.ID,
		WorkingGroupID: customer.WorkingGroupID,
		Status:         enums.OrderStatusDraft,
		OfferID:        offerID,
		DiscountMode:   discount.Mode,
		DiscountValue:  discount.Value,
		TaxMode:        taxSpec.Mode,
		TaxValue:       taxSpec.Value,
		Subtotal:       totals.Subtotal,
		DiscountAmount: totals.DiscountAmount,
		TaxAmount:      totals.TaxAmount,
		ShippingAmount: totals.ShippingAmount,
		TotalAmount:    totals.TotalAmount,
		Notes:          input.Notes,
		Items:          items,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if offerID != nil {
			if err := s.offers.Redeem(ctx, tx, *offerID, customer.ID, now); err != nil {
				return err
			}
		}
		if err := repo.MarkCartConverted(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "convert cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, order.ID)
}

func (s *service) checkoutTaxSpec(ctx context.Context) (pricing.AdjustSpec, error) {
	if s.taxes != nil {
		spec, found, err := s.taxes.DefaultTaxSpec(ctx)
		if err != nil {
			return pricing.NoAdjust(), err
		}
		if found {
			return spec, nil
		}
	}
	if s.taxPercent.IsPositive() {
		return pricing.PercentAdjust(s.taxPercent), nil
	}
	return pricing.NoAdjust(), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

// Retotal recomputes the order totals from its items and the discount and
// tax captured at checkout. Locked orders are frozen.
func (s *service) Retotal(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.IsLocked() {
		return nil, lockedError(order)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.retotal(ctx, s.repo.WithTx(tx), order)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) UpdateItemQuantity(ctx context.Context, orderID, itemID uuid.UUID, quantity decimal.Decimal) (*models.Order, error) {
	if quantity.Sign() <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	order, item, err := s.loadMutableItem(ctx, orderID, itemID)
	if err != nil {
		return nil, err
	}

	line := orderLine(item)
	line.Quantity = quantity
	total, err := pricing.PriceLine(line)
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
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order item")
		}
		refreshed, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return s.retotal(ctx, repo, refreshed)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

func (s *service) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.Order, error) {
	order, item, err := s.loadMutableItem(ctx, orderID, itemID)
	if err != nil {
		return nil, err
	}
	if len(order.Items) == 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "an order must keep at least one item")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove order item")
		}
		refreshed, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return s.retotal(ctx, repo, refreshed)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

// Lock freezes the order and appends a ledger entry naming the actor.
func (s *service) Lock(ctx context.Context, orderID uuid.UUID, input LockInput) (*models.Order, error) {
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor user id required")
	}
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsLocked() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already locked")
	}

	now := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		updates := map[string]any{
			"locked_at": now,
			"locked_by": input.ActorUserID,
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		return s.appendLockEvent(ctx, repo, order.ID, enums.LockActionLocked, input)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

// Unlock releases a locked order. The unlock stays visible in the ledger.
func (s *service) Unlock(ctx context.Context, orderID uuid.UUID, input LockInput) (*models.Order, error) {
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor user id required")
	}
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsLocked() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not locked")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		updates := map[string]any{
			"locked_at": nil,
			"locked_by": nil,
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unlock order")
		}
		return s.appendLockEvent(ctx, repo, order.ID, enums.LockActionUnlocked, input)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

func (s *service) SetStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", status))
	}
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(order.Status, status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, status))
	}

	if err := s.repo.Update(ctx, order.ID, map[string]any{"status": status}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	return s.Get(ctx, orderID)
}

func transitionAllowed(from, to enums.OrderStatus) bool {
	for _, candidate := range statusTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func lockedError(order *models.Order) error {
	details := map[string]any{"order_id": order.ID}
	if order.LockedBy != nil {
		details["locked_by"] = *order.LockedBy
	}
	return pkgerrors.New(pkgerrors.CodeOrderLocked, "order is locked").WithDetails(details)
}

func (s *service) loadMutableItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.Order, *models.OrderItem, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.IsLocked() {
		return nil, nil, lockedError(order)
	}
	item, err := s.repo.FindItem(ctx, itemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
	}
	if item.OrderID != order.ID {
		return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, "item does not belong to order")
	}
	return order, item, nil
}

func (s *service) appendLockEvent(ctx context.Context, repo Repository, orderID uuid.UUID, action enums.LockAction, input LockInput) error {
	event := &models.OrderLockEvent{
		OrderID:     orderID,
		Action:      action,
		ActorUserID: input.ActorUserID,
		Reason:      input.Reason,
	}
	if err := repo.AppendLockEvent(ctx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append lock event")
	}
	return nil
}

func (s *service) retotal(ctx context.Context, repo Repository, order *models.Order) error {
	lines := make([]pricing.LineItem, 0, len(order.Items))
	for i := range order.Items {
		lines = append(lines, orderLine(&order.Items[i]))
	}

	discount := pricing.AdjustSpec{Mode: order.DiscountMode, Value: order.DiscountValue}
	tax := pricing.AdjustSpec{Mode: order.TaxMode, Value: order.TaxValue}

	totals, err := pricing.ComputeTotals(lines, discount, tax, order.ShippingAmount)
	if err != nil {
		return err
	}

	updates := map[string]any{
		"subtotal":        totals.Subtotal,
		"discount_amount": totals.DiscountAmount,
		"tax_amount":      totals.TaxAmount,
		"shipping_amount": totals.ShippingAmount,
		"total_amount":    totals.TotalAmount,
	}
	if err := repo.Update(ctx, order.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order totals")
	}
	return nil
}

func (s *service) validateCartOffer(ctx context.Context, cart *models.CartRecord, customer *models.Customer, now time.Time) (*offers.Validation, error) {
	productIDs := make([]uuid.UUID, 0, len(cart.Items))
	subtotal := decimal.Zero
	for _, item := range cart.Items {
		productIDs = append(productIDs, item.ProductID)
		subtotal = subtotal.Add(item.LineTotal)
	}
	return s.offers.ValidateCode(ctx, offers.ValidateCodeInput{
		Code:           *cart.OfferCode,
		CustomerID:     customer.ID,
		WorkingGroupID: customer.WorkingGroupID,
		ProductIDs:     productIDs,
		PurchaseAmount: subtotal,
		Now:            now,
	})
}

func cartLine(item *models.CartItem) pricing.LineItem {
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

func orderLine(item *models.OrderItem) pricing.LineItem {
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
