package orders

import (
	"context"
	"testing"
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

func codeOf(err error) pkgerrors.Code {
	if err == nil {
		return ""
	}
	return pkgerrors.As(err).Code()
}

type stubOrdersRepo struct {
	orders     map[uuid.UUID]*models.Order
	items      map[uuid.UUID]*models.OrderItem
	lockEvents []models.OrderLockEvent
	customers  map[uuid.UUID]*models.Customer
	carts      map[uuid.UUID]*models.CartRecord
	names      map[uuid.UUID]string
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{
		orders:    make(map[uuid.UUID]*models.Order),
		items:     make(map[uuid.UUID]*models.OrderItem),
		customers: make(map[uuid.UUID]*models.Customer),
		carts:     make(map[uuid.UUID]*models.CartRecord),
		names:     make(map[uuid.UUID]string),
	}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		item := order.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		s.items[item.ID] = &item
	}
	stored := *order
	stored.Items = nil
	s.orders[order.ID] = &stored
	return order, nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *order
	for _, item := range s.items {
		if item.OrderID == id {
			out.Items = append(out.Items, *item)
		}
	}
	for _, event := range s.lockEvents {
		if event.OrderID == id {
			out.LockEvents = append(out.LockEvents, event)
		}
	}
	return &out, nil
}

func (s *stubOrdersRepo) List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	list := &OrderList{}
	for _, order := range s.orders {
		list.Orders = append(list.Orders, *order)
	}
	return list, nil
}

func (s *stubOrdersRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	order, ok := s.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for column, value := range updates {
		switch column {
		case "status":
			order.Status = value.(enums.OrderStatus)
		case "locked_at":
			if value == nil {
				order.LockedAt = nil
			} else if at, ok := value.(time.Time); ok {
				order.LockedAt = &at
			}
		case "locked_by":
			if value == nil {
				order.LockedBy = nil
			} else if by, ok := value.(uuid.UUID); ok {
				order.LockedBy = &by
			}
		case "subtotal":
			order.Subtotal = value.(decimal.Decimal)
		case "discount_amount":
			order.DiscountAmount = value.(decimal.Decimal)
		case "tax_amount":
			order.TaxAmount = value.(decimal.Decimal)
		case "shipping_amount":
			order.ShippingAmount = value.(decimal.Decimal)
		case "total_amount":
			order.TotalAmount = value.(decimal.Decimal)
		}
	}
	return nil
}

func (s *stubOrdersRepo) FindItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error) {
	if item, ok := s.items[itemID]; ok {
		return item, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error {
	item, ok := s.items[itemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if quantity, ok := updates["quantity"].(decimal.Decimal); ok {
		item.Quantity = quantity
	}
	if total, ok := updates["line_total"].(decimal.Decimal); ok {
		item.LineTotal = total
	}
	return nil
}

func (s *stubOrdersRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	delete(s.items, itemID)
	return nil
}

func (s *stubOrdersRepo) AppendLockEvent(ctx context.Context, event *models.OrderLockEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	s.lockEvents = append(s.lockEvents, *event)
	return nil
}

func (s *stubOrdersRepo) FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	if customer, ok := s.customers[id]; ok {
		return customer, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindActiveCart(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	for _, cart := range s.carts {
		if cart.CustomerID == customerID && cart.Status == enums.CartStatusActive {
			return cart, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) MarkCartConverted(ctx context.Context, cartID uuid.UUID) error {
	cart, ok := s.carts[cartID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cart.Status = enums.CartStatusConverted
	return nil
}

func (s *stubOrdersRepo) ProductNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		if name, ok := s.names[id]; ok {
			names[id] = name
		}
	}
	return names, nil
}

type stubRedeemer struct {
	validations map[string]*offers.Validation
	redeemed    int
}

func (s *stubRedeemer) ValidateCode(ctx context.Context, input offers.ValidateCodeInput) (*offers.Validation, error) {
	if validation, ok := s.validations[input.Code]; ok {
		return validation, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
}

func (s *stubRedeemer) Redeem(ctx context.Context, tx *gorm.DB, offerID, customerID uuid.UUID, usedAt time.Time) error {
	s.redeemed++
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type ordersFixture struct {
	svc        Service
	repo       *stubOrdersRepo
	redeemer   *stubRedeemer
	customerID uuid.UUID
	productID  uuid.UUID
	cartID     uuid.UUID
}

func newOrdersFixture(t *testing.T) *ordersFixture {
	t.Helper()

	repo := newStubOrdersRepo()
	customerID := uuid.New()
	repo.customers[customerID] = &models.Customer{ID: customerID, Name: "Acme Signs"}

	productID := uuid.New()
	repo.names[productID] = "Business Cards"

	cartID := uuid.New()
	repo.carts[cartID] = &models.CartRecord{
		ID:         cartID,
		CustomerID: customerID,
		Status:     enums.CartStatusActive,
		Items: []models.CartItem{
			{
				ID:            uuid.New(),
				CartID:        cartID,
				ProductID:     productID,
				PricingMethod: enums.PricingMethodStandard,
				Quantity:      decimal.NewFromInt(4),
				UnitPrice:     decimal.NewFromFloat(5.00),
				SizeUnit:      enums.SizeUnitInch,
				LineTotal:     decimal.NewFromInt(20),
			},
		},
	}

	redeemer := &stubRedeemer{validations: make(map[string]*offers.Validation)}

	svc, err := NewService(repo, redeemer, stubTxRunner{}, nil, config.PricingConfig{DefaultTaxPercent: "10"})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &ordersFixture{
		svc:        svc,
		repo:       repo,
		redeemer:   redeemer,
		customerID: customerID,
		productID:  productID,
		cartID:     cartID,
	}
}

func assertMoney(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s = %s, want %s", label, got, want)
	}
}

type stubTaxSource struct {
	rate *decimal.Decimal
}

func (s *stubTaxSource) DefaultTaxSpec(ctx context.Context) (pricing.AdjustSpec, bool, error) {
	if s.rate == nil {
		return pricing.NoAdjust(), false, nil
	}
	return pricing.PercentAdjustFromFraction(*s.rate), true, nil
}

func TestCheckoutUsesDefaultTaxRateRecord(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()

	rate := decimal.RequireFromString("0.15")
	svc, err := NewService(f.repo, f.redeemer, stubTxRunner{}, &stubTaxSource{rate: &rate}, config.PricingConfig{DefaultTaxPercent: "10"})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	order, err := svc.Checkout(ctx, CheckoutInput{CustomerID: f.customerID})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	// The rate row wins over the configured 10% fallback and the percent
	// form is snapshotted onto the order.
	assertMoney(t, "tax", order.TaxAmount, "3")
	assertMoney(t, "total", order.TotalAmount, "23")
	if order.TaxMode != enums.AdjustModePercent {
		t.Fatalf("tax mode = %s, want percent", order.TaxMode)
	}
	assertMoney(t, "tax value", order.TaxValue, "15")
}

func TestCheckoutSnapshotsCart(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()

	order, err := f.svc.Checkout(ctx, CheckoutInput{CustomerID: f.customerID})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if order.Status != enums.OrderStatusDraft {
		t.Fatalf("status = %s, want draft", order.Status)
	}
	if len(order.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(order.Items))
	}
	if order.Items[0].Description != "Business Cards" {
		t.Fatalf("description = %q", order.Items[0].Description)
	}
	assertMoney(t, "subtotal", order.Subtotal, "20")
	assertMoney(t, "tax", order.TaxAmount, "2")
	assertMoney(t, "total", order.TotalAmount, "22")

	if f.repo.carts[f.cartID].Status != enums.CartStatusConverted {
		t.Fatal("cart must be marked converted")
	}
}

func TestCheckoutRedeemsEligibleOffer(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()

	offerID := uuid.New()
	code := "SPRING10"
	f.repo.carts[f.cartID].OfferCode = &code
	f.redeemer.validations[code] = &offers.Validation{
		Offer: &models.Offer{
			ID:            offerID,
			Code:          code,
			OfferType:     enums.OfferTypePercentage,
			DiscountValue: decimal.NewFromInt(10),
		},
		Eligible: true,
	}

	order, err := f.svc.Checkout(ctx, CheckoutInput{CustomerID: f.customerID})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if order.OfferID == nil || *order.OfferID != offerID {
		t.Fatal("offer id not captured on order")
	}
	if f.redeemer.redeemed != 1 {
		t.Fatalf("redeemed = %d, want 1", f.redeemer.redeemed)
	}
	assertMoney(t, "discount", order.DiscountAmount, "2")
	assertMoney(t, "tax on post-discount base", order.TaxAmount, "1.80")
	assertMoney(t, "total", order.TotalAmount, "19.80")
}

func TestCheckoutDropsIneligibleOffer(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()

	code := "EXPIRED"
	f.repo.carts[f.cartID].OfferCode = &code
	f.redeemer.validations[code] = &offers.Validation{
		Eligible: false,
		Reason:   enums.ReasonOfferOutOfWindow,
	}

	order, err := f.svc.Checkout(ctx, CheckoutInput{CustomerID: f.customerID})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if order.OfferID != nil {
		t.Fatal("ineligible offer must not be captured")
	}
	if f.redeemer.redeemed != 0 {
		t.Fatal("ineligible offer must not be redeemed")
	}
	assertMoney(t, "discount", order.DiscountAmount, "0")
	assertMoney(t, "total", order.TotalAmount, "22")
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	f := newOrdersFixture(t)
	f.repo.carts[f.cartID].Items = nil

	_, err := f.svc.Checkout(context.Background(), CheckoutInput{CustomerID: f.customerID})
	if codeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestLockBlocksMutationAndRetotal(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	actor := uuid.New()

	order, err := f.svc.Checkout(ctx, CheckoutInput{CustomerID: f.customerID})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	locked, err := f.svc.Lock(ctx, order.ID, LockInput{ActorUserID: actor})
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if !locked.IsLocked() {
		t.Fatal("order not locked")
	}

	if _, err := f.svc.Retotal(ctx, order.ID); codeOf(err) != pkgerrors.CodeOrderLocked {
		t.Fatalf("retotal on locked order: expected ORDER_LOCKED, got %v", err)
	}
	_, err = f.svc.UpdateItemQuantity(ctx, order.ID, locked.Items[0].ID, decimal.NewFromInt(9))
	if codeOf(err) != pkgerrors.CodeOrderLocked {
		t.Fatalf("item mutation on locked order: expected ORDER_LOCKED, got %v", err)
	}

	reason := "customer change request"
	unlocked, err := f.svc.Unlock(ctx, order.ID, LockInput{ActorUserID: actor, Reason: &reason})
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if unlocked.IsLocked() {
		t.Fatal("order still locked after unlock")
	}

	if len(unlocked.LockEvents) != 2 {
		t.Fatalf("lock events = %d, want 2", len(unlocked.LockEvents))
	}
	if unlocked.LockEvents[0].Action != enums.LockActionLocked {
		t.Fatalf("first event = %s, want locked", unlocked.LockEvents[0].Action)
	}
	last := unlocked.LockEvents[1]
	if last.Action != enums.LockActionUnlocked || last.Reason == nil || *last.Reason != reason {
		t.Fatal("unlock event must carry the action and reason")
	}

	if _, err := f.svc.Retotal(ctx, order.ID); err != nil {
		t.Fatalf("retotal after unlock: %v", err)
	}
}

func TestLockTwiceConflicts(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()
	actor := uuid.New()

	order, err := f.svc.Checkout(ctx, CheckoutInput{CustomerID: f.customerID})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if _, err := f.svc.Lock(ctx, order.ID, LockInput{ActorUserID: actor}); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if _, err := f.svc.Lock(ctx, order.ID, LockInput{ActorUserID: actor}); codeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}

	if _, err := f.svc.Unlock(ctx, order.ID, LockInput{ActorUserID: actor}); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if _, err := f.svc.Unlock(ctx, order.ID, LockInput{ActorUserID: actor}); codeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestUpdateItemQuantityReprices(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()

	order, err := f.svc.Checkout(ctx, CheckoutInput{CustomerID: f.customerID})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	updated, err := f.svc.UpdateItemQuantity(ctx, order.ID, order.Items[0].ID, decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("UpdateItemQuantity: %v", err)
	}
	assertMoney(t, "line total", updated.Items[0].LineTotal, "50")
	assertMoney(t, "subtotal", updated.Subtotal, "50")
	assertMoney(t, "tax", updated.TaxAmount, "5")
	assertMoney(t, "total", updated.TotalAmount, "55")
}

func TestRemoveLastItemRejected(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()

	order, err := f.svc.Checkout(ctx, CheckoutInput{CustomerID: f.customerID})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	_, err = f.svc.RemoveItem(ctx, order.ID, order.Items[0].ID)
	if codeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestSetStatusTransitions(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()

	order, err := f.svc.Checkout(ctx, CheckoutInput{CustomerID: f.customerID})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if _, err := f.svc.SetStatus(ctx, order.ID, enums.OrderStatusCompleted); codeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("draft to completed: expected STATE_CONFLICT, got %v", err)
	}

	confirmed, err := f.svc.SetStatus(ctx, order.ID, enums.OrderStatusConfirmed)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if confirmed.Status != enums.OrderStatusConfirmed {
		t.Fatalf("status = %s, want confirmed", confirmed.Status)
	}

	if _, err := f.svc.SetStatus(ctx, order.ID, enums.OrderStatusCanceled); err != nil {
		t.Fatalf("cancel confirmed order: %v", err)
	}
	if _, err := f.svc.SetStatus(ctx, order.ID, enums.OrderStatusConfirmed); codeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("canceled is terminal: expected STATE_CONFLICT, got %v", err)
	}
}
