package cart

import (
	"context"
	"testing"

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

func codeOf(err error) pkgerrors.Code {
	if err == nil {
		return ""
	}
	return pkgerrors.As(err).Code()
}

type stubCartRepo struct {
	carts     map[uuid.UUID]*models.CartRecord
	items     map[uuid.UUID]*models.CartItem
	customers map[uuid.UUID]*models.Customer
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{
		carts:     make(map[uuid.UUID]*models.CartRecord),
		items:     make(map[uuid.UUID]*models.CartItem),
		customers: make(map[uuid.UUID]*models.Customer),
	}
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCartRepo) Create(ctx context.Context, cart *models.CartRecord) (*models.CartRecord, error) {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	s.carts[cart.ID] = cart
	return s.FindByID(ctx, cart.ID)
}

func (s *stubCartRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.CartRecord, error) {
	cart, ok := s.carts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *cart
	out.Items = nil
	for _, item := range s.items {
		if item.CartID == id {
			out.Items = append(out.Items, *item)
		}
	}
	return &out, nil
}

func (s *stubCartRepo) FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	for id, cart := range s.carts {
		if cart.CustomerID == customerID && cart.Status == enums.CartStatusActive {
			return s.FindByID(ctx, id)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) UpdateCart(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	cart, ok := s.carts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for column, value := range updates {
		switch column {
		case "offer_code":
			if value == nil {
				cart.OfferCode = nil
			} else if code, ok := value.(string); ok {
				cart.OfferCode = &code
			}
		case "subtotal":
			cart.Subtotal = value.(decimal.Decimal)
		case "discount_amount":
			cart.DiscountAmount = value.(decimal.Decimal)
		case "tax_amount":
			cart.TaxAmount = value.(decimal.Decimal)
		case "shipping_amount":
			cart.ShippingAmount = value.(decimal.Decimal)
		case "total_amount":
			cart.TotalAmount = value.(decimal.Decimal)
		}
	}
	return nil
}

func (s *stubCartRepo) CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	s.items[item.ID] = item
	return item, nil
}

func (s *stubCartRepo) FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	if item, ok := s.items[itemID]; ok {
		return item, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) FindItemByFingerprint(ctx context.Context, cartID uuid.UUID, fp string) (*models.CartItem, error) {
	for _, item := range s.items {
		if item.CartID == cartID && item.Fingerprint == fp {
			return item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error {
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

func (s *stubCartRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	delete(s.items, itemID)
	return nil
}

func (s *stubCartRepo) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	for id, item := range s.items {
		if item.CartID == cartID {
			delete(s.items, id)
		}
	}
	return nil
}

func (s *stubCartRepo) FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	if customer, ok := s.customers[id]; ok {
		return customer, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubCatalog struct {
	products map[uuid.UUID]*models.Product
	rolls    map[uuid.UUID]*models.ProductRoll
	taxRate  *decimal.Decimal
}

func (s *stubCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if product, ok := s.products[id]; ok {
		return product, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s *stubCatalog) GetRoll(ctx context.Context, id uuid.UUID) (*models.ProductRoll, error) {
	if roll, ok := s.rolls[id]; ok {
		return roll, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "roll not found")
}

func (s *stubCatalog) ResolveUnitPrice(ctx context.Context, productID uuid.UUID, workingGroupID *uuid.UUID) (*catalog.ResolvedPrice, error) {
	product, ok := s.products[productID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &catalog.ResolvedPrice{UnitPrice: product.UnitPrice, Source: catalog.PriceSourceBase}, nil
}

func (s *stubCatalog) DefaultTaxSpec(ctx context.Context) (pricing.AdjustSpec, bool, error) {
	if s.taxRate == nil {
		return pricing.NoAdjust(), false, nil
	}
	return pricing.PercentAdjustFromFraction(*s.taxRate), true, nil
}

type stubOfferValidator struct {
	validations map[string]*offers.Validation
	calls       int
}

func (s *stubOfferValidator) ValidateCode(ctx context.Context, input offers.ValidateCodeInput) (*offers.Validation, error) {
	s.calls++
	if validation, ok := s.validations[input.Code]; ok {
		return validation, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type cartFixture struct {
	svc        Service
	repo       *stubCartRepo
	catalog    *stubCatalog
	offers     *stubOfferValidator
	customerID uuid.UUID
	productID  uuid.UUID
	rollProdID uuid.UUID
	rollID     uuid.UUID
}

func newCartFixture(t *testing.T, cfg config.PricingConfig) *cartFixture {
	t.Helper()

	repo := newStubCartRepo()
	customerID := uuid.New()
	repo.customers[customerID] = &models.Customer{ID: customerID, Name: "Acme Signs"}

	productID := uuid.New()
	rollProdID := uuid.New()
	rollID := uuid.New()
	offcut := decimal.NewFromFloat(2.50)
	cat := &stubCatalog{
		products: map[uuid.UUID]*models.Product{
			productID: {
				ID:            productID,
				SKU:           "BC-100",
				Name:          "Business Cards",
				PricingMethod: enums.PricingMethodStandard,
				UnitPrice:     decimal.NewFromFloat(5.00),
				IsActive:      true,
			},
			rollProdID: {
				ID:            rollProdID,
				SKU:           "VIN-13",
				Name:          "13oz Vinyl Banner",
				PricingMethod: enums.PricingMethodRoll,
				IsActive:      true,
			},
		},
		rolls: map[uuid.UUID]*models.ProductRoll{
			rollID: {
				ID:          rollID,
				ProductID:   rollProdID,
				RatePerSqFt: decimal.NewFromFloat(4.00),
				OffcutRate:  &offcut,
				IsActive:    true,
			},
		},
	}

	validator := &stubOfferValidator{validations: make(map[string]*offers.Validation)}

	svc, err := NewService(repo, cat, validator, stubTxRunner{}, cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &cartFixture{
		svc:        svc,
		repo:       repo,
		catalog:    cat,
		offers:     validator,
		customerID: customerID,
		productID:  productID,
		rollProdID: rollProdID,
		rollID:     rollID,
	}
}

func defaultPricingConfig() config.PricingConfig {
	return config.PricingConfig{DefaultTaxPercent: "10", DefaultSizeUnit: "in", MaxLinesPerDocument: 200}
}

func assertMoney(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s = %s, want %s", label, got, want)
	}
}

func TestAddItemUsesDefaultTaxRateRecord(t *testing.T) {
	f := newCartFixture(t, defaultPricingConfig())
	ctx := context.Background()

	// With a default rate row present, its fraction wins over the 10%
	// configured fallback.
	fraction := decimal.RequireFromString("0.15")
	f.catalog.taxRate = &fraction

	cart, err := f.svc.AddItem(ctx, f.customerID, AddItemInput{ProductID: f.productID, Quantity: decimal.NewFromInt(2)})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	assertMoney(t, "subtotal", cart.Subtotal, "10")
	assertMoney(t, "tax", cart.TaxAmount, "1.5")
	assertMoney(t, "total", cart.TotalAmount, "11.5")
}

func TestGetCreatesCartOnFirstUse(t *testing.T) {
	f := newCartFixture(t, defaultPricingConfig())
	ctx := context.Background()

	first, err := f.svc.Get(ctx, f.customerID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first.Status != enums.CartStatusActive {
		t.Fatalf("status = %s, want active", first.Status)
	}

	second, err := f.svc.Get(ctx, f.customerID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("second Get must return the same cart")
	}
}

func TestGetRejectsUnknownCustomer(t *testing.T) {
	f := newCartFixture(t, defaultPricingConfig())
	if _, err := f.svc.Get(context.Background(), uuid.New()); codeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestAddItemPricesAndTotals(t *testing.T) {
	f := newCartFixture(t, defaultPricingConfig())
	ctx := context.Background()

	cart, err := f.svc.AddItem(ctx, f.customerID, AddItemInput{
		ProductID: f.productID,
		Quantity:  decimal.NewFromInt(2),
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(cart.Items))
	}
	assertMoney(t, "line total", cart.Items[0].LineTotal, "10")
	assertMoney(t, "subtotal", cart.Subtotal, "10")
	assertMoney(t, "tax", cart.TaxAmount, "1")
	assertMoney(t, "total", cart.TotalAmount, "11")
}

func TestAddItemStacksIdenticalConfigurations(t *testing.T) {
	f := newCartFixture(t, defaultPricingConfig())
	ctx := context.Background()
	input := AddItemInput{ProductID: f.productID, Quantity: decimal.NewFromInt(2)}

	if _, err := f.svc.AddItem(ctx, f.customerID, input); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cart, err := f.svc.AddItem(ctx, f.customerID, input)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("items = %d, want 1 stacked line", len(cart.Items))
	}
	assertMoney(t, "quantity", cart.Items[0].Quantity, "4")
	assertMoney(t, "line total", cart.Items[0].LineTotal, "20")
	assertMoney(t, "subtotal", cart.Subtotal, "20")
}

func TestAddItemRollLine(t *testing.T) {
	f := newCartFixture(t, defaultPricingConfig())
	ctx := context.Background()
	width := decimal.NewFromInt(24)
	height := decimal.NewFromInt(36)

	cart, err := f.svc.AddItem(ctx, f.customerID, AddItemInput{
		ProductID: f.rollProdID,
		RollID:    &f.rollID,
		Quantity:  decimal.NewFromInt(1),
		Width:     &width,
		Height:    &height,
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	// 2ft x 3ft x 4.00/sqft
	assertMoney(t, "line total", cart.Items[0].LineTotal, "24")
}

func TestAddItemRollRequiresRollID(t *testing.T) {
	f := newCartFixture(t, defaultPricingConfig())
	width := decimal.NewFromInt(24)
	height := decimal.NewFromInt(36)

	_, err := f.svc.AddItem(context.Background(), f.customerID, AddItemInput{
		ProductID: f.rollProdID,
		Quantity:  decimal.NewFromInt(1),
		Width:     &width,
		Height:    &height,
	})
	if codeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestAddItemEnforcesLineLimit(t *testing.T) {
	cfg := defaultPricingConfig()
	cfg.MaxLinesPerDocument = 1
	f := newCartFixture(t, cfg)
	ctx := context.Background()

	if _, err := f.svc.AddItem(ctx, f.customerID, AddItemInput{ProductID: f.productID, Quantity: decimal.NewFromInt(1)}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	width := decimal.NewFromInt(12)
	height := decimal.NewFromInt(12)
	_, err := f.svc.AddItem(ctx, f.customerID, AddItemInput{
		ProductID: f.rollProdID,
		RollID:    &f.rollID,
		Quantity:  decimal.NewFromInt(1),
		Width:     &width,
		Height:    &height,
	})
	if codeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestUpdateItemQuantityZeroRemovesLine(t *testing.T) {
	f := newCartFixture(t, defaultPricingConfig())
	ctx := context.Background()

	cart, err := f.svc.AddItem(ctx, f.customerID, AddItemInput{ProductID: f.productID, Quantity: decimal.NewFromInt(2)})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	cart, err = f.svc.UpdateItemQuantity(ctx, f.customerID, cart.Items[0].ID, decimal.Zero)
	if err != nil {
		t.Fatalf("UpdateItemQuantity: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("items = %d, want 0", len(cart.Items))
	}
	assertMoney(t, "subtotal", cart.Subtotal, "0")
	assertMoney(t, "total", cart.TotalAmount, "0")
}

func TestUpdateItemQuantityReprices(t *testing.T) {
	f := newCartFixture(t, defaultPricingConfig())
	ctx := context.Background()

	cart, err := f.svc.AddItem(ctx, f.customerID, AddItemInput{ProductID: f.productID, Quantity: decimal.NewFromInt(2)})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	cart, err = f.svc.UpdateItemQuantity(ctx, f.customerID, cart.Items[0].ID, decimal.NewFromInt(5))
	if err != nil {
		t.Fatalf("UpdateItemQuantity: %v", err)
	}
	assertMoney(t, "line total", cart.Items[0].LineTotal, "25")
	assertMoney(t, "subtotal", cart.Subtotal, "25")
	assertMoney(t, "tax", cart.TaxAmount, "2.50")
	assertMoney(t, "total", cart.TotalAmount, "27.50")
}

func TestApplyOfferEligiblePercentage(t *testing.T) {
	f := newCartFixture(t, defaultPricingConfig())
	ctx := context.Background()
	f.offers.validations["SPRING10"] = &offers.Validation{
		Offer: &models.Offer{
			Code:          "SPRING10",
			OfferType:     enums.OfferTypePercentage,
			DiscountValue: decimal.NewFromInt(10),
		},
		Eligible: true,
	}

	if _, err := f.svc.AddItem(ctx, f.customerID, AddItemInput{ProductID: f.productID, Quantity: decimal.NewFromInt(4)}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	attempt, err := f.svc.ApplyOffer(ctx, f.customerID, "SPRING10")
	if err != nil {
		t.Fatalf("ApplyOffer: %v", err)
	}
	if !attempt.Eligible {
		t.Fatalf("attempt ineligible: %s", attempt.Reason)
	}
	cart := attempt.Cart
	if cart.OfferCode == nil || *cart.OfferCode != "SPRING10" {
		t.Fatal("offer code not stored on cart")
	}
	assertMoney(t, "subtotal", cart.Subtotal, "20")
	assertMoney(t, "discount", cart.DiscountAmount, "2")
	assertMoney(t, "tax", cart.TaxAmount, "1.80")
	assertMoney(t, "total", cart.TotalAmount, "19.80")
}

func TestApplyOfferIneligibleIsNotAnError(t *testing.T) {
	f := newCartFixture(t, defaultPricingConfig())
	ctx := context.Background()
	f.offers.validations["BIGSPEND"] = &offers.Validation{
		Eligible: false,
		Reason:   enums.ReasonBelowMinimumPurchase,
	}

	if _, err := f.svc.AddItem(ctx, f.customerID, AddItemInput{ProductID: f.productID, Quantity: decimal.NewFromInt(1)}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	attempt, err := f.svc.ApplyOffer(ctx, f.customerID, "BIGSPEND")
	if err != nil {
		t.Fatalf("ApplyOffer: %v", err)
	}
	if attempt.Eligible {
		t.Fatal("expected ineligible attempt")
	}
	if attempt.Reason != enums.ReasonBelowMinimumPurchase {
		t.Fatalf("reason = %s, want %s", attempt.Reason, enums.ReasonBelowMinimumPurchase)
	}
	if attempt.Cart.OfferCode != nil {
		t.Fatal("ineligible code must not be stored")
	}
}

func TestApplyOfferRefusesBuyXGetY(t *testing.T) {
	f := newCartFixture(t, defaultPricingConfig())
	ctx := context.Background()
	f.offers.validations["BOGO"] = &offers.Validation{
		Offer: &models.Offer{
			Code:      "BOGO",
			OfferType: enums.OfferTypeBuyXGetY,
		},
		Eligible: true,
	}

	if _, err := f.svc.AddItem(ctx, f.customerID, AddItemInput{ProductID: f.productID, Quantity: decimal.NewFromInt(1)}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	_, err := f.svc.ApplyOffer(ctx, f.customerID, "BOGO")
	if codeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestApplyOfferFreeShippingZeroesShipping(t *testing.T) {
	f := newCartFixture(t, defaultPricingConfig())
	ctx := context.Background()
	f.offers.validations["SHIPFREE"] = &offers.Validation{
		Offer: &models.Offer{
			Code:      "SHIPFREE",
			OfferType: enums.OfferTypeFreeShipping,
		},
		Eligible:     true,
		FreeShipping: true,
	}

	if _, err := f.svc.AddItem(ctx, f.customerID, AddItemInput{ProductID: f.productID, Quantity: decimal.NewFromInt(2)}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cart, err := f.svc.SetShipping(ctx, f.customerID, decimal.NewFromInt(5))
	if err != nil {
		t.Fatalf("SetShipping: %v", err)
	}
	assertMoney(t, "total with shipping", cart.TotalAmount, "16")

	attempt, err := f.svc.ApplyOffer(ctx, f.customerID, "SHIPFREE")
	if err != nil {
		t.Fatalf("ApplyOffer: %v", err)
	}
	// The configured shipping charge survives on the cart; only the total
	// reflects the waived shipping.
	assertMoney(t, "shipping", attempt.Cart.ShippingAmount, "5")
	assertMoney(t, "total", attempt.Cart.TotalAmount, "11")

	cart, err = f.svc.RemoveOffer(ctx, f.customerID)
	if err != nil {
		t.Fatalf("RemoveOffer: %v", err)
	}
	assertMoney(t, "shipping after removal", cart.ShippingAmount, "5")
	assertMoney(t, "total after removal", cart.TotalAmount, "16")
}

func TestRemoveOfferRestoresTotals(t *testing.T) {
	f := newCartFixture(t, defaultPricingConfig())
	ctx := context.Background()
	f.offers.validations["SPRING10"] = &offers.Validation{
		Offer: &models.Offer{
			Code:          "SPRING10",
			OfferType:     enums.OfferTypePercentage,
			DiscountValue: decimal.NewFromInt(10),
		},
		Eligible: true,
	}

	if _, err := f.svc.AddItem(ctx, f.customerID, AddItemInput{ProductID: f.productID, Quantity: decimal.NewFromInt(4)}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := f.svc.ApplyOffer(ctx, f.customerID, "SPRING10"); err != nil {
		t.Fatalf("ApplyOffer: %v", err)
	}

	cart, err := f.svc.RemoveOffer(ctx, f.customerID)
	if err != nil {
		t.Fatalf("RemoveOffer: %v", err)
	}
	if cart.OfferCode != nil {
		t.Fatal("offer code still set after removal")
	}
	assertMoney(t, "discount", cart.DiscountAmount, "0")
	assertMoney(t, "total", cart.TotalAmount, "22")
}

func TestRemoveItemFromAnotherCartForbidden(t *testing.T) {
	f := newCartFixture(t, defaultPricingConfig())
	ctx := context.Background()

	otherCustomer := uuid.New()
	f.repo.customers[otherCustomer] = &models.Customer{ID: otherCustomer, Name: "Other Shop"}
	otherCart, err := f.svc.AddItem(ctx, otherCustomer, AddItemInput{ProductID: f.productID, Quantity: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	_, err = f.svc.RemoveItem(ctx, f.customerID, otherCart.Items[0].ID)
	if codeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestSetShippingRejectsNegative(t *testing.T) {
	f := newCartFixture(t, defaultPricingConfig())
	_, err := f.svc.SetShipping(context.Background(), f.customerID, decimal.NewFromInt(-1))
	if codeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestClearEmptiesCart(t *testing.T) {
	f := newCartFixture(t, defaultPricingConfig())
	ctx := context.Background()

	if _, err := f.svc.AddItem(ctx, f.customerID, AddItemInput{ProductID: f.productID, Quantity: decimal.NewFromInt(3)}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cart, err := f.svc.Clear(ctx, f.customerID)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("items = %d, want 0", len(cart.Items))
	}
	assertMoney(t, "total", cart.TotalAmount, "0")
}
