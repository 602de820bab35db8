package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	cartsvc "github.com/printdesk/printdesk-backend/internal/cart"
	catalogsvc "github.com/printdesk/printdesk-backend/internal/catalog"
	estimatesvc "github.com/printdesk/printdesk-backend/internal/estimates"
	invoicesvc "github.com/printdesk/printdesk-backend/internal/invoices"
	offersvc "github.com/printdesk/printdesk-backend/internal/offers"
	ordersvc "github.com/printdesk/printdesk-backend/internal/orders"
	"github.com/printdesk/printdesk-backend/internal/pricing"
	pkgauth "github.com/printdesk/printdesk-backend/pkg/auth"
	"github.com/printdesk/printdesk-backend/pkg/config"
	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
	"github.com/printdesk/printdesk-backend/pkg/logger"
	"github.com/printdesk/printdesk-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCartService struct{}

func (stubCartService) Get(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	return &models.CartRecord{ID: uuid.New(), CustomerID: customerID, Status: enums.CartStatusActive}, nil
}

func (stubCartService) AddItem(ctx context.Context, customerID uuid.UUID, input cartsvc.AddItemInput) (*models.CartRecord, error) {
	panic("unimplemented")
}

func (stubCartService) UpdateItemQuantity(ctx context.Context, customerID, itemID uuid.UUID, quantity decimal.Decimal) (*models.CartRecord, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*models.CartRecord, error) {
	panic("unimplemented")
}

func (stubCartService) SetShipping(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal) (*models.CartRecord, error) {
	panic("unimplemented")
}

func (stubCartService) ApplyOffer(ctx context.Context, customerID uuid.UUID, code string) (*cartsvc.OfferAttempt, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveOffer(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	panic("unimplemented")
}

func (stubCartService) Clear(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	panic("unimplemented")
}

type stubCatalogService struct{}

func (stubCatalogService) CreateProduct(ctx context.Context, input catalogsvc.CreateProductInput) (*models.Product, error) {
	return &models.Product{ID: uuid.New(), SKU: input.SKU, Name: input.Name}, nil
}

func (stubCatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	panic("unimplemented")
}

func (stubCatalogService) ListProducts(ctx context.Context, params pagination.Params, filters catalogsvc.ProductFilters) (*catalogsvc.ProductList, error) {
	return &catalogsvc.ProductList{}, nil
}

func (stubCatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input catalogsvc.UpdateProductInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubCatalogService) AddRoll(ctx context.Context, input catalogsvc.CreateRollInput) (*models.ProductRoll, error) {
	panic("unimplemented")
}

func (stubCatalogService) GetRoll(ctx context.Context, id uuid.UUID) (*models.ProductRoll, error) {
	panic("unimplemented")
}

func (stubCatalogService) SetGroupPrice(ctx context.Context, productID, workingGroupID uuid.UUID, unitPrice decimal.Decimal) error {
	panic("unimplemented")
}

func (stubCatalogService) ResolveUnitPrice(ctx context.Context, productID uuid.UUID, workingGroupID *uuid.UUID) (*catalogsvc.ResolvedPrice, error) {
	panic("unimplemented")
}

func (stubCatalogService) DefaultTaxSpec(ctx context.Context) (pricing.AdjustSpec, bool, error) {
	panic("unimplemented")
}

type stubOrdersService struct{}

func (stubOrdersService) Checkout(ctx context.Context, input ordersvc.CheckoutInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) List(ctx context.Context, params pagination.Params, filters ordersvc.ListFilters) (*ordersvc.OrderList, error) {
	return &ordersvc.OrderList{}, nil
}

func (stubOrdersService) Retotal(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) UpdateItemQuantity(ctx context.Context, orderID, itemID uuid.UUID, quantity decimal.Decimal) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Lock(ctx context.Context, orderID uuid.UUID, input ordersvc.LockInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Unlock(ctx context.Context, orderID uuid.UUID, input ordersvc.LockInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) SetStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	panic("unimplemented")
}

type stubEstimatesService struct{}

func (stubEstimatesService) Create(ctx context.Context, input estimatesvc.CreateInput) (*models.Estimate, error) {
	panic("unimplemented")
}

func (stubEstimatesService) Get(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	panic("unimplemented")
}

func (stubEstimatesService) List(ctx context.Context, params pagination.Params, filters estimatesvc.ListFilters) (*estimatesvc.EstimateList, error) {
	return &estimatesvc.EstimateList{}, nil
}

func (stubEstimatesService) Retotal(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	panic("unimplemented")
}

func (stubEstimatesService) Send(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	panic("unimplemented")
}

func (stubEstimatesService) Accept(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	panic("unimplemented")
}

func (stubEstimatesService) Decline(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	panic("unimplemented")
}

func (stubEstimatesService) Convert(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

type stubInvoicesService struct{}

func (stubInvoicesService) Issue(ctx context.Context, input invoicesvc.IssueInput) (*models.Invoice, error) {
	panic("unimplemented")
}

func (stubInvoicesService) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	panic("unimplemented")
}

func (stubInvoicesService) RecordPayment(ctx context.Context, invoiceID uuid.UUID, input invoicesvc.PaymentInput) (*models.Invoice, error) {
	panic("unimplemented")
}

func (stubInvoicesService) Void(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	panic("unimplemented")
}

func (stubInvoicesService) CustomerStatement(ctx context.Context, customerID uuid.UUID) (*invoicesvc.Statement, error) {
	panic("unimplemented")
}

type stubOffersService struct{}

func (stubOffersService) Create(ctx context.Context, input offersvc.CreateOfferInput) (*models.Offer, error) {
	panic("unimplemented")
}

func (stubOffersService) Get(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	panic("unimplemented")
}

func (stubOffersService) List(ctx context.Context, params pagination.Params, filters offersvc.ListFilters) (*offersvc.OfferList, error) {
	return &offersvc.OfferList{}, nil
}

func (stubOffersService) SetStatus(ctx context.Context, id uuid.UUID, status enums.OfferStatus) error {
	panic("unimplemented")
}

func (stubOffersService) ValidateCode(ctx context.Context, input offersvc.ValidateCodeInput) (*offersvc.Validation, error) {
	panic("unimplemented")
}

func (stubOffersService) Redeem(ctx context.Context, tx *gorm.DB, offerID, customerID uuid.UUID, usedAt time.Time) error {
	panic("unimplemented")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:    cfg,
		Logger:    logg,
		DB:        stubPinger{},
		Catalog:   stubCatalogService{},
		Cart:      stubCartService{},
		Orders:    stubOrdersService{},
		Estimates: stubEstimatesService{},
		Invoices:  stubInvoicesService{},
		Offers:    stubOffersService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestHealthReadyPingsDependencies(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAPIGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAPIGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleStaff))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for order list got %d", resp.Code)
	}
}

func TestCartGetUsesCustomerScope(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customerID := uuid.New()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:     uuid.New(),
		Role:       enums.UserRoleStaff,
		CustomerID: &customerID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for cart get got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	staff := httptest.NewRequest(http.MethodGet, "/api/v1/admin/offers", nil)
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleStaff))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/offers", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}
