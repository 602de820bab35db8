package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/api/middleware"
	ordersvc "github.com/printdesk/printdesk-backend/internal/orders"
	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
	pkgerrors "github.com/printdesk/printdesk-backend/pkg/errors"
	"github.com/printdesk/printdesk-backend/pkg/pagination"
)

type stubOrderService struct {
	order *models.Order
	list  *ordersvc.OrderList
	err   error

	gotCheckout ordersvc.CheckoutInput
	gotLock     ordersvc.LockInput
	gotFilters  ordersvc.ListFilters
	gotStatus   enums.OrderStatus
	locked      bool
	unlocked    bool
}

func (s *stubOrderService) Checkout(ctx context.Context, input ordersvc.CheckoutInput) (*models.Order, error) {
	s.gotCheckout = input
	return s.order, s.err
}

func (s *stubOrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) List(ctx context.Context, params pagination.Params, filters ordersvc.ListFilters) (*ordersvc.OrderList, error) {
	s.gotFilters = filters
	return s.list, s.err
}

func (s *stubOrderService) Retotal(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) UpdateItemQuantity(ctx context.Context, orderID, itemID uuid.UUID, quantity decimal.Decimal) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) Lock(ctx context.Context, orderID uuid.UUID, input ordersvc.LockInput) (*models.Order, error) {
	s.locked = true
	s.gotLock = input
	return s.order, s.err
}

func (s *stubOrderService) Unlock(ctx context.Context, orderID uuid.UUID, input ordersvc.LockInput) (*models.Order, error) {
	s.unlocked = true
	s.gotLock = input
	return s.order, s.err
}

func (s *stubOrderService) SetStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	s.gotStatus = status
	return s.order, s.err
}

func withOrderParam(req *http.Request, orderID uuid.UUID) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("orderID", orderID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
}

func TestCheckoutCreatesOrder(t *testing.T) {
	customerID := uuid.New()
	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: 1001,
		CustomerID:  customerID,
		Status:      enums.OrderStatusDraft,
	}
	stub := &stubOrderService{order: order}
	handler := Checkout(stub, nil)

	body, _ := json.Marshal(map[string]any{"customer_id": customerID, "notes": "rush job"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if stub.gotCheckout.CustomerID != customerID {
		t.Fatalf("service saw customer %s", stub.gotCheckout.CustomerID)
	}
	if stub.gotCheckout.Notes == nil || *stub.gotCheckout.Notes != "rush job" {
		t.Fatalf("notes not forwarded")
	}

	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OrderNumber != 1001 {
		t.Fatalf("unexpected order number %d", envelope.Data.OrderNumber)
	}
}

func TestOrderListForwardsFilters(t *testing.T) {
	customerID := uuid.New()
	stub := &stubOrderService{list: &ordersvc.OrderList{}}
	handler := OrderList(stub, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?customer_id="+customerID.String()+"&status=draft", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if stub.gotFilters.CustomerID == nil || *stub.gotFilters.CustomerID != customerID {
		t.Fatalf("customer filter not forwarded")
	}
	if stub.gotFilters.Status == nil || *stub.gotFilters.Status != enums.OrderStatusDraft {
		t.Fatalf("status filter not forwarded")
	}
}

func TestOrderListRejectsBadStatus(t *testing.T) {
	handler := OrderList(&stubOrderService{list: &ordersvc.OrderList{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=bogus", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderLockRecordsActor(t *testing.T) {
	orderID := uuid.New()
	actorID := uuid.New()
	stub := &stubOrderService{order: &models.Order{ID: orderID, Status: enums.OrderStatusDraft}}
	handler := OrderLock(stub, nil)

	body, _ := json.Marshal(map[string]any{"reason": "price review"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/lock", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withOrderParam(req, orderID)
	req = req.WithContext(middleware.WithUserID(req.Context(), actorID.String()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if !stub.locked {
		t.Fatalf("lock was not invoked")
	}
	if stub.gotLock.ActorUserID != actorID {
		t.Fatalf("service saw actor %s", stub.gotLock.ActorUserID)
	}
	if stub.gotLock.Reason == nil || *stub.gotLock.Reason != "price review" {
		t.Fatalf("reason not forwarded")
	}
}

func TestOrderUnlockWithoutBody(t *testing.T) {
	orderID := uuid.New()
	stub := &stubOrderService{order: &models.Order{ID: orderID}}
	handler := OrderUnlock(stub, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/unlock", nil)
	req = withOrderParam(req, orderID)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if !stub.unlocked {
		t.Fatalf("unlock was not invoked")
	}
	if stub.gotLock.Reason != nil {
		t.Fatalf("expected no reason, got %q", *stub.gotLock.Reason)
	}
}

func TestOrderLockRequiresUserContext(t *testing.T) {
	orderID := uuid.New()
	handler := OrderLock(&stubOrderService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/lock", nil)
	req = withOrderParam(req, orderID)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestOrderRetotalPropagatesLockConflict(t *testing.T) {
	orderID := uuid.New()
	stub := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeOrderLocked, "order is locked")}
	handler := OrderRetotal(stub, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/retotal", nil)
	req = withOrderParam(req, orderID)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeOrderLocked) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}

func TestOrderSetStatusParsesStatus(t *testing.T) {
	orderID := uuid.New()
	stub := &stubOrderService{order: &models.Order{ID: orderID, Status: enums.OrderStatusInProduction}}
	handler := OrderSetStatus(stub, nil)

	body, _ := json.Marshal(map[string]any{"status": "in_production"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withOrderParam(req, orderID)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if stub.gotStatus != enums.OrderStatusInProduction {
		t.Fatalf("unexpected status %s", stub.gotStatus)
	}
}

func TestOrderGetRejectsMalformedID(t *testing.T) {
	handler := OrderGet(&stubOrderService{}, nil)

	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("orderID", "not-a-uuid")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
