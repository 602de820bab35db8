package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	offersvc "github.com/printdesk/printdesk-backend/internal/offers"
	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
	"github.com/printdesk/printdesk-backend/pkg/pagination"
)

type stubOfferValidator struct {
	validation *offersvc.Validation
	err        error
	gotInput   offersvc.ValidateCodeInput
}

func (s *stubOfferValidator) Create(ctx context.Context, input offersvc.CreateOfferInput) (*models.Offer, error) {
	panic("unimplemented")
}

func (s *stubOfferValidator) Get(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	panic("unimplemented")
}

func (s *stubOfferValidator) List(ctx context.Context, params pagination.Params, filters offersvc.ListFilters) (*offersvc.OfferList, error) {
	panic("unimplemented")
}

func (s *stubOfferValidator) SetStatus(ctx context.Context, id uuid.UUID, status enums.OfferStatus) error {
	panic("unimplemented")
}

func (s *stubOfferValidator) ValidateCode(ctx context.Context, input offersvc.ValidateCodeInput) (*offersvc.Validation, error) {
	s.gotInput = input
	return s.validation, s.err
}

func (s *stubOfferValidator) Redeem(ctx context.Context, tx *gorm.DB, offerID, customerID uuid.UUID, usedAt time.Time) error {
	panic("unimplemented")
}

func postQuote(t *testing.T, handler http.HandlerFunc, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func decodeQuote(t *testing.T, resp *httptest.ResponseRecorder) quoteResponse {
	t.Helper()

	var envelope struct {
		Data quoteResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

func TestQuoteStandardLinesWithDiscountAndTax(t *testing.T) {
	handler := Quote(nil, nil)

	resp := postQuote(t, handler, map[string]any{
		"lines": []map[string]any{
			{
				"product_id":     uuid.New(),
				"pricing_method": "standard",
				"quantity":       "3",
				"unit_price":     "100.00",
			},
			{
				"product_id":     uuid.New(),
				"pricing_method": "standard",
				"quantity":       "1",
				"unit_price":     "250.00",
			},
		},
		"discount":        map[string]any{"mode": "percent", "value": "10"},
		"tax":             map[string]any{"mode": "percent", "value": "15"},
		"shipping_amount": "50.00",
	})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	data := decodeQuote(t, resp)
	if !data.Subtotal.Equal(decimal.RequireFromString("550.00")) {
		t.Fatalf("unexpected subtotal %s", data.Subtotal)
	}
	if !data.DiscountAmount.Equal(decimal.RequireFromString("55.00")) {
		t.Fatalf("unexpected discount %s", data.DiscountAmount)
	}
	if !data.TaxAmount.Equal(decimal.RequireFromString("74.25")) {
		t.Fatalf("unexpected tax %s", data.TaxAmount)
	}
	if !data.TotalAmount.Equal(decimal.RequireFromString("619.25")) {
		t.Fatalf("unexpected total %s", data.TotalAmount)
	}
}

func TestQuoteRollLine(t *testing.T) {
	handler := Quote(nil, nil)

	resp := postQuote(t, handler, map[string]any{
		"lines": []map[string]any{
			{
				"product_id":     uuid.New(),
				"pricing_method": "roll",
				"quantity":       "2",
				"size_unit":      "in",
				"width":          "24",
				"height":         "36",
				"roll_rate":      "10.00",
			},
		},
	})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	data := decodeQuote(t, resp)
	if !data.Subtotal.Equal(decimal.RequireFromString("120.00")) {
		t.Fatalf("unexpected subtotal %s", data.Subtotal)
	}
	if !data.TotalAmount.Equal(decimal.RequireFromString("120.00")) {
		t.Fatalf("unexpected total %s", data.TotalAmount)
	}
}

func TestQuoteFixedDiscountClampsToSubtotal(t *testing.T) {
	handler := Quote(nil, nil)

	resp := postQuote(t, handler, map[string]any{
		"lines": []map[string]any{
			{
				"product_id":     uuid.New(),
				"pricing_method": "standard",
				"quantity":       "1",
				"unit_price":     "300.00",
			},
		},
		"discount": map[string]any{"mode": "fixed", "value": "1000.00"},
		"tax":      map[string]any{"mode": "percent", "value": "15"},
	})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	data := decodeQuote(t, resp)
	if !data.DiscountAmount.Equal(decimal.RequireFromString("300.00")) {
		t.Fatalf("discount should clamp to subtotal, got %s", data.DiscountAmount)
	}
	if !data.TaxAmount.IsZero() {
		t.Fatalf("tax base should be zero, got %s", data.TaxAmount)
	}
	if !data.TotalAmount.IsZero() {
		t.Fatalf("unexpected total %s", data.TotalAmount)
	}
}

func TestQuoteRejectsEmptyLines(t *testing.T) {
	handler := Quote(nil, nil)

	resp := postQuote(t, handler, map[string]any{"lines": []map[string]any{}})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestQuoteAppliesEligibleOffer(t *testing.T) {
	stub := &stubOfferValidator{
		validation: &offersvc.Validation{
			Offer: &models.Offer{
				ID:            uuid.New(),
				OfferType:     enums.OfferTypePercentage,
				DiscountValue: decimal.RequireFromString("10"),
			},
			Eligible: true,
		},
	}
	handler := Quote(stub, nil)
	customerID := uuid.New()

	resp := postQuote(t, handler, map[string]any{
		"lines": []map[string]any{
			{
				"product_id":     uuid.New(),
				"pricing_method": "standard",
				"quantity":       "2",
				"unit_price":     "100.00",
			},
		},
		"offer_code":  "SAVE10",
		"customer_id": customerID,
	})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if !stub.gotInput.PurchaseAmount.Equal(decimal.RequireFromString("200.00")) {
		t.Fatalf("validator saw purchase amount %s", stub.gotInput.PurchaseAmount)
	}
	if stub.gotInput.CustomerID != customerID {
		t.Fatalf("validator saw customer %s", stub.gotInput.CustomerID)
	}

	data := decodeQuote(t, resp)
	if data.OfferEligible == nil || !*data.OfferEligible {
		t.Fatalf("expected eligible offer in response")
	}
	if !data.DiscountAmount.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("unexpected discount %s", data.DiscountAmount)
	}
}

func TestQuoteIneligibleOfferKeepsRequestDiscount(t *testing.T) {
	stub := &stubOfferValidator{
		validation: &offersvc.Validation{
			Eligible: false,
			Reason:   enums.ReasonOfferOutOfWindow,
		},
	}
	handler := Quote(stub, nil)

	resp := postQuote(t, handler, map[string]any{
		"lines": []map[string]any{
			{
				"product_id":     uuid.New(),
				"pricing_method": "standard",
				"quantity":       "1",
				"unit_price":     "100.00",
			},
		},
		"offer_code":  "EXPIRED",
		"customer_id": uuid.New(),
	})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	data := decodeQuote(t, resp)
	if data.OfferEligible == nil || *data.OfferEligible {
		t.Fatalf("expected ineligible offer in response")
	}
	if data.OfferReason == nil || *data.OfferReason != string(enums.ReasonOfferOutOfWindow) {
		t.Fatalf("unexpected reason %v", data.OfferReason)
	}
	if !data.DiscountAmount.IsZero() {
		t.Fatalf("ineligible offer must not discount, got %s", data.DiscountAmount)
	}
	if !data.TotalAmount.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("unexpected total %s", data.TotalAmount)
	}
}

func TestQuoteOfferRequiresCustomer(t *testing.T) {
	handler := Quote(&stubOfferValidator{}, nil)

	resp := postQuote(t, handler, map[string]any{
		"lines": []map[string]any{
			{
				"product_id":     uuid.New(),
				"pricing_method": "standard",
				"quantity":       "1",
				"unit_price":     "100.00",
			},
		},
		"offer_code": "SAVE10",
	})

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
