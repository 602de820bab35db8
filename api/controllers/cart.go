package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/api/middleware"
	"github.com/printdesk/printdesk-backend/api/responses"
	"github.com/printdesk/printdesk-backend/api/validators"
	cartsvc "github.com/printdesk/printdesk-backend/internal/cart"
	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
	pkgerrors "github.com/printdesk/printdesk-backend/pkg/errors"
	"github.com/printdesk/printdesk-backend/pkg/logger"
)

// CartGet returns the customer's active cart, creating an empty one on first use.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := resolveCustomerID(r, nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Get(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// CartUpsert replaces the active cart's lines and shipping with the submitted
// set. Lines sharing a fingerprint stack into a single item.
func CartUpsert(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload upsertCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := resolveCustomerID(r, payload.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.Clear(r.Context(), customerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var record *models.CartRecord
		for _, item := range payload.Items {
			input, inputErr := item.toInput()
			if inputErr != nil {
				responses.WriteError(r.Context(), logg, w, inputErr)
				return
			}
			record, err = svc.AddItem(r.Context(), customerID, input)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		record, err = svc.SetShipping(r.Context(), customerID, payload.ShippingAmount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// CartApplyOffer applies an offer code to the active cart. An ineligible code
// is a normal response with eligible=false, not an error.
func CartApplyOffer(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload applyOfferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := resolveCustomerID(r, payload.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		attempt, err := svc.ApplyOffer(r.Context(), customerID, payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := offerAttemptResponse{
			Cart:     newCartResponse(attempt.Cart),
			Eligible: attempt.Eligible,
		}
		if !attempt.Eligible {
			resp.Reason = string(attempt.Reason)
		}
		responses.WriteSuccess(w, resp)
	}
}

// CartRemoveOffer drops the stored offer code and retotals.
func CartRemoveOffer(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := resolveCustomerID(r, nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.RemoveOffer(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// resolveCustomerID prefers the token's customer scope, then the request's
// explicit customer_id (body or query). Back-office tokens carry no customer
// scope and must name the customer they act for.
func resolveCustomerID(r *http.Request, fromBody *uuid.UUID) (uuid.UUID, error) {
	if raw := middleware.CustomerIDFromContext(r.Context()); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id")
		}
		return id, nil
	}
	if fromBody != nil {
		return *fromBody, nil
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("customer_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id")
		}
		return id, nil
	}
	return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_id is required")
}

type upsertCartRequest struct {
	CustomerID     *uuid.UUID        `json:"customer_id,omitempty"`
	ShippingAmount decimal.Decimal   `json:"shipping_amount"`
	Items          []cartItemPayload `json:"items" validate:"dive"`
}

type cartItemPayload struct {
	ProductID     uuid.UUID        `json:"product_id" validate:"required"`
	RollID        *uuid.UUID       `json:"roll_id,omitempty"`
	Quantity      decimal.Decimal  `json:"quantity"`
	SizeUnit      *string          `json:"size_unit,omitempty" validate:"omitempty,oneof=in ft"`
	Width         *decimal.Decimal `json:"width,omitempty"`
	Height        *decimal.Decimal `json:"height,omitempty"`
	UseOffcutRate bool             `json:"use_offcut_rate"`
}

func (p cartItemPayload) toInput() (cartsvc.AddItemInput, error) {
	var sizeUnit *enums.SizeUnit
	if p.SizeUnit != nil {
		parsed, err := enums.ParseSizeUnit(*p.SizeUnit)
		if err != nil {
			return cartsvc.AddItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid size unit")
		}
		sizeUnit = &parsed
	}
	return cartsvc.AddItemInput{
		ProductID:     p.ProductID,
		RollID:        p.RollID,
		Quantity:      p.Quantity,
		SizeUnit:      sizeUnit,
		Width:         p.Width,
		Height:        p.Height,
		UseOffcutRate: p.UseOffcutRate,
	}, nil
}

type applyOfferRequest struct {
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	Code       string     `json:"code" validate:"required"`
}

type offerAttemptResponse struct {
	Cart     cartResponse `json:"cart"`
	Eligible bool         `json:"eligible"`
	Reason   string       `json:"reason,omitempty"`
}

type cartResponse struct {
	ID             uuid.UUID          `json:"id"`
	CustomerID     uuid.UUID          `json:"customer_id"`
	Status         string             `json:"status"`
	OfferCode      *string            `json:"offer_code,omitempty"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	TaxAmount      decimal.Decimal    `json:"tax_amount"`
	ShippingAmount decimal.Decimal    `json:"shipping_amount"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	Items          []cartItemResponse `json:"items"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

type cartItemResponse struct {
	ID            uuid.UUID        `json:"id"`
	ProductID     uuid.UUID        `json:"product_id"`
	RollID        *uuid.UUID       `json:"roll_id,omitempty"`
	PricingMethod string           `json:"pricing_method"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	SizeUnit      string           `json:"size_unit"`
	Width         *decimal.Decimal `json:"width,omitempty"`
	Height        *decimal.Decimal `json:"height,omitempty"`
	RollRate      *decimal.Decimal `json:"roll_rate,omitempty"`
	OffcutRate    *decimal.Decimal `json:"offcut_rate,omitempty"`
	UseOffcutRate bool             `json:"use_offcut_rate"`
	LineTotal     decimal.Decimal  `json:"line_total"`
}

func newCartResponse(record *models.CartRecord) cartResponse {
	if record == nil {
		return cartResponse{}
	}
	items := make([]cartItemResponse, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, cartItemResponse{
			ID:            item.ID,
			ProductID:     item.ProductID,
			RollID:        item.RollID,
			PricingMethod: string(item.PricingMethod),
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			SizeUnit:      string(item.SizeUnit),
			Width:         item.Width,
			Height:        item.Height,
			RollRate:      item.RollRate,
			OffcutRate:    item.OffcutRate,
			UseOffcutRate: item.UseOffcutRate,
			LineTotal:     item.LineTotal,
		})
	}

	return cartResponse{
		ID:             record.ID,
		CustomerID:     record.CustomerID,
		Status:         string(record.Status),
		OfferCode:      record.OfferCode,
		Subtotal:       record.Subtotal,
		DiscountAmount: record.DiscountAmount,
		TaxAmount:      record.TaxAmount,
		ShippingAmount: record.ShippingAmount,
		TotalAmount:    record.TotalAmount,
		Items:          items,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}
