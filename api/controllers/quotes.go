package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/api/responses"
	"github.com/printdesk/printdesk-backend/api/validators"
	offersvc "github.com/printdesk/printdesk-backend/internal/offers"
	"github.com/printdesk/printdesk-backend/internal/pricing"
	"github.com/printdesk/printdesk-backend/pkg/enums"
	pkgerrors "github.com/printdesk/printdesk-backend/pkg/errors"
	"github.com/printdesk/printdesk-backend/pkg/logger"
)

// Quote computes totals for ad-hoc lines without persisting anything. The
// back-office estimator calls it while the user is still typing.
func Quote(offersSvc offersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := payload.toLineItems()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := payload.Discount.toSpec()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tax, err := payload.Tax.toSpec()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipping := payload.ShippingAmount
		resp := quoteResponse{}

		if payload.OfferCode != nil && *payload.OfferCode != "" {
			if offersSvc == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
				return
			}
			if payload.CustomerID == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "customer_id is required when quoting an offer code"))
				return
			}

			subtotal := decimal.Zero
			productIDs := make([]uuid.UUID, 0, len(lines))
			for i, line := range lines {
				total, priceErr := pricing.PriceLine(line)
				if priceErr != nil {
					responses.WriteError(r.Context(), logg, w, priceErr)
					return
				}
				subtotal = subtotal.Add(total)
				productIDs = append(productIDs, payload.Lines[i].ProductID)
			}

			validation, valErr := offersSvc.ValidateCode(r.Context(), offersvc.ValidateCodeInput{
				Code:           *payload.OfferCode,
				CustomerID:     *payload.CustomerID,
				ProductIDs:     productIDs,
				PurchaseAmount: subtotal,
				Now:            time.Now().UTC(),
			})
			if valErr != nil {
				responses.WriteError(r.Context(), logg, w, valErr)
				return
			}

			resp.OfferEligible = &validation.Eligible
			if !validation.Eligible {
				reason := string(validation.Reason)
				resp.OfferReason = &reason
			} else {
				spec, freeShipping, specErr := pricing.SpecFromOffer(validation.Offer.OfferType, validation.Offer.DiscountValue)
				if specErr != nil {
					responses.WriteError(r.Context(), logg, w, specErr)
					return
				}
				discount = spec
				if freeShipping {
					shipping = decimal.Zero
				}
			}
		}

		totals, err := pricing.ComputeTotals(lines, discount, tax, shipping)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp.Totals = totals
		responses.WriteSuccess(w, resp)
	}
}

type quoteRequest struct {
	Lines          []quoteLineRequest `json:"lines" validate:"required,min=1,dive"`
	Discount       adjustPayload      `json:"discount"`
	Tax            adjustPayload      `json:"tax"`
	ShippingAmount decimal.Decimal    `json:"shipping_amount"`
	OfferCode      *string            `json:"offer_code,omitempty"`
	CustomerID     *uuid.UUID         `json:"customer_id,omitempty"`
}

type quoteLineRequest struct {
	ProductID     uuid.UUID        `json:"product_id"`
	PricingMethod string           `json:"pricing_method" validate:"required,oneof=standard roll"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	SizeUnit      *string          `json:"size_unit,omitempty" validate:"omitempty,oneof=in ft"`
	Width         *decimal.Decimal `json:"width,omitempty"`
	Height        *decimal.Decimal `json:"height,omitempty"`
	RollRate      *decimal.Decimal `json:"roll_rate,omitempty"`
	OffcutRate    *decimal.Decimal `json:"offcut_rate,omitempty"`
	UseOffcutRate bool             `json:"use_offcut_rate"`
}

type adjustPayload struct {
	Mode  string          `json:"mode" validate:"omitempty,oneof=none fixed percent"`
	Value decimal.Decimal `json:"value"`
}

func (p adjustPayload) toSpec() (pricing.AdjustSpec, error) {
	if p.Mode == "" {
		return pricing.NoAdjust(), nil
	}
	mode, err := enums.ParseAdjustMode(p.Mode)
	if err != nil {
		return pricing.AdjustSpec{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid adjustment mode")
	}
	return pricing.AdjustSpec{Mode: mode, Value: p.Value}, nil
}

func (r quoteRequest) toLineItems() ([]pricing.LineItem, error) {
	lines := make([]pricing.LineItem, len(r.Lines))
	for i, payload := range r.Lines {
		method, err := enums.ParsePricingMethod(payload.PricingMethod)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pricing method")
		}
		sizeUnit := enums.SizeUnitInch
		if payload.SizeUnit != nil {
			sizeUnit, err = enums.ParseSizeUnit(*payload.SizeUnit)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid size unit")
			}
		}
		lines[i] = pricing.LineItem{
			Quantity:      payload.Quantity,
			Method:        method,
			UnitPrice:     payload.UnitPrice,
			SizeUnit:      sizeUnit,
			Width:         payload.Width,
			Height:        payload.Height,
			RollRate:      payload.RollRate,
			OffcutRate:    payload.OffcutRate,
			UseOffcutRate: payload.UseOffcutRate,
		}
	}
	return lines, nil
}

type quoteResponse struct {
	pricing.Totals
	OfferEligible *bool   `json:"offer_eligible,omitempty"`
	OfferReason   *string `json:"offer_reason,omitempty"`
}
