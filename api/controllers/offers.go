package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/api/responses"
	"github.com/printdesk/printdesk-backend/api/validators"
	offersvc "github.com/printdesk/printdesk-backend/internal/offers"
	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
	pkgerrors "github.com/printdesk/printdesk-backend/pkg/errors"
	"github.com/printdesk/printdesk-backend/pkg/logger"
)

// AdminCreateOffer creates a draft offer.
func AdminCreateOffer(svc offersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}

		var payload createOfferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOfferResponse(offer))
	}
}

// AdminGetOffer returns one offer.
func AdminGetOffer(svc offersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "offerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOfferResponse(offer))
	}
}

// AdminListOffers pages through offers with status/type/text filters.
func AdminListOffers(svc offersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := offersvc.ListFilters{
			Query: strings.TrimSpace(r.URL.Query().Get("q")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseOfferStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid offer status"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			offerType, parseErr := enums.ParseOfferType(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid offer type"))
				return
			}
			filters.OfferType = &offerType
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offers := make([]offerResponse, 0, len(list.Offers))
		for i := range list.Offers {
			offers = append(offers, newOfferResponse(&list.Offers[i]))
		}
		responses.WriteSuccess(w, offerListResponse{Offers: offers, NextCursor: list.NextCursor})
	}
}

// AdminSetOfferStatus activates, pauses or archives an offer.
func AdminSetOfferStatus(svc offersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "offerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOfferStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid offer status"))
			return
		}

		if err := svc.SetStatus(r.Context(), id, status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOfferResponse(offer))
	}
}

// ValidateOffer checks a code against a purchase context without applying it.
func ValidateOffer(svc offersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}

		var payload validateOfferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		validation, err := svc.ValidateCode(r.Context(), offersvc.ValidateCodeInput{
			Code:           payload.Code,
			CustomerID:     payload.CustomerID,
			WorkingGroupID: payload.WorkingGroupID,
			ProductIDs:     payload.ProductIDs,
			PurchaseAmount: payload.PurchaseAmount,
			Now:            time.Now().UTC(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := validationResponse{
			Eligible:     validation.Eligible,
			FreeShipping: validation.FreeShipping,
		}
		if validation.Offer != nil {
			offer := newOfferResponse(validation.Offer)
			resp.Offer = &offer
		}
		if !validation.Eligible {
			resp.Reason = string(validation.Reason)
		}
		responses.WriteSuccess(w, resp)
	}
}

type createOfferRequest struct {
	Code                    string          `json:"code" validate:"required"`
	Name                    string          `json:"name" validate:"required"`
	Description             *string         `json:"description,omitempty"`
	OfferType               string          `json:"offer_type" validate:"required"`
	DiscountValue           decimal.Decimal `json:"discount_value"`
	MinPurchaseAmount       decimal.Decimal `json:"min_purchase_amount"`
	StartDate               time.Time       `json:"start_date" validate:"required"`
	EndDate                 time.Time       `json:"end_date" validate:"required"`
	UsageLimit              *int64          `json:"usage_limit,omitempty"`
	PerCustomerLimit        *int64          `json:"per_customer_limit,omitempty"`
	EligibleWorkingGroupIDs []uuid.UUID     `json:"eligible_working_group_ids,omitempty"`
	EligibleProductIDs      []uuid.UUID     `json:"eligible_product_ids,omitempty"`
}

func (r createOfferRequest) toInput() (offersvc.CreateOfferInput, error) {
	offerType, err := enums.ParseOfferType(r.OfferType)
	if err != nil {
		return offersvc.CreateOfferInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid offer type")
	}
	return offersvc.CreateOfferInput{
		Code:                    r.Code,
		Name:                    r.Name,
		Description:             r.Description,
		OfferType:               offerType,
		DiscountValue:           r.DiscountValue,
		MinPurchaseAmount:       r.MinPurchaseAmount,
		StartDate:               r.StartDate,
		EndDate:                 r.EndDate,
		UsageLimit:              r.UsageLimit,
		PerCustomerLimit:        r.PerCustomerLimit,
		EligibleWorkingGroupIDs: r.EligibleWorkingGroupIDs,
		EligibleProductIDs:      r.EligibleProductIDs,
	}, nil
}

type validateOfferRequest struct {
	Code           string          `json:"code" validate:"required"`
	CustomerID     uuid.UUID       `json:"customer_id" validate:"required"`
	WorkingGroupID *uuid.UUID      `json:"working_group_id,omitempty"`
	ProductIDs     []uuid.UUID     `json:"product_ids,omitempty"`
	PurchaseAmount decimal.Decimal `json:"purchase_amount"`
}

type validationResponse struct {
	Offer        *offerResponse `json:"offer,omitempty"`
	Eligible     bool           `json:"eligible"`
	Reason       string         `json:"reason,omitempty"`
	FreeShipping bool           `json:"free_shipping"`
}

type offerListResponse struct {
	Offers     []offerResponse `json:"offers"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type offerResponse struct {
	ID                      uuid.UUID       `json:"id"`
	Code                    string          `json:"code"`
	Name                    string          `json:"name"`
	Description             *string         `json:"description,omitempty"`
	OfferType               string          `json:"offer_type"`
	Status                  string          `json:"status"`
	DiscountValue           decimal.Decimal `json:"discount_value"`
	MinPurchaseAmount       decimal.Decimal `json:"min_purchase_amount"`
	StartDate               time.Time       `json:"start_date"`
	EndDate                 time.Time       `json:"end_date"`
	UsageLimit              *int64          `json:"usage_limit,omitempty"`
	PerCustomerLimit        *int64          `json:"per_customer_limit,omitempty"`
	EligibleWorkingGroupIDs []string        `json:"eligible_working_group_ids,omitempty"`
	EligibleProductIDs      []string        `json:"eligible_product_ids,omitempty"`
	TimesUsed               int64           `json:"times_used"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

func newOfferResponse(offer *models.Offer) offerResponse {
	if offer == nil {
		return offerResponse{}
	}
	return offerResponse{
		ID:                      offer.ID,
		Code:                    offer.Code,
		Name:                    offer.Name,
		Description:             offer.Description,
		OfferType:               string(offer.OfferType),
		Status:                  string(offer.Status),
		DiscountValue:           offer.DiscountValue,
		MinPurchaseAmount:       offer.MinPurchaseAmount,
		StartDate:               offer.StartDate,
		EndDate:                 offer.EndDate,
		UsageLimit:              offer.UsageLimit,
		PerCustomerLimit:        offer.PerCustomerLimit,
		EligibleWorkingGroupIDs: offer.EligibleWorkingGroupIDs,
		EligibleProductIDs:      offer.EligibleProductIDs,
		TimesUsed:               offer.TimesUsed,
		CreatedAt:               offer.CreatedAt,
		UpdatedAt:               offer.UpdatedAt,
	}
}
