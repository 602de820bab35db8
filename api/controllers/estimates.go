package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/api/responses"
	"github.com/printdesk/printdesk-backend/api/validators"
	estimatesvc "github.com/printdesk/printdesk-backend/internal/estimates"
	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
	pkgerrors "github.com/printdesk/printdesk-backend/pkg/errors"
	"github.com/printdesk/printdesk-backend/pkg/logger"
)

// EstimateCreate prices the submitted lines and stores a draft estimate.
func EstimateCreate(svc estimatesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "estimate service unavailable"))
			return
		}

		var payload createEstimateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		estimate, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newEstimateResponse(estimate))
	}
}

// EstimateGet returns one estimate with its lines.
func EstimateGet(svc estimatesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "estimate service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "estimateID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		estimate, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newEstimateResponse(estimate))
	}
}

// EstimateList pages through estimates, optionally filtered by customer and status.
func EstimateList(svc estimatesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "estimate service unavailable"))
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := estimatesvc.ListFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("customer_id")); raw != "" {
			id, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid customer id"))
				return
			}
			filters.CustomerID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseEstimateStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid estimate status"))
				return
			}
			filters.Status = &status
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		estimates := make([]estimateResponse, 0, len(list.Estimates))
		for i := range list.Estimates {
			estimates = append(estimates, newEstimateResponse(&list.Estimates[i]))
		}
		responses.WriteSuccess(w, estimateListResponse{Estimates: estimates, NextCursor: list.NextCursor})
	}
}

// EstimateSend marks a draft estimate as sent to the customer.
func EstimateSend(svc estimatesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return estimateTransition(svc, logg, func(s estimatesvc.Service) estimateActionFn { return s.Send })
}

// EstimateAccept records the customer accepting a sent estimate.
func EstimateAccept(svc estimatesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return estimateTransition(svc, logg, func(s estimatesvc.Service) estimateActionFn { return s.Accept })
}

// EstimateDecline records the customer declining a sent estimate.
func EstimateDecline(svc estimatesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return estimateTransition(svc, logg, func(s estimatesvc.Service) estimateActionFn { return s.Decline })
}

// EstimateRetotal reprices a draft estimate's lines.
func EstimateRetotal(svc estimatesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return estimateTransition(svc, logg, func(s estimatesvc.Service) estimateActionFn { return s.Retotal })
}

// EstimateConvert turns an accepted estimate into a draft order.
func EstimateConvert(svc estimatesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "estimate service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "estimateID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Convert(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

type estimateActionFn func(ctx context.Context, id uuid.UUID) (*models.Estimate, error)

func estimateTransition(svc estimatesvc.Service, logg *logger.Logger, pick func(estimatesvc.Service) estimateActionFn) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable("estimate", logg)
	}
	action := pick(svc)
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "estimateID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		estimate, err := action(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newEstimateResponse(estimate))
	}
}

type createEstimateRequest struct {
	CustomerID     uuid.UUID           `json:"customer_id" validate:"required"`
	Lines          []estimateLineInput `json:"lines" validate:"required,min=1,dive"`
	DiscountMode   *string             `json:"discount_mode,omitempty" validate:"omitempty,oneof=none fixed percent"`
	DiscountValue  *decimal.Decimal    `json:"discount_value,omitempty"`
	ShippingAmount decimal.Decimal     `json:"shipping_amount"`
	ValidUntil     *time.Time          `json:"valid_until,omitempty"`
	Notes          *string             `json:"notes,omitempty"`
}

type estimateLineInput struct {
	ProductID     uuid.UUID        `json:"product_id" validate:"required"`
	RollID        *uuid.UUID       `json:"roll_id,omitempty"`
	Quantity      decimal.Decimal  `json:"quantity"`
	SizeUnit      *string          `json:"size_unit,omitempty" validate:"omitempty,oneof=in ft"`
	Width         *decimal.Decimal `json:"width,omitempty"`
	Height        *decimal.Decimal `json:"height,omitempty"`
	UseOffcutRate bool             `json:"use_offcut_rate"`
}

func (r createEstimateRequest) toInput() (estimatesvc.CreateInput, error) {
	lines := make([]estimatesvc.LineInput, len(r.Lines))
	for i, payload := range r.Lines {
		var sizeUnit *enums.SizeUnit
		if payload.SizeUnit != nil {
			parsed, err := enums.ParseSizeUnit(*payload.SizeUnit)
			if err != nil {
				return estimatesvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid size unit")
			}
			sizeUnit = &parsed
		}
		lines[i] = estimatesvc.LineInput{
			ProductID:     payload.ProductID,
			RollID:        payload.RollID,
			Quantity:      payload.Quantity,
			SizeUnit:      sizeUnit,
			Width:         payload.Width,
			Height:        payload.Height,
			UseOffcutRate: payload.UseOffcutRate,
		}
	}

	var discountMode *enums.AdjustMode
	if r.DiscountMode != nil {
		parsed, err := enums.ParseAdjustMode(*r.DiscountMode)
		if err != nil {
			return estimatesvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount mode")
		}
		discountMode = &parsed
	}

	return estimatesvc.CreateInput{
		CustomerID:     r.CustomerID,
		Lines:          lines,
		DiscountMode:   discountMode,
		DiscountValue:  r.DiscountValue,
		ShippingAmount: r.ShippingAmount,
		ValidUntil:     r.ValidUntil,
		Notes:          r.Notes,
	}, nil
}

type estimateListResponse struct {
	Estimates  []estimateResponse `json:"estimates"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

type estimateResponse struct {
	ID               uuid.UUID              `json:"id"`
	EstimateNumber   int64                  `json:"estimate_number"`
	CustomerID       uuid.UUID              `json:"customer_id"`
	Status           string                 `json:"status"`
	ValidUntil       *time.Time             `json:"valid_until,omitempty"`
	DiscountMode     string                 `json:"discount_mode"`
	DiscountValue    decimal.Decimal        `json:"discount_value"`
	TaxMode          string                 `json:"tax_mode"`
	TaxValue         decimal.Decimal        `json:"tax_value"`
	Subtotal         decimal.Decimal        `json:"subtotal"`
	DiscountAmount   decimal.Decimal        `json:"discount_amount"`
	TaxAmount        decimal.Decimal        `json:"tax_amount"`
	ShippingAmount   decimal.Decimal        `json:"shipping_amount"`
	TotalAmount      decimal.Decimal        `json:"total_amount"`
	ConvertedOrderID *uuid.UUID             `json:"converted_order_id,omitempty"`
	SentAt           *time.Time             `json:"sent_at,omitempty"`
	Notes            *string                `json:"notes,omitempty"`
	Items            []documentItemResponse `json:"items"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

func newEstimateResponse(estimate *models.Estimate) estimateResponse {
	if estimate == nil {
		return estimateResponse{}
	}
	items := make([]documentItemResponse, 0, len(estimate.Items))
	for _, item := range estimate.Items {
		items = append(items, documentItemResponse{
			ID:            item.ID,
			ProductID:     item.ProductID,
			RollID:        item.RollID,
			Description:   item.Description,
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

	return estimateResponse{
		ID:               estimate.ID,
		EstimateNumber:   estimate.EstimateNumber,
		CustomerID:       estimate.CustomerID,
		Status:           string(estimate.Status),
		ValidUntil:       estimate.ValidUntil,
		DiscountMode:     string(estimate.DiscountMode),
		DiscountValue:    estimate.DiscountValue,
		TaxMode:          string(estimate.TaxMode),
		TaxValue:         estimate.TaxValue,
		Subtotal:         estimate.Subtotal,
		DiscountAmount:   estimate.DiscountAmount,
		TaxAmount:        estimate.TaxAmount,
		ShippingAmount:   estimate.ShippingAmount,
		TotalAmount:      estimate.TotalAmount,
		ConvertedOrderID: estimate.ConvertedOrderID,
		SentAt:           estimate.SentAt,
		Notes:            estimate.Notes,
		Items:            items,
		CreatedAt:        estimate.CreatedAt,
		UpdatedAt:        estimate.UpdatedAt,
	}
}
