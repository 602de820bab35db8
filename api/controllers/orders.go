package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/api/middleware"
	"github.com/printdesk/printdesk-backend/api/responses"
	"github.com/printdesk/printdesk-backend/api/validators"
	ordersvc "github.com/printdesk/printdesk-backend/internal/orders"
	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
	pkgerrors "github.com/printdesk/printdesk-backend/pkg/errors"
	"github.com/printdesk/printdesk-backend/pkg/logger"
	"github.com/printdesk/printdesk-backend/pkg/pagination"
)

// Checkout converts the customer's active cart into a draft order.
func Checkout(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := resolveCustomerID(r, payload.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Checkout(r.Context(), ordersvc.CheckoutInput{
			CustomerID: customerID,
			Notes:      payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

// OrderGet returns one order with its items and lock ledger.
func OrderGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// OrderList pages through orders, optionally filtered by customer and status.
func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := ordersvc.ListFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("customer_id")); raw != "" {
			id, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid customer id"))
				return
			}
			filters.CustomerID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseOrderStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid order status"))
				return
			}
			filters.Status = &status
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders := make([]orderResponse, 0, len(list.Orders))
		for i := range list.Orders {
			orders = append(orders, newOrderResponse(&list.Orders[i]))
		}
		responses.WriteSuccess(w, orderListResponse{Orders: orders, NextCursor: list.NextCursor})
	}
}

// OrderRetotal reprices every line and reassembles the totals.
func OrderRetotal(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Retotal(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// OrderLock freezes the order's items and totals until an explicit unlock.
func OrderLock(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable("order", logg)
	}
	return orderLockAction(svc.Lock, logg)
}

// OrderUnlock lifts the lock and records the actor and reason in the ledger.
func OrderUnlock(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable("order", logg)
	}
	return orderLockAction(svc.Unlock, logg)
}

// OrderUpdateItemQuantity changes one line's quantity and retotals.
func OrderUpdateItemQuantity(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateItemQuantity(r.Context(), orderID, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// OrderRemoveItem deletes one line and retotals.
func OrderRemoveItem(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.RemoveItem(r.Context(), orderID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// OrderSetStatus moves the order along its lifecycle.
func OrderSetStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		order, err := svc.SetStatus(r.Context(), orderID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type lockFn func(ctx context.Context, orderID uuid.UUID, input ordersvc.LockInput) (*models.Order, error)

func serviceUnavailable(name string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
	}
}

func orderLockAction(action lockFn, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorRaw := middleware.UserIDFromContext(r.Context())
		if actorRaw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		actorID, err := uuid.Parse(actorRaw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		var payload lockRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		order, err := action(r.Context(), orderID, ordersvc.LockInput{
			ActorUserID: actorID,
			Reason:      payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type checkoutRequest struct {
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

type lockRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type updateQuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity" validate:"required"`
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type orderListResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type orderResponse struct {
	ID             uuid.UUID               `json:"id"`
	OrderNumber    int64                   `json:"order_number"`
	CustomerID     uuid.UUID               `json:"customer_id"`
	Status         string                  `json:"status"`
	OfferID        *uuid.UUID              `json:"offer_id,omitempty"`
	DiscountMode   string                  `json:"discount_mode"`
	DiscountValue  decimal.Decimal         `json:"discount_value"`
	TaxMode        string                  `json:"tax_mode"`
	TaxValue       decimal.Decimal         `json:"tax_value"`
	Subtotal       decimal.Decimal         `json:"subtotal"`
	DiscountAmount decimal.Decimal         `json:"discount_amount"`
	TaxAmount      decimal.Decimal         `json:"tax_amount"`
	ShippingAmount decimal.Decimal         `json:"shipping_amount"`
	TotalAmount    decimal.Decimal         `json:"total_amount"`
	LockedAt       *time.Time              `json:"locked_at,omitempty"`
	LockedBy       *uuid.UUID              `json:"locked_by,omitempty"`
	Notes          *string                 `json:"notes,omitempty"`
	Items          []documentItemResponse  `json:"items"`
	LockEvents     []lockEventResponse     `json:"lock_events,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

type documentItemResponse struct {
	ID            uuid.UUID        `json:"id"`
	ProductID     uuid.UUID        `json:"product_id"`
	RollID        *uuid.UUID       `json:"roll_id,omitempty"`
	Description   string           `json:"description"`
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

type lockEventResponse struct {
	ID          uuid.UUID `json:"id"`
	Action      string    `json:"action"`
	ActorUserID uuid.UUID `json:"actor_user_id"`
	Reason      *string   `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	items := make([]documentItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
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
	events := make([]lockEventResponse, 0, len(order.LockEvents))
	for _, event := range order.LockEvents {
		events = append(events, lockEventResponse{
			ID:          event.ID,
			Action:      string(event.Action),
			ActorUserID: event.ActorUserID,
			Reason:      event.Reason,
			CreatedAt:   event.CreatedAt,
		})
	}

	return orderResponse{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		CustomerID:     order.CustomerID,
		Status:         string(order.Status),
		OfferID:        order.OfferID,
		DiscountMode:   string(order.DiscountMode),
		DiscountValue:  order.DiscountValue,
		TaxMode:        string(order.TaxMode),
		TaxValue:       order.TaxValue,
		Subtotal:       order.Subtotal,
		DiscountAmount: order.DiscountAmount,
		TaxAmount:      order.TaxAmount,
		ShippingAmount: order.ShippingAmount,
		TotalAmount:    order.TotalAmount,
		LockedAt:       order.LockedAt,
		LockedBy:       order.LockedBy,
		Notes:          order.Notes,
		Items:          items,
		LockEvents:     events,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
}

func parsePageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
