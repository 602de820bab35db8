package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/api/responses"
	"github.com/printdesk/printdesk-backend/api/validators"
	catalogsvc "github.com/printdesk/printdesk-backend/internal/catalog"
	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
	pkgerrors "github.com/printdesk/printdesk-backend/pkg/errors"
	"github.com/printdesk/printdesk-backend/pkg/logger"
)

// ProductList pages through the catalog with method/active/text filters.
func ProductList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := catalogsvc.ProductFilters{
			Query: strings.TrimSpace(r.URL.Query().Get("q")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("pricing_method")); raw != "" {
			method, parseErr := enums.ParsePricingMethod(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid pricing method"))
				return
			}
			filters.PricingMethod = &method
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("is_active")); raw != "" {
			active, parseErr := strconv.ParseBool(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid is_active flag"))
				return
			}
			filters.IsActive = &active
		}

		list, err := svc.ListProducts(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products := make([]productResponse, 0, len(list.Products))
		for i := range list.Products {
			products = append(products, newProductResponse(&list.Products[i]))
		}
		responses.WriteSuccess(w, productListResponse{Products: products, NextCursor: list.NextCursor})
	}
}

// ProductGet returns one product with its rolls.
func ProductGet(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(product))
	}
}

// AdminCreateProduct adds a catalog entry.
func AdminCreateProduct(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePricingMethod(payload.PricingMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pricing method"))
			return
		}

		product, err := svc.CreateProduct(r.Context(), catalogsvc.CreateProductInput{
			SKU:           payload.SKU,
			Name:          payload.Name,
			Description:   payload.Description,
			PricingMethod: method,
			UnitPrice:     payload.UnitPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(product))
	}
}

// AdminUpdateProduct patches the mutable product fields.
func AdminUpdateProduct(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), id, catalogsvc.UpdateProductInput{
			Name:        payload.Name,
			Description: payload.Description,
			UnitPrice:   payload.UnitPrice,
			IsActive:    payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(product))
	}
}

// AdminAddRoll attaches a material roll definition to a roll-priced product.
func AdminAddRoll(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createRollRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		roll, err := svc.AddRoll(r.Context(), catalogsvc.CreateRollInput{
			ProductID:   productID,
			Name:        payload.Name,
			RatePerSqFt: payload.RatePerSqFt,
			OffcutRate:  payload.OffcutRate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, rollResponse{
			ID:          roll.ID,
			Name:        roll.Name,
			RatePerSqFt: roll.RatePerSqFt,
			OffcutRate:  roll.OffcutRate,
			IsActive:    roll.IsActive,
		})
	}
}

// AdminSetGroupPrice upserts a working group's price override for a product.
func AdminSetGroupPrice(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setGroupPriceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetGroupPrice(r.Context(), productID, payload.WorkingGroupID, payload.UnitPrice); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

type createProductRequest struct {
	SKU           string          `json:"sku" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	Description   *string         `json:"description,omitempty"`
	PricingMethod string          `json:"pricing_method" validate:"required,oneof=standard roll"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
}

type updateProductRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
}

type createRollRequest struct {
	Name        string           `json:"name" validate:"required"`
	RatePerSqFt decimal.Decimal  `json:"rate_per_sqft" validate:"required"`
	OffcutRate  *decimal.Decimal `json:"offcut_rate,omitempty"`
}

type setGroupPriceRequest struct {
	WorkingGroupID uuid.UUID       `json:"working_group_id" validate:"required"`
	UnitPrice      decimal.Decimal `json:"unit_price" validate:"required"`
}

type productListResponse struct {
	Products   []productResponse `json:"products"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type productResponse struct {
	ID            uuid.UUID       `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	PricingMethod string          `json:"pricing_method"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	IsActive      bool            `json:"is_active"`
	Rolls         []rollResponse  `json:"rolls,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type rollResponse struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	RatePerSqFt decimal.Decimal  `json:"rate_per_sqft"`
	OffcutRate  *decimal.Decimal `json:"offcut_rate,omitempty"`
	IsActive    bool             `json:"is_active"`
}

func newProductResponse(product *models.Product) productResponse {
	if product == nil {
		return productResponse{}
	}
	rolls := make([]rollResponse, 0, len(product.Rolls))
	for _, roll := range product.Rolls {
		rolls = append(rolls, rollResponse{
			ID:          roll.ID,
			Name:        roll.Name,
			RatePerSqFt: roll.RatePerSqFt,
			OffcutRate:  roll.OffcutRate,
			IsActive:    roll.IsActive,
		})
	}
	return productResponse{
		ID:            product.ID,
		SKU:           product.SKU,
		Name:          product.Name,
		Description:   product.Description,
		PricingMethod: string(product.PricingMethod),
		UnitPrice:     product.UnitPrice,
		IsActive:      product.IsActive,
		Rolls:         rolls,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
}
