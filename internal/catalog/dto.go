package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
)

// ProductFilters describe the inputs supported by the product list.
type ProductFilters struct {
	PricingMethod *enums.PricingMethod
	IsActive      *bool
	Query         string
}

// ProductList wraps the paginated products plus the next page cursor.
type ProductList struct {
	Products   []models.Product `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// CreateProductInput carries the fields accepted when creating a product.
type CreateProductInput struct {
	SKU           string
	Name          string
	Description   *string
	PricingMethod enums.PricingMethod
	UnitPrice     decimal.Decimal
}

// UpdateProductInput carries the mutable product fields. Nil pointers leave
// the stored value untouched.
type UpdateProductInput struct {
	Name        *string
	Description *string
	UnitPrice   *decimal.Decimal
	IsActive    *bool
}

// CreateRollInput carries the fields accepted when adding a roll to a product.
type CreateRollInput struct {
	ProductID   uuid.UUID
	Name        string
	RatePerSqFt decimal.Decimal
	OffcutRate  *decimal.Decimal
}

// PriceSource marks where a resolved unit price came from.
type PriceSource string

const (
	PriceSourceBase         PriceSource = "base"
	PriceSourceWorkingGroup PriceSource = "working_group"
)

// ResolvedPrice is the working-group-aware price for a product.
type ResolvedPrice struct {
	UnitPrice decimal.Decimal `json:"unit_price"`
	Source    PriceSource     `json:"source"`
}
