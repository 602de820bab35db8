package estimates

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
)

// ListFilters narrows an estimate listing.
type ListFilters struct {
	CustomerID *uuid.UUID
	Status     *enums.EstimateStatus
}

// EstimateList is one page of estimates with the cursor for the next page.
type EstimateList struct {
	Estimates  []models.Estimate `json:"estimates"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// LineInput is one quoted line. Standard products take Quantity; roll
// products additionally take the roll and its dimensions.
type LineInput struct {
	ProductID     uuid.UUID
	RollID        *uuid.UUID
	Quantity      decimal.Decimal
	SizeUnit      *enums.SizeUnit
	Width         *decimal.Decimal
	Height        *decimal.Decimal
	UseOffcutRate bool
}

// CreateInput builds a new estimate. The discount is entered manually by the
// back office; the tax falls back to the configured default when unset.
type CreateInput struct {
	CustomerID     uuid.UUID
	Lines          []LineInput
	DiscountMode   *enums.AdjustMode
	DiscountValue  *decimal.Decimal
	ShippingAmount decimal.Decimal
	ValidUntil     *time.Time
	Notes          *string
}
