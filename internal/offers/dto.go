package offers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
)

// ListFilters describe the inputs supported by the admin offer list.
type ListFilters struct {
	Status    *enums.OfferStatus
	OfferType *enums.OfferType
	Query     string
}

// OfferList wraps the paginated offers plus the next page cursor.
type OfferList struct {
	Offers     []models.Offer `json:"offers"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// CreateOfferInput carries the fields accepted when creating an offer.
type CreateOfferInput struct {
	Code                    string
	Name                    string
	Description             *string
	OfferType               enums.OfferType
	DiscountValue           decimal.Decimal
	MinPurchaseAmount       decimal.Decimal
	StartDate               time.Time
	EndDate                 time.Time
	UsageLimit              *int64
	PerCustomerLimit        *int64
	EligibleWorkingGroupIDs []uuid.UUID
	EligibleProductIDs      []uuid.UUID
}

// ValidateCodeInput snapshots the cart/order context an offer is checked against.
type ValidateCodeInput struct {
	Code           string
	CustomerID     uuid.UUID
	WorkingGroupID *uuid.UUID
	ProductIDs     []uuid.UUID
	PurchaseAmount decimal.Decimal
	Now            time.Time
}

// Validation is the outcome returned to callers applying an offer code.
type Validation struct {
	Offer        *models.Offer             `json:"offer"`
	Eligible     bool                      `json:"eligible"`
	Reason       enums.IneligibilityReason `json:"reason,omitempty"`
	FreeShipping bool                      `json:"free_shipping"`
}
