package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
)

// AddItemInput carries one product line to add to the active cart.
type AddItemInput struct {
	ProductID     uuid.UUID
	RollID        *uuid.UUID
	Quantity      decimal.Decimal
	SizeUnit      *enums.SizeUnit
	Width         *decimal.Decimal
	Height        *decimal.Decimal
	UseOffcutRate bool
}

// OfferAttempt is the outcome of applying an offer code to a cart. An
// ineligible code is a normal outcome, not an error; Reason says why.
type OfferAttempt struct {
	Cart     *models.CartRecord        `json:"cart"`
	Eligible bool                      `json:"eligible"`
	Reason   enums.IneligibilityReason `json:"reason,omitempty"`
}
