package orders

import (
	"github.com/google/uuid"

	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
)

// ListFilters narrows an order listing.
type ListFilters struct {
	CustomerID *uuid.UUID
	Status     *enums.OrderStatus
}

// OrderList is one page of orders with the cursor for the next page.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// CheckoutInput creates an order from the customer's active cart.
type CheckoutInput struct {
	CustomerID uuid.UUID
	Notes      *string
}

// LockInput identifies who is locking or unlocking an order and why.
type LockInput struct {
	ActorUserID uuid.UUID
	Reason      *string
}
