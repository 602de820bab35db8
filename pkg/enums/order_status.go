package enums

import "fmt"

// OrderStatus tracks a production order through its lifecycle.
type OrderStatus string

const (
	OrderStatusDraft        OrderStatus = "draft"
	OrderStatusConfirmed    OrderStatus = "confirmed"
	OrderStatusInProduction OrderStatus = "in_production"
	OrderStatusCompleted    OrderStatus = "completed"
	OrderStatusCanceled     OrderStatus = "canceled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusDraft,
	OrderStatusConfirmed,
	OrderStatusInProduction,
	OrderStatusCompleted,
	OrderStatusCanceled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
