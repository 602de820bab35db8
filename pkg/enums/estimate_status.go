package enums

import "fmt"

// EstimateStatus tracks a quote document before it becomes an order.
type EstimateStatus string

const (
	EstimateStatusDraft     EstimateStatus = "draft"
	EstimateStatusSent      EstimateStatus = "sent"
	EstimateStatusAccepted  EstimateStatus = "accepted"
	EstimateStatusDeclined  EstimateStatus = "declined"
	EstimateStatusConverted EstimateStatus = "converted"
)

var validEstimateStatuses = []EstimateStatus{
	EstimateStatusDraft,
	EstimateStatusSent,
	EstimateStatusAccepted,
	EstimateStatusDeclined,
	EstimateStatusConverted,
}

// String implements fmt.Stringer.
func (e EstimateStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EstimateStatus.
func (e EstimateStatus) IsValid() bool {
	for _, candidate := range validEstimateStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEstimateStatus converts raw input into an EstimateStatus.
func ParseEstimateStatus(value string) (EstimateStatus, error) {
	for _, candidate := range validEstimateStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid estimate status %q", value)
}
