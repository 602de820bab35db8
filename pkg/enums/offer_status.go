package enums

import "fmt"

// OfferStatus tracks an offer's lifecycle in the back office.
type OfferStatus string

const (
	OfferStatusDraft    OfferStatus = "draft"
	OfferStatusActive   OfferStatus = "active"
	OfferStatusExpired  OfferStatus = "expired"
	OfferStatusDisabled OfferStatus = "disabled"
)

var validOfferStatuses = []OfferStatus{
	OfferStatusDraft,
	OfferStatusActive,
	OfferStatusExpired,
	OfferStatusDisabled,
}

// String implements fmt.Stringer.
func (o OfferStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OfferStatus.
func (o OfferStatus) IsValid() bool {
	for _, candidate := range validOfferStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOfferStatus converts raw input into an OfferStatus.
func ParseOfferStatus(value string) (OfferStatus, error) {
	for _, candidate := range validOfferStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid offer status %q", value)
}
