package enums

// IneligibilityReason explains why an offer code was refused. It is a
// structured decision outcome, never a fatal error.
type IneligibilityReason string

const (
	ReasonOfferNotActive          IneligibilityReason = "offer_not_active"
	ReasonOfferOutOfWindow        IneligibilityReason = "offer_out_of_window"
	ReasonBelowMinimumPurchase    IneligibilityReason = "below_minimum_purchase"
	ReasonUsageLimitReached       IneligibilityReason = "usage_limit_reached"
	ReasonPerCustomerLimitReached IneligibilityReason = "per_customer_limit_reached"
	ReasonWorkingGroupNotEligible IneligibilityReason = "working_group_not_eligible"
	ReasonNoEligibleProducts      IneligibilityReason = "no_eligible_products"
)

// String implements fmt.Stringer.
func (r IneligibilityReason) String() string {
	return string(r)
}
