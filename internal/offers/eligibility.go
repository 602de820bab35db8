package offers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/pkg/db/models"
	"github.com/printdesk/printdesk-backend/pkg/enums"
)

// EligibilityContext is a point-in-time snapshot of everything the evaluator
// needs. Usage counts are read before evaluation; the evaluator never mutates
// counters itself.
type EligibilityContext struct {
	Now                time.Time
	CustomerID         uuid.UUID
	WorkingGroupID     *uuid.UUID
	ProductIDs         []uuid.UUID
	PurchaseAmount     decimal.Decimal
	PriorUsageCount    int64
	PriorCustomerUsage int64
}

// Decision is the outcome of an eligibility check. Reason is empty when the
// offer is eligible.
type Decision struct {
	Eligible bool
	Reason   enums.IneligibilityReason
}

func ineligible(reason enums.IneligibilityReason) Decision {
	return Decision{Eligible: false, Reason: reason}
}

// Evaluate runs the eligibility rules in order and short-circuits on the
// first failure. The date window is inclusive at the start and exclusive at
// the end, so an offer whose end date equals Now is already expired.
func Evaluate(offer *models.Offer, ec EligibilityContext) Decision {
	if offer == nil || offer.Status != enums.OfferStatusActive {
		return ineligible(enums.ReasonOfferNotActive)
	}

	if ec.Now.Before(offer.StartDate) || !ec.Now.Before(offer.EndDate) {
		return ineligible(enums.ReasonOfferOutOfWindow)
	}

	if ec.PurchaseAmount.LessThan(offer.MinPurchaseAmount) {
		return ineligible(enums.ReasonBelowMinimumPurchase)
	}

	if offer.UsageLimit != nil && ec.PriorUsageCount >= *offer.UsageLimit {
		return ineligible(enums.ReasonUsageLimitReached)
	}

	if offer.PerCustomerLimit != nil && ec.PriorCustomerUsage >= *offer.PerCustomerLimit {
		return ineligible(enums.ReasonPerCustomerLimitReached)
	}

	if len(offer.EligibleWorkingGroupIDs) > 0 {
		if ec.WorkingGroupID == nil || !containsID(offer.EligibleWorkingGroupIDs, *ec.WorkingGroupID) {
			return ineligible(enums.ReasonWorkingGroupNotEligible)
		}
	}

	if len(offer.EligibleProductIDs) > 0 && !intersectsIDs(offer.EligibleProductIDs, ec.ProductIDs) {
		return ineligible(enums.ReasonNoEligibleProducts)
	}

	return Decision{Eligible: true}
}

func containsID(list []string, id uuid.UUID) bool {
	want := id.String()
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func intersectsIDs(list []string, ids []uuid.UUID) bool {
	for _, id := range ids {
		if containsID(list, id) {
			return true
		}
	}
	return false
}
