package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/pkg/enums"
	pkgerrors "github.com/printdesk/printdesk-backend/pkg/errors"
)

// ApplyDiscount computes the discount amount for a base.
//
// Fixed discounts never exceed the base, percent discounts are clamped to
// [0, base]; the result can never drive a subtotal negative.
func ApplyDiscount(base decimal.Decimal, spec AdjustSpec) (decimal.Decimal, error) {
	return applyAdjust(base, spec, "discount")
}

// ApplyTax computes the tax amount for a taxable base. Callers must pass the
// post-discount base; the aggregator enforces that ordering.
func ApplyTax(taxableBase decimal.Decimal, spec AdjustSpec) (decimal.Decimal, error) {
	return applyAdjust(taxableBase, spec, "tax")
}

func applyAdjust(base decimal.Decimal, spec AdjustSpec, kind string) (decimal.Decimal, error) {
	if base.Sign() < 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("%s base is negative", kind))
	}

	switch spec.Mode {
	case enums.AdjustModeNone:
		return decimal.Zero, nil
	case enums.AdjustModeFixed:
		if spec.Value.Sign() < 0 {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s amount must not be negative", kind))
		}
		if spec.Value.GreaterThan(base) {
			return base, nil
		}
		return spec.Value, nil
	case enums.AdjustModePercent:
		if spec.Value.Sign() < 0 || spec.Value.GreaterThan(oneHundred) {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s percent must be between 0 and 100", kind))
		}
		amount := round2(base.Mul(spec.Value).Div(oneHundred))
		if amount.Sign() < 0 {
			return decimal.Zero, nil
		}
		if amount.GreaterThan(base) {
			return base, nil
		}
		return amount, nil
	default:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown %s mode %q", kind, spec.Mode))
	}
}

// SpecFromOffer maps an offer onto the discount engine. Percentage and fixed
// offers translate directly; free shipping zeroes the shipping amount instead
// of touching the discount. Buy-X-get-Y has no automatic computation and is
// refused so the back office handles it manually.
func SpecFromOffer(offerType enums.OfferType, discountValue decimal.Decimal) (spec AdjustSpec, freeShipping bool, err error) {
	switch offerType {
	case enums.OfferTypePercentage:
		return PercentAdjust(discountValue), false, nil
	case enums.OfferTypeFixed:
		return FixedAdjust(discountValue), false, nil
	case enums.OfferTypeFreeShipping:
		return NoAdjust(), true, nil
	case enums.OfferTypeBuyXGetY:
		return NoAdjust(), false, pkgerrors.New(pkgerrors.CodeStateConflict, "buy_x_get_y offers require manual handling")
	default:
		return NoAdjust(), false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown offer type %q", offerType))
	}
}
