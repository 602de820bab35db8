package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/printdesk/printdesk-backend/pkg/enums"
	pkgerrors "github.com/printdesk/printdesk-backend/pkg/errors"
)

// PriceLine computes a single line total.
//
// Standard lines: round2(quantity × unit price).
// Roll lines: dimensions are normalized to feet, area = width × height,
// and the offcut rate replaces the roll rate when the line is cut from
// remnant stock. Quantity counts pieces cut and defaults to 1.
func PriceLine(item LineItem) (decimal.Decimal, error) {
	switch item.Method {
	case enums.PricingMethodStandard:
		return priceStandardLine(item)
	case enums.PricingMethodRoll:
		return priceRollLine(item)
	default:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown pricing method %q", item.Method)).
			WithDetails(map[string]any{"field": "pricing_method"})
	}
}

func priceStandardLine(item LineItem) (decimal.Decimal, error) {
	if item.Quantity.Sign() <= 0 {
		return decimal.Zero, invalidLine("quantity", "must be positive")
	}
	if item.UnitPrice.Sign() < 0 {
		return decimal.Zero, invalidLine("unit_price", "must not be negative")
	}
	return round2(item.Quantity.Mul(item.UnitPrice)), nil
}

func priceRollLine(item LineItem) (decimal.Decimal, error) {
	// A silent zero dimension would corrupt every downstream total, so
	// missing dimensions are rejected instead of defaulted.
	if item.Width == nil || item.Width.Sign() <= 0 {
		return decimal.Zero, invalidLine("width", "roll lines require a positive width")
	}
	if item.Height == nil || item.Height.Sign() <= 0 {
		return decimal.Zero, invalidLine("height", "roll lines require a positive height")
	}
	if item.RollRate == nil || item.RollRate.Sign() <= 0 {
		return decimal.Zero, invalidLine("roll_rate", "roll lines require a positive rate per square foot")
	}
	if item.Quantity.Sign() < 0 {
		return decimal.Zero, invalidLine("quantity", "must not be negative")
	}
	if !item.SizeUnit.IsValid() {
		return decimal.Zero, invalidLine("size_unit", fmt.Sprintf("unknown size unit %q", item.SizeUnit))
	}

	width, height := *item.Width, *item.Height
	if item.SizeUnit == enums.SizeUnitInch {
		width = width.Div(inchesPerFoot)
		height = height.Div(inchesPerFoot)
	}

	rate := *item.RollRate
	if item.UseOffcutRate {
		if item.OffcutRate == nil || item.OffcutRate.Sign() <= 0 {
			return decimal.Zero, invalidLine("offcut_rate", "offcut pricing requires a positive offcut rate")
		}
		rate = *item.OffcutRate
	}

	pieces := item.Quantity
	if pieces.IsZero() {
		pieces = decimal.NewFromInt(1)
	}

	area := width.Mul(height)
	return round2(area.Mul(rate).Mul(pieces)), nil
}

// ValidatePricedLines checks every line up front so a document with a bad
// line is rejected before any totals are computed. Per-line failures are
// aggregated with their index so the caller can point at the field at fault.
func ValidatePricedLines(lines []LineItem) error {
	var combined error
	for i, line := range lines {
		if _, err := PriceLine(line); err != nil {
			combined = multierr.Append(combined, fmt.Errorf("line %d: %w", i, err))
		}
	}
	if combined == nil {
		return nil
	}
	details := make([]string, 0, len(multierr.Errors(combined)))
	for _, err := range multierr.Errors(combined) {
		details = append(details, err.Error())
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, combined, "invalid line items").
		WithDetails(map[string]any{"lines": details})
}

func invalidLine(field, reason string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s %s", field, reason)).
		WithDetails(map[string]any{"field": field})
}
