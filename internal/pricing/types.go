package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/pkg/enums"
)

var (
	// inchesPerFoot converts roll dimensions entered in inches.
	inchesPerFoot = decimal.NewFromInt(12)
	oneHundred    = decimal.NewFromInt(100)
)

// LineItem is the value object a single line total is computed from.
// Standard lines use Quantity and UnitPrice; roll lines use the dimension
// and rate fields instead.
type LineItem struct {
	Quantity      decimal.Decimal
	Method        enums.PricingMethod
	UnitPrice     decimal.Decimal
	SizeUnit      enums.SizeUnit
	Width         *decimal.Decimal
	Height        *decimal.Decimal
	RollRate      *decimal.Decimal
	OffcutRate    *decimal.Decimal
	UseOffcutRate bool
}

// AdjustSpec is the tagged variant for a discount or tax: mode plus value.
// Percent values are a percentage of the base in [0, 100]; fixed values are
// an absolute currency amount.
type AdjustSpec struct {
	Mode  enums.AdjustMode
	Value decimal.Decimal
}

// NoAdjust is the zero adjustment.
func NoAdjust() AdjustSpec {
	return AdjustSpec{Mode: enums.AdjustModeNone}
}

// FixedAdjust builds a fixed-amount adjustment.
func FixedAdjust(value decimal.Decimal) AdjustSpec {
	return AdjustSpec{Mode: enums.AdjustModeFixed, Value: value}
}

// PercentAdjust builds a percentage adjustment (value in [0, 100]).
func PercentAdjust(value decimal.Decimal) AdjustSpec {
	return AdjustSpec{Mode: enums.AdjustModePercent, Value: value}
}

// PercentAdjustFromFraction converts a fractional tax-rate record
// (0.1500 == 15%) into the internal percentage representation.
func PercentAdjustFromFraction(fraction decimal.Decimal) AdjustSpec {
	return AdjustSpec{Mode: enums.AdjustModePercent, Value: fraction.Mul(oneHundred)}
}

// Totals is the computed money summary persisted onto orders, estimates
// and invoices. TotalAmount always equals
// round2(Subtotal - DiscountAmount + TaxAmount + ShippingAmount).
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	ShippingAmount decimal.Decimal `json:"shipping_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// round2 rounds to two decimal places, half away from zero. All inputs are
// non-negative here, so this is round-half-up. Applied once per line and
// once per aggregate, never per sub-step.
func round2(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}
