package pricing

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/printdesk/printdesk-backend/pkg/errors"
)

// ComputeTotals assembles document totals in a fixed order:
//
//  1. subtotal  = round2(sum of line totals)
//  2. discount  = ApplyDiscount(subtotal, discount)
//  3. taxable   = subtotal - discount
//  4. tax       = ApplyTax(taxable, tax)
//  5. total     = round2(subtotal - discount + tax + shipping)
//
// The ordering is a correctness contract: tax is always computed on the
// post-discount base. A negative intermediate value indicates a logic defect
// and aborts the computation.
func ComputeTotals(lines []LineItem, discount, tax AdjustSpec, shipping decimal.Decimal) (Totals, error) {
	if shipping.Sign() < 0 {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping amount must not be negative")
	}
	if err := ValidatePricedLines(lines); err != nil {
		return Totals{}, err
	}

	sum := decimal.Zero
	for _, line := range lines {
		lineTotal, err := PriceLine(line)
		if err != nil {
			return Totals{}, err
		}
		sum = sum.Add(lineTotal)
	}
	subtotal := round2(sum)

	discountAmount, err := ApplyDiscount(subtotal, discount)
	if err != nil {
		return Totals{}, err
	}

	taxable := subtotal.Sub(discountAmount)
	if taxable.Sign() < 0 {
		return Totals{}, pkgerrors.New(pkgerrors.CodeInternal, "taxable base is negative")
	}

	taxAmount, err := ApplyTax(taxable, tax)
	if err != nil {
		return Totals{}, err
	}

	total := round2(subtotal.Sub(discountAmount).Add(taxAmount).Add(shipping))

	totals := Totals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		ShippingAmount: shipping,
		TotalAmount:    total,
	}
	if err := totals.checkInvariant(); err != nil {
		return Totals{}, err
	}
	return totals, nil
}

func (t Totals) checkInvariant() error {
	for _, component := range []decimal.Decimal{t.Subtotal, t.DiscountAmount, t.TaxAmount, t.ShippingAmount, t.TotalAmount} {
		if component.Sign() < 0 {
			return pkgerrors.New(pkgerrors.CodeInternal, "negative monetary component in totals")
		}
	}
	expected := round2(t.Subtotal.Sub(t.DiscountAmount).Add(t.TaxAmount).Add(t.ShippingAmount))
	if !t.TotalAmount.Equal(expected) {
		return pkgerrors.New(pkgerrors.CodeInternal, "total amount does not match its components")
	}
	return nil
}
