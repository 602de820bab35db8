package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/pkg/enums"
	pkgerrors "github.com/printdesk/printdesk-backend/pkg/errors"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func decPtr(value string) *decimal.Decimal {
	d := dec(value)
	return &d
}

func TestPriceLineStandard(t *testing.T) {
	t.Parallel()

	got, err := PriceLine(LineItem{
		Method:    enums.PricingMethodStandard,
		Quantity:  dec("3"),
		UnitPrice: dec("100.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(dec("300.00")) {
		t.Fatalf("expected 300.00, got %s", got)
	}
}

func TestPriceLineStandardRoundsHalfUpOncePerLine(t *testing.T) {
	t.Parallel()

	// 3 × 0.335 = 1.005 → 1.01 under round-half-up.
	got, err := PriceLine(LineItem{
		Method:    enums.PricingMethodStandard,
		Quantity:  dec("3"),
		UnitPrice: dec("0.335"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(dec("1.01")) {
		t.Fatalf("expected 1.01, got %s", got)
	}
}

func TestPriceLineStandardRejectsBadInputs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		item LineItem
	}{
		{"zero quantity", LineItem{Method: enums.PricingMethodStandard, Quantity: dec("0"), UnitPrice: dec("5.00")}},
		{"negative quantity", LineItem{Method: enums.PricingMethodStandard, Quantity: dec("-1"), UnitPrice: dec("5.00")}},
		{"negative price", LineItem{Method: enums.PricingMethodStandard, Quantity: dec("1"), UnitPrice: dec("-5.00")}},
	}
	for _, tc := range cases {
		if _, err := PriceLine(tc.item); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: unexpected error code: %v", tc.name, err)
		}
	}
}

func TestPriceLineRollInches(t *testing.T) {
	t.Parallel()

	// 24in × 36in = 2ft × 3ft = 6 sqft per piece; 6 × 10.00 × 2 = 120.00.
	got, err := PriceLine(LineItem{
		Method:   enums.PricingMethodRoll,
		Quantity: dec("2"),
		SizeUnit: enums.SizeUnitInch,
		Width:    decPtr("24"),
		Height:   decPtr("36"),
		RollRate: decPtr("10.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(dec("120.00")) {
		t.Fatalf("expected 120.00, got %s", got)
	}
}

func TestPriceLineRollUnitNormalization(t *testing.T) {
	t.Parallel()

	inches, err := PriceLine(LineItem{
		Method:   enums.PricingMethodRoll,
		Quantity: dec("2"),
		SizeUnit: enums.SizeUnitInch,
		Width:    decPtr("24"),
		Height:   decPtr("36"),
		RollRate: decPtr("10.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error pricing inch line: %v", err)
	}

	feet, err := PriceLine(LineItem{
		Method:   enums.PricingMethodRoll,
		Quantity: dec("2"),
		SizeUnit: enums.SizeUnitFoot,
		Width:    decPtr("2"),
		Height:   decPtr("3"),
		RollRate: decPtr("10.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error pricing foot line: %v", err)
	}

	if !inches.Equal(feet) {
		t.Fatalf("24in×36in (%s) should equal 2ft×3ft (%s)", inches, feet)
	}
}

func TestPriceLineRollQuantityDefaultsToOnePiece(t *testing.T) {
	t.Parallel()

	got, err := PriceLine(LineItem{
		Method:   enums.PricingMethodRoll,
		SizeUnit: enums.SizeUnitFoot,
		Width:    decPtr("2"),
		Height:   decPtr("3"),
		RollRate: decPtr("10.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(dec("60.00")) {
		t.Fatalf("expected 60.00 for a single piece, got %s", got)
	}
}

func TestPriceLineRollUsesOffcutRate(t *testing.T) {
	t.Parallel()

	got, err := PriceLine(LineItem{
		Method:        enums.PricingMethodRoll,
		Quantity:      dec("1"),
		SizeUnit:      enums.SizeUnitFoot,
		Width:         decPtr("2"),
		Height:        decPtr("3"),
		RollRate:      decPtr("10.00"),
		OffcutRate:    decPtr("4.00"),
		UseOffcutRate: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(dec("24.00")) {
		t.Fatalf("expected 24.00 at the offcut rate, got %s", got)
	}
}

func TestPriceLineRollRejectsMissingDimensions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		item LineItem
	}{
		{"missing width", LineItem{Method: enums.PricingMethodRoll, SizeUnit: enums.SizeUnitFoot, Height: decPtr("3"), RollRate: decPtr("10")}},
		{"zero width", LineItem{Method: enums.PricingMethodRoll, SizeUnit: enums.SizeUnitFoot, Width: decPtr("0"), Height: decPtr("3"), RollRate: decPtr("10")}},
		{"missing height", LineItem{Method: enums.PricingMethodRoll, SizeUnit: enums.SizeUnitFoot, Width: decPtr("2"), RollRate: decPtr("10")}},
		{"missing rate", LineItem{Method: enums.PricingMethodRoll, SizeUnit: enums.SizeUnitFoot, Width: decPtr("2"), Height: decPtr("3")}},
		{"offcut without rate", LineItem{Method: enums.PricingMethodRoll, SizeUnit: enums.SizeUnitFoot, Width: decPtr("2"), Height: decPtr("3"), RollRate: decPtr("10"), UseOffcutRate: true}},
	}
	for _, tc := range cases {
		if _, err := PriceLine(tc.item); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestValidatePricedLinesReportsEveryBadLine(t *testing.T) {
	t.Parallel()

	lines := []LineItem{
		{Method: enums.PricingMethodStandard, Quantity: dec("1"), UnitPrice: dec("5.00")},
		{Method: enums.PricingMethodStandard, Quantity: dec("-1"), UnitPrice: dec("5.00")},
		{Method: enums.PricingMethodRoll, SizeUnit: enums.SizeUnitFoot, RollRate: decPtr("10")},
	}

	err := ValidatePricedLines(lines)
	if err == nil {
		t.Fatal("expected aggregated validation error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error code: %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected structured details, got %T", typed.Details())
	}
	reported, ok := details["lines"].([]string)
	if !ok || len(reported) != 2 {
		t.Fatalf("expected two reported lines, got %v", details["lines"])
	}
}
