package enums

import "fmt"

// SizeUnit is the unit roll dimensions are entered in.
type SizeUnit string

const (
	SizeUnitInch SizeUnit = "in"
	SizeUnitFoot SizeUnit = "ft"
)

var validSizeUnits = []SizeUnit{
	SizeUnitInch,
	SizeUnitFoot,
}

// String implements fmt.Stringer.
func (s SizeUnit) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SizeUnit.
func (s SizeUnit) IsValid() bool {
	for _, candidate := range validSizeUnits {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSizeUnit converts raw input into a SizeUnit.
func ParseSizeUnit(value string) (SizeUnit, error) {
	for _, candidate := range validSizeUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid size unit %q", value)
}
