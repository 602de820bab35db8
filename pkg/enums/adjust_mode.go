package enums

import "fmt"

// AdjustMode is the tagged variant for discount and tax specifications.
type AdjustMode string

const (
	AdjustModeNone    AdjustMode = "none"
	AdjustModeFixed   AdjustMode = "fixed"
	AdjustModePercent AdjustMode = "percent"
)

var validAdjustModes = []AdjustMode{
	AdjustModeNone,
	AdjustModeFixed,
	AdjustModePercent,
}

// String implements fmt.Stringer.
func (a AdjustMode) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AdjustMode.
func (a AdjustMode) IsValid() bool {
	for _, candidate := range validAdjustModes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAdjustMode converts raw input into an AdjustMode.
func ParseAdjustMode(value string) (AdjustMode, error) {
	for _, candidate := range validAdjustModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid adjust mode %q", value)
}
