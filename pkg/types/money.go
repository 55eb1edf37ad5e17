package types

import "github.com/shopspring/decimal"

// MinorUnitExponent is the number of decimal places between minor and major units (fen to yuan).
const MinorUnitExponent = 2

// FormatMinorUnits renders an amount of minor units as a fixed two-decimal string.
func FormatMinorUnits(amount int64) string {
	return decimal.NewFromInt(amount).Shift(-MinorUnitExponent).StringFixed(MinorUnitExponent)
}

// ParseMajorUnits converts a decimal string such as "12.34" into minor units.
// Values with more precision than a minor unit are rejected.
func ParseMajorUnits(value string) (int64, bool) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, false
	}
	minor := d.Shift(MinorUnitExponent)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, false
	}
	return minor.IntPart(), true
}
