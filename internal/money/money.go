// Package money centralizes monetary rounding and tolerance rules so every
// component computes settlement the same way.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Tolerance is the residual below which an amount is treated as fully settled.
// It absorbs float/rounding noise, not business-level discrepancies.
var Tolerance = decimal.NewFromFloat(0.01)

// minorUnits maps ISO currency codes to their minor-unit precision.
// Currencies absent from the map default to 2.
var minorUnits = map[string]int32{
	"JPY": 0,
	"KRW": 0,
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
}

// MinorUnits returns the minor-unit precision for a currency code.
func MinorUnits(currency string) int32 {
	if p, ok := minorUnits[strings.ToUpper(currency)]; ok {
		return p
	}
	return 2
}

// Round rounds an amount to the currency's minor-unit precision using
// banker's rounding, so repeated small fees do not drift systematically.
func Round(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.RoundBank(MinorUnits(currency))
}

// IsSettled reports whether a residual amount is within Tolerance of zero.
func IsSettled(residual decimal.Decimal) bool {
	return residual.Abs().LessThanOrEqual(Tolerance)
}

// WithinTolerance reports whether two amounts differ by at most Tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// NormalizeCurrency uppercases a currency code, falling back to a default
// when the input is empty. Returns "" when both are empty.
func NormalizeCurrency(code, fallback string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return strings.ToUpper(strings.TrimSpace(fallback))
	}
	return code
}

// ValidCurrency reports whether a code looks like a 3-letter ISO code.
func ValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// BpsFactor converts basis points to a multiplier (1 bps = 0.0001).
func BpsFactor(bps decimal.Decimal) decimal.Decimal {
	return bps.Div(decimal.NewFromInt(10000))
}
