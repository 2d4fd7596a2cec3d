// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/rental-metrics/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used for making logical comparisons.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.CurrencyTolerance
}

// IsFinite reports whether val is neither NaN nor an infinity.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// SafeDivide divides numerator by denominator and returns 0 whenever the
// denominator is zero or the quotient is not finite.
func SafeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	result := numerator / denominator
	if !IsFinite(result) {
		return 0
	}
	return result
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	return Finite(SafeDivide(value, total) * constants.PercentageMultiplier)
}

// ApplyPercentage applies a percentage to a value
func ApplyPercentage(value, percentage float64) float64 {
	return value * (percentage / constants.PercentageMultiplier)
}

// Ratio returns numerator/denominator, or nil when the ratio is not
// computable (zero denominator or non-finite result).
func Ratio(numerator, denominator float64) *float64 {
	if denominator == 0 {
		return nil
	}
	result := numerator / denominator
	if !IsFinite(result) {
		return nil
	}
	return &result
}

// PercentRatio is Ratio expressed as a percentage.
func PercentRatio(numerator, denominator float64) *float64 {
	r := Ratio(numerator, denominator)
	if r == nil {
		return nil
	}
	pct := *r * constants.PercentageMultiplier
	if !IsFinite(pct) {
		return nil
	}
	return &pct
}

// Finite replaces NaN and infinities with 0.
func Finite(val float64) float64 {
	if !IsFinite(val) {
		return 0
	}
	return val
}
