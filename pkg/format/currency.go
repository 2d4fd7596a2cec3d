// Package format renders numbers the way the dashboard presents them. The
// rendered strings double as the comparison key for baseline change badges,
// so every formatter rounds through decimal arithmetic rather than binary
// floating point.
package format

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// CurrencyPlaces is the display precision for money.
	CurrencyPlaces = 2

	// PercentPlaces is the display precision for percentages.
	PercentPlaces = 1

	// RatioPlaces is the display precision for multiples such as DSCR and GRM.
	RatioPlaces = 2

	// NotAvailable is rendered for undefined or non-finite values.
	NotAvailable = "n/a"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	sign, digits, ok := fixed(amount, CurrencyPlaces)
	if !ok {
		return NotAvailable
	}
	return sign + "$" + digits
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	sign, digits, ok := fixed(amount, CurrencyPlaces)
	if !ok {
		return NotAvailable
	}
	return sign + digits
}

// Percent renders a percentage value (already scaled to 0-100) with one decimal.
func Percent(value float64) string {
	sign, digits, ok := fixed(value, PercentPlaces)
	if !ok {
		return NotAvailable
	}
	return sign + digits + "%"
}

// Ratio renders a plain multiple with two decimals (e.g., "1.25x" style values without the suffix).
func Ratio(value float64) string {
	sign, digits, ok := fixed(value, RatioPlaces)
	if !ok {
		return NotAvailable
	}
	return sign + digits
}

// OptionalRatio renders a possibly undefined ratio; nil renders as "n/a".
func OptionalRatio(value *float64) string {
	if value == nil {
		return NotAvailable
	}
	return Ratio(*value)
}

// OptionalPercent renders a possibly undefined percentage; nil renders as "n/a".
func OptionalPercent(value *float64) string {
	if value == nil {
		return NotAvailable
	}
	return Percent(*value)
}

// fixed rounds half away from zero to places and groups the integer digits.
// A value that rounds to zero never carries a minus sign. ok is false for
// NaN and infinities, which decimal cannot represent.
func fixed(value float64, places int32) (sign, digits string, ok bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "", "", false
	}
	rounded := decimal.NewFromFloat(value).Round(places)
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	return sign, group(rounded.StringFixed(places)), true
}

func group(formatted string) string {
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if len(parts) == 2 {
		return intPart + "." + parts[1]
	}
	return intPart
}
