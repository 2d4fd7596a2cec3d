// Package baseline compares a live working set against an immutable snapshot
// taken when the working set was loaded. Values are compared on their
// rendered form so sub-cent and sub-0.1% noise never registers as a change.
package baseline

import (
	"github.com/iwvelando/rental-metrics/pkg/format"
)

// Direction reports which way a changed value moved.
type Direction string

const (
	// Up means the current value is greater than the baseline.
	Up Direction = "up"
	// Down means the current value is less than the baseline.
	Down Direction = "down"
)

// Change is the result of comparing one value against its baseline.
type Change struct {
	Changed   bool      `json:"changed"`
	Direction Direction `json:"direction,omitempty"`
}

// Formatter renders a value for display.
type Formatter func(float64) string

// Diff compares current with baseline after rendering both with formatter.
// A nil formatter uses currency formatting.
func Diff(current, baseline float64, formatter Formatter) Change {
	if formatter == nil {
		formatter = format.Currency
	}
	if formatter(current) == formatter(baseline) {
		return Change{}
	}
	if current > baseline {
		return Change{Changed: true, Direction: Up}
	}
	return Change{Changed: true, Direction: Down}
}
