// Package testutil provides common utility functions for testing.
package testutil

import (
	"math"

	"github.com/iwvelando/rental-metrics/pkg/investment"
	"github.com/iwvelando/rental-metrics/pkg/portfolio"
	"github.com/iwvelando/rental-metrics/pkg/rentperiods"
)

// FindListing finds a listing evaluation by listing ID.
// Returns a pointer to the evaluation if found, nil otherwise.
func FindListing(evaluations []investment.ListingEvaluation, id string) *investment.ListingEvaluation {
	for i := range evaluations {
		if evaluations[i].Listing.ID == id {
			return &evaluations[i]
		}
	}
	return nil
}

// FindRow finds a portfolio row by ID, nil if absent.
func FindRow(rows []portfolio.PropertyData, id string) *portfolio.PropertyData {
	for i := range rows {
		if rows[i].ID == id {
			return &rows[i]
		}
	}
	return nil
}

// CountWarnings counts warnings of the given type.
func CountWarnings(warnings []rentperiods.Warning, warningType rentperiods.WarningType) int {
	n := 0
	for _, w := range warnings {
		if w.Type == warningType {
			n++
		}
	}
	return n
}

// ApproxEqual reports whether got is within tolerance of want.
func ApproxEqual(got, want, tolerance float64) bool {
	return math.Abs(got-want) <= tolerance
}

// ApproxEqualPtr is ApproxEqual for optional ratios; nil only equals nil.
func ApproxEqualPtr(got, want *float64, tolerance float64) bool {
	if got == nil || want == nil {
		return got == nil && want == nil
	}
	return ApproxEqual(*got, *want, tolerance)
}
