// Package estimate provides pluggable heuristics for recurring property costs
// that callers do not supply explicitly. Callers may substitute
// jurisdiction-accurate estimators by implementing Estimator.
package estimate

import (
	"strings"

	"github.com/iwvelando/rental-metrics/pkg/constants"
	"github.com/iwvelando/rental-metrics/pkg/mathutil"
)

// Estimator estimates monthly carrying costs from a purchase price.
type Estimator interface {
	MonthlyPropertyTax(price float64, state string) float64
	MonthlyInsurance(price float64) float64
}

// stateTaxRates are approximate effective annual property tax rates in percent.
var stateTaxRates = map[string]float64{
	"AK": 1.04, "AL": 0.39, "AR": 0.57, "AZ": 0.56, "CA": 0.71,
	"CO": 0.49, "CT": 1.79, "DC": 0.56, "DE": 0.54, "FL": 0.80,
	"GA": 0.83, "HI": 0.27, "IA": 1.43, "ID": 0.63, "IL": 2.08,
	"IN": 0.81, "KS": 1.34, "KY": 0.80, "LA": 0.51, "MA": 1.14,
	"MD": 1.05, "ME": 1.09, "MI": 1.38, "MN": 1.02, "MO": 0.91,
	"MS": 0.75, "MT": 0.68, "NC": 0.77, "ND": 0.98, "NE": 1.54,
	"NH": 1.93, "NJ": 2.23, "NM": 0.67, "NV": 0.53, "NY": 1.40,
	"OH": 1.41, "OK": 0.85, "OR": 0.87, "PA": 1.36, "RI": 1.40,
	"SC": 0.53, "SD": 1.08, "TN": 0.56, "TX": 1.60, "UT": 0.52,
	"VA": 0.75, "VT": 1.83, "WA": 0.84, "WI": 1.51, "WV": 0.55,
	"WY": 0.56,
}

// Heuristic estimates tax from a per-state annual rate and insurance from a
// flat annual rate, both as percent of price.
type Heuristic struct {
	DefaultTaxRate float64
	InsuranceRate  float64
	StateTaxRates  map[string]float64
}

// NewHeuristic returns the built-in heuristic with optional per-state overrides.
func NewHeuristic(defaultTaxRate, insuranceRate float64, overrides map[string]float64) *Heuristic {
	if defaultTaxRate <= 0 {
		defaultTaxRate = constants.DefaultPropertyTaxRate
	}
	if insuranceRate <= 0 {
		insuranceRate = constants.DefaultInsuranceRate
	}
	rates := make(map[string]float64, len(stateTaxRates)+len(overrides))
	for state, rate := range stateTaxRates {
		rates[state] = rate
	}
	for state, rate := range overrides {
		rates[normalizeState(state)] = rate
	}
	return &Heuristic{
		DefaultTaxRate: defaultTaxRate,
		InsuranceRate:  insuranceRate,
		StateTaxRates:  rates,
	}
}

// Default is the heuristic used when no estimator is configured.
var Default Estimator = NewHeuristic(0, 0, nil)

// TaxRate returns the annual tax rate used for state and whether the state was known.
func (h *Heuristic) TaxRate(state string) (float64, bool) {
	if rate, ok := h.StateTaxRates[normalizeState(state)]; ok {
		return rate, true
	}
	return h.DefaultTaxRate, false
}

// MonthlyPropertyTax estimates the monthly property tax for a price in state.
func (h *Heuristic) MonthlyPropertyTax(price float64, state string) float64 {
	if price <= 0 {
		return 0
	}
	rate, _ := h.TaxRate(state)
	return mathutil.ApplyPercentage(price, rate) / constants.MonthsPerYear
}

// MonthlyInsurance estimates the monthly hazard insurance premium for a price.
func (h *Heuristic) MonthlyInsurance(price float64) float64 {
	if price <= 0 {
		return 0
	}
	return mathutil.ApplyPercentage(price, h.InsuranceRate) / constants.MonthsPerYear
}

// EstimateMonthlyPropertyTax estimates with the default heuristic. An empty
// state uses the national default rate.
func EstimateMonthlyPropertyTax(price float64, state string) float64 {
	return Default.MonthlyPropertyTax(price, state)
}

// EstimateMonthlyInsurance estimates with the default heuristic.
func EstimateMonthlyInsurance(price float64) float64 {
	return Default.MonthlyInsurance(price)
}

// KnownState reports whether the built-in table carries a rate for state.
func KnownState(state string) bool {
	_, ok := stateTaxRates[normalizeState(state)]
	return ok
}

func normalizeState(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}
