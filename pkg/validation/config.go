// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/rental-metrics/pkg/estimate"
	"github.com/iwvelando/rental-metrics/pkg/financing"
	"github.com/iwvelando/rental-metrics/pkg/format"
)

// ValidateStateCode warns when a state code has no entry in the tax table.
func ValidateStateCode(label, state string) string {
	if strings.TrimSpace(state) == "" || estimate.KnownState(state) {
		return ""
	}
	return fmt.Sprintf("%s has unrecognized state '%s'; the national default tax rate will be used", label, state)
}

// ValidatePropertyBalance warns about debt that cannot be serviced as configured.
func ValidatePropertyBalance(label string, marketValue, debt, interestRate float64) []string {
	var warnings []string

	if debt > marketValue {
		warnings = append(warnings, fmt.Sprintf("%s is underwater (debt %s > value %s)",
			label, format.Currency(debt), format.Currency(marketValue)))
	}

	if debt > 0 && interestRate == 0 {
		warnings = append(warnings, fmt.Sprintf("%s carries %s of debt at a 0%% interest rate", label, format.Currency(debt)))
	}

	return warnings
}

// ValidateFinancingFields warns when the non-authoritative down payment field
// is set, since it will be ignored.
func ValidateFinancingFields(fields financing.LegacyFields) []string {
	var warnings []string

	switch financing.DownPaymentType(strings.ToLower(strings.TrimSpace(fields.DownPaymentType))) {
	case "", financing.DownPaymentPercent:
		if fields.DownPaymentAmount != 0 {
			warnings = append(warnings, fmt.Sprintf("downPaymentAmount %s is ignored because downPaymentType is percent",
				format.Currency(fields.DownPaymentAmount)))
		}
	case financing.DownPaymentAmount:
		if fields.DownPaymentPercent != 0 {
			warnings = append(warnings, fmt.Sprintf("downPaymentPercent %s is ignored because downPaymentType is amount",
				format.Percent(fields.DownPaymentPercent)))
		}
	}

	return warnings
}

// PropertyConfig is the subset of a configured property needed for warnings.
type PropertyConfig struct {
	ID           string
	Address      string
	State        string
	MarketValue  float64
	Debt         float64
	InterestRate float64
}

// ListingConfig is the subset of a configured listing needed for warnings.
type ListingConfig struct {
	ID           string
	Address      string
	State        string
	ZipCode      string
	Price        float64
	ExpectedRent float64
}

// ConfigValidator collects advisory warnings across a configuration.
type ConfigValidator struct {
	Financing            financing.LegacyFields
	Properties           []PropertyConfig
	Listings             []ListingConfig
	RentEstimatorEnabled bool
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	warnings := ValidateFinancingFields(cv.Financing)

	for _, property := range cv.Properties {
		label := fmt.Sprintf("Property '%s'", describe(property.ID, property.Address))
		if w := ValidateStateCode(label, property.State); w != "" {
			warnings = append(warnings, w)
		}
		warnings = append(warnings, ValidatePropertyBalance(label, property.MarketValue, property.Debt, property.InterestRate)...)
	}

	for _, listing := range cv.Listings {
		label := fmt.Sprintf("Listing '%s'", describe(listing.ID, listing.Address))
		if w := ValidateStateCode(label, listing.State); w != "" {
			warnings = append(warnings, w)
		}
		if listing.ExpectedRent == 0 {
			switch {
			case !cv.RentEstimatorEnabled:
				warnings = append(warnings, fmt.Sprintf("%s has no expected rent and no rent estimator is configured; rent-based metrics will be undefined", label))
			case listing.ZipCode == "":
				warnings = append(warnings, fmt.Sprintf("%s has no expected rent and no ZIP code to estimate it from", label))
			}
		}
	}

	return warnings
}

func describe(id, address string) string {
	if address != "" {
		return address
	}
	return id
}
