// Package adapters converts configuration sections into the domain types the
// calculators operate on.
package adapters

import (
	"fmt"

	"github.com/iwvelando/rental-metrics/internal/config"
	"github.com/iwvelando/rental-metrics/pkg/estimate"
	"github.com/iwvelando/rental-metrics/pkg/investment"
	"github.com/iwvelando/rental-metrics/pkg/portfolio"
	"github.com/iwvelando/rental-metrics/pkg/rentperiods"
)

// PropertyToRow converts a configured property into a recalculated row.
func PropertyToRow(p config.PropertyConfig) portfolio.PropertyData {
	return portfolio.RecalculateRow(portfolio.PropertyData{
		ID:            p.ID,
		Address:       p.Address,
		State:         p.State,
		MarketValue:   p.MarketValue,
		Debt:          p.Debt,
		Rent:          p.Rent,
		HOA:           p.HOA,
		RETax:         p.RETax,
		Insurance:     p.Insurance,
		OtherExpenses: p.OtherExpenses,
		InterestRate:  p.InterestRate,
		LoanTermYears: p.LoanTermYears,
	})
}

// PropertiesToRows converts configured properties into recalculated rows.
func PropertiesToRows(properties []config.PropertyConfig) []portfolio.PropertyData {
	if properties == nil {
		return nil
	}

	rows := make([]portfolio.PropertyData, 0, len(properties))
	for _, p := range properties {
		rows = append(rows, PropertyToRow(p))
	}
	return rows
}

// ListingsToListings converts configured listings into evaluable listings.
func ListingsToListings(listings []config.ListingConfig) []investment.Listing {
	if listings == nil {
		return nil
	}

	out := make([]investment.Listing, 0, len(listings))
	for _, l := range listings {
		out = append(out, investment.Listing{
			ID:         l.ID,
			Address:    l.Address,
			ZipCode:    l.ZipCode,
			Bedrooms:   l.Bedrooms,
			Interested: l.Interested,
			Input: investment.Input{
				Price:              l.Price,
				ExpectedRent:       l.ExpectedRent,
				State:              l.State,
				HOA:                l.HOA,
				MonthlyPropertyTax: l.MonthlyPropertyTax,
				MonthlyInsurance:   l.MonthlyInsurance,
				OtherCosts:         l.OtherCosts,
			},
		})
	}
	return out
}

// RentPeriodsToPeriods parses configured rent periods. A period without an ID
// is given its position.
func RentPeriodsToPeriods(periods []config.RentPeriodConfig) ([]rentperiods.Period, error) {
	if periods == nil {
		return nil, nil
	}

	out := make([]rentperiods.Period, 0, len(periods))
	for i, p := range periods {
		start, err := rentperiods.ParseDate(p.StartDate)
		if err != nil {
			return nil, fmt.Errorf("rent period %d start date: %w", i, err)
		}
		end, err := rentperiods.ParseDate(p.EndDate)
		if err != nil {
			return nil, fmt.Errorf("rent period %d end date: %w", i, err)
		}
		id := p.ID
		if id == "" {
			id = fmt.Sprintf("period-%d", i+1)
		}
		out = append(out, rentperiods.Period{
			ID:          id,
			StartDate:   start,
			EndDate:     end,
			MonthlyRent: p.MonthlyRent,
		})
	}
	return out, nil
}

// LeaseToLease parses the configured lease; nil when none is configured.
func LeaseToLease(lease *config.LeaseConfig) (*rentperiods.Lease, error) {
	if lease == nil {
		return nil, nil
	}

	start, err := rentperiods.ParseDate(lease.StartDate)
	if err != nil {
		return nil, fmt.Errorf("lease start date: %w", err)
	}
	out := &rentperiods.Lease{StartDate: start}
	if lease.EndDate != "" {
		end, err := rentperiods.ParseDate(lease.EndDate)
		if err != nil {
			return nil, fmt.Errorf("lease end date: %w", err)
		}
		out.EndDate = end
	}
	return out, nil
}

// EstimatesToEstimator builds the tax and insurance heuristic.
func EstimatesToEstimator(estimates config.EstimatesConfig) *estimate.Heuristic {
	return estimate.NewHeuristic(estimates.DefaultTaxRate, estimates.InsuranceRate, estimates.StateTaxRates)
}
