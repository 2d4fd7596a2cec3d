package adapters

import (
	"math"
	"testing"

	"github.com/iwvelando/rental-metrics/internal/config"
	"github.com/iwvelando/rental-metrics/pkg/investment"
	"github.com/iwvelando/rental-metrics/pkg/rentperiods"
)

func TestPropertiesToRows(t *testing.T) {
	properties := []config.PropertyConfig{
		{ID: "a", Address: "1 Main St", State: "OH", MarketValue: 250000, Debt: 150000, Rent: 2100, RETax: 250, Insurance: 90, InterestRate: 6, LoanTermYears: 30},
		{ID: "b", Address: "2 Oak Ave", MarketValue: 120000, Rent: 1100, HOA: 50},
	}

	rows := PropertiesToRows(properties)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	if rows[0].Equity != 100000 {
		t.Errorf("rows[0].Equity = %v, expected 100000", rows[0].Equity)
	}
	if rows[0].EquityPercent != 40 {
		t.Errorf("rows[0].EquityPercent = %v, expected 40", rows[0].EquityPercent)
	}
	if math.Abs(rows[0].DebtService-899.33) > 0.01 {
		t.Errorf("rows[0].DebtService = %v, expected 899.33", rows[0].DebtService)
	}
	if rows[0].NOIMonthly != 1760 {
		t.Errorf("rows[0].NOIMonthly = %v, expected 1760", rows[0].NOIMonthly)
	}

	if rows[1].DebtService != 0 || rows[1].Cashflow != 1050 {
		t.Errorf("rows[1] = %+v, expected no debt service and cashflow 1050", rows[1])
	}
	if rows[1].IsNew || rows[1].IsTemporary {
		t.Errorf("configured rows must not be flagged new or temporary")
	}

	if PropertiesToRows(nil) != nil {
		t.Errorf("PropertiesToRows(nil) should be nil")
	}
}

func TestListingsToListings(t *testing.T) {
	tax := 210.0
	listings := ListingsToListings([]config.ListingConfig{
		{ID: "l1", Address: "9 Elm", State: "TX", ZipCode: "78701", Bedrooms: 3, Price: 300000, ExpectedRent: 2400, HOA: 25, MonthlyPropertyTax: &tax, OtherCosts: 40, Interested: true},
	})

	expected := investment.Listing{
		ID: "l1", Address: "9 Elm", ZipCode: "78701", Bedrooms: 3, Interested: true,
		Input: investment.Input{Price: 300000, ExpectedRent: 2400, State: "TX", HOA: 25, MonthlyPropertyTax: &tax, OtherCosts: 40},
	}

	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
	got := listings[0]
	if got.ID != expected.ID || got.ZipCode != expected.ZipCode || got.Bedrooms != expected.Bedrooms || !got.Interested {
		t.Errorf("listing identity = %+v, expected %+v", got, expected)
	}
	if got.Price != expected.Price || got.ExpectedRent != expected.ExpectedRent || got.State != "TX" || got.HOA != 25 || got.OtherCosts != 40 {
		t.Errorf("listing input = %+v, expected %+v", got.Input, expected.Input)
	}
	if got.MonthlyPropertyTax == nil || *got.MonthlyPropertyTax != 210 {
		t.Errorf("explicit tax not carried over")
	}
	if got.MonthlyInsurance != nil {
		t.Errorf("missing insurance should stay nil so it is estimated")
	}
}

func TestRentPeriodsToPeriods(t *testing.T) {
	tests := []struct {
		name      string
		input     []config.RentPeriodConfig
		expectIDs []string
		expectErr bool
	}{
		{
			name: "Valid periods",
			input: []config.RentPeriodConfig{
				{ID: "first", StartDate: "2024-01-01", EndDate: "2024-06-30", MonthlyRent: 1500},
				{StartDate: "2024-07-01", EndDate: "2024-12-31", MonthlyRent: 1550},
			},
			expectIDs: []string{"first", "period-2"},
		},
		{
			name:      "Bad start date",
			input:     []config.RentPeriodConfig{{StartDate: "01/01/2024", EndDate: "2024-06-30"}},
			expectErr: true,
		},
		{
			name:      "Bad end date",
			input:     []config.RentPeriodConfig{{StartDate: "2024-01-01", EndDate: "2024-13-01"}},
			expectErr: true,
		},
		{
			name: "Nil input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			periods, err := RentPeriodsToPeriods(tt.input)
			if (err != nil) != tt.expectErr {
				t.Fatalf("RentPeriodsToPeriods() error = %v, expectErr %v", err, tt.expectErr)
			}
			if len(periods) != len(tt.expectIDs) {
				t.Fatalf("expected %d periods, got %d", len(tt.expectIDs), len(periods))
			}
			for i, p := range periods {
				if p.ID != tt.expectIDs[i] {
					t.Errorf("periods[%d].ID = %s, expected %s", i, p.ID, tt.expectIDs[i])
				}
			}
		})
	}

	periods, _ := RentPeriodsToPeriods([]config.RentPeriodConfig{{StartDate: "2024-01-01", EndDate: "2024-06-30", MonthlyRent: 1500}})
	if !periods[0].StartDate.Equal(rentperiods.MustDate("2024-01-01").Time) || periods[0].MonthlyRent != 1500 {
		t.Errorf("period fields not carried over: %+v", periods[0])
	}
}

func TestLeaseToLease(t *testing.T) {
	lease, err := LeaseToLease(nil)
	if err != nil || lease != nil {
		t.Errorf("LeaseToLease(nil) = %v, %v; expected nil, nil", lease, err)
	}

	lease, err = LeaseToLease(&config.LeaseConfig{StartDate: "2024-01-01"})
	if err != nil {
		t.Fatalf("open-ended lease error = %v", err)
	}
	if !lease.EndDate.IsZero() {
		t.Errorf("open-ended lease has end date %s", lease.EndDate)
	}

	lease, err = LeaseToLease(&config.LeaseConfig{StartDate: "2024-01-01", EndDate: "2024-12-31"})
	if err != nil || lease.EndDate.String() != "2024-12-31" {
		t.Errorf("bounded lease = %+v, %v", lease, err)
	}

	if _, err := LeaseToLease(&config.LeaseConfig{StartDate: "soon"}); err == nil {
		t.Errorf("expected an error for a bad start date")
	}
	if _, err := LeaseToLease(&config.LeaseConfig{StartDate: "2024-01-01", EndDate: "later"}); err == nil {
		t.Errorf("expected an error for a bad end date")
	}
}

func TestEstimatesToEstimator(t *testing.T) {
	estimator := EstimatesToEstimator(config.EstimatesConfig{
		DefaultTaxRate: 1.2,
		InsuranceRate:  0.6,
		StateTaxRates:  map[string]float64{"oh": 2.4},
	})

	if got := estimator.MonthlyPropertyTax(120000, "OH"); math.Abs(got-240) > 0.001 {
		t.Errorf("override tax = %v, expected 240", got)
	}
	if got := estimator.MonthlyPropertyTax(120000, ""); math.Abs(got-120) > 0.001 {
		t.Errorf("default tax = %v, expected 120", got)
	}
	if got := estimator.MonthlyInsurance(120000); math.Abs(got-60) > 0.001 {
		t.Errorf("insurance = %v, expected 60", got)
	}

	defaults := EstimatesToEstimator(config.EstimatesConfig{})
	if got := defaults.MonthlyInsurance(120000); math.Abs(got-50) > 0.001 {
		t.Errorf("default insurance = %v, expected 50", got)
	}
}
