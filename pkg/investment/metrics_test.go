package investment

import (
	"math"
	"testing"

	"github.com/iwvelando/rental-metrics/pkg/estimate"
	"github.com/iwvelando/rental-metrics/pkg/financing"
)

func conventional() financing.Strategy {
	return financing.Strategy{DownPayment: financing.Percent(20), InterestRate: 6, LoanTermYears: 30}
}

func assertClose(t *testing.T, field string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %.4f, expected %.4f", field, got, want)
	}
}

func assertRatio(t *testing.T, field string, got *float64, want, tol float64) {
	t.Helper()
	if got == nil {
		t.Errorf("%s = nil, expected %.4f", field, want)
		return
	}
	assertClose(t, field, *got, want, tol)
}

func assertUndefined(t *testing.T, field string, got *float64) {
	t.Helper()
	if got != nil {
		t.Errorf("%s = %.4f, expected undefined", field, *got)
	}
}

func TestComputeInvestmentMetricsScenario(t *testing.T) {
	m := ComputeInvestmentMetrics(200000, 2000, conventional(), 0, 0, 0)

	assertClose(t, "DownPayment", m.DownPayment, 40000, 0.001)
	assertClose(t, "LoanAmount", m.LoanAmount, 160000, 0.001)
	assertClose(t, "MonthlyMortgagePayment", m.MonthlyMortgagePayment, 959.28, 0.01)
	assertClose(t, "MonthlyNetIncome", m.MonthlyNetIncome, 1040.72, 0.01)
	assertClose(t, "CashOnCashReturn", m.CashOnCashReturn, 31.2216, 0.01)

	if !m.Meets1PercentRule {
		t.Errorf("expected 2000 >= 2000 to meet the 1%% rule")
	}
	if m.Meets2PercentRule {
		t.Errorf("did not expect the 2%% rule to be met")
	}
	if !m.Meets50PercentRule {
		t.Errorf("expected half of rent to cover the mortgage")
	}

	assertRatio(t, "CapRate", m.CapRate, 12, 0.0001)
	assertRatio(t, "PriceToRentRatio", m.PriceToRentRatio, 8.3333, 0.001)
	assertRatio(t, "DSCR", m.DSCR, 2.0849, 0.001)
	assertRatio(t, "BreakEvenRatio", m.BreakEvenRatio, 47.964, 0.01)
	assertRatio(t, "OperatingExpenseRatio", m.OperatingExpenseRatio, 0, 0.0001)
}

func TestOnePercentRuleFailsForExpensiveListing(t *testing.T) {
	m := ComputeInvestmentMetrics(300000, 1500, conventional(), 0, 0, 0)
	if m.Meets1PercentRule {
		t.Errorf("1500 rent on a 300000 price should not meet the 1%% rule")
	}
}

func TestComputeInvestmentMetricsWithExpenses(t *testing.T) {
	m := ComputeInvestmentMetrics(250000, 2400, conventional(), 150, 300, 100)

	assertClose(t, "TotalMonthlyExpenses", m.TotalMonthlyExpenses, 550, 0.0001)
	mortgage := m.MonthlyMortgagePayment
	assertClose(t, "MonthlyNetIncome", m.MonthlyNetIncome, 2400-550-mortgage, 0.0001)
	assertRatio(t, "CapRate", m.CapRate, (2400*12-550*12)/250000.0*100, 0.0001)
	assertRatio(t, "DSCR", m.DSCR, (2400-550)/mortgage, 0.0001)
	assertRatio(t, "BreakEvenRatio", m.BreakEvenRatio, (550+mortgage)/2400*100, 0.0001)
	assertRatio(t, "OperatingExpenseRatio", m.OperatingExpenseRatio, 550.0/2400*100, 0.0001)
}

func TestComputeInvestmentMetricsSentinels(t *testing.T) {
	t.Run("Zero rent", func(t *testing.T) {
		m := ComputeInvestmentMetrics(200000, 0, conventional(), 100, 200, 50)
		assertUndefined(t, "PriceToRentRatio", m.PriceToRentRatio)
		assertUndefined(t, "BreakEvenRatio", m.BreakEvenRatio)
		assertUndefined(t, "OperatingExpenseRatio", m.OperatingExpenseRatio)
		if m.CapRate == nil {
			t.Errorf("CapRate should be defined for a non-zero price")
		}
	})

	t.Run("Zero price", func(t *testing.T) {
		m := ComputeInvestmentMetrics(0, 1500, conventional(), 0, 0, 0)
		assertUndefined(t, "CapRate", m.CapRate)
		assertUndefined(t, "DSCR", m.DSCR)
		if m.CashOnCashReturn != 0 {
			t.Errorf("CashOnCashReturn = %v, expected 0 with no down payment", m.CashOnCashReturn)
		}
	})

	t.Run("All cash purchase", func(t *testing.T) {
		strategy := financing.Strategy{DownPayment: financing.Percent(100), InterestRate: 6, LoanTermYears: 30}
		m := ComputeInvestmentMetrics(150000, 1400, strategy, 0, 150, 60)
		if m.MonthlyMortgagePayment != 0 {
			t.Errorf("expected no mortgage, got %v", m.MonthlyMortgagePayment)
		}
		assertUndefined(t, "DSCR", m.DSCR)
		if !m.Meets50PercentRule {
			t.Errorf("50%% rule should hold with no debt service")
		}
	})

	t.Run("No money down", func(t *testing.T) {
		strategy := financing.Strategy{DownPayment: financing.Amount(0), InterestRate: 6, LoanTermYears: 30}
		m := ComputeInvestmentMetrics(150000, 1400, strategy, 0, 0, 0)
		if m.CashOnCashReturn != 0 {
			t.Errorf("CashOnCashReturn = %v, expected 0", m.CashOnCashReturn)
		}
	})
}

func TestDownPaymentModesProduceSameMetrics(t *testing.T) {
	price := 275000.0
	percent := financing.Strategy{DownPayment: financing.Percent(25), InterestRate: 6.75, LoanTermYears: 30}
	amount := percent
	amount.DownPayment = percent.DownPayment.AsAmount(price)

	a := ComputeInvestmentMetrics(price, 2300, percent, 75, 280, 95)
	b := ComputeInvestmentMetrics(price, 2300, amount, 75, 280, 95)

	assertClose(t, "MonthlyMortgagePayment", a.MonthlyMortgagePayment, b.MonthlyMortgagePayment, 1e-9)
	assertClose(t, "CashOnCashReturn", a.CashOnCashReturn, b.CashOnCashReturn, 1e-9)
	assertClose(t, "DownPaymentPercent", a.DownPaymentPercent, b.DownPaymentPercent, 1e-9)
	assertClose(t, "DSCR", *a.DSCR, *b.DSCR, 1e-9)
}

func TestComputeInvestmentMetricsNeverLeaksNonFinite(t *testing.T) {
	prices := []float64{0, 1, 99999.99, 450000}
	rents := []float64{0, 0.01, 1800}
	strategies := []financing.Strategy{
		{DownPayment: financing.Percent(0), InterestRate: 0, LoanTermYears: 30},
		{DownPayment: financing.Percent(100), InterestRate: 7.5, LoanTermYears: 15},
		{DownPayment: financing.Amount(0), InterestRate: 3, LoanTermYears: 1},
		{DownPayment: financing.Amount(25000), InterestRate: 12, LoanTermYears: 40},
	}
	costs := []float64{0, 125.5}

	for _, price := range prices {
		for _, rent := range rents {
			for _, strategy := range strategies {
				for _, cost := range costs {
					m := ComputeInvestmentMetrics(price, rent, strategy, cost, cost, cost)
					values := map[string]float64{
						"DownPayment":            m.DownPayment,
						"DownPaymentPercent":     m.DownPaymentPercent,
						"LoanAmount":             m.LoanAmount,
						"MonthlyMortgagePayment": m.MonthlyMortgagePayment,
						"TotalMonthlyExpenses":   m.TotalMonthlyExpenses,
						"MonthlyNetIncome":       m.MonthlyNetIncome,
						"CashOnCashReturn":       m.CashOnCashReturn,
					}
					for name, ratio := range map[string]*float64{
						"CapRate":               m.CapRate,
						"PriceToRentRatio":      m.PriceToRentRatio,
						"DSCR":                  m.DSCR,
						"BreakEvenRatio":        m.BreakEvenRatio,
						"OperatingExpenseRatio": m.OperatingExpenseRatio,
					} {
						if ratio != nil {
							values[name] = *ratio
						}
					}
					for name, v := range values {
						if math.IsNaN(v) || math.IsInf(v, 0) {
							t.Errorf("price=%v rent=%v strategy=%+v: %s is %v", price, rent, strategy, name, v)
						}
					}
				}
			}
		}
	}
}

func TestEvaluateEstimatesMissingCosts(t *testing.T) {
	explicitTax := 250.0
	in := Input{Price: 300000, ExpectedRent: 2600, State: "TX", HOA: 40, MonthlyPropertyTax: &explicitTax}

	m := Evaluate(in, conventional(), nil)

	assertClose(t, "MonthlyPropertyTax", m.MonthlyPropertyTax, 250, 0.0001)
	assertClose(t, "MonthlyInsurance", m.MonthlyInsurance, estimate.EstimateMonthlyInsurance(300000), 0.0001)
	assertClose(t, "TotalMonthlyExpenses", m.TotalMonthlyExpenses, 40+250+125, 0.0001)

	in.MonthlyPropertyTax = nil
	m = Evaluate(in, conventional(), estimate.NewHeuristic(0, 0, map[string]float64{"TX": 2.0}))
	assertClose(t, "MonthlyPropertyTax", m.MonthlyPropertyTax, 500, 0.0001)
}

func TestEvaluateIncludesOtherCosts(t *testing.T) {
	zero := 0.0
	in := Input{Price: 100000, ExpectedRent: 1200, MonthlyPropertyTax: &zero, MonthlyInsurance: &zero, OtherCosts: 80}
	m := Evaluate(in, conventional(), nil)
	assertClose(t, "TotalMonthlyExpenses", m.TotalMonthlyExpenses, 80, 0.0001)
	assertClose(t, "MonthlyOtherCosts", m.MonthlyOtherCosts, 80, 0.0001)
}

func TestInputValidate(t *testing.T) {
	negative := -5.0
	tests := []struct {
		name    string
		input   Input
		wantErr bool
	}{
		{name: "Valid", input: Input{Price: 100000, ExpectedRent: 1000}},
		{name: "Negative price", input: Input{Price: -1, ExpectedRent: 1000}, wantErr: true},
		{name: "NaN rent", input: Input{Price: 1, ExpectedRent: math.NaN()}, wantErr: true},
		{name: "Negative HOA", input: Input{Price: 1, ExpectedRent: 1, HOA: -1}, wantErr: true},
		{name: "Negative explicit tax", input: Input{Price: 1, ExpectedRent: 1, MonthlyPropertyTax: &negative}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr != (err != nil) {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInputValidateReportsFirstBadCost(t *testing.T) {
	negative := -5.0
	infinite := math.Inf(1)
	tests := []struct {
		name     string
		input    Input
		expected string
	}{
		{"HOA before tax", Input{Price: 1, ExpectedRent: 1, HOA: -1, MonthlyPropertyTax: &negative, OtherCosts: -1}, "hoa must be a non-negative number, got -1"},
		{"Tax before insurance", Input{Price: 1, ExpectedRent: 1, MonthlyPropertyTax: &negative, MonthlyInsurance: &infinite}, "monthlyPropertyTax must be a non-negative number, got -5"},
		{"Insurance before other costs", Input{Price: 1, ExpectedRent: 1, MonthlyInsurance: &infinite, OtherCosts: math.NaN()}, "monthlyInsurance must be a non-negative number, got +Inf"},
		{"Price before costs", Input{Price: -1, ExpectedRent: 1, HOA: -1}, "price must be a non-negative number, got -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for run := 0; run < 10; run++ {
				err := tt.input.Validate()
				if err == nil || err.Error() != tt.expected {
					t.Fatalf("run %d: Validate() error = %v, expected %q", run, err, tt.expected)
				}
			}
		})
	}
}

func TestEvaluateListings(t *testing.T) {
	zero := 0.0
	listings := []Listing{
		{ID: "a", Address: "1 Main St", Input: Input{Price: 200000, ExpectedRent: 2000, MonthlyPropertyTax: &zero, MonthlyInsurance: &zero}},
		{ID: "b", Address: "2 Main St", Input: Input{Price: 300000, ExpectedRent: 1500}},
	}

	results := EvaluateListings(listings, conventional(), nil)
	if len(results) != 2 {
		t.Fatalf("expected 2 evaluations, got %d", len(results))
	}
	if !results[0].Metrics.Meets1PercentRule || results[1].Metrics.Meets1PercentRule {
		t.Errorf("unexpected 1%% rule results: %v, %v", results[0].Metrics.Meets1PercentRule, results[1].Metrics.Meets1PercentRule)
	}
	if results[1].Listing.ID != "b" {
		t.Errorf("evaluations out of order")
	}
}
