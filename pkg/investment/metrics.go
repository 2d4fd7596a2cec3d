// Package investment computes the per-property investment metrics bundle
// (cash flow, cap rate, cash-on-cash return, DSCR and the rule-of-thumb
// checks) for a price, an expected rent and a financing strategy.
//
// The calculator is a pure function. Ratios that cannot be computed because a
// denominator is zero are reported as nil rather than NaN or Inf.
package investment

import (
	"fmt"

	"github.com/iwvelando/rental-metrics/pkg/constants"
	"github.com/iwvelando/rental-metrics/pkg/estimate"
	"github.com/iwvelando/rental-metrics/pkg/financing"
	"github.com/iwvelando/rental-metrics/pkg/loans"
	"github.com/iwvelando/rental-metrics/pkg/mathutil"
)

// Metrics is the computed bundle for one property or listing.
type Metrics struct {
	DownPayment            float64 `json:"downPayment"`
	DownPaymentPercent     float64 `json:"downPaymentPercent"`
	LoanAmount             float64 `json:"loanAmount"`
	MonthlyMortgagePayment float64 `json:"monthlyMortgagePayment"`
	MonthlyHOA             float64 `json:"monthlyHoa"`
	MonthlyPropertyTax     float64 `json:"monthlyPropertyTax"`
	MonthlyInsurance       float64 `json:"monthlyInsurance"`
	MonthlyOtherCosts      float64 `json:"monthlyOtherCosts"`
	TotalMonthlyExpenses   float64 `json:"totalMonthlyExpenses"`
	MonthlyNetIncome       float64 `json:"monthlyNetIncome"`
	CashOnCashReturn       float64 `json:"cashOnCashReturn"`
	Meets1PercentRule      bool    `json:"meets1PercentRule"`
	Meets2PercentRule      bool    `json:"meets2PercentRule"`
	Meets50PercentRule     bool    `json:"meets50PercentRule"`

	// nil when not computable
	CapRate               *float64 `json:"capRate"`
	PriceToRentRatio      *float64 `json:"priceToRentRatio"`
	DSCR                  *float64 `json:"dscr"`
	BreakEvenRatio        *float64 `json:"breakEvenRatio"`
	OperatingExpenseRatio *float64 `json:"operatingExpenseRatio"`
}

// Input is a property or listing as submitted for evaluation. Price and
// ExpectedRent are required; nil tax or insurance are estimated.
type Input struct {
	Price              float64  `json:"price"`
	ExpectedRent       float64  `json:"expectedRent"`
	State              string   `json:"state,omitempty"`
	HOA                float64  `json:"hoa,omitempty"`
	MonthlyPropertyTax *float64 `json:"monthlyPropertyTax,omitempty"`
	MonthlyInsurance   *float64 `json:"monthlyInsurance,omitempty"`
	OtherCosts         float64  `json:"otherCosts,omitempty"`
}

// Validate rejects inputs outside the calculator's domain.
func (in Input) Validate() error {
	if !mathutil.IsFinite(in.Price) || in.Price < 0 {
		return fmt.Errorf("price must be a non-negative number, got %v", in.Price)
	}
	if !mathutil.IsFinite(in.ExpectedRent) || in.ExpectedRent < 0 {
		return fmt.Errorf("expected rent must be a non-negative number, got %v", in.ExpectedRent)
	}
	costs := []struct {
		name  string
		value *float64
	}{
		{"hoa", &in.HOA},
		{"monthlyPropertyTax", in.MonthlyPropertyTax},
		{"monthlyInsurance", in.MonthlyInsurance},
		{"otherCosts", &in.OtherCosts},
	}
	for _, c := range costs {
		if c.value == nil {
			continue
		}
		if v := *c.value; !mathutil.IsFinite(v) || v < 0 {
			return fmt.Errorf("%s must be a non-negative number, got %v", c.name, v)
		}
	}
	return nil
}

// ResolveCosts returns the monthly tax and insurance, estimating whichever
// the caller left unset.
func (in Input) ResolveCosts(estimator estimate.Estimator) (tax, insurance float64) {
	if estimator == nil {
		estimator = estimate.Default
	}
	if in.MonthlyPropertyTax != nil {
		tax = *in.MonthlyPropertyTax
	} else {
		tax = estimator.MonthlyPropertyTax(in.Price, in.State)
	}
	if in.MonthlyInsurance != nil {
		insurance = *in.MonthlyInsurance
	} else {
		insurance = estimator.MonthlyInsurance(in.Price)
	}
	return tax, insurance
}

// ComputeInvestmentMetrics computes the metrics bundle from explicit monthly costs.
func ComputeInvestmentMetrics(price, expectedRent float64, strategy financing.Strategy, hoa, monthlyPropertyTax, monthlyInsurance float64) Metrics {
	return compute(price, expectedRent, strategy, hoa, monthlyPropertyTax, monthlyInsurance, 0)
}

// Evaluate resolves estimated costs for in and computes its metrics bundle.
func Evaluate(in Input, strategy financing.Strategy, estimator estimate.Estimator) Metrics {
	tax, insurance := in.ResolveCosts(estimator)
	return compute(in.Price, in.ExpectedRent, strategy, in.HOA, tax, insurance, in.OtherCosts)
}

func compute(price, rent float64, strategy financing.Strategy, hoa, tax, insurance, other float64) Metrics {
	downPayment := strategy.DownPayment.AmountFor(price)
	loanAmount := price - downPayment
	mortgage := loans.CalculateMonthlyPayment(loanAmount, strategy.InterestRate, strategy.LoanTermYears)

	expenses := hoa + tax + insurance + other
	netIncome := rent - expenses - mortgage
	annualRent := rent * constants.MonthsPerYear
	annualNOI := annualRent - expenses*constants.MonthsPerYear

	m := Metrics{
		DownPayment:            mathutil.Finite(downPayment),
		DownPaymentPercent:     strategy.DownPayment.PercentOf(price),
		LoanAmount:             mathutil.Finite(loanAmount),
		MonthlyMortgagePayment: mortgage,
		MonthlyHOA:             hoa,
		MonthlyPropertyTax:     tax,
		MonthlyInsurance:       insurance,
		MonthlyOtherCosts:      other,
		TotalMonthlyExpenses:   mathutil.Finite(expenses),
		MonthlyNetIncome:       mathutil.Finite(netIncome),
		Meets1PercentRule:      rent >= price*constants.OnePercentRule,
		Meets2PercentRule:      rent >= price*constants.TwoPercentRule,
		Meets50PercentRule:     rent*constants.FiftyPercentRule >= mortgage,
	}

	if downPayment != 0 {
		m.CashOnCashReturn = mathutil.SafeDivide(netIncome*constants.MonthsPerYear, downPayment) * constants.PercentageMultiplier
	}

	m.PriceToRentRatio = mathutil.Ratio(price, annualRent)
	m.CapRate = mathutil.PercentRatio(annualNOI, price)
	m.DSCR = mathutil.Ratio(rent-expenses, mortgage)
	m.BreakEvenRatio = mathutil.PercentRatio(expenses+mortgage, rent)
	m.OperatingExpenseRatio = mathutil.PercentRatio(expenses, rent)

	return m
}
