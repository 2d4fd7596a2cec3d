// Package portfolio holds the editable property rows of a working set and the
// pure folds that roll them up into portfolio totals and ratios.
//
// Derived fields are never kept in sync implicitly. Callers mutate a row and
// then call RecalculateRow; aggregates are recomputed from scratch with
// Aggregate after every edit.
package portfolio

import (
	"github.com/google/uuid"

	"github.com/iwvelando/rental-metrics/pkg/constants"
	"github.com/iwvelando/rental-metrics/pkg/estimate"
	"github.com/iwvelando/rental-metrics/pkg/financing"
	"github.com/iwvelando/rental-metrics/pkg/investment"
	"github.com/iwvelando/rental-metrics/pkg/loans"
	"github.com/iwvelando/rental-metrics/pkg/mathutil"
)

// PropertyData is one row of the portfolio table. The first block is editable;
// the second block is derived by RecalculateRow.
type PropertyData struct {
	ID            string  `json:"id" yaml:"id"`
	Address       string  `json:"address" yaml:"address"`
	State         string  `json:"state,omitempty" yaml:"state,omitempty"`
	MarketValue   float64 `json:"marketValue" yaml:"marketValue"`
	Debt          float64 `json:"debt" yaml:"debt"`
	Rent          float64 `json:"rent" yaml:"rent"`
	HOA           float64 `json:"hoa" yaml:"hoa"`
	RETax         float64 `json:"reTax" yaml:"reTax"`
	Insurance     float64 `json:"insurance" yaml:"insurance"`
	OtherExpenses float64 `json:"otherExpenses" yaml:"otherExpenses"`
	InterestRate  float64 `json:"interestRate" yaml:"interestRate"`
	LoanTermYears int     `json:"loanTermYears,omitempty" yaml:"loanTermYears,omitempty"`

	Equity        float64 `json:"equity" yaml:"equity"`
	EquityPercent float64 `json:"equityPercent" yaml:"equityPercent"`
	DebtService   float64 `json:"debtService" yaml:"debtService"`
	NOIMonthly    float64 `json:"noiMonthly" yaml:"noiMonthly"`
	NOIYearly     float64 `json:"noiYearly" yaml:"noiYearly"`
	Cashflow      float64 `json:"cashflow" yaml:"cashflow"`
	ReturnPercent float64 `json:"returnPercent" yaml:"returnPercent"`

	IsNew       bool `json:"isNew,omitempty" yaml:"-"`
	IsTemporary bool `json:"isTemporary,omitempty" yaml:"-"`
}

// OperatingExpenses is the monthly sum of the non-debt carrying costs.
func (p PropertyData) OperatingExpenses() float64 {
	return p.HOA + p.RETax + p.Insurance + p.OtherExpenses
}

// RecalculateRow re-derives the computed fields of row from its editable
// fields. It returns a new value and is idempotent.
func RecalculateRow(row PropertyData) PropertyData {
	term := row.LoanTermYears
	if term <= 0 {
		term = constants.DefaultLoanTermYears
	}

	row.Equity = mathutil.Finite(row.MarketValue - row.Debt)
	row.EquityPercent = mathutil.CalculatePercentage(row.Equity, row.MarketValue)
	row.DebtService = loans.CalculateMonthlyPayment(row.Debt, row.InterestRate, term)
	row.NOIMonthly = mathutil.Finite(row.Rent - row.OperatingExpenses())
	row.NOIYearly = mathutil.Finite(row.NOIMonthly * constants.MonthsPerYear)
	row.Cashflow = mathutil.Finite(row.NOIMonthly - row.DebtService)
	row.ReturnPercent = mathutil.CalculatePercentage(row.Cashflow*constants.MonthsPerYear, row.Equity)
	return row
}

// RecalculateAll returns a recalculated copy of rows.
func RecalculateAll(rows []PropertyData) []PropertyData {
	out := make([]PropertyData, len(rows))
	for i, row := range rows {
		out[i] = RecalculateRow(row)
	}
	return out
}

// NewRow returns a blank user-added row with a fresh identifier.
func NewRow() PropertyData {
	return RecalculateRow(PropertyData{
		ID:            uuid.NewString(),
		LoanTermYears: constants.DefaultLoanTermYears,
		IsNew:         true,
	})
}

// NewTemporaryRow projects an interested listing into the portfolio as if it
// were purchased with strategy. The row is flagged temporary so it can be
// excluded from saves and cleared in one step.
func NewTemporaryRow(listing investment.Listing, strategy financing.Strategy, estimator estimate.Estimator) PropertyData {
	tax, insurance := listing.ResolveCosts(estimator)
	id := listing.ID
	if id == "" {
		id = uuid.NewString()
	}
	return RecalculateRow(PropertyData{
		ID:            id,
		Address:       listing.Address,
		State:         listing.State,
		MarketValue:   listing.Price,
		Debt:          strategy.LoanAmount(listing.Price),
		Rent:          listing.ExpectedRent,
		HOA:           listing.HOA,
		RETax:         tax,
		Insurance:     insurance,
		OtherExpenses: listing.OtherCosts,
		InterestRate:  strategy.InterestRate,
		LoanTermYears: strategy.LoanTermYears,
		IsTemporary:   true,
	})
}

// ClearTemporary returns rows without any temporary listing rows.
func ClearTemporary(rows []PropertyData) []PropertyData {
	out := make([]PropertyData, 0, len(rows))
	for _, row := range rows {
		if !row.IsTemporary {
			out = append(out, row)
		}
	}
	return out
}

// Committed returns the rows that should be persisted: temporary rows are
// dropped and the IsNew marker is cleared.
func Committed(rows []PropertyData) []PropertyData {
	out := ClearTemporary(rows)
	for i := range out {
		out[i].IsNew = false
	}
	return out
}

// RemoveRow returns rows without the row identified by id and whether it was found.
func RemoveRow(rows []PropertyData, id string) ([]PropertyData, bool) {
	out := make([]PropertyData, 0, len(rows))
	found := false
	for _, row := range rows {
		if row.ID == id {
			found = true
			continue
		}
		out = append(out, row)
	}
	return out, found
}

// FindRow returns the row identified by id.
func FindRow(rows []PropertyData, id string) (PropertyData, bool) {
	for _, row := range rows {
		if row.ID == id {
			return row, true
		}
	}
	return PropertyData{}, false
}
