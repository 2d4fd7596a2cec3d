package baseline

import (
	"sort"

	"github.com/iwvelando/rental-metrics/pkg/format"
	"github.com/iwvelando/rental-metrics/pkg/portfolio"
)

// Field names used as keys in RowChanges and SummaryChanges.
const (
	FieldMarketValue   = "marketValue"
	FieldDebt          = "debt"
	FieldEquity        = "equity"
	FieldEquityPercent = "equityPercent"
	FieldRent          = "rent"
	FieldHOA           = "hoa"
	FieldRETax         = "reTax"
	FieldInsurance     = "insurance"
	FieldOtherExpenses = "otherExpenses"
	FieldInterestRate  = "interestRate"
	FieldDebtService   = "debtService"
	FieldNOIMonthly    = "noiMonthly"
	FieldNOIYearly     = "noiYearly"
	FieldCashflow      = "cashflow"
	FieldReturnPercent = "returnPercent"
)

type rowField struct {
	name      string
	value     func(portfolio.PropertyData) float64
	formatter Formatter
}

var rowFields = []rowField{
	{FieldMarketValue, func(p portfolio.PropertyData) float64 { return p.MarketValue }, format.Currency},
	{FieldDebt, func(p portfolio.PropertyData) float64 { return p.Debt }, format.Currency},
	{FieldEquity, func(p portfolio.PropertyData) float64 { return p.Equity }, format.Currency},
	{FieldEquityPercent, func(p portfolio.PropertyData) float64 { return p.EquityPercent }, format.Percent},
	{FieldRent, func(p portfolio.PropertyData) float64 { return p.Rent }, format.Currency},
	{FieldHOA, func(p portfolio.PropertyData) float64 { return p.HOA }, format.Currency},
	{FieldRETax, func(p portfolio.PropertyData) float64 { return p.RETax }, format.Currency},
	{FieldInsurance, func(p portfolio.PropertyData) float64 { return p.Insurance }, format.Currency},
	{FieldOtherExpenses, func(p portfolio.PropertyData) float64 { return p.OtherExpenses }, format.Currency},
	{FieldInterestRate, func(p portfolio.PropertyData) float64 { return p.InterestRate }, format.Percent},
	{FieldDebtService, func(p portfolio.PropertyData) float64 { return p.DebtService }, format.Currency},
	{FieldNOIMonthly, func(p portfolio.PropertyData) float64 { return p.NOIMonthly }, format.Currency},
	{FieldNOIYearly, func(p portfolio.PropertyData) float64 { return p.NOIYearly }, format.Currency},
	{FieldCashflow, func(p portfolio.PropertyData) float64 { return p.Cashflow }, format.Currency},
	{FieldReturnPercent, func(p portfolio.PropertyData) float64 { return p.ReturnPercent }, format.Percent},
}

// Snapshot is an immutable copy of a working set. The zero value is an empty
// baseline.
type Snapshot struct {
	rows  []portfolio.PropertyData
	index map[string]int
}

// NewSnapshot copies rows so later edits to the working set do not reach the baseline.
func NewSnapshot(rows []portfolio.PropertyData) *Snapshot {
	s := &Snapshot{
		rows:  append([]portfolio.PropertyData(nil), rows...),
		index: make(map[string]int, len(rows)),
	}
	for i, row := range s.rows {
		s.index[row.ID] = i
	}
	return s
}

// Rows returns a copy of the baseline rows.
func (s *Snapshot) Rows() []portfolio.PropertyData {
	if s == nil {
		return nil
	}
	return append([]portfolio.PropertyData(nil), s.rows...)
}

// Row returns the baseline row identified by id.
func (s *Snapshot) Row(id string) (portfolio.PropertyData, bool) {
	if s == nil {
		return portfolio.PropertyData{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return portfolio.PropertyData{}, false
	}
	return s.rows[i], true
}

// Summary aggregates the baseline rows.
func (s *Snapshot) Summary() portfolio.Summary {
	return portfolio.Aggregate(s.Rows())
}

// RowChanges lists the changed fields of one row.
type RowChanges map[string]Change

// Comparison is the result of comparing a working set with a snapshot.
type Comparison struct {
	Changed map[string]RowChanges `json:"changed"`
	Added   []string              `json:"added"`
	Removed []string              `json:"removed"`
}

// HasChanges reports whether anything differs from the baseline.
func (c Comparison) HasChanges() bool {
	return len(c.Changed) > 0 || len(c.Added) > 0 || len(c.Removed) > 0
}

// CompareRows compares current with the baseline by row ID. Only fields whose
// rendered value differs are reported.
func (s *Snapshot) CompareRows(current []portfolio.PropertyData) Comparison {
	result := Comparison{Changed: map[string]RowChanges{}}
	seen := make(map[string]bool, len(current))

	for _, row := range current {
		seen[row.ID] = true
		base, ok := s.Row(row.ID)
		if !ok {
			result.Added = append(result.Added, row.ID)
			continue
		}
		changes := CompareRow(row, base)
		if len(changes) > 0 {
			result.Changed[row.ID] = changes
		}
	}

	for _, row := range s.Rows() {
		if !seen[row.ID] {
			result.Removed = append(result.Removed, row.ID)
		}
	}
	sort.Strings(result.Added)
	sort.Strings(result.Removed)
	return result
}

// CompareRow returns the changed fields between two versions of a row.
func CompareRow(current, base portfolio.PropertyData) RowChanges {
	changes := RowChanges{}
	for _, field := range rowFields {
		if c := Diff(field.value(current), field.value(base), field.formatter); c.Changed {
			changes[field.name] = c
		}
	}
	return changes
}

// SummaryChanges lists changed portfolio totals and metrics by JSON field name.
type SummaryChanges map[string]Change

// CompareSummaries compares two portfolio summaries field by field.
func CompareSummaries(current, base portfolio.Summary) SummaryChanges {
	pairs := []struct {
		name      string
		cur, base float64
		formatter Formatter
	}{
		{"assets", current.Totals.Assets, base.Totals.Assets, format.Currency},
		{"debt", current.Totals.Debt, base.Totals.Debt, format.Currency},
		{"equity", current.Totals.Equity, base.Totals.Equity, format.Currency},
		{"rentMonthly", current.Totals.RentMonthly, base.Totals.RentMonthly, format.Currency},
		{"expensesMonthly", current.Totals.ExpensesMonthly, base.Totals.ExpensesMonthly, format.Currency},
		{"debtService", current.Totals.DebtService, base.Totals.DebtService, format.Currency},
		{"noiMonthly", current.Totals.NOIMonthly, base.Totals.NOIMonthly, format.Currency},
		{"cashflowMonthly", current.Totals.CashflowMonthly, base.Totals.CashflowMonthly, format.Currency},
		{"leverage", current.Metrics.Leverage, base.Metrics.Leverage, format.Percent},
		{"cocReturn", current.Metrics.CoCReturn, base.Metrics.CoCReturn, format.Percent},
		{"dscr", current.Metrics.DSCR, base.Metrics.DSCR, format.Ratio},
		{"capRate", current.Metrics.CapRate, base.Metrics.CapRate, format.Percent},
		{"grm", current.Metrics.GRM, base.Metrics.GRM, format.Ratio},
		{"opexRatio", current.Metrics.OpexRatio, base.Metrics.OpexRatio, format.Percent},
		{"rentPerUnitPerMonth", current.Metrics.RentPerUnitPerMonth, base.Metrics.RentPerUnitPerMonth, format.Currency},
	}

	changes := SummaryChanges{}
	for _, p := range pairs {
		if c := Diff(p.cur, p.base, p.formatter); c.Changed {
			changes[p.name] = c
		}
	}
	return changes
}
