package portfolio

import (
	"github.com/iwvelando/rental-metrics/pkg/constants"
	"github.com/iwvelando/rental-metrics/pkg/mathutil"
)

// Totals are the plain sums over a set of rows.
type Totals struct {
	Assets          float64 `json:"assets"`
	Debt            float64 `json:"debt"`
	Equity          float64 `json:"equity"`
	RentMonthly     float64 `json:"rentMonthly"`
	RentAnnual      float64 `json:"rentAnnual"`
	HOA             float64 `json:"hoa"`
	RETax           float64 `json:"reTax"`
	Insurance       float64 `json:"insurance"`
	OtherExpenses   float64 `json:"otherExpenses"`
	ExpensesMonthly float64 `json:"expensesMonthly"`
	DebtService     float64 `json:"debtService"`
	NOIMonthly      float64 `json:"noiMonthly"`
	NOIYearly       float64 `json:"noiYearly"`
	CashflowMonthly float64 `json:"cashflowMonthly"`
	CashflowYearly  float64 `json:"cashflowYearly"`
	PropertyCount   int     `json:"propertyCount"`
	ActiveUnits     int     `json:"activeUnits"`
}

// Metrics are the portfolio ratios derived from Totals. Every field is finite;
// a ratio whose denominator is zero is reported as 0.
type Metrics struct {
	Leverage            float64 `json:"leverage"`
	CoCReturn           float64 `json:"cocReturn"`
	DSCR                float64 `json:"dscr"`
	CapRate             float64 `json:"capRate"`
	GRM                 float64 `json:"grm"`
	OpexRatio           float64 `json:"opexRatio"`
	RentPerUnitPerMonth float64 `json:"rentPerUnitPerMonth"`
	AvgPropertyValue    float64 `json:"avgPropertyValue"`
	AvgRentPerProperty  float64 `json:"avgRentPerProperty"`
	LeveredCashYield    float64 `json:"leveredCashYield"`
	UnleveredCashYield  float64 `json:"unleveredCashYield"`
	TotalRentMonthly    float64 `json:"totalRentMonthly"`
	TotalRentAnnual     float64 `json:"totalRentAnnual"`
	PropertyCount       int     `json:"propertyCount"`
	ActiveUnits         int     `json:"activeUnits"`
}

// Summary bundles totals and metrics for one working set.
type Summary struct {
	Totals  Totals  `json:"totals"`
	Metrics Metrics `json:"metrics"`
}

// CalculateTotals sums rows. The derived fields of each row are used as
// given; call RecalculateAll first when rows may be stale.
func CalculateTotals(rows []PropertyData) Totals {
	var t Totals
	for _, row := range rows {
		t.Assets += row.MarketValue
		t.Debt += row.Debt
		t.Equity += row.Equity
		t.RentMonthly += row.Rent
		t.HOA += row.HOA
		t.RETax += row.RETax
		t.Insurance += row.Insurance
		t.OtherExpenses += row.OtherExpenses
		t.DebtService += row.DebtService
		t.NOIMonthly += row.NOIMonthly
		t.CashflowMonthly += row.Cashflow
		if row.Rent > 0 {
			t.ActiveUnits++
		}
	}
	t.PropertyCount = len(rows)

	// Sums of large finite values can overflow.
	t.Assets = mathutil.Finite(t.Assets)
	t.Debt = mathutil.Finite(t.Debt)
	t.Equity = mathutil.Finite(t.Equity)
	t.RentMonthly = mathutil.Finite(t.RentMonthly)
	t.HOA = mathutil.Finite(t.HOA)
	t.RETax = mathutil.Finite(t.RETax)
	t.Insurance = mathutil.Finite(t.Insurance)
	t.OtherExpenses = mathutil.Finite(t.OtherExpenses)
	t.DebtService = mathutil.Finite(t.DebtService)
	t.NOIMonthly = mathutil.Finite(t.NOIMonthly)
	t.CashflowMonthly = mathutil.Finite(t.CashflowMonthly)

	t.ExpensesMonthly = mathutil.Finite(t.HOA + t.RETax + t.Insurance + t.OtherExpenses)
	t.RentAnnual = mathutil.Finite(t.RentMonthly * constants.MonthsPerYear)
	t.NOIYearly = mathutil.Finite(t.NOIMonthly * constants.MonthsPerYear)
	t.CashflowYearly = mathutil.Finite(t.CashflowMonthly * constants.MonthsPerYear)
	return t
}

// CalculateMetrics derives the portfolio ratios from totals. rows is used only
// for counts, so totals computed from a different slice give mismatched results.
func CalculateMetrics(rows []PropertyData, totals Totals) Metrics {
	count := len(rows)
	active := 0
	for _, row := range rows {
		if row.Rent > 0 {
			active++
		}
	}

	return Metrics{
		Leverage:            mathutil.CalculatePercentage(totals.Debt, totals.Assets),
		CoCReturn:           mathutil.CalculatePercentage(totals.CashflowYearly, totals.Equity),
		DSCR:                mathutil.SafeDivide(totals.NOIMonthly, totals.DebtService),
		CapRate:             mathutil.CalculatePercentage(totals.NOIYearly, totals.Assets),
		GRM:                 mathutil.SafeDivide(totals.Assets, totals.RentAnnual),
		OpexRatio:           mathutil.CalculatePercentage(totals.ExpensesMonthly, totals.RentMonthly),
		RentPerUnitPerMonth: mathutil.SafeDivide(totals.RentMonthly, float64(active)),
		AvgPropertyValue:    mathutil.SafeDivide(totals.Assets, float64(count)),
		AvgRentPerProperty:  mathutil.SafeDivide(totals.RentMonthly, float64(count)),
		LeveredCashYield:    mathutil.CalculatePercentage(totals.CashflowYearly, totals.Assets),
		UnleveredCashYield:  mathutil.CalculatePercentage(totals.NOIYearly, totals.Assets),
		TotalRentMonthly:    mathutil.Finite(totals.RentMonthly),
		TotalRentAnnual:     mathutil.Finite(totals.RentAnnual),
		PropertyCount:       count,
		ActiveUnits:         active,
	}
}

// Aggregate computes totals and metrics for rows in one call.
func Aggregate(rows []PropertyData) Summary {
	totals := CalculateTotals(rows)
	return Summary{
		Totals:  totals,
		Metrics: CalculateMetrics(rows, totals),
	}
}
