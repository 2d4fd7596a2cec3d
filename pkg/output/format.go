// Package output provides utilities for formatting and displaying analysis results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/iwvelando/rental-metrics/internal/analysis"
	"github.com/iwvelando/rental-metrics/pkg/baseline"
	"github.com/iwvelando/rental-metrics/pkg/constants"
	"github.com/iwvelando/rental-metrics/pkg/financing"
	"github.com/iwvelando/rental-metrics/pkg/format"
	"github.com/iwvelando/rental-metrics/pkg/portfolio"
)

// Markers appended to values that moved since the baseline.
const (
	markerUp   = " ▲"
	markerDown = " ▼"
)

func marker(changes baseline.RowChanges, field string) string {
	change, ok := changes[field]
	if !ok || !change.Changed {
		return ""
	}
	if change.Direction == baseline.Down {
		return markerDown
	}
	return markerUp
}

func summaryMarker(changes baseline.SummaryChanges, field string) string {
	return marker(baseline.RowChanges(changes), field)
}

// DescribeStrategy renders a strategy such as "20.0% down, 6.500%, 30 years".
func DescribeStrategy(s financing.Strategy) string {
	down := format.Percent(s.DownPayment.Value)
	if s.DownPayment.Type == financing.DownPaymentAmount {
		down = format.Currency(s.DownPayment.Value)
	}
	return fmt.Sprintf("%s down, %.3f%%, %d years", down, s.InterestRate, s.LoanTermYears)
}

// PrettyFormat writes a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, report analysis.Report) error {
	p := message.NewPrinter(language.English)
	ew := &errWriter{w: w}

	ew.printf("--- Portfolio %s as of %s ---\n", report.PortfolioID, report.AsOf.Format("2006-01-02"))
	ew.printf("ID | Address | Market Value | Debt | Rent | Expenses | Debt Service | NOI | Cashflow | Return\n")
	ew.printf("__ | _______ | ____________ | ____ | ____ | ________ | ____________ | ___ | ________ | ______\n")
	for _, row := range report.Rows {
		changes := report.RowChanges.Changed[row.ID]
		ew.printf("%s", p.Sprintf("%s | %s | $%.2f%s | $%.2f%s | $%.2f%s | $%.2f | $%.2f%s | $%.2f%s | $%.2f%s | %s%s\n",
			row.ID, row.Address,
			row.MarketValue, marker(changes, baseline.FieldMarketValue),
			row.Debt, marker(changes, baseline.FieldDebt),
			row.Rent, marker(changes, baseline.FieldRent),
			row.OperatingExpenses(),
			row.DebtService, marker(changes, baseline.FieldDebtService),
			row.NOIMonthly, marker(changes, baseline.FieldNOIMonthly),
			row.Cashflow, marker(changes, baseline.FieldCashflow),
			format.Percent(row.ReturnPercent), marker(changes, baseline.FieldReturnPercent),
		))
	}
	if len(report.RowChanges.Added) > 0 {
		ew.printf("Added since baseline: %s\n", strings.Join(report.RowChanges.Added, ", "))
	}
	if len(report.RowChanges.Removed) > 0 {
		ew.printf("Removed since baseline: %s\n", strings.Join(report.RowChanges.Removed, ", "))
	}
	ew.printf("\n")
	writeSummary(ew, p, "Totals", report.Summary, report.SummaryChanges)

	if len(report.Listings) > 0 {
		ew.printf("\n--- Listings (%s) ---\n", DescribeStrategy(report.Strategy))
		ew.printf("ID | Address | Price | Rent | Mortgage | Expenses | Cashflow | CoC | Cap Rate | DSCR | 1%% Rule | Interested\n")
		ew.printf("__ | _______ | _____ | ____ | ________ | ________ | ________ | ___ | ________ | ____ | _______ | __________\n")
		for _, e := range report.Listings {
			m := e.Metrics
			ew.printf("%s", p.Sprintf("%s | %s | $%.2f | $%.2f | $%.2f | $%.2f | $%.2f | %s | %s | %s | %t | %t\n",
				e.Listing.ID, e.Listing.Address, e.Listing.Price, e.Listing.ExpectedRent,
				m.MonthlyMortgagePayment, m.TotalMonthlyExpenses, m.MonthlyNetIncome,
				format.Percent(m.CashOnCashReturn), format.OptionalPercent(m.CapRate), format.OptionalRatio(m.DSCR),
				m.Meets1PercentRule, e.Listing.Interested,
			))
		}
	}

	if report.ProjectedSummary != nil {
		ew.printf("\n")
		writeSummary(ew, p, "Projected with interested listings", *report.ProjectedSummary, nil)
	}

	if len(report.RentPeriods) > 0 {
		ew.printf("\n--- Rent history ---\n")
		for _, period := range report.RentPeriods {
			ew.printf("%s", p.Sprintf("%s | %s to %s | $%.2f/month | %d months\n",
				period.ID, period.StartDate, period.EndDate, period.MonthlyRent, period.Months()))
		}
		for _, warning := range report.RentWarnings {
			ew.printf("warning (%s): %s\n", warning.Type, warning.Message)
		}
		for _, msg := range report.SubmissionErrors {
			ew.printf("error: %s\n", msg)
		}
		if len(report.PaymentRecords) > 0 {
			ew.printf("%s", p.Sprintf("%d monthly payment records, $%.2f expected in total\n",
				len(report.PaymentRecords), report.ExpectedRentTotal))
		}
	}

	if len(report.Warnings) > 0 {
		ew.printf("\n--- Warnings ---\n")
		for _, warning := range report.Warnings {
			ew.printf("- %s\n", warning)
		}
	}

	return ew.err
}

func writeSummary(ew *errWriter, p *message.Printer, title string, s portfolio.Summary, changes baseline.SummaryChanges) {
	t, m := s.Totals, s.Metrics
	ew.printf("%s", p.Sprintf("%s: %d properties (%d rented)\n", title, t.PropertyCount, t.ActiveUnits))
	ew.printf("%s", p.Sprintf("  Assets $%.2f%s | Debt $%.2f%s | Equity $%.2f%s\n",
		t.Assets, summaryMarker(changes, "assets"), t.Debt, summaryMarker(changes, "debt"), t.Equity, summaryMarker(changes, "equity")))
	ew.printf("%s", p.Sprintf("  Rent $%.2f/month%s | Expenses $%.2f%s | Debt service $%.2f%s\n",
		t.RentMonthly, summaryMarker(changes, "rentMonthly"), t.ExpensesMonthly, summaryMarker(changes, "expensesMonthly"),
		t.DebtService, summaryMarker(changes, "debtService")))
	ew.printf("%s", p.Sprintf("  NOI $%.2f/month%s | Cashflow $%.2f/month%s ($%.2f/year)\n",
		t.NOIMonthly, summaryMarker(changes, "noiMonthly"), t.CashflowMonthly, summaryMarker(changes, "cashflowMonthly"), t.CashflowYearly))
	ew.printf("  Leverage %s%s | CoC %s%s | DSCR %s%s | Cap rate %s%s | GRM %s%s | Opex ratio %s%s\n",
		format.Percent(m.Leverage), summaryMarker(changes, "leverage"),
		format.Percent(m.CoCReturn), summaryMarker(changes, "cocReturn"),
		format.Ratio(m.DSCR), summaryMarker(changes, "dscr"),
		format.Percent(m.CapRate), summaryMarker(changes, "capRate"),
		format.Ratio(m.GRM), summaryMarker(changes, "grm"),
		format.Percent(m.OpexRatio), summaryMarker(changes, "opexRatio"),
	)
	ew.printf("  Rent per unit %s | Levered yield %s | Unlevered yield %s\n",
		format.Currency(m.RentPerUnitPerMonth), format.Percent(m.LeveredCashYield), format.Percent(m.UnleveredCashYield))
}

// CsvFormat writes the report as comma-separated sections, each with its own
// header row and separated by an empty line: properties, listings and
// payment records. Empty sections are omitted.
func CsvFormat(w io.Writer, report analysis.Report) error {
	cw := csv.NewWriter(w)
	money := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	optional := func(v *float64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', 4, 64)
	}

	_ = cw.Write([]string{"id", "address", "state", "market_value", "debt", "rent", "expenses",
		"debt_service", "noi_monthly", "cashflow", "equity_percent", "return_percent", "changed_fields"})
	for _, row := range report.Rows {
		_ = cw.Write([]string{row.ID, row.Address, row.State, money(row.MarketValue), money(row.Debt),
			money(row.Rent), money(row.OperatingExpenses()), money(row.DebtService), money(row.NOIMonthly),
			money(row.Cashflow), money(row.EquityPercent), money(row.ReturnPercent),
			changedFields(report.RowChanges.Changed[row.ID])})
	}
	t := report.Summary.Totals
	_ = cw.Write([]string{"TOTAL", "", "", money(t.Assets), money(t.Debt), money(t.RentMonthly),
		money(t.ExpensesMonthly), money(t.DebtService), money(t.NOIMonthly), money(t.CashflowMonthly),
		"", money(report.Summary.Metrics.CoCReturn), ""})

	if len(report.Listings) > 0 {
		cw.Flush()
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		_ = cw.Write([]string{"listing_id", "address", "price", "expected_rent", "down_payment", "mortgage",
			"expenses", "net_income", "cash_on_cash", "cap_rate", "price_to_rent", "dscr", "break_even",
			"meets_1_percent", "meets_2_percent", "meets_50_percent", "interested"})
		for _, e := range report.Listings {
			m := e.Metrics
			_ = cw.Write([]string{e.Listing.ID, e.Listing.Address, money(e.Listing.Price), money(e.Listing.ExpectedRent),
				money(m.DownPayment), money(m.MonthlyMortgagePayment), money(m.TotalMonthlyExpenses),
				money(m.MonthlyNetIncome), money(m.CashOnCashReturn), optional(m.CapRate), optional(m.PriceToRentRatio),
				optional(m.DSCR), optional(m.BreakEvenRatio), strconv.FormatBool(m.Meets1PercentRule),
				strconv.FormatBool(m.Meets2PercentRule), strconv.FormatBool(m.Meets50PercentRule),
				strconv.FormatBool(e.Listing.Interested)})
		}
	}

	if len(report.PaymentRecords) > 0 {
		cw.Flush()
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		_ = cw.Write([]string{"payment_date", "expected_amount", "paid_amount", "notes"})
		for _, record := range report.PaymentRecords {
			_ = cw.Write([]string{record.PaymentDate.String(), money(record.ExpectedAmount), money(record.PaidAmount), record.Notes})
		}
	}

	cw.Flush()
	return cw.Error()
}

func changedFields(changes baseline.RowChanges) string {
	if len(changes) == 0 {
		return ""
	}
	fields := make([]string, 0, len(changes))
	for field, change := range changes {
		fields = append(fields, field+":"+string(change.Direction))
	}
	sort.Strings(fields)
	return strings.Join(fields, ";")
}

// YAMLFormat writes the whole report as YAML using the same field names as
// the JSON API.
func YAMLFormat(w io.Writer, report analysis.Report) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write yaml report: %w", err)
	}
	return enc.Close()
}

// Write renders report in the named format.
func Write(w io.Writer, outputFormat string, report analysis.Report) error {
	switch outputFormat {
	case constants.OutputFormatCSV:
		return CsvFormat(w, report)
	case constants.OutputFormatYAML:
		return YAMLFormat(w, report)
	default:
		return PrettyFormat(w, report)
	}
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
