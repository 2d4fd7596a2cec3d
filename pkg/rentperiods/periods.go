// Package rentperiods validates rent-history intervals and expands them into
// monthly payment records for historical backfill.
package rentperiods

import (
	"fmt"
	"sort"
	"time"

	"github.com/iwvelando/rental-metrics/pkg/datetime"
	"github.com/iwvelando/rental-metrics/pkg/format"
)

// Period is a span during which a fixed monthly rent applied. Both ends are inclusive.
type Period struct {
	ID          string  `json:"id,omitempty" yaml:"id,omitempty"`
	StartDate   Date    `json:"startDate" yaml:"startDate"`
	EndDate     Date    `json:"endDate" yaml:"endDate"`
	MonthlyRent float64 `json:"monthlyRent" yaml:"monthlyRent"`
}

// WarningType classifies an advisory warning.
type WarningType string

const (
	// WarningGap marks more than one day between consecutive periods.
	WarningGap WarningType = "gap"
	// WarningOverlap marks consecutive periods that share at least one day.
	WarningOverlap WarningType = "overlap"
	// WarningFuture marks a period ending after today.
	WarningFuture WarningType = "future"
)

// Warning is an advisory finding. PeriodIndices refer to the caller's input
// order and are sorted ascending.
type Warning struct {
	Type          WarningType `json:"type"`
	Message       string      `json:"message"`
	PeriodIndices []int       `json:"periodIndices"`
	Days          int         `json:"days,omitempty"`
}

// Validate reports gaps, overlaps and future-dated periods. Warnings never
// block submission; see ValidateSubmission for the strict pass.
func Validate(periods []Period, today time.Time) []Warning {
	warnings := []Warning{}
	if len(periods) == 0 {
		return warnings
	}

	order := make([]int, len(periods))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return periods[order[a]].StartDate.Before(periods[order[b]].StartDate.Time)
	})

	for k := 0; k+1 < len(order); k++ {
		ci, ni := order[k], order[k+1]
		current, next := periods[ci], periods[ni]
		indices := pair(ci, ni)

		if !current.EndDate.Before(next.StartDate.Time) {
			warnings = append(warnings, Warning{
				Type: WarningOverlap,
				Message: fmt.Sprintf("Rent period %s to %s overlaps with %s to %s",
					current.StartDate, current.EndDate, next.StartDate, next.EndDate),
				PeriodIndices: indices,
			})
		}

		if days := datetime.DaysBetween(current.EndDate.Time, next.StartDate.Time); days > 1 {
			warnings = append(warnings, Warning{
				Type: WarningGap,
				Message: fmt.Sprintf("Gap of %d days between rent period ending %s and period starting %s",
					days, current.EndDate, next.StartDate),
				PeriodIndices: indices,
				Days:          days,
			})
		}
	}

	day := datetime.TruncateToDay(today)
	for i, p := range periods {
		if datetime.TruncateToDay(p.EndDate.Time).After(day) {
			warnings = append(warnings, Warning{
				Type:          WarningFuture,
				Message:       fmt.Sprintf("Rent period %s to %s ends in the future", p.StartDate, p.EndDate),
				PeriodIndices: []int{i},
			})
		}
	}

	return warnings
}

func pair(a, b int) []int {
	if a > b {
		a, b = b, a
	}
	return []int{a, b}
}

// MonthCount counts the calendar months covered by [start, end], inclusive of
// both endpoint months. It is 0 when end precedes start's month.
func MonthCount(start, end time.Time) int {
	return datetime.CalendarMonthSpan(start, end)
}

// Months returns the number of calendar months p covers.
func (p Period) Months() int {
	return MonthCount(p.StartDate.Time, p.EndDate.Time)
}

// Total is the rent expected over p.
func (p Period) Total() float64 {
	return float64(p.Months()) * p.MonthlyRent
}

// TotalExpected sums the expected rent over all periods.
func TotalExpected(periods []Period) float64 {
	total := 0.0
	for _, p := range periods {
		total += p.Total()
	}
	return total
}

// PaymentRecord is one synthesized monthly rent payment.
type PaymentRecord struct {
	PaymentDate    Date    `json:"paymentDate" yaml:"paymentDate"`
	ExpectedAmount float64 `json:"expectedAmount" yaml:"expectedAmount"`
	PaidAmount     float64 `json:"paidAmount" yaml:"paidAmount"`
	Notes          string  `json:"notes" yaml:"notes"`
}

// ExpandToMonthlyRecords produces one fully paid record per calendar month
// covered by each period, dated the first of the month and ordered by date.
func ExpandToMonthlyRecords(periods []Period) []PaymentRecord {
	records := []PaymentRecord{}
	for _, p := range periods {
		first := datetime.FirstOfMonth(p.StartDate.Time)
		note := fmt.Sprintf("Historical rent for period %s to %s at %s/month",
			p.StartDate, p.EndDate, format.Currency(p.MonthlyRent))
		for m := 0; m < p.Months(); m++ {
			records = append(records, PaymentRecord{
				PaymentDate:    NewDate(first.AddDate(0, m, 0)),
				ExpectedAmount: p.MonthlyRent,
				PaidAmount:     p.MonthlyRent,
				Notes:          note,
			})
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PaymentDate.Before(records[j].PaymentDate.Time)
	})
	return records
}
