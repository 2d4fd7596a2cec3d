// Package loans provides common loan processing utilities.
package loans

import (
	"fmt"
	"math"

	"github.com/iwvelando/rental-metrics/pkg/constants"
	"github.com/iwvelando/rental-metrics/pkg/datetime"
	"github.com/iwvelando/rental-metrics/pkg/mathutil"
	"go.uber.org/zap"
)

// Payment holds the values for a given payment.
type Payment struct {
	Month              string  `json:"month"`
	Payment            float64 `json:"payment"`
	Principal          float64 `json:"principal"`
	Interest           float64 `json:"interest"`
	RemainingPrincipal float64 `json:"remainingPrincipal"`
}

// CalculateMonthlyPayment calculates the level monthly payment for a loan using
// the standard amortization formula P*r*(1+r)^n / ((1+r)^n - 1). The result is
// always finite and non-negative; a non-positive principal or term pays 0.
func CalculateMonthlyPayment(principal, annualInterestRate float64, termYears int) float64 {
	if principal <= 0 || termYears <= 0 {
		return 0
	}
	termMonths := float64(termYears * constants.MonthsPerYear)

	periodicInterestRate := annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
	if periodicInterestRate == 0 {
		// For zero interest, simply divide the principal by term
		return principal / termMonths
	}

	power := math.Pow(1.00+periodicInterestRate, termMonths)
	payment := principal * periodicInterestRate * power / (power - 1.00)
	if !mathutil.IsFinite(payment) || payment < 0 {
		return 0
	}
	return payment
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	return remainingPrincipal * annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// RemainingBalance returns the outstanding principal after monthsPaid level
// payments, using the closed-form balance of an amortizing loan.
func RemainingBalance(principal, annualInterestRate float64, termYears, monthsPaid int) float64 {
	if principal <= 0 || termYears <= 0 {
		return 0
	}
	termMonths := termYears * constants.MonthsPerYear
	if monthsPaid <= 0 {
		return principal
	}
	if monthsPaid >= termMonths {
		return 0
	}

	payment := CalculateMonthlyPayment(principal, annualInterestRate, termYears)
	r := annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
	if r == 0 {
		return principal - payment*float64(monthsPaid)
	}
	growth := math.Pow(1+r, float64(monthsPaid))
	balance := principal*growth - payment*(growth-1)/r
	if balance < 0 {
		return 0
	}
	return mathutil.Finite(balance)
}

// LoanConfig represents loan configuration parameters
type LoanConfig struct {
	Name           string
	StartDate      string // YYYY-MM of the first payment
	Principal      float64
	InterestRate   float64
	TermYears      int
	ExtraPrincipal float64 // applied every month on top of the level payment
}

// ScheduleSummary aggregates an amortization schedule.
type ScheduleSummary struct {
	MonthlyPayment float64 `json:"monthlyPayment"`
	Months         int     `json:"months"`
	TotalPaid      float64 `json:"totalPaid"`
	TotalInterest  float64 `json:"totalInterest"`
	PayoffMonth    string  `json:"payoffMonth"`
}

// AmortizationScheduleGenerator provides utilities for generating loan amortization schedules
type AmortizationScheduleGenerator struct {
	logger *zap.Logger
}

// NewAmortizationScheduleGenerator creates a new generator instance
func NewAmortizationScheduleGenerator(logger *zap.Logger) *AmortizationScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmortizationScheduleGenerator{logger: logger}
}

// GenerateSchedule creates a complete amortization schedule for a loan. The
// schedule ends early when extra principal retires the balance.
func (g *AmortizationScheduleGenerator) GenerateSchedule(loan LoanConfig) ([]Payment, error) {
	if loan.TermYears <= 0 {
		return nil, fmt.Errorf("loan %s: term must be positive, got %d years", loan.Name, loan.TermYears)
	}
	if loan.TermYears > constants.MaxLoanTermYears {
		return nil, fmt.Errorf("loan %s: term must be at most %d years, got %d", loan.Name, constants.MaxLoanTermYears, loan.TermYears)
	}
	if !mathutil.IsFinite(loan.Principal) {
		return nil, fmt.Errorf("loan %s: principal must be finite, got %v", loan.Name, loan.Principal)
	}
	if loan.Principal <= 0 {
		return nil, nil
	}

	monthlyPayment := CalculateMonthlyPayment(loan.Principal, loan.InterestRate, loan.TermYears)
	termMonths := loan.TermYears * constants.MonthsPerYear
	schedule := make([]Payment, 0, termMonths)

	remaining := loan.Principal
	currentMonth := loan.StartDate
	for month := 1; month <= termMonths; month++ {
		interest := CalculateInterestPayment(remaining, loan.InterestRate)
		principal := monthlyPayment - interest
		extra := CalculateExtraPrincipalWithOverpaymentPrevention(g.logger, loan.ExtraPrincipal, remaining-principal, currentMonth, loan.Name)
		principal += extra

		if month == termMonths || mathutil.Round(remaining-principal) <= 0 {
			// We will get machine error otherwise so just settle the balance.
			principal = remaining
			schedule = append(schedule, Payment{
				Month:              currentMonth,
				Payment:            principal + interest,
				Principal:          principal,
				Interest:           interest,
				RemainingPrincipal: 0,
			})
			if month < termMonths {
				g.logger.Debug(fmt.Sprintf("%s: loan %s retired early after %d payments", currentMonth, loan.Name, month),
					zap.String("op", "loans.GenerateSchedule"),
				)
			}
			break
		}

		remaining -= principal
		schedule = append(schedule, Payment{
			Month:              currentMonth,
			Payment:            monthlyPayment + extra,
			Principal:          principal,
			Interest:           interest,
			RemainingPrincipal: remaining,
		})

		if currentMonth != "" {
			next, err := datetime.OffsetDate(currentMonth, datetime.MonthLayout, 1)
			if err != nil {
				return nil, fmt.Errorf("loan %s: %w", loan.Name, err)
			}
			currentMonth = next
		}
	}

	return schedule, nil
}

// CalculateExtraPrincipalWithOverpaymentPrevention caps a requested extra
// principal payment to the balance left after the scheduled principal.
func CalculateExtraPrincipalWithOverpaymentPrevention(logger *zap.Logger, requested, balanceAfterScheduled float64, date, loanName string) float64 {
	if requested <= 0 {
		return 0
	}
	if balanceAfterScheduled < 0 {
		balanceAfterScheduled = 0
	}
	if requested > balanceAfterScheduled {
		logger.Debug("Capping extra principal payment to prevent overpayment",
			zap.String("date", date),
			zap.String("loan", loanName),
			zap.Float64("requested", requested),
			zap.Float64("capped_to_balance", balanceAfterScheduled))
		return balanceAfterScheduled
	}
	return requested
}

// SummarizeSchedule totals an amortization schedule.
func SummarizeSchedule(schedule []Payment) ScheduleSummary {
	var summary ScheduleSummary
	if len(schedule) == 0 {
		return summary
	}
	summary.MonthlyPayment = schedule[0].Payment
	summary.Months = len(schedule)
	for _, payment := range schedule {
		summary.TotalPaid += payment.Payment
		summary.TotalInterest += payment.Interest
	}
	summary.TotalPaid = mathutil.Round(summary.TotalPaid)
	summary.TotalInterest = mathutil.Round(summary.TotalInterest)
	summary.PayoffMonth = schedule[len(schedule)-1].Month
	return summary
}
