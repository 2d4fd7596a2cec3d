package loans

import (
	"math"
	"testing"

	"go.uber.org/zap"
)

func TestCalculateMonthlyPayment(t *testing.T) {
	tests := []struct {
		name               string
		principal          float64
		annualInterestRate float64
		termYears          int
		expected           float64
		tolerance          float64
	}{
		{
			name:               "160k at 6% over 30 years",
			principal:          160000,
			annualInterestRate: 6.0,
			termYears:          30,
			expected:           959.28,
			tolerance:          0.01,
		},
		{
			name:               "Reference 175k at 4.5% over 30 years",
			principal:          175000,
			annualInterestRate: 4.5,
			termYears:          30,
			expected:           886.70,
			tolerance:          0.01,
		},
		{
			name:               "Zero interest loan",
			principal:          12000,
			annualInterestRate: 0.0,
			termYears:          5,
			expected:           200.0,
			tolerance:          0.0001,
		},
		{
			name:               "Zero principal",
			principal:          0,
			annualInterestRate: 5.0,
			termYears:          30,
			expected:           0,
			tolerance:          0,
		},
		{
			name:               "Negative principal pays nothing",
			principal:          -5000,
			annualInterestRate: 5.0,
			termYears:          30,
			expected:           0,
			tolerance:          0,
		},
		{
			name:               "Zero term pays nothing",
			principal:          100000,
			annualInterestRate: 5.0,
			termYears:          0,
			expected:           0,
			tolerance:          0,
		},
		{
			name:               "High interest short loan",
			principal:          10000,
			annualInterestRate: 18.0,
			termYears:          3,
			expected:           361.52,
			tolerance:          0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateMonthlyPayment(tt.principal, tt.annualInterestRate, tt.termYears)

			if math.Abs(result-tt.expected) > tt.tolerance {
				t.Errorf("CalculateMonthlyPayment() = %.4f, expected %.2f", result, tt.expected)
			}
		})
	}
}

func TestCalculateMonthlyPaymentZeroRateProperty(t *testing.T) {
	for _, price := range []float64{1, 999.99, 150000, 2750000} {
		for _, years := range []int{1, 15, 30} {
			got := CalculateMonthlyPayment(price, 0, years)
			want := price / float64(years*12)
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("CalculateMonthlyPayment(%v, 0, %d) = %v, expected %v", price, years, got, want)
			}
		}
	}
}

func TestCalculateInterestPayment(t *testing.T) {
	tests := []struct {
		name               string
		remainingPrincipal float64
		annualInterestRate float64
		expected           float64
	}{
		{"Standard mortgage interest", 200000, 6.0, 1000.0},
		{"Car loan interest", 15000, 4.5, 56.25},
		{"Zero interest", 10000, 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateInterestPayment(tt.remainingPrincipal, tt.annualInterestRate)

			if math.Abs(result-tt.expected) > 0.01 {
				t.Errorf("CalculateInterestPayment() = %.2f, expected %.2f", result, tt.expected)
			}
		})
	}
}

func TestRemainingBalance(t *testing.T) {
	tests := []struct {
		name       string
		monthsPaid int
		expected   float64
	}{
		{"Before first payment", 0, 175000},
		{"After one year", 12, 172176.85},
		{"After ten years", 120, 140156.51},
		{"After twenty five years", 300, 47562.00},
		{"Fully paid", 360, 0},
		{"Past term", 400, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemainingBalance(175000, 4.5, 30, tt.monthsPaid)
			if math.Abs(got-tt.expected) > 1.0 {
				t.Errorf("RemainingBalance(%d) = %.2f, expected %.2f", tt.monthsPaid, got, tt.expected)
			}
		})
	}

	if got := RemainingBalance(12000, 0, 1, 6); math.Abs(got-6000) > 0.0001 {
		t.Errorf("RemainingBalance zero rate = %.2f, expected 6000", got)
	}
}

func TestGenerateScheduleMatchesReference(t *testing.T) {
	generator := NewAmortizationScheduleGenerator(zap.NewNop())

	schedule, err := generator.GenerateSchedule(LoanConfig{
		Name:         "Reference Validation Loan",
		StartDate:    "2025-01",
		Principal:    175000,
		InterestRate: 4.5,
		TermYears:    30,
	})
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}
	if len(schedule) != 360 {
		t.Fatalf("expected 360 payments, got %d", len(schedule))
	}

	reference := []struct {
		month     int
		principal float64
		interest  float64
		balance   float64
	}{
		{1, 230.45, 656.25, 174769.55},
		{12, 240.14, 646.56, 172176.85},
		{60, 287.40, 599.30, 159526.36},
		{240, 563.75, 322.95, 85557.02},
		{360, 883.39, 3.31, 0.00},
	}

	for _, ref := range reference {
		got := schedule[ref.month-1]
		if math.Abs(got.Principal-ref.principal) > 1.0 {
			t.Errorf("month %d principal = %.2f, expected %.2f", ref.month, got.Principal, ref.principal)
		}
		if math.Abs(got.Interest-ref.interest) > 1.0 {
			t.Errorf("month %d interest = %.2f, expected %.2f", ref.month, got.Interest, ref.interest)
		}
		if math.Abs(got.RemainingPrincipal-ref.balance) > 1.0 {
			t.Errorf("month %d balance = %.2f, expected %.2f", ref.month, got.RemainingPrincipal, ref.balance)
		}
	}

	if schedule[0].Month != "2025-01" || schedule[359].Month != "2054-12" {
		t.Errorf("unexpected schedule months %s..%s", schedule[0].Month, schedule[359].Month)
	}
}

func TestGenerateScheduleExtraPrincipal(t *testing.T) {
	generator := NewAmortizationScheduleGenerator(zap.NewNop())

	schedule, err := generator.GenerateSchedule(LoanConfig{
		Name:           "Accelerated",
		StartDate:      "2025-01",
		Principal:      10000,
		InterestRate:   5,
		TermYears:      5,
		ExtraPrincipal: 500,
	})
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}
	if len(schedule) >= 60 {
		t.Fatalf("expected early payoff, got %d payments", len(schedule))
	}

	last := schedule[len(schedule)-1]
	if last.RemainingPrincipal != 0 {
		t.Errorf("expected zero final balance, got %.2f", last.RemainingPrincipal)
	}

	principalPaid := 0.0
	for _, p := range schedule {
		principalPaid += p.Principal
	}
	if math.Abs(principalPaid-10000) > 0.01 {
		t.Errorf("principal paid = %.2f, expected 10000", principalPaid)
	}
}

func TestGenerateScheduleErrors(t *testing.T) {
	generator := NewAmortizationScheduleGenerator(nil)

	if _, err := generator.GenerateSchedule(LoanConfig{Name: "bad", Principal: 1000, TermYears: 0}); err == nil {
		t.Errorf("expected error for zero term")
	}

	for _, loan := range []LoanConfig{
		{Name: "too long", Principal: 100000, InterestRate: 5, TermYears: 51},
		{Name: "huge term", Principal: 100000, InterestRate: 5, TermYears: 200000000},
		{Name: "infinite principal", Principal: math.Inf(1), InterestRate: 5, TermYears: 30},
		{Name: "nan principal", Principal: math.NaN(), InterestRate: 5, TermYears: 30},
	} {
		if schedule, err := generator.GenerateSchedule(loan); err == nil {
			t.Errorf("%s: expected error, got %d payments", loan.Name, len(schedule))
		}
	}

	schedule, err := generator.GenerateSchedule(LoanConfig{Name: "max", Principal: 100000, InterestRate: 5, TermYears: 50})
	if err != nil {
		t.Fatalf("unexpected error at the maximum term: %v", err)
	}
	if len(schedule) != 600 {
		t.Errorf("schedule length = %d, expected 600", len(schedule))
	}

	schedule, err = generator.GenerateSchedule(LoanConfig{Name: "paid", Principal: 0, TermYears: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schedule != nil {
		t.Errorf("expected nil schedule for zero principal")
	}

	if _, err := generator.GenerateSchedule(LoanConfig{Name: "bad month", StartDate: "January", Principal: 1000, InterestRate: 5, TermYears: 1}); err == nil {
		t.Errorf("expected error for malformed start month")
	}
}

func TestSummarizeSchedule(t *testing.T) {
	generator := NewAmortizationScheduleGenerator(zap.NewNop())
	schedule, err := generator.GenerateSchedule(LoanConfig{
		Name:         "Summary",
		StartDate:    "2025-01",
		Principal:    160000,
		InterestRate: 6,
		TermYears:    30,
	})
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}

	summary := SummarizeSchedule(schedule)
	if summary.Months != 360 {
		t.Errorf("Months = %d, expected 360", summary.Months)
	}
	if math.Abs(summary.MonthlyPayment-959.28) > 0.01 {
		t.Errorf("MonthlyPayment = %.2f, expected 959.28", summary.MonthlyPayment)
	}
	if math.Abs(summary.TotalInterest-(summary.TotalPaid-160000)) > 0.05 {
		t.Errorf("TotalInterest %.2f inconsistent with TotalPaid %.2f", summary.TotalInterest, summary.TotalPaid)
	}
	if summary.PayoffMonth != "2054-12" {
		t.Errorf("PayoffMonth = %s, expected 2054-12", summary.PayoffMonth)
	}

	if empty := SummarizeSchedule(nil); empty.Months != 0 || empty.TotalPaid != 0 {
		t.Errorf("expected zero summary for empty schedule")
	}
}
