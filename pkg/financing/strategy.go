// Package financing models how a purchase is financed. The down payment is a
// tagged union: exactly one representation (percent of price or fixed amount)
// is stored, and the other is derived from the price on demand.
package financing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/rental-metrics/pkg/constants"
	"github.com/iwvelando/rental-metrics/pkg/mathutil"
)

// DownPaymentType selects which representation of the down payment is authoritative.
type DownPaymentType string

const (
	// DownPaymentPercent stores the down payment as a percent of price (0-100).
	DownPaymentPercent DownPaymentType = "percent"

	// DownPaymentAmount stores the down payment as a fixed currency amount.
	DownPaymentAmount DownPaymentType = "amount"
)

// ErrDownPaymentExceedsPrice is returned by Validate when a fixed down payment
// is larger than the purchase price.
var ErrDownPaymentExceedsPrice = errors.New("down payment exceeds price")

// DownPayment is the single source of truth for a down payment.
type DownPayment struct {
	Type  DownPaymentType `json:"type" yaml:"type"`
	Value float64         `json:"value" yaml:"value"`
}

// Percent builds a percent-of-price down payment.
func Percent(percent float64) DownPayment {
	return DownPayment{Type: DownPaymentPercent, Value: percent}
}

// Amount builds a fixed-amount down payment.
func Amount(amount float64) DownPayment {
	return DownPayment{Type: DownPaymentAmount, Value: amount}
}

// AmountFor resolves the down payment in currency for the given price. Fixed
// amounts are returned as-is and are not clamped to the price.
func (d DownPayment) AmountFor(price float64) float64 {
	if d.Type == DownPaymentAmount {
		return d.Value
	}
	return mathutil.ApplyPercentage(price, d.Value)
}

// PercentOf resolves the down payment as a percent of price; 0 when the price is 0.
func (d DownPayment) PercentOf(price float64) float64 {
	if d.Type == DownPaymentAmount {
		return mathutil.CalculatePercentage(d.Value, price)
	}
	return d.Value
}

// AsAmount converts to the fixed-amount representation for the given price.
func (d DownPayment) AsAmount(price float64) DownPayment {
	return Amount(d.AmountFor(price))
}

// AsPercent converts to the percent representation for the given price.
func (d DownPayment) AsPercent(price float64) DownPayment {
	return Percent(d.PercentOf(price))
}

// Strategy is the financing configuration applied to a purchase.
type Strategy struct {
	DownPayment   DownPayment `json:"downPayment" yaml:"downPayment"`
	InterestRate  float64     `json:"interestRate" yaml:"interestRate"` // annual percent
	LoanTermYears int         `json:"loanTermYears" yaml:"loanTermYears"`
}

// DefaultStrategy is a conventional 20% down, 30 year fixed loan.
func DefaultStrategy() Strategy {
	return Strategy{
		DownPayment:   Percent(20),
		InterestRate:  7.0,
		LoanTermYears: constants.DefaultLoanTermYears,
	}
}

// LoanAmount is the financed principal, price minus the resolved down payment.
func (s Strategy) LoanAmount(price float64) float64 {
	return price - s.DownPayment.AmountFor(price)
}

// Validate rejects financing inputs the metrics engine does not guard against.
// A price of 0 skips the price-relative checks.
func (s Strategy) Validate(price float64) error {
	if !mathutil.IsFinite(s.DownPayment.Value) || !mathutil.IsFinite(s.InterestRate) || !mathutil.IsFinite(price) {
		return fmt.Errorf("financing values must be finite")
	}
	switch s.DownPayment.Type {
	case DownPaymentPercent:
		if s.DownPayment.Value < 0 || s.DownPayment.Value > constants.PercentageMultiplier {
			return fmt.Errorf("down payment percent must be between 0 and 100, got %.2f", s.DownPayment.Value)
		}
	case DownPaymentAmount:
		if s.DownPayment.Value < 0 {
			return fmt.Errorf("down payment amount must be non-negative, got %.2f", s.DownPayment.Value)
		}
		if price > 0 && s.DownPayment.Value > price {
			return fmt.Errorf("%w: %.2f > %.2f", ErrDownPaymentExceedsPrice, s.DownPayment.Value, price)
		}
	default:
		return fmt.Errorf("unknown down payment type %q", s.DownPayment.Type)
	}
	if s.InterestRate < 0 {
		return fmt.Errorf("interest rate must be non-negative, got %.3f", s.InterestRate)
	}
	if s.LoanTermYears <= 0 {
		return fmt.Errorf("loan term must be positive, got %d years", s.LoanTermYears)
	}
	if s.LoanTermYears > constants.MaxLoanTermYears {
		return fmt.Errorf("loan term must be at most %d years, got %d", constants.MaxLoanTermYears, s.LoanTermYears)
	}
	if price < 0 {
		return fmt.Errorf("price must be non-negative, got %.2f", price)
	}
	return nil
}

// LegacyFields is the flat shape in which older configs and clients send a
// financing strategy, with both down payment fields present.
type LegacyFields struct {
	DownPaymentType    string  `json:"downPaymentType" yaml:"downPaymentType"`
	DownPaymentPercent float64 `json:"downPaymentPercent" yaml:"downPaymentPercent"`
	DownPaymentAmount  float64 `json:"downPaymentAmount" yaml:"downPaymentAmount"`
	InterestRate       float64 `json:"interestRate" yaml:"interestRate"`
	LoanTermYears      int     `json:"loanTermYears" yaml:"loanTermYears"`
}

// FromLegacy keeps only the field selected by DownPaymentType; the other is
// discarded because it may be stale. An empty type means percent. Unknown
// types are an error.
func FromLegacy(fields LegacyFields) (Strategy, error) {
	strategy := Strategy{
		InterestRate:  fields.InterestRate,
		LoanTermYears: fields.LoanTermYears,
	}
	switch DownPaymentType(strings.ToLower(strings.TrimSpace(fields.DownPaymentType))) {
	case "", DownPaymentPercent:
		strategy.DownPayment = Percent(fields.DownPaymentPercent)
	case DownPaymentAmount:
		strategy.DownPayment = Amount(fields.DownPaymentAmount)
	default:
		return Strategy{}, fmt.Errorf("unknown down payment type %q", fields.DownPaymentType)
	}
	return strategy, nil
}

// ToLegacy renders the flat shape for display, deriving the non-authoritative
// field from the price.
func (s Strategy) ToLegacy(price float64) LegacyFields {
	return LegacyFields{
		DownPaymentType:    string(s.DownPayment.Type),
		DownPaymentPercent: s.DownPayment.PercentOf(price),
		DownPaymentAmount:  s.DownPayment.AmountFor(price),
		InterestRate:       s.InterestRate,
		LoanTermYears:      s.LoanTermYears,
	}
}
