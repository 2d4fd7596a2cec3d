package rentperiods

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/iwvelando/rental-metrics/pkg/constants"
	"github.com/iwvelando/rental-metrics/pkg/datetime"
)

// Errors reported by ValidateSubmission, each wrapped with the offending period.
var (
	ErrEndBeforeStart  = errors.New("end date is before start date")
	ErrNonPositiveRent = errors.New("monthly rent must be greater than zero")
	ErrPeriodTooLong   = fmt.Errorf("period exceeds %d days", constants.MaxRentPeriodDays)
	ErrOutsideLease    = errors.New("period falls outside the lease")
	ErrOverlap         = errors.New("periods overlap")
)

// Lease bounds the periods that may be submitted. A zero EndDate means the
// lease is open-ended.
type Lease struct {
	StartDate Date `json:"startDate" yaml:"startDate"`
	EndDate   Date `json:"endDate,omitempty" yaml:"endDate,omitempty"`
}

// ValidateSubmission is the strict pass run before rent periods are saved.
// Every violation is reported; the result combines them with multierr.
func ValidateSubmission(periods []Period, lease *Lease) error {
	var err error

	for i, p := range periods {
		if p.StartDate.IsZero() || p.EndDate.IsZero() {
			err = multierr.Append(err, fmt.Errorf("period %d: start and end dates are required", i))
			continue
		}
		if p.EndDate.Before(p.StartDate.Time) {
			err = multierr.Append(err, fmt.Errorf("period %d (%s to %s): %w", i, p.StartDate, p.EndDate, ErrEndBeforeStart))
		}
		if p.MonthlyRent <= 0 {
			err = multierr.Append(err, fmt.Errorf("period %d: %w, got %v", i, ErrNonPositiveRent, p.MonthlyRent))
		}
		if days := datetime.DaysBetween(p.StartDate.Time, p.EndDate.Time); days > constants.MaxRentPeriodDays {
			err = multierr.Append(err, fmt.Errorf("period %d spans %d days: %w", i, days, ErrPeriodTooLong))
		}
		if lease != nil {
			if !lease.StartDate.IsZero() && p.StartDate.Before(lease.StartDate.Time) {
				err = multierr.Append(err, fmt.Errorf("period %d starts %s before lease start %s: %w", i, p.StartDate, lease.StartDate, ErrOutsideLease))
			}
			if !lease.EndDate.IsZero() && p.EndDate.After(lease.EndDate.Time) {
				err = multierr.Append(err, fmt.Errorf("period %d ends %s after lease end %s: %w", i, p.EndDate, lease.EndDate, ErrOutsideLease))
			}
		}
	}

	for i := 0; i < len(periods); i++ {
		for j := i + 1; j < len(periods); j++ {
			if overlaps(periods[i], periods[j]) {
				err = multierr.Append(err, fmt.Errorf("periods %d and %d: %w", i, j, ErrOverlap))
			}
		}
	}

	return err
}

func overlaps(a, b Period) bool {
	if a.StartDate.IsZero() || a.EndDate.IsZero() || b.StartDate.IsZero() || b.EndDate.IsZero() {
		return false
	}
	return !a.StartDate.After(b.EndDate.Time) && !b.StartDate.After(a.EndDate.Time)
}
