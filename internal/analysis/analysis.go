// Package analysis runs the full rental-metrics pipeline for a configuration:
// portfolio recalculation and roll-up, baseline comparison, listing
// evaluation and rent history validation.
package analysis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iwvelando/rental-metrics/internal/config"
	"github.com/iwvelando/rental-metrics/internal/rentestimate"
	"github.com/iwvelando/rental-metrics/internal/store"
	"github.com/iwvelando/rental-metrics/internal/telemetry"
	"github.com/iwvelando/rental-metrics/pkg/adapters"
	"github.com/iwvelando/rental-metrics/pkg/baseline"
	"github.com/iwvelando/rental-metrics/pkg/financing"
	"github.com/iwvelando/rental-metrics/pkg/investment"
	"github.com/iwvelando/rental-metrics/pkg/portfolio"
	"github.com/iwvelando/rental-metrics/pkg/rentperiods"
)

// Options supplies the optional collaborators of Run.
type Options struct {
	// Store, when set, supplies saved financing, filters and unsaved row
	// edits for the configured portfolio.
	Store store.Store
	// RentEstimator, when set, fills in missing listing rents.
	RentEstimator rentestimate.Estimator
	// Concurrency bounds simultaneous rent lookups.
	Concurrency int
}

// Report is the outcome of one analysis run.
type Report struct {
	AsOf        time.Time          `json:"asOf"`
	PortfolioID string             `json:"portfolioId"`
	Strategy    financing.Strategy `json:"strategy"`

	Rows            []portfolio.PropertyData `json:"rows"`
	Summary         portfolio.Summary        `json:"summary"`
	BaselineSummary portfolio.Summary        `json:"baselineSummary"`
	RowChanges      baseline.Comparison      `json:"rowChanges"`
	SummaryChanges  baseline.SummaryChanges  `json:"summaryChanges"`

	Filter           investment.Filter              `json:"filter"`
	Listings         []investment.ListingEvaluation `json:"listings"`
	RentLookups      []rentestimate.Result          `json:"-"`
	TemporaryRows    []portfolio.PropertyData       `json:"temporaryRows,omitempty"`
	ProjectedSummary *portfolio.Summary             `json:"projectedSummary,omitempty"`

	RentPeriods       []rentperiods.Period        `json:"rentPeriods,omitempty"`
	RentWarnings      []rentperiods.Warning       `json:"rentWarnings,omitempty"`
	SubmissionErrors  []string                    `json:"submissionErrors,omitempty"`
	PaymentRecords    []rentperiods.PaymentRecord `json:"paymentRecords,omitempty"`
	ExpectedRentTotal float64                     `json:"expectedRentTotal"`

	Warnings []string `json:"warnings,omitempty"`
}

// Run executes the pipeline for conf as of today.
func Run(ctx context.Context, logger *zap.Logger, conf config.Configuration, today time.Time, opts Options) (report Report, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	defer func() {
		telemetry.Calculations.WithLabelValues("analysis", telemetry.Outcome(err)).Inc()
	}()

	report.AsOf, err = conf.AsOfDate(today)
	if err != nil {
		return report, fmt.Errorf("invalid asOf date: %w", err)
	}
	report.PortfolioID = conf.Portfolio.ID
	report.Warnings = conf.ValidateConfiguration()

	report.Strategy, err = conf.Strategy()
	if err != nil {
		return report, fmt.Errorf("invalid financing: %w", err)
	}

	rows := adapters.PropertiesToRows(conf.Portfolio.Properties)
	baseRows := rows
	if len(conf.Portfolio.Baseline) > 0 {
		baseRows = adapters.PropertiesToRows(conf.Portfolio.Baseline)
	}

	if opts.Store != nil {
		prefs := store.NewPreferences(opts.Store, conf.Portfolio.ID)
		var prefErr error
		report.Strategy, prefErr = prefs.Financing(ctx, report.Strategy)
		err = multierr.Append(err, prefErr)
		report.Filter, prefErr = prefs.Filters(ctx)
		err = multierr.Append(err, prefErr)
		rows, prefErr = prefs.ApplyModifiedRows(ctx, rows)
		err = multierr.Append(err, prefErr)
		if err != nil {
			return report, fmt.Errorf("failed to load preferences for portfolio '%s': %w", conf.Portfolio.ID, err)
		}
		logger.Debug("preferences applied",
			zap.String("op", "analysis.Run"),
			zap.String("portfolio", conf.Portfolio.ID),
		)
	}

	snapshot := baseline.NewSnapshot(baseRows)
	report.Rows = rows
	report.Summary = portfolio.Aggregate(rows)
	report.BaselineSummary = snapshot.Summary()
	report.RowChanges = snapshot.CompareRows(rows)
	report.SummaryChanges = baseline.CompareSummaries(report.Summary, report.BaselineSummary)

	listings := adapters.ListingsToListings(conf.Listings)
	if opts.RentEstimator != nil && len(listings) > 0 {
		listings, report.RentLookups = rentestimate.EnrichListings(ctx, logger, opts.RentEstimator, listings, opts.Concurrency)
		for _, result := range report.RentLookups {
			if result.Err != nil {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("Listing %s: rent estimate unavailable: %v", result.ListingID, result.Err))
			}
		}
	}

	estimator := adapters.EstimatesToEstimator(conf.Estimates)
	report.Listings = report.Filter.Apply(investment.EvaluateListings(listings, report.Strategy, estimator))

	for _, evaluation := range report.Listings {
		if evaluation.Listing.Interested {
			report.TemporaryRows = append(report.TemporaryRows,
				portfolio.NewTemporaryRow(evaluation.Listing, report.Strategy, estimator))
		}
	}
	if len(report.TemporaryRows) > 0 {
		projected := portfolio.Aggregate(append(append([]portfolio.PropertyData(nil), rows...), report.TemporaryRows...))
		report.ProjectedSummary = &projected
	}

	if err := runRentPeriods(logger, conf, &report); err != nil {
		return report, err
	}

	logger.Info("analysis complete",
		zap.String("op", "analysis.Run"),
		zap.String("portfolio", report.PortfolioID),
		zap.Int("properties", len(report.Rows)),
		zap.Int("listings", len(report.Listings)),
		zap.Int("rentWarnings", len(report.RentWarnings)),
	)

	return report, nil
}

func runRentPeriods(logger *zap.Logger, conf config.Configuration, report *Report) error {
	periods, err := adapters.RentPeriodsToPeriods(conf.RentPeriods)
	if err != nil {
		return err
	}
	lease, err := adapters.LeaseToLease(conf.Lease)
	if err != nil {
		return err
	}
	if len(periods) == 0 {
		return nil
	}

	report.RentPeriods = periods
	report.RentWarnings = rentperiods.Validate(periods, report.AsOf)
	for _, warning := range report.RentWarnings {
		telemetry.RentPeriodWarnings.WithLabelValues(string(warning.Type)).Inc()
		logger.Debug(warning.Message,
			zap.String("op", "analysis.runRentPeriods"),
			zap.String("type", string(warning.Type)),
		)
	}

	if err := rentperiods.ValidateSubmission(periods, lease); err != nil {
		for _, e := range multierr.Errors(err) {
			report.SubmissionErrors = append(report.SubmissionErrors, e.Error())
		}
		return nil
	}

	report.PaymentRecords = rentperiods.ExpandToMonthlyRecords(periods)
	report.ExpectedRentTotal = rentperiods.TotalExpected(periods)
	return nil
}
