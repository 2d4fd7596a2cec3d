// Package constants provides shared constants for the rental-metrics application.
package constants

// DateLayout is the day-precision format expected in config files and API
// payloads for rent periods and payment records.
const DateLayout = "2006-01-02"

// MonthLayout is the month-precision format used for amortization schedules.
const MonthLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// DefaultLoanTermYears is the amortization term applied to portfolio rows
	// that do not carry their own term.
	DefaultLoanTermYears = 30

	// MaxLoanTermYears bounds loan terms accepted from configs and requests.
	MaxLoanTermYears = 50
)

// Investment rule thresholds
const (
	// OnePercentRule is the monthly rent to price ratio of the 1% rule.
	OnePercentRule = 0.01

	// TwoPercentRule is the monthly rent to price ratio of the 2% rule.
	TwoPercentRule = 0.02

	// FiftyPercentRule is the share of rent reserved for non-debt expenses.
	FiftyPercentRule = 0.5
)

// Estimation defaults
const (
	// DefaultPropertyTaxRate is the annual property tax rate (percent of price)
	// used when the state is unknown.
	DefaultPropertyTaxRate = 1.1

	// DefaultInsuranceRate is the annual insurance premium (percent of price).
	DefaultInsuranceRate = 0.5
)

// Rent period limits
const (
	// MaxRentPeriodDays is the longest rent period accepted on submission.
	MaxRentPeriodDays = 3650

	// HoursPerDay converts durations into whole days.
	HoursPerDay = 24
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatYAML dumps the full report as YAML
	OutputFormatYAML = "yaml"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// DefaultPortfolioID scopes preferences when no portfolio id is configured.
	DefaultPortfolioID = "default"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Rent estimator defaults
const (
	// DefaultRentEstimatorRateLimit is the default requests per second.
	DefaultRentEstimatorRateLimit = 5

	// DefaultRentEstimatorConcurrency bounds parallel lookups in a batch.
	DefaultRentEstimatorConcurrency = 4
)
