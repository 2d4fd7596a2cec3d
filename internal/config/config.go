// Package config defines the data structures related to configuration and
// includes functions for loading, parsing and validating the config.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/iwvelando/rental-metrics/pkg/constants"
	"github.com/iwvelando/rental-metrics/pkg/datetime"
	"github.com/iwvelando/rental-metrics/pkg/financing"
	"github.com/iwvelando/rental-metrics/pkg/mathutil"
	"github.com/iwvelando/rental-metrics/pkg/validation"
)

// Configuration holds all configuration for rental-metrics.
type Configuration struct {
	AsOf          string              `yaml:"asOf,omitempty"`
	Logging       LoggingConfig       `yaml:"logging,omitempty"`
	Output        OutputConfig        `yaml:"output,omitempty"`
	Financing     FinancingConfig     `yaml:"financing"`
	Estimates     EstimatesConfig     `yaml:"estimates,omitempty"`
	Portfolio     PortfolioConfig     `yaml:"portfolio"`
	Listings      []ListingConfig     `yaml:"listings,omitempty"`
	RentPeriods   []RentPeriodConfig  `yaml:"rentPeriods,omitempty"`
	Lease         *LeaseConfig        `yaml:"lease,omitempty"`
	Store         StoreConfig         `yaml:"store,omitempty"`
	RentEstimator RentEstimatorConfig `yaml:"rentEstimator,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// FinancingConfig is the purchase strategy applied to listings. Only the down
// payment field selected by DownPaymentType is used.
type FinancingConfig struct {
	DownPaymentType    string  `yaml:"downPaymentType"`
	DownPaymentPercent float64 `yaml:"downPaymentPercent,omitempty"`
	DownPaymentAmount  float64 `yaml:"downPaymentAmount,omitempty"`
	InterestRate       float64 `yaml:"interestRate"`
	LoanTermYears      int     `yaml:"loanTermYears"`
}

// EstimatesConfig tunes the tax and insurance heuristics. Rates are annual
// percentages of price; zero means the built-in default.
type EstimatesConfig struct {
	DefaultTaxRate float64            `yaml:"defaultTaxRate,omitempty"`
	InsuranceRate  float64            `yaml:"insuranceRate,omitempty"`
	StateTaxRates  map[string]float64 `yaml:"stateTaxRates,omitempty"`
}

// PortfolioConfig holds the owned properties. Baseline, when present, is the
// saved state the properties are compared against; otherwise the properties
// as loaded are the baseline.
type PortfolioConfig struct {
	ID         string           `yaml:"id,omitempty"`
	Properties []PropertyConfig `yaml:"properties"`
	Baseline   []PropertyConfig `yaml:"baseline,omitempty"`
}

// PropertyConfig is an owned property. Costs are monthly.
type PropertyConfig struct {
	ID            string
	Address       string
	State         string
	MarketValue   float64
	Debt          float64
	Rent          float64
	HOA           float64
	RETax         float64
	Insurance     float64
	OtherExpenses float64
	InterestRate  float64
	LoanTermYears int
}

// ListingConfig is a prospective purchase. Nil tax and insurance are estimated.
type ListingConfig struct {
	ID                 string
	Address            string
	State              string
	ZipCode            string
	Bedrooms           int
	Price              float64
	ExpectedRent       float64
	HOA                float64
	MonthlyPropertyTax *float64
	MonthlyInsurance   *float64
	OtherCosts         float64
	Interested         bool
}

// RentPeriodConfig is one span of rent history with YYYY-MM-DD dates.
type RentPeriodConfig struct {
	ID          string
	StartDate   string
	EndDate     string
	MonthlyRent float64
}

// LeaseConfig bounds the rent periods. An empty EndDate is open-ended.
type LeaseConfig struct {
	StartDate string
	EndDate   string
}

// StoreConfig selects the preferences store. An empty Path keeps preferences
// in memory.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"`
}

// RentEstimatorConfig configures the external rent estimate service. The
// estimator is disabled when BaseURL is empty.
type RentEstimatorConfig struct {
	BaseURL     string  `yaml:"baseURL,omitempty"`
	APIKey      string  `yaml:"apiKey,omitempty"`
	RateLimit   float64 `yaml:"rateLimit,omitempty"` // requests per second
	Concurrency int     `yaml:"concurrency,omitempty"`
	Timeout     string  `yaml:"timeout,omitempty"` // Go duration, e.g. 10s
}

// Enabled reports whether a rent estimator is configured.
func (r RentEstimatorConfig) Enabled() bool {
	return strings.TrimSpace(r.BaseURL) != ""
}

// TimeoutDuration parses Timeout, returning 0 when unset.
func (r RentEstimatorConfig) TimeoutDuration() (time.Duration, error) {
	if strings.TrimSpace(r.Timeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid rent estimator timeout %q: %w", r.Timeout, err)
	}
	return d, nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Secrets normally come from the environment rather than the file.
	_ = v.BindEnv("rentestimator.apikey")
	_ = v.BindEnv("rentestimator.baseurl")
	_ = v.BindEnv("store.path")
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.ApplyDefaults()
	return &configuration, nil
}

// ApplyDefaults fills unset options with their defaults.
func (c *Configuration) ApplyDefaults() {
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}
	if c.Portfolio.ID == "" {
		c.Portfolio.ID = constants.DefaultPortfolioID
	}
	if c.Financing.LoanTermYears == 0 {
		c.Financing.LoanTermYears = constants.DefaultLoanTermYears
	}
	if c.RentEstimator.RateLimit <= 0 {
		c.RentEstimator.RateLimit = constants.DefaultRentEstimatorRateLimit
	}
	if c.RentEstimator.Concurrency <= 0 {
		c.RentEstimator.Concurrency = constants.DefaultRentEstimatorConcurrency
	}
	for i := range c.Portfolio.Properties {
		if c.Portfolio.Properties[i].ID == "" {
			c.Portfolio.Properties[i].ID = fmt.Sprintf("property-%d", i+1)
		}
	}
	for i := range c.Portfolio.Baseline {
		if c.Portfolio.Baseline[i].ID == "" {
			c.Portfolio.Baseline[i].ID = fmt.Sprintf("property-%d", i+1)
		}
	}
	for i := range c.Listings {
		if c.Listings[i].ID == "" {
			c.Listings[i].ID = fmt.Sprintf("listing-%d", i+1)
		}
	}
}

// LegacyFinancing returns the financing section in its flat wire shape.
func (c *Configuration) LegacyFinancing() financing.LegacyFields {
	return financing.LegacyFields{
		DownPaymentType:    c.Financing.DownPaymentType,
		DownPaymentPercent: c.Financing.DownPaymentPercent,
		DownPaymentAmount:  c.Financing.DownPaymentAmount,
		InterestRate:       c.Financing.InterestRate,
		LoanTermYears:      c.Financing.LoanTermYears,
	}
}

// Strategy converts the financing section into a strategy.
func (c *Configuration) Strategy() (financing.Strategy, error) {
	return financing.FromLegacy(c.LegacyFinancing())
}

// AsOfDate returns the configured evaluation date, or now when unset.
func (c *Configuration) AsOfDate(now time.Time) (time.Time, error) {
	if strings.TrimSpace(c.AsOf) == "" {
		return datetime.TruncateToDay(now), nil
	}
	return datetime.ParseDate(c.AsOf)
}

// Validate returns every hard error in the configuration combined into one.
func (c *Configuration) Validate() error {
	var err error

	if e := validation.ValidateOutputFormat(c.Output.Format); e != nil {
		err = multierr.Append(err, e)
	}

	if _, e := c.AsOfDate(time.Now()); e != nil {
		err = multierr.Append(err, fmt.Errorf("asOf: %w", e))
	}

	strategy, e := c.Strategy()
	if e != nil {
		err = multierr.Append(err, fmt.Errorf("financing: %w", e))
	} else if e := strategy.Validate(0); e != nil {
		err = multierr.Append(err, fmt.Errorf("financing: %w", e))
	}

	err = multierr.Append(err, validateProperties("portfolio.properties", c.Portfolio.Properties))
	err = multierr.Append(err, validateProperties("portfolio.baseline", c.Portfolio.Baseline))

	for i, listing := range c.Listings {
		label := fmt.Sprintf("listings[%d] (%s)", i, listing.ID)
		amounts := []amount{
			{"price", listing.Price},
			{"expectedRent", listing.ExpectedRent},
			{"hoa", listing.HOA},
			{"otherCosts", listing.OtherCosts},
		}
		if listing.MonthlyPropertyTax != nil {
			amounts = append(amounts, amount{"monthlyPropertyTax", *listing.MonthlyPropertyTax})
		}
		if listing.MonthlyInsurance != nil {
			amounts = append(amounts, amount{"monthlyInsurance", *listing.MonthlyInsurance})
		}
		err = multierr.Append(err, validateAmounts(label, amounts))
		if strategy.DownPayment.Type != "" {
			if e := strategy.Validate(listing.Price); e != nil {
				err = multierr.Append(err, fmt.Errorf("%s: %w", label, e))
			}
		}
	}

	for i, period := range c.RentPeriods {
		if _, e := datetime.ParseDate(period.StartDate); e != nil {
			err = multierr.Append(err, fmt.Errorf("rentPeriods[%d].startDate: %w", i, e))
		}
		if _, e := datetime.ParseDate(period.EndDate); e != nil {
			err = multierr.Append(err, fmt.Errorf("rentPeriods[%d].endDate: %w", i, e))
		}
	}

	if c.Lease != nil {
		if _, e := datetime.ParseDate(c.Lease.StartDate); e != nil {
			err = multierr.Append(err, fmt.Errorf("lease.startDate: %w", e))
		}
		if c.Lease.EndDate != "" {
			if _, e := datetime.ParseDate(c.Lease.EndDate); e != nil {
				err = multierr.Append(err, fmt.Errorf("lease.endDate: %w", e))
			}
		}
	}

	if _, e := c.RentEstimator.TimeoutDuration(); e != nil {
		err = multierr.Append(err, e)
	}

	return err
}

type amount struct {
	name  string
	value float64
}

// validateAmounts requires each amount to be finite and non-negative.
func validateAmounts(label string, amounts []amount) error {
	var err error
	for _, a := range amounts {
		if !mathutil.IsFinite(a.value) || a.value < 0 {
			err = multierr.Append(err, fmt.Errorf("%s: %s must be a non-negative number, got %v", label, a.name, a.value))
		}
	}
	return err
}

func validateProperties(section string, properties []PropertyConfig) error {
	var err error
	seen := make(map[string]bool, len(properties))
	for i, p := range properties {
		label := fmt.Sprintf("%s[%d] (%s)", section, i, p.ID)
		if seen[p.ID] {
			err = multierr.Append(err, fmt.Errorf("%s: duplicate id", label))
		}
		seen[p.ID] = true
		err = multierr.Append(err, validateAmounts(label, []amount{
			{"marketValue", p.MarketValue},
			{"debt", p.Debt},
			{"rent", p.Rent},
			{"hoa", p.HOA},
			{"reTax", p.RETax},
			{"insurance", p.Insurance},
			{"otherExpenses", p.OtherExpenses},
			{"interestRate", p.InterestRate},
		}))
		if p.LoanTermYears < 0 || p.LoanTermYears > constants.MaxLoanTermYears {
			err = multierr.Append(err, fmt.Errorf("%s: loanTermYears must be between 0 and %d, got %d", label, constants.MaxLoanTermYears, p.LoanTermYears))
		}
	}
	return err
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	validator := validation.ConfigValidator{
		Financing:            c.LegacyFinancing(),
		RentEstimatorEnabled: c.RentEstimator.Enabled(),
	}

	for _, p := range c.Portfolio.Properties {
		validator.Properties = append(validator.Properties, validation.PropertyConfig{
			ID:           p.ID,
			Address:      p.Address,
			State:        p.State,
			MarketValue:  p.MarketValue,
			Debt:         p.Debt,
			InterestRate: p.InterestRate,
		})
	}

	for _, l := range c.Listings {
		validator.Listings = append(validator.Listings, validation.ListingConfig{
			ID:           l.ID,
			Address:      l.Address,
			State:        l.State,
			ZipCode:      l.ZipCode,
			Price:        l.Price,
			ExpectedRent: l.ExpectedRent,
		})
	}

	return validator.ValidateAll()
}
