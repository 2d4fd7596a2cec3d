package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iwvelando/rental-metrics/internal/analysis"
	"github.com/iwvelando/rental-metrics/internal/config"
	"github.com/iwvelando/rental-metrics/internal/logging"
	"github.com/iwvelando/rental-metrics/internal/rentestimate"
	"github.com/iwvelando/rental-metrics/internal/store"
	"github.com/iwvelando/rental-metrics/pkg/constants"
	"github.com/iwvelando/rental-metrics/pkg/output"
	"github.com/iwvelando/rental-metrics/pkg/validation"
)

// run loads the configuration, analyses it and writes the report to w.
func run(ctx context.Context, logger *zap.Logger, conf *config.Configuration, outputFormat string, now time.Time, w io.Writer) error {
	if err := conf.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	prefs, err := store.Open(logger, conf.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open preferences store: %w", err)
	}
	defer func() {
		if err := prefs.Close(); err != nil {
			logger.Warn("failed to close preferences store",
				zap.String("op", "main.run"),
				zap.Error(err),
			)
		}
	}()

	estimator, err := rentestimate.FromConfig(logger, conf.RentEstimator)
	if err != nil {
		return err
	}

	report, err := analysis.Run(ctx, logger, *conf, now, analysis.Options{
		Store:         prefs,
		RentEstimator: estimator,
		Concurrency:   conf.RentEstimator.Concurrency,
	})
	if err != nil {
		return fmt.Errorf("failed to compute metrics: %w", err)
	}

	return output.Write(w, outputFormat, report)
}

func main() {
	// Values from a local .env file fill in secrets such as the rent
	// estimator API key; real environment variables win.
	_ = godotenv.Load()

	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, yaml")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}
	conf.Output.Format = outputFormat

	if err := run(context.Background(), logger, conf, outputFormat, time.Now(), os.Stdout); err != nil {
		logger.Fatal("failed to produce report",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
