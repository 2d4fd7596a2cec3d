package rentestimate

import (
	"go.uber.org/zap"

	"github.com/iwvelando/rental-metrics/internal/config"
)

// FromConfig builds an estimator from configuration. It returns a nil
// Estimator when no service is configured.
func FromConfig(logger *zap.Logger, cfg config.RentEstimatorConfig) (Estimator, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	rateLimit := cfg.RateLimit
	if rateLimit == 0 {
		rateLimit = DefaultRateLimit
	}

	return NewClient(cfg.BaseURL,
		WithLogger(logger),
		WithAPIKey(cfg.APIKey),
		WithRateLimit(rateLimit),
		WithTimeout(timeout),
	), nil
}
