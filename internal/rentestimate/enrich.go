package rentestimate

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/iwvelando/rental-metrics/pkg/investment"
)

// DefaultConcurrency bounds simultaneous lookups in EnrichListings.
const DefaultConcurrency = 4

// Estimator is the lookup EnrichListings depends on.
type Estimator interface {
	EstimateRent(ctx context.Context, zipCode string, bedrooms int) (float64, error)
}

// Result is the outcome of one listing's lookup.
type Result struct {
	ListingID string
	Rent      float64
	Err       error
	Skipped   bool
}

// EnrichListings fills ExpectedRent for listings that have none, looking up
// each one independently. A failed lookup leaves its listing unchanged and
// is reported in its Result; it never cancels the others. The returned
// listings and results are in input order.
func EnrichListings(ctx context.Context, logger *zap.Logger, estimator Estimator, listings []investment.Listing, concurrency int) ([]investment.Listing, []Result) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	enriched := make([]investment.Listing, len(listings))
	copy(enriched, listings)
	results := make([]Result, len(listings))

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i := range enriched {
		listing := enriched[i]
		results[i].ListingID = listing.ID
		if listing.ExpectedRent > 0 || listing.ZipCode == "" {
			results[i].Skipped = true
			continue
		}

		wg.Add(1)
		go func(i int, listing investment.Listing) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i].Err = ctx.Err()
				return
			}

			rent, err := estimator.EstimateRent(ctx, listing.ZipCode, listing.Bedrooms)
			if err != nil {
				results[i].Err = err
				logger.Warn("rent estimate lookup failed",
					zap.String("op", "rentestimate.EnrichListings"),
					zap.String("listing", listing.ID),
					zap.Error(err),
				)
				return
			}
			results[i].Rent = rent
			enriched[i].ExpectedRent = rent
		}(i, listing)
	}

	wg.Wait()
	return enriched, results
}
