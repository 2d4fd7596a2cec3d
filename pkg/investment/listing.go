package investment

import (
	"github.com/iwvelando/rental-metrics/pkg/estimate"
	"github.com/iwvelando/rental-metrics/pkg/financing"
)

// Listing is a market listing under consideration. ExpectedRent may be filled
// in later by a rent estimation service.
type Listing struct {
	ID         string `json:"id"`
	Address    string `json:"address"`
	ZipCode    string `json:"zipCode,omitempty"`
	Bedrooms   int    `json:"bedrooms,omitempty"`
	Interested bool   `json:"interested,omitempty"`
	Input
}

// ListingEvaluation pairs a listing with its computed metrics.
type ListingEvaluation struct {
	Listing Listing `json:"listing"`
	Metrics Metrics `json:"metrics"`
}

// EvaluateListings computes metrics for every listing with the same strategy.
func EvaluateListings(listings []Listing, strategy financing.Strategy, estimator estimate.Estimator) []ListingEvaluation {
	results := make([]ListingEvaluation, 0, len(listings))
	for _, listing := range listings {
		results = append(results, ListingEvaluation{
			Listing: listing,
			Metrics: Evaluate(listing.Input, strategy, estimator),
		})
	}
	return results
}
