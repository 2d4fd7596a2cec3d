package investment

import (
	"strings"
)

// Filter narrows a set of evaluated listings. Zero-valued fields do not filter.
type Filter struct {
	States            []string `json:"states,omitempty"`
	MaxPrice          float64  `json:"maxPrice,omitempty"`
	MinCashflow       *float64 `json:"minCashflow,omitempty"`
	MinCapRate        *float64 `json:"minCapRate,omitempty"`
	MinCashOnCash     *float64 `json:"minCashOnCash,omitempty"`
	Meets1PercentRule bool     `json:"meets1PercentRule,omitempty"`
	InterestedOnly    bool     `json:"interestedOnly,omitempty"`
}

// Matches reports whether e passes every active criterion. A listing whose
// cap rate is undefined never passes a MinCapRate criterion.
func (f Filter) Matches(e ListingEvaluation) bool {
	if len(f.States) > 0 && !containsFold(f.States, e.Listing.State) {
		return false
	}
	if f.MaxPrice > 0 && e.Listing.Price > f.MaxPrice {
		return false
	}
	if f.MinCashflow != nil && e.Metrics.MonthlyNetIncome < *f.MinCashflow {
		return false
	}
	if f.MinCapRate != nil && (e.Metrics.CapRate == nil || *e.Metrics.CapRate < *f.MinCapRate) {
		return false
	}
	if f.MinCashOnCash != nil && e.Metrics.CashOnCashReturn < *f.MinCashOnCash {
		return false
	}
	if f.Meets1PercentRule && !e.Metrics.Meets1PercentRule {
		return false
	}
	if f.InterestedOnly && !e.Listing.Interested {
		return false
	}
	return true
}

// Apply returns the evaluations that match f, preserving order.
func (f Filter) Apply(evaluations []ListingEvaluation) []ListingEvaluation {
	out := make([]ListingEvaluation, 0, len(evaluations))
	for _, e := range evaluations {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func containsFold(values []string, s string) bool {
	s = strings.TrimSpace(s)
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}
