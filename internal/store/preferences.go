package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/iwvelando/rental-metrics/internal/telemetry"
	"github.com/iwvelando/rental-metrics/pkg/financing"
	"github.com/iwvelando/rental-metrics/pkg/investment"
	"github.com/iwvelando/rental-metrics/pkg/portfolio"
)

// Well-known preference keys.
const (
	KeyFinancing    = "financing"
	KeyFilters      = "filters"
	KeyModifiedRows = "modifiedRows"
)

// Preferences reads and writes typed preferences for one portfolio.
type Preferences struct {
	store       Store
	portfolioID string
}

// NewPreferences scopes s to portfolioID.
func NewPreferences(s Store, portfolioID string) *Preferences {
	return &Preferences{store: s, portfolioID: portfolioID}
}

// PortfolioID returns the scope of p.
func (p *Preferences) PortfolioID() string {
	return p.portfolioID
}

func (p *Preferences) load(ctx context.Context, key string, v interface{}) (bool, error) {
	raw, err := p.store.Get(ctx, p.portfolioID, key)
	if errors.Is(err, ErrNotFound) {
		telemetry.PreferenceOperations.WithLabelValues("get", telemetry.StatusNotFound).Inc()
		return false, nil
	}
	if err == nil {
		if jsonErr := json.Unmarshal([]byte(raw), v); jsonErr != nil {
			err = fmt.Errorf("stored preference '%s' is corrupt: %w", key, jsonErr)
		}
	}
	telemetry.PreferenceOperations.WithLabelValues("get", telemetry.Outcome(err)).Inc()
	return err == nil, err
}

func (p *Preferences) save(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode preference '%s': %w", key, err)
	}
	err = p.store.Set(ctx, p.portfolioID, key, string(raw))
	telemetry.PreferenceOperations.WithLabelValues("set", telemetry.Outcome(err)).Inc()
	return err
}

// Financing returns the saved financing strategy, or fallback when none is saved.
func (p *Preferences) Financing(ctx context.Context, fallback financing.Strategy) (financing.Strategy, error) {
	var strategy financing.Strategy
	found, err := p.load(ctx, KeyFinancing, &strategy)
	if err != nil || !found {
		return fallback, err
	}
	return strategy, nil
}

// SaveFinancing stores the financing strategy.
func (p *Preferences) SaveFinancing(ctx context.Context, strategy financing.Strategy) error {
	if err := strategy.Validate(0); err != nil {
		return fmt.Errorf("refusing to save financing: %w", err)
	}
	return p.save(ctx, KeyFinancing, strategy)
}

// Filters returns the saved listing filter; the zero filter when none is saved.
func (p *Preferences) Filters(ctx context.Context) (investment.Filter, error) {
	var filter investment.Filter
	_, err := p.load(ctx, KeyFilters, &filter)
	return filter, err
}

// SaveFilters stores the listing filter.
func (p *Preferences) SaveFilters(ctx context.Context, filter investment.Filter) error {
	return p.save(ctx, KeyFilters, filter)
}

// ModifiedRows returns unsaved row edits keyed by row ID.
func (p *Preferences) ModifiedRows(ctx context.Context) (map[string]portfolio.PropertyData, error) {
	rows := map[string]portfolio.PropertyData{}
	_, err := p.load(ctx, KeyModifiedRows, &rows)
	return rows, err
}

// SaveModifiedRows stores unsaved edits. Temporary listing rows are never cached.
func (p *Preferences) SaveModifiedRows(ctx context.Context, rows []portfolio.PropertyData) error {
	byID := make(map[string]portfolio.PropertyData, len(rows))
	for _, row := range portfolio.ClearTemporary(rows) {
		byID[row.ID] = row
	}
	return p.save(ctx, KeyModifiedRows, byID)
}

// ApplyModifiedRows overlays cached edits onto rows and recalculates them.
// Cached rows that no longer exist are ignored; rows flagged IsNew in the
// cache are appended in ID order.
func (p *Preferences) ApplyModifiedRows(ctx context.Context, rows []portfolio.PropertyData) ([]portfolio.PropertyData, error) {
	modified, err := p.ModifiedRows(ctx)
	if err != nil {
		return rows, err
	}

	out := make([]portfolio.PropertyData, 0, len(rows))
	applied := make(map[string]bool, len(modified))
	for _, row := range rows {
		if edit, ok := modified[row.ID]; ok {
			row = edit
			applied[row.ID] = true
		}
		out = append(out, row)
	}
	var added []portfolio.PropertyData
	for id, row := range modified {
		if !applied[id] && row.IsNew {
			added = append(added, row)
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i].ID < added[j].ID })
	out = append(out, added...)
	return portfolio.RecalculateAll(out), nil
}

// Reset clears every preference for the portfolio.
func (p *Preferences) Reset(ctx context.Context) error {
	err := p.store.Clear(ctx, p.portfolioID)
	telemetry.PreferenceOperations.WithLabelValues("clear", telemetry.Outcome(err)).Inc()
	return err
}
