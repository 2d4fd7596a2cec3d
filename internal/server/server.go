package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iwvelando/rental-metrics/internal/analysis"
	"github.com/iwvelando/rental-metrics/internal/config"
	"github.com/iwvelando/rental-metrics/internal/rentestimate"
	"github.com/iwvelando/rental-metrics/internal/store"
	"github.com/iwvelando/rental-metrics/internal/telemetry"
	"github.com/iwvelando/rental-metrics/pkg/baseline"
	"github.com/iwvelando/rental-metrics/pkg/constants"
	"github.com/iwvelando/rental-metrics/pkg/estimate"
	"github.com/iwvelando/rental-metrics/pkg/financing"
	"github.com/iwvelando/rental-metrics/pkg/investment"
	"github.com/iwvelando/rental-metrics/pkg/loans"
	"github.com/iwvelando/rental-metrics/pkg/output"
	"github.com/iwvelando/rental-metrics/pkg/portfolio"
	"github.com/iwvelando/rental-metrics/pkg/rentperiods"
)

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	store         store.Store
	estimator     rentestimate.Estimator
	concurrency   int
	now           func() time.Time
}

// HandlerOption configures the handler
type HandlerOption func(*handler)

// WithStore sets the preferences store. Without one preferences live in memory.
func WithStore(s store.Store) HandlerOption {
	return func(h *handler) {
		if s != nil {
			h.store = s
		}
	}
}

// WithRentEstimator enables rent lookups for listings submitted to /api/analysis.
func WithRentEstimator(estimator rentestimate.Estimator, concurrency int) HandlerOption {
	return func(h *handler) {
		h.estimator = estimator
		h.concurrency = concurrency
	}
}

// WithClock overrides the clock used for "today".
func WithClock(now func() time.Time) HandlerOption {
	return func(h *handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler constructs the HTTP handler that serves the metrics API.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, opts ...HandlerOption) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		store:         store.NewMemoryStore(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/investment/metrics", h.handleInvestmentMetrics)
	mux.HandleFunc("POST /api/portfolio/recalculate", h.handleRecalculate)
	mux.HandleFunc("POST /api/portfolio/aggregate", h.handleAggregate)
	mux.HandleFunc("POST /api/portfolio/diff", h.handleDiff)
	mux.HandleFunc("POST /api/rent-periods/validate", h.handleValidateRentPeriods)
	mux.HandleFunc("POST /api/rent-periods/expand", h.handleExpandRentPeriods)
	mux.HandleFunc("POST /api/amortization", h.handleAmortization)

	// Whole-configuration analysis (YAML body or multipart upload)
	mux.HandleFunc("POST /api/analysis", h.handleAnalysis)

	// Preferences scoped by portfolio
	mux.HandleFunc("GET /api/preferences/{portfolio}", h.handleListPreferences)
	mux.HandleFunc("DELETE /api/preferences/{portfolio}", h.handleClearPreferences)
	mux.HandleFunc("GET /api/preferences/{portfolio}/{key}", h.handleGetPreference)
	mux.HandleFunc("PUT /api/preferences/{portfolio}/{key}", h.handlePutPreference)
	mux.HandleFunc("DELETE /api/preferences/{portfolio}/{key}", h.handleDeletePreference)

	// Version endpoint for client metadata
	mux.HandleFunc("GET /api/version", h.handleVersion)

	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

// Request and response payloads.

type investmentRequest struct {
	Property  *investment.Input       `json:"property,omitempty"`
	Listings  []investment.Listing    `json:"listings,omitempty"`
	Financing json.RawMessage         `json:"financing,omitempty"`
	Estimates *config.EstimatesConfig `json:"estimates,omitempty"`
	Filter    *investment.Filter      `json:"filter,omitempty"`
}

type investmentResponse struct {
	Strategy financing.Strategy             `json:"strategy"`
	Metrics  *investment.Metrics            `json:"metrics,omitempty"`
	Listings []investment.ListingEvaluation `json:"listings,omitempty"`
}

type rowsRequest struct {
	Rows     []portfolio.PropertyData `json:"rows"`
	Baseline []portfolio.PropertyData `json:"baseline,omitempty"`
}

type diffResponse struct {
	Rows           []portfolio.PropertyData `json:"rows"`
	Summary        portfolio.Summary        `json:"summary"`
	RowChanges     baseline.Comparison      `json:"rowChanges"`
	SummaryChanges baseline.SummaryChanges  `json:"summaryChanges"`
}

type rentPeriodsRequest struct {
	Periods []rentperiods.Period `json:"periods"`
	Lease   *rentperiods.Lease   `json:"lease,omitempty"`
	Today   *rentperiods.Date    `json:"today,omitempty"`
}

type rentPeriodsResponse struct {
	Warnings      []rentperiods.Warning       `json:"warnings"`
	Errors        []string                    `json:"errors,omitempty"`
	Records       []rentperiods.PaymentRecord `json:"records,omitempty"`
	TotalExpected float64                     `json:"totalExpected,omitempty"`
}

type amortizationRequest struct {
	Principal      float64 `json:"principal"`
	InterestRate   float64 `json:"interestRate"`
	TermYears      int     `json:"termYears"`
	StartMonth     string  `json:"startMonth,omitempty"` // YYYY-MM
	ExtraPrincipal float64 `json:"extraPrincipal,omitempty"`
	Schedule       bool    `json:"schedule,omitempty"`
}

type amortizationResponse struct {
	MonthlyPayment float64               `json:"monthlyPayment"`
	Summary        loans.ScheduleSummary `json:"summary"`
	Schedule       []loans.Payment       `json:"schedule,omitempty"`
}

type analysisResponse struct {
	Report   analysis.Report `json:"report"`
	CSV      string          `json:"csv"`
	Warnings []string        `json:"warnings,omitempty"`
	Duration string          `json:"duration"`
}

func (h *handler) handleInvestmentMetrics(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleInvestmentMetrics"
	var req investmentRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	if req.Property == nil && len(req.Listings) == 0 {
		h.respondError(w, http.StatusBadRequest, "expected a property or listings", op)
		return
	}

	strategy := financing.DefaultStrategy()
	if len(req.Financing) > 0 {
		var err error
		strategy, err = decodeStrategy(req.Financing)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid financing: %v", err), op)
			return
		}
	}

	var estimator estimate.Estimator = estimate.Default
	if req.Estimates != nil {
		estimator = estimate.NewHeuristic(req.Estimates.DefaultTaxRate, req.Estimates.InsuranceRate, req.Estimates.StateTaxRates)
	}

	resp := investmentResponse{Strategy: strategy}
	var err error
	if req.Property != nil {
		err = multierr.Append(err, req.Property.Validate())
		err = multierr.Append(err, strategy.Validate(req.Property.Price))
	}
	for i, listing := range req.Listings {
		if e := listing.Validate(); e != nil {
			err = multierr.Append(err, fmt.Errorf("listing %d: %w", i, e))
		}
		if e := strategy.Validate(listing.Price); e != nil {
			err = multierr.Append(err, fmt.Errorf("listing %d: %w", i, e))
		}
	}
	if err != nil {
		h.count("investment.metrics", err)
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	if req.Property != nil {
		metrics := investment.Evaluate(*req.Property, strategy, estimator)
		resp.Metrics = &metrics
	}
	if len(req.Listings) > 0 {
		resp.Listings = investment.EvaluateListings(req.Listings, strategy, estimator)
		if req.Filter != nil {
			resp.Listings = req.Filter.Apply(resp.Listings)
		}
	}

	h.count("investment.metrics", nil)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRecalculate"
	var req rowsRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	h.count("portfolio.recalculate", nil)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": portfolio.RecalculateAll(req.Rows),
	})
}

func (h *handler) handleAggregate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAggregate"
	var req rowsRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	h.count("portfolio.aggregate", nil)
	h.writeJSON(w, http.StatusOK, portfolio.Aggregate(portfolio.RecalculateAll(req.Rows)))
}

func (h *handler) handleDiff(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDiff"
	var req rowsRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	rows := portfolio.RecalculateAll(req.Rows)
	snapshot := baseline.NewSnapshot(portfolio.RecalculateAll(req.Baseline))
	summary := portfolio.Aggregate(rows)

	h.count("portfolio.diff", nil)
	h.writeJSON(w, http.StatusOK, diffResponse{
		Rows:           rows,
		Summary:        summary,
		RowChanges:     snapshot.CompareRows(rows),
		SummaryChanges: baseline.CompareSummaries(summary, snapshot.Summary()),
	})
}

func (h *handler) handleValidateRentPeriods(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleValidateRentPeriods"
	var req rentPeriodsRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	today := h.now()
	if req.Today != nil && !req.Today.IsZero() {
		today = req.Today.Time
	}

	resp := rentPeriodsResponse{Warnings: rentperiods.Validate(req.Periods, today)}
	for _, warning := range resp.Warnings {
		telemetry.RentPeriodWarnings.WithLabelValues(string(warning.Type)).Inc()
	}
	resp.Errors = errorStrings(rentperiods.ValidateSubmission(req.Periods, req.Lease))

	h.count("rentperiods.validate", nil)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleExpandRentPeriods(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExpandRentPeriods"
	var req rentPeriodsRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	if err := rentperiods.ValidateSubmission(req.Periods, req.Lease); err != nil {
		h.count("rentperiods.expand", err)
		h.writeJSON(w, http.StatusUnprocessableEntity, rentPeriodsResponse{
			Warnings: []rentperiods.Warning{},
			Errors:   errorStrings(err),
		})
		return
	}

	h.count("rentperiods.expand", nil)
	h.writeJSON(w, http.StatusOK, rentPeriodsResponse{
		Warnings:      rentperiods.Validate(req.Periods, h.now()),
		Records:       rentperiods.ExpandToMonthlyRecords(req.Periods),
		TotalExpected: rentperiods.TotalExpected(req.Periods),
	})
}

func (h *handler) handleAmortization(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAmortization"
	var req amortizationRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	generator := loans.NewAmortizationScheduleGenerator(h.logger)
	schedule, err := generator.GenerateSchedule(loans.LoanConfig{
		Name:           "request",
		StartDate:      req.StartMonth,
		Principal:      req.Principal,
		InterestRate:   req.InterestRate,
		TermYears:      req.TermYears,
		ExtraPrincipal: req.ExtraPrincipal,
	})
	if err == nil && req.InterestRate < 0 {
		err = fmt.Errorf("interest rate must be non-negative, got %v", req.InterestRate)
	}
	h.count("amortization", err)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	resp := amortizationResponse{
		MonthlyPayment: loans.CalculateMonthlyPayment(req.Principal, req.InterestRate, req.TermYears),
		Summary:        loans.SummarizeSchedule(schedule),
	}
	if req.Schedule {
		resp.Schedule = schedule
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAnalysis"
	start := time.Now()

	configBytes, ok := h.readConfigBody(w, r, op)
	if !ok {
		return
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if err := cfg.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	report, err := analysis.Run(r.Context(), h.logger, *cfg, h.now(), analysis.Options{
		Store:         h.store,
		RentEstimator: h.estimator,
		Concurrency:   h.concurrency,
	})
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	var csvBuf bytes.Buffer
	if err := output.CsvFormat(&csvBuf, report); err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render csv: %v", err), op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("analysis computed",
		zap.String("op", op),
		zap.String("portfolio", report.PortfolioID),
		zap.Int("rows", len(report.Rows)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, analysisResponse{
		Report:   report,
		CSV:      csvBuf.String(),
		Warnings: report.Warnings,
		Duration: elapsed.String(),
	})
}

// readConfigBody returns the YAML configuration from a multipart "file"
// field or from the raw request body.
func (h *handler) readConfigBody(w http.ResponseWriter, r *http.Request, op string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			h.respondBodyError(w, err, op)
			return nil, false
		}
		return data, true
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		h.respondBodyError(w, err, op)
		return nil, false
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing configuration file", op)
		return nil, false
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return nil, false
	}
	return buf.Bytes(), true
}

func (h *handler) respondBodyError(w http.ResponseWriter, err error, op string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.respondError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
		return
	}
	h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
}

func (h *handler) handleListPreferences(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListPreferences"
	keys, err := h.store.Keys(r.Context(), r.PathValue("portfolio"))
	telemetry.PreferenceOperations.WithLabelValues("keys", telemetry.Outcome(err)).Inc()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"keys": keys})
}

func (h *handler) handleClearPreferences(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleClearPreferences"
	prefs := store.NewPreferences(h.store, r.PathValue("portfolio"))
	if err := prefs.Reset(r.Context()); err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleGetPreference(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetPreference"
	portfolioID, key := r.PathValue("portfolio"), r.PathValue("key")

	value, err := h.store.Get(r.Context(), portfolioID, key)
	if errors.Is(err, store.ErrNotFound) {
		telemetry.PreferenceOperations.WithLabelValues("get", telemetry.StatusNotFound).Inc()
		h.respondError(w, http.StatusNotFound, fmt.Sprintf("preference %q not found for portfolio %q", key, portfolioID), op)
		return
	}
	telemetry.PreferenceOperations.WithLabelValues("get", telemetry.Outcome(err)).Inc()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, value)
}

func (h *handler) handlePutPreference(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePutPreference"
	portfolioID, key := r.PathValue("portfolio"), r.PathValue("key")

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadSize))
	if err != nil {
		h.respondBodyError(w, err, op)
		return
	}

	prefs := store.NewPreferences(h.store, portfolioID)
	if err := savePreference(r.Context(), prefs, h.store, portfolioID, key, raw); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errStore) {
			status = http.StatusInternalServerError
		}
		h.respondError(w, status, err.Error(), op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var errStore = errors.New("store failure")

// savePreference validates well-known keys against their types; any other
// key accepts arbitrary JSON.
func savePreference(ctx context.Context, prefs *store.Preferences, s store.Store, portfolioID, key string, raw []byte) error {
	storeErr := func(err error) error {
		if err == nil {
			return nil
		}
		return fmt.Errorf("%w: %v", errStore, err)
	}

	switch key {
	case store.KeyFinancing:
		strategy, err := decodeStrategy(raw)
		if err != nil {
			return fmt.Errorf("invalid financing: %w", err)
		}
		if err := strategy.Validate(0); err != nil {
			return fmt.Errorf("invalid financing: %w", err)
		}
		return storeErr(prefs.SaveFinancing(ctx, strategy))
	case store.KeyFilters:
		var filter investment.Filter
		if err := json.Unmarshal(raw, &filter); err != nil {
			return fmt.Errorf("invalid filters: %w", err)
		}
		return storeErr(prefs.SaveFilters(ctx, filter))
	case store.KeyModifiedRows:
		var rows []portfolio.PropertyData
		if err := json.Unmarshal(raw, &rows); err != nil {
			return fmt.Errorf("invalid modified rows, expected an array of rows: %w", err)
		}
		return storeErr(prefs.SaveModifiedRows(ctx, rows))
	default:
		if !json.Valid(raw) {
			return fmt.Errorf("preference %q must be valid JSON", key)
		}
		err := s.Set(ctx, portfolioID, key, string(raw))
		telemetry.PreferenceOperations.WithLabelValues("set", telemetry.Outcome(err)).Inc()
		return storeErr(err)
	}
}

// decodeStrategy accepts either the tagged form or the legacy flat fields.
func decodeStrategy(raw []byte) (financing.Strategy, error) {
	var strategy financing.Strategy
	if err := json.Unmarshal(raw, &strategy); err != nil {
		return financing.Strategy{}, err
	}
	if strategy.DownPayment.Type != "" {
		return strategy, nil
	}
	var legacy financing.LegacyFields
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return financing.Strategy{}, err
	}
	return financing.FromLegacy(legacy)
}

func (h *handler) handleDeletePreference(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeletePreference"
	err := h.store.Delete(r.Context(), r.PathValue("portfolio"), r.PathValue("key"))
	telemetry.PreferenceOperations.WithLabelValues("delete", telemetry.Outcome(err)).Inc()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, op string) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxUploadSize))
	if err := decoder.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondBodyError(w, err, op)
			return false
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func (h *handler) count(operation string, err error) {
	telemetry.Calculations.WithLabelValues(operation, telemetry.Outcome(err)).Inc()
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func errorStrings(err error) []string {
	errs := multierr.Errors(err)
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}
