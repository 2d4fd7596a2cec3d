// Package rentestimate provides a client for an external rent estimate
// service keyed by ZIP code and bedroom count.
package rentestimate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/iwvelando/rental-metrics/internal/telemetry"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 2.0 // requests per second

	estimatePath = "/v1/rent-estimate"
)

// ErrNoEstimate is returned when the service has no estimate for the query.
var ErrNoEstimate = errors.New("no rent estimate available")

// Client looks up market rent estimates.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAPIKey sets the bearer token sent with each request
func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

// WithRateLimit sets the sustained request rate. Values <= 0 disable limiting.
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the HTTP client, keeping the configured timeout
// when the replacement has none.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient == nil {
			return
		}
		if httpClient.Timeout == 0 {
			httpClient.Timeout = c.httpClient.Timeout
		}
		c.httpClient = httpClient
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), int(DefaultRateLimit)),
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rent estimate API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

type estimateResponse struct {
	Rent *float64 `json:"rent"`
}

// EstimateRent returns the estimated monthly rent for a unit.
func (c *Client) EstimateRent(ctx context.Context, zipCode string, bedrooms int) (rent float64, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "rentestimate.EstimateRent")
	defer span.End()
	span.SetAttributes(
		attribute.String("rent.zip", zipCode),
		attribute.Int("rent.bedrooms", bedrooms),
	)

	defer func() {
		status := telemetry.Outcome(err)
		if errors.Is(err, ErrNoEstimate) {
			status = telemetry.StatusNotFound
		}
		telemetry.RentLookups.WithLabelValues(status).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return
		}
		span.SetAttributes(attribute.Float64("rent.estimate", rent))
	}()

	zipCode = strings.TrimSpace(zipCode)
	if zipCode == "" {
		return 0, fmt.Errorf("zip code is required")
	}
	if bedrooms < 0 {
		return 0, fmt.Errorf("bedrooms must be non-negative, got %d", bedrooms)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}

	query := url.Values{}
	query.Set("zip", zipCode)
	query.Set("bedrooms", strconv.Itoa(bedrooms))
	reqURL := c.baseURL + estimatePath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("rent estimate request",
		zap.String("op", "rentestimate.EstimateRent"),
		zap.String("zip", zipCode),
		zap.Int("bedrooms", bedrooms),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("%w for %s (%d bedrooms)", ErrNoEstimate, zipCode, bedrooms)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   estimatePath,
		}
	}

	var decoded estimateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if decoded.Rent == nil || *decoded.Rent <= 0 {
		return 0, fmt.Errorf("%w for %s (%d bedrooms)", ErrNoEstimate, zipCode, bedrooms)
	}

	return *decoded.Rent, nil
}
