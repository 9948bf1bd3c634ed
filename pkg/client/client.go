// Package client provides the HTTP client for the product collection source,
// with rate limit tracking, retries and error classification.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/catalog-viewer/pkg/catalog"
	"github.com/Sternrassler/catalog-viewer/pkg/pagination"
	"github.com/Sternrassler/catalog-viewer/pkg/ratelimit"
	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_client_requests_total",
		Help: "Total collection source requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_client_request_duration_seconds",
		Help:    "Collection source request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_client_errors_total",
		Help: "Total collection source errors by class",
	}, []string{"class"})
)

// Defaults for the public DummyJSON product API.
const (
	DefaultBaseURL        = "https://dummyjson.com"
	DefaultCollectionPath = "/products"
)

// DefaultFields are the product fields requested via the select parameter.
// The id is always returned.
var DefaultFields = []string{"title", "brand", "category", "price"}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the collection source, e.g. "https://dummyjson.com".
	BaseURL string

	// CollectionPath is the paged collection endpoint, e.g. "/products".
	CollectionPath string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout per HTTP request. Zero disables it.
	Timeout time.Duration

	// Fields restricts the returned item fields. Empty requests all fields.
	Fields []string

	// Retry controls per-request retries of transient failures.
	Retry RetryConfig

	// RateLimitStore holds the observed rate limit budget.
	// Nil uses an in-process store.
	RateLimitStore ratelimit.Store
}

// DefaultConfig returns a default configuration for the public API.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		CollectionPath: DefaultCollectionPath,
		UserAgent:      userAgent,
		Timeout:        30 * time.Second,
		Fields:         DefaultFields,
		Retry:          DefaultRetryConfig(),
	}
}

// Client fetches pages of products from the collection source.
type Client struct {
	http        *resty.Client
	rateLimiter *ratelimit.Tracker
	config      Config
	logger      zerolog.Logger
}

// productPage is the wire shape of one collection response.
type productPage struct {
	Products *[]catalog.Product `json:"products"`
	Total    int                `json:"total"`
	Skip     int                `json:"skip"`
	Limit    int                `json:"limit"`
}

// New creates a new collection source client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("base url scheme must be http or https, got %q", parsed.Scheme)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.CollectionPath == "" {
		cfg.CollectionPath = DefaultCollectionPath
	}
	if !strings.HasPrefix(cfg.CollectionPath, "/") {
		cfg.CollectionPath = "/" + cfg.CollectionPath
	}

	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}
	if cfg.Retry.InitialBackoff <= 0 {
		cfg.Retry.InitialBackoff = DefaultRetryConfig().InitialBackoff
	}
	if cfg.Retry.MaxBackoff < cfg.Retry.InitialBackoff {
		cfg.Retry.MaxBackoff = cfg.Retry.InitialBackoff
	}

	logger := log.With().Str("component", "catalog-client").Logger()

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}

	return &Client{
		http:        httpClient,
		rateLimiter: ratelimit.NewTracker(cfg.RateLimitStore, logger),
		config:      cfg,
		logger:      logger,
	}, nil
}

// FetchPage requests one page of products at req.Offset. It implements
// pagination.PageSource[catalog.Product].
func (c *Client) FetchPage(ctx context.Context, req pagination.PageRequest) (pagination.Page[catalog.Product], error) {
	endpoint := c.config.CollectionPath

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Every attempt, retries included, passes the rate limit gate so a
	// budget exhausted by a 429 stops the retry loop.
	var page productPage
	err := retryWithBackoff(ctx, c.config.Retry, func(ctx context.Context) error {
		if err := c.checkRateLimit(ctx, endpoint); err != nil {
			return err
		}
		var reqErr error
		page, reqErr = c.doRequest(ctx, endpoint, req)
		return reqErr
	})
	if err != nil {
		return pagination.Page[catalog.Product]{}, err
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("offset", req.Offset).
		Int("limit", req.Limit).
		Int("items", len(*page.Products)).
		Int("total", page.Total).
		Msg("Fetched page")

	return pagination.Page[catalog.Product]{
		Items: *page.Products,
		Total: page.Total,
	}, nil
}

// checkRateLimit returns ErrRateLimitBlocked when the recorded budget is
// critical. It may wait in the throttle band.
func (c *Client) checkRateLimit(ctx context.Context, endpoint string) error {
	allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Rate limit check failed")
		return fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Msg("Request blocked by rate limiter")
		requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		return ErrRateLimitBlocked
	}
	return nil
}

// doRequest performs a single attempt and classifies its outcome.
func (c *Client) doRequest(ctx context.Context, endpoint string, req pagination.PageRequest) (productPage, error) {
	params := map[string]string{
		"limit": strconv.Itoa(req.Limit),
		"skip":  strconv.Itoa(req.Offset),
	}
	if len(c.config.Fields) > 0 {
		params["select"] = strings.Join(c.config.Fields, ",")
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("offset", req.Offset).
		Int("limit", req.Limit).
		Msg("Executing collection request")

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(endpoint)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		errClass := c.classifyError(nil, err)
		errorsTotal.WithLabelValues(string(errClass)).Inc()
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return productPage{}, &APIError{ErrorClass: errClass, Message: "request failed", Err: err}
	}

	if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header()); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
	}

	status := resp.StatusCode()
	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()

	if status < 200 || status >= 300 {
		errClass := c.classifyError(resp.RawResponse, nil)
		errorsTotal.WithLabelValues(string(errClass)).Inc()

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", status).
			Str("error_class", string(errClass)).
			Msg("Collection request error")

		return productPage{}, &APIError{
			StatusCode: status,
			ErrorClass: errClass,
			Message:    resp.Status(),
		}
	}

	var page productPage
	if err := json.Unmarshal(resp.Body(), &page); err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassPayload)).Inc()
		return productPage{}, &APIError{
			StatusCode: status,
			ErrorClass: ErrorClassPayload,
			Message:    "malformed payload",
			Err:        err,
		}
	}
	if page.Products == nil {
		errorsTotal.WithLabelValues(string(ErrorClassPayload)).Inc()
		return productPage{}, &APIError{
			StatusCode: status,
			ErrorClass: ErrorClassPayload,
			Message:    "malformed payload",
			Err:        errors.New(`missing "products" field`),
		}
	}

	return page, nil
}

// classifyError categorizes a failure for observability and retry decisions.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}
	if resp == nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode >= 500:
		return ErrorClassServer
	case resp.StatusCode >= 400:
		return ErrorClassClient
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		// unfollowed redirects and informational codes are unusable here
		return ErrorClassClient
	default:
		return ""
	}
}

// RateLimiter returns the rate limit tracker (for testing).
func (c *Client) RateLimiter() *ratelimit.Tracker {
	return c.rateLimiter
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.GetClient().CloseIdleConnections()
	return nil
}
