package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for collection fetches.
var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_pages_fetched_total",
		Help: "Total number of pages fetched from the collection source",
	})

	collectionFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_collection_fetches_total",
		Help: "Total collection fetches by outcome",
	}, []string{"outcome"})

	collectionFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_collection_fetch_duration_seconds",
		Help:    "Duration of a full collection fetch in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})
)

var (
	// ErrFetchFailure matches any *FetchError via errors.Is.
	ErrFetchFailure = errors.New("fetch failure")

	// ErrInvalidTotal is returned when the desired total is not positive.
	ErrInvalidTotal = errors.New("desired total must be positive")
)

// FetchError reports which request in the sequence failed.
type FetchError struct {
	Request int
	Offset  int
	Limit   int
	Err     error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failure on request %d (offset %d, limit %d): %v",
		e.Request, e.Offset, e.Limit, e.Err)
}

// Unwrap returns the underlying source error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrFetchFailure) true for every FetchError.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailure
}

// PageRequest addresses one bounded page of the collection.
type PageRequest struct {
	Offset int
	Limit  int
}

// Page is one response from the source. Total is the size of the whole
// collection as reported by the source, or 0 when unknown.
type Page[T any] struct {
	Items []T
	Total int
}

// PageSource is the capability the collector needs from the upstream client.
type PageSource[T any] interface {
	FetchPage(ctx context.Context, req PageRequest) (Page[T], error)
}

// PageSourceFunc adapts a function to PageSource.
type PageSourceFunc[T any] func(ctx context.Context, req PageRequest) (Page[T], error)

// FetchPage calls f.
func (f PageSourceFunc[T]) FetchPage(ctx context.Context, req PageRequest) (Page[T], error) {
	return f(ctx, req)
}

// Config holds collector configuration.
type Config struct {
	// PerRequestCap is the maximum number of items asked for per request.
	PerRequestCap int

	// MaxRequests bounds the number of requests per collection.
	// Zero means one request per desired item.
	MaxRequests int

	// Timeout per page fetch. Zero disables it.
	Timeout time.Duration
}

// DefaultConfig returns the default collector configuration.
func DefaultConfig() Config {
	return Config{
		PerRequestCap: 100,
	}
}

// Collector fetches a collection page by page.
type Collector[T any] struct {
	source PageSource[T]
	config Config
}

// NewCollector creates a new collector.
func NewCollector[T any](source PageSource[T], config Config) *Collector[T] {
	if config.PerRequestCap <= 0 {
		config.PerRequestCap = 100
	}
	if config.MaxRequests < 0 {
		config.MaxRequests = 0
	}

	return &Collector[T]{
		source: source,
		config: config,
	}
}

// FetchCollection fetches up to totalDesired items in arrival order.
func (c *Collector[T]) FetchCollection(ctx context.Context, totalDesired int) ([]T, error) {
	if totalDesired <= 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidTotal, totalDesired)
	}

	start := time.Now()
	defer func() {
		collectionFetchDuration.Observe(time.Since(start).Seconds())
	}()

	maxRequests := c.config.MaxRequests
	if maxRequests == 0 {
		maxRequests = totalDesired
	}

	log.Debug().
		Int("total_desired", totalDesired).
		Int("per_request", c.config.PerRequestCap).
		Int("max_requests", maxRequests).
		Msg("Starting collection fetch")

	// totalDesired is caller input; size for one page and let append grow.
	items := make([]T, 0, min(totalDesired, c.config.PerRequestCap))
	offset := 0
	requests := 0

	for len(items) < totalDesired {
		if requests >= maxRequests {
			log.Warn().
				Int("requests", requests).
				Int("items", len(items)).
				Int("total_desired", totalDesired).
				Msg("Request ceiling reached - returning collected items")
			break
		}

		limit := min(c.config.PerRequestCap, totalDesired-len(items))
		requests++

		page, err := c.fetchPage(ctx, PageRequest{Offset: offset, Limit: limit})
		if err != nil {
			collectionFetchesTotal.WithLabelValues("failure").Inc()
			log.Warn().
				Err(err).
				Int("request", requests).
				Int("offset", offset).
				Int("limit", limit).
				Int("discarded_items", len(items)).
				Msg("Page fetch failed - discarding collection")
			return nil, &FetchError{Request: requests, Offset: offset, Limit: limit, Err: err}
		}
		pagesFetchedTotal.Inc()

		received := len(page.Items)
		if received == 0 {
			log.Debug().Int("offset", offset).Msg("Empty page - source exhausted")
			break
		}

		// A source that ignores limit must not push us past the desired total.
		if received > limit {
			page.Items = page.Items[:limit]
			received = limit
		}

		items = append(items, page.Items...)
		offset += received

		log.Debug().
			Int("request", requests).
			Int("received", received).
			Int("collected", len(items)).
			Int("total_desired", totalDesired).
			Msg("Fetch progress")

		if received < limit {
			log.Debug().
				Int("received", received).
				Int("limit", limit).
				Msg("Short page - source exhausted")
			break
		}
		if page.Total > 0 && offset >= page.Total {
			break
		}
	}

	collectionFetchesTotal.WithLabelValues("success").Inc()
	log.Info().
		Int("items", len(items)).
		Int("requests", requests).
		Dur("duration", time.Since(start)).
		Msg("Collection fetch complete")

	return items, nil
}

func (c *Collector[T]) fetchPage(ctx context.Context, req PageRequest) (Page[T], error) {
	if err := ctx.Err(); err != nil {
		return Page[T]{}, err
	}
	if c.config.Timeout <= 0 {
		return c.source.FetchPage(ctx, req)
	}

	pageCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()
	return c.source.FetchPage(pageCtx, req)
}
