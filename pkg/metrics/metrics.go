// Package metrics exposes the Prometheus metrics registered by the catalog
// packages. Metrics are defined next to the code that updates them (client,
// pagination, ratelimit) and registered via promauto on the default registry.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Registry is the Prometheus registerer used by the catalog packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the matching gatherer served on /metrics.
var Gatherer = prometheus.DefaultGatherer

// NewMux returns a handler serving /metrics and /health.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", healthHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// Server serves the metrics mux on a local address.
type Server struct {
	srv      *http.Server
	listener net.Listener
	logger   zerolog.Logger
}

// Listen binds addr and returns a server ready to Serve.
func Listen(addr string, logger zerolog.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return &Server{
		srv: &http.Server{
			Handler:           NewMux(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: listener,
		logger:   logger,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve blocks until ctx is done, then shuts the server down.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.Addr()).Msg("Metrics server started")
		errCh <- s.srv.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	s.logger.Info().Msg("Metrics server stopped")
	return nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - catalog_client_requests_total{endpoint, status} (Counter): requests by endpoint and HTTP status
//   - catalog_client_request_duration_seconds{endpoint} (Histogram): request duration
//   - catalog_client_errors_total{class} (Counter): errors by class (client, server, rate_limit, network, payload)
//
// Retry Metrics (pkg/client):
//   - catalog_client_retries_total{error_class} (Counter): retry attempts
//   - catalog_client_retry_exhausted_total{error_class} (Counter): requests that ran out of attempts
//
// Collection Metrics (pkg/pagination):
//   - catalog_pages_fetched_total (Counter): pages received
//   - catalog_collection_fetches_total{outcome} (Counter): collection fetches by outcome
//   - catalog_collection_fetch_duration_seconds (Histogram): full collection fetch duration
//
// Rate Limit Metrics (pkg/ratelimit):
//   - catalog_rate_limit_remaining (Gauge): requests left in the current window
//   - catalog_rate_limit_blocks_total (Counter): requests blocked at the critical threshold
//   - catalog_rate_limit_throttles_total (Counter): requests delayed at the warning threshold
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(catalog_client_errors_total[5m])
//
//   # P95 Collection Load Time
//   histogram_quantile(0.95, rate(catalog_collection_fetch_duration_seconds_bucket[5m]))
//
//   # Budget Status
//   catalog_rate_limit_remaining < 10
