package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_client_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_client_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for per-request retries.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff caps a single backoff.
	MaxBackoff time.Duration

	// JitterPercent randomises each backoff by ±JitterPercent.
	JitterPercent uint64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     10 * time.Second,
		JitterPercent:  20,
	}
}

func (rc RetryConfig) backoff() retry.Backoff {
	b := retry.NewExponential(rc.InitialBackoff)
	b = retry.WithCappedDuration(rc.MaxBackoff, b)
	if rc.JitterPercent > 0 {
		b = retry.WithJitterPercent(rc.JitterPercent, b)
	}
	return retry.WithMaxRetries(uint64(rc.MaxAttempts-1), b)
}

// retryWithBackoff runs fn until it succeeds, returns a non-retriable error,
// or the attempts run out. Only server, rate limit and network errors are retried.
func retryWithBackoff(ctx context.Context, config RetryConfig, fn func(ctx context.Context) error) error {
	attempt := 0
	var lastClass ErrorClass

	err := retry.Do(ctx, config.backoff(), func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				log.Info().
					Str("error_class", string(lastClass)).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastClass = classOf(err)
		if !shouldRetry(lastClass) {
			return err
		}

		if attempt < config.MaxAttempts {
			retriesTotal.WithLabelValues(string(lastClass)).Inc()
			log.Debug().
				Err(err).
				Str("error_class", string(lastClass)).
				Int("attempt", attempt).
				Msg("Retrying request after backoff")
		}
		return retry.RetryableError(err)
	})
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		log.Warn().
			Str("error_class", string(lastClass)).
			Int("attempt", attempt).
			Msg("Context cancelled during retry")
		return fmt.Errorf("%w: %w", ErrContextCancelled, err)
	}

	if shouldRetry(classOf(err)) && attempt >= config.MaxAttempts && config.MaxAttempts > 1 {
		retryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
		log.Warn().
			Str("error_class", string(lastClass)).
			Int("max_attempts", config.MaxAttempts).
			Msg("Retry attempts exhausted")
		return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, config.MaxAttempts, err)
	}

	return err
}
