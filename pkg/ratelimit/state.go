// Package ratelimit tracks the collection source's request budget from its
// X-RateLimit-Remaining and X-RateLimit-Reset headers and gates requests
// before the budget runs out.
package ratelimit

import (
	"time"
)

// Response headers read by the tracker.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Redis keys for rate limit state storage.
const (
	RedisKeyRemaining      = "catalog:rate_limit:remaining"
	RedisKeyLimit          = "catalog:rate_limit:limit"
	RedisKeyResetTimestamp = "catalog:rate_limit:reset_timestamp"
	RedisKeyLastUpdate     = "catalog:rate_limit:last_update"
)

// Thresholds for rate limit decisions.
const (
	// RemainingThresholdCritical blocks requests when remaining falls below it.
	RemainingThresholdCritical = 2

	// RemainingThresholdWarning throttles requests when remaining falls below it.
	RemainingThresholdWarning = 10

	// RemainingThresholdHealthy marks the budget healthy at or above it.
	RemainingThresholdHealthy = 25
)

// RateLimitState is the last observed request budget.
type RateLimitState struct {
	// Remaining requests in the current window.
	Remaining int `json:"remaining"`

	// Limit is the window size, 0 when the source does not report it.
	Limit int `json:"limit"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was observed.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= RemainingThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// WindowExpired reports whether the reset time has passed, in which case
// the recorded budget no longer applies.
func (s *RateLimitState) WindowExpired() bool {
	return !s.ResetAt.IsZero() && !time.Now().Before(s.ResetAt)
}

// NeedsCriticalBlock returns true if requests should be blocked.
func (s *RateLimitState) NeedsCriticalBlock() bool {
	return s.Remaining < RemainingThresholdCritical
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *RateLimitState) NeedsThrottling() bool {
	return s.Remaining < RemainingThresholdWarning && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the window resets, or 0.
func (s *RateLimitState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth recomputes IsHealthy.
func (s *RateLimitState) UpdateHealth() {
	s.IsHealthy = s.Remaining >= RemainingThresholdHealthy
}

func defaultState() *RateLimitState {
	now := time.Now()
	return &RateLimitState{
		Remaining:  100, // assume healthy until the source tells us otherwise
		ResetAt:    now.Add(60 * time.Second),
		LastUpdate: now,
		IsHealthy:  true,
	}
}
