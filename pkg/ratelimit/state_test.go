package ratelimit

import (
	"testing"
	"time"
)

func TestRateLimitState_Thresholds(t *testing.T) {
	tests := []struct {
		name           string
		remaining      int
		expectBlock    bool
		expectThrottle bool
		expectHealthy  bool
	}{
		{"healthy", 100, false, false, true},
		{"at healthy threshold", RemainingThresholdHealthy, false, false, true},
		{"below healthy, above warning", RemainingThresholdHealthy - 1, false, false, false},
		{"at warning threshold", RemainingThresholdWarning, false, false, false},
		{"just below warning threshold", RemainingThresholdWarning - 1, false, true, false},
		{"at critical threshold", RemainingThresholdCritical, false, true, false},
		{"just below critical threshold", RemainingThresholdCritical - 1, true, false, false},
		{"zero remaining", 0, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &RateLimitState{Remaining: tt.remaining}
			state.UpdateHealth()

			if got := state.NeedsCriticalBlock(); got != tt.expectBlock {
				t.Errorf("NeedsCriticalBlock() = %v, want %v", got, tt.expectBlock)
			}
			if got := state.NeedsThrottling(); got != tt.expectThrottle {
				t.Errorf("NeedsThrottling() = %v, want %v", got, tt.expectThrottle)
			}
			if state.IsHealthy != tt.expectHealthy {
				t.Errorf("IsHealthy = %v, want %v", state.IsHealthy, tt.expectHealthy)
			}
		})
	}
}

func TestRateLimitState_TimeUntilReset(t *testing.T) {
	future := &RateLimitState{ResetAt: time.Now().Add(30 * time.Second)}
	if d := future.TimeUntilReset(); d <= 25*time.Second || d > 30*time.Second {
		t.Errorf("TimeUntilReset() = %v, want ~30s", d)
	}

	past := &RateLimitState{ResetAt: time.Now().Add(-time.Second)}
	if d := past.TimeUntilReset(); d != 0 {
		t.Errorf("TimeUntilReset() = %v, want 0", d)
	}
}

func TestRateLimitState_WindowExpired(t *testing.T) {
	if (&RateLimitState{}).WindowExpired() {
		t.Error("zero ResetAt should not count as expired")
	}
	if !(&RateLimitState{ResetAt: time.Now().Add(-time.Second)}).WindowExpired() {
		t.Error("past ResetAt should be expired")
	}
	if (&RateLimitState{ResetAt: time.Now().Add(time.Minute)}).WindowExpired() {
		t.Error("future ResetAt should not be expired")
	}
}
