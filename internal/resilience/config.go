package resilience

import "time"

// BreakerConfigFrom converts config values to a BreakerConfig, keeping
// defaults for non-positive values. Only transient errors trip the circuit:
// a rejected request says nothing about the collaborator's health.
func BreakerConfigFrom(failureThreshold, resetTimeoutSecs int) BreakerConfig {
	cfg := DefaultBreakerConfig()
	cfg.ShouldTrip = IsTransient
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if resetTimeoutSecs > 0 {
		cfg.ResetTimeout = time.Duration(resetTimeoutSecs) * time.Second
	}
	return cfg
}

// RetryConfigFrom converts config values to a RetryConfig, keeping defaults
// for non-positive values.
func RetryConfigFrom(maxAttempts, initialBackoffMs int) RetryConfig {
	cfg := DefaultRetryConfig()
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	if initialBackoffMs > 0 {
		cfg.InitialBackoff = time.Duration(initialBackoffMs) * time.Millisecond
	}
	return cfg
}
