package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestRetry_Success(t *testing.T) {
	attempts := 0
	err := Retry(func() error {
		attempts++
		return nil
	}, DefaultRetryConfig(), nil)

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestRetry_FailureThenSuccess(t *testing.T) {
	config := &RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        10 * time.Millisecond,
		BackoffMultiplier: 2.0,
		Jitter:            false,
	}

	attempts := 0
	err := Retry(func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, config, nil)

	if err != nil {
		t.Errorf("Expected no error after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetry_MaxAttempts(t *testing.T) {
	config := &RetryConfig{
		MaxAttempts:       2,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        10 * time.Millisecond,
		BackoffMultiplier: 2.0,
		Jitter:            false,
	}

	attempts := 0
	err := Retry(func() error {
		attempts++
		return errors.New("persistent error")
	}, config, nil)

	if err == nil {
		t.Error("Expected error after max attempts")
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestRetry_NonRetryableError(t *testing.T) {
	attempts := 0
	isRetryable := func(err error) bool {
		return false // All errors are non-retryable
	}

	err := Retry(func() error {
		attempts++
		return errors.New("fatal error")
	}, DefaultRetryConfig(), isRetryable)

	if err == nil {
		t.Error("Expected error to be returned")
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for non-retryable error, got %d", attempts)
	}
}

func TestFixedDelayConfig(t *testing.T) {
	config := FixedDelayConfig(3, 5*time.Millisecond)

	if config.MaxAttempts != 3 {
		t.Errorf("Expected MaxAttempts 3, got %d", config.MaxAttempts)
	}
	if config.InitialBackoff != 5*time.Millisecond {
		t.Errorf("Expected InitialBackoff 5ms, got %v", config.InitialBackoff)
	}
	if config.BackoffMultiplier != 1.0 {
		t.Errorf("Expected BackoffMultiplier 1.0, got %f", config.BackoffMultiplier)
	}
	if config.Jitter {
		t.Error("Expected Jitter false for fixed delay")
	}
}

func TestCalculateBackoff(t *testing.T) {
	backoff := CalculateBackoff(0, 100*time.Millisecond, 5*time.Second, 2.0)
	if backoff != 100*time.Millisecond {
		t.Errorf("Expected 100ms for attempt 0, got %v", backoff)
	}

	backoff = CalculateBackoff(2, 100*time.Millisecond, 5*time.Second, 2.0)
	if backoff != 400*time.Millisecond {
		t.Errorf("Expected 400ms for attempt 2, got %v", backoff)
	}

	backoff = CalculateBackoff(10, 100*time.Millisecond, 5*time.Second, 2.0)
	if backoff != 5*time.Second {
		t.Errorf("Expected backoff capped at 5s, got %v", backoff)
	}
}

func TestIsRetryableNetworkError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"timeout", errors.New("i/o timeout"), true},
		{"deadline exceeded", errors.New("context deadline exceeded"), true},
		{"not retryable", errors.New("invalid request"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryableNetworkError(tt.err); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestIsDeviceBusyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"arecord busy", errors.New("arecord: main:831: audio open error: Device or resource busy"), true},
		{"lowercase busy", errors.New("device busy"), true},
		{"temporarily unavailable", errors.New("resource temporarily unavailable"), true},
		{"unrelated", errors.New("no such device"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDeviceBusyError(tt.err); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
