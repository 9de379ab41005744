package providers

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond}
	got, err := RetryDo(context.Background(), cfg, func() (string, error) {
		calls++
		if calls < 3 {
			return "", &HTTPError{Status: 503, Body: "overloaded"}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Errorf("got %q after %d calls, want ok after 3", got, calls)
	}
}

func TestRetryDoFailsFastOnPermanentError(t *testing.T) {
	calls := 0
	cfg := RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond}
	_, err := RetryDo(context.Background(), cfg, func() (string, error) {
		calls++
		return "", &HTTPError{Status: 401, Body: "bad key"}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (401 is not retryable)", calls)
	}
}

func TestRetryDoRetriesRateLimit(t *testing.T) {
	calls := 0
	cfg := RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond}
	_, err := RetryDo(context.Background(), cfg, func() (string, error) {
		calls++
		return "", &HTTPError{Status: 429, Body: "slow down"}
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetryDoNonHTTPErrorsAreTransient(t *testing.T) {
	calls := 0
	cfg := RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond}
	_, err := RetryDo(context.Background(), cfg, func() (string, error) {
		calls++
		return "", errors.New("connection reset")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (transport errors retry)", calls)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"5", 5 * time.Second},
		{"120", 2 * time.Minute},
		{"soon", 0},
		{"5s", 0},
	}
	for _, tt := range tests {
		if got := ParseRetryAfter(tt.in); got != tt.want {
			t.Errorf("ParseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHTTPErrorRetryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{429, true}, {500, true}, {503, true},
		{400, false}, {401, false}, {404, false},
	}
	for _, tt := range tests {
		e := &HTTPError{Status: tt.status}
		if e.Retryable() != tt.want {
			t.Errorf("Retryable(%d) = %v, want %v", tt.status, e.Retryable(), tt.want)
		}
	}
}
