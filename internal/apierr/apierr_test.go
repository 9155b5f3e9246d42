package apierr

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestClassifyByStatus(t *testing.T) {
	cases := []struct {
		msg    string
		status int
		want   Kind
	}{
		{"request failed", 401, KindAuth},
		{"request failed", 403, KindPermission},
		{"request failed", 429, KindRateLimit},
		{"publisher 12345 missing", 404, KindPublisherNotFound},
		{"request failed", 503, KindConnection},
		{"connection refused", 0, KindConnection},
		{"dial tcp: i/o timeout", 0, KindConnection},
		{"rate limit exceeded", 0, KindRateLimit},
		{"unauthorized", 0, KindAuth},
		{"cannot unmarshal object into field", 0, KindDataFormat},
		{"something odd happened", 0, KindUnknown},
	}
	for _, c := range cases {
		got := Classify(errors.New(c.msg), c.status)
		if got.Kind != c.want {
			t.Errorf("Classify(%q, %d) = %v, want %v", c.msg, c.status, got.Kind, c.want)
		}
	}
}

func TestClassifyPassesThrough(t *testing.T) {
	orig := New(KindState, "state row vanished", nil)
	got := Classify(orig, 500)
	if got.Kind != KindState {
		t.Errorf("classified error reclassified to %v", got.Kind)
	}
}

func TestRetryPolicyRetryableKinds(t *testing.T) {
	policy := DefaultRetryPolicy()

	if !policy.ShouldRetry(errors.New("connection reset by peer"), 1) {
		t.Error("connection error should be retryable")
	}
	if !policy.ShouldRetry(errors.New("weird failure"), 1) {
		t.Error("unknown error should be retryable")
	}
	if policy.ShouldRetry(New(KindAuth, "bad key", nil), 1) {
		t.Error("auth error should not be retryable")
	}
	if policy.ShouldRetry(New(KindRateLimit, "slow down", nil), 1) {
		t.Error("rate limit should surface immediately")
	}
	if policy.ShouldRetry(errors.New("connection reset"), 4) {
		t.Error("should not retry past max attempts")
	}
	if policy.ShouldRetry(nil, 1) {
		t.Error("nil error should not be retryable")
	}
}

func TestRetryPolicyDelays(t *testing.T) {
	policy := DefaultRetryPolicy()
	for i, want := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second} {
		if got := policy.NextDelay(i + 1); got != want {
			t.Errorf("NextDelay(%d) = %v, want %v", i+1, got, want)
		}
	}

	capped := &RetryPolicy{MaxAttempts: 10, InitialDelay: time.Second, Multiplier: 2, MaxDelay: 5 * time.Second}
	if got := capped.NextDelay(8); got != 5*time.Second {
		t.Errorf("capped NextDelay = %v, want 5s", got)
	}
}

func TestExecuteStopsOnNonRetryable(t *testing.T) {
	policy := &RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 1, MaxDelay: time.Millisecond}

	calls := 0
	err := policy.Execute(context.Background(), func() error {
		calls++
		return New(KindAuth, "nope", nil)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("non-retryable error called %d times, want 1", calls)
	}
}

func TestExecuteRetriesThenSucceeds(t *testing.T) {
	policy := &RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 1, MaxDelay: time.Millisecond}

	calls := 0
	err := policy.Execute(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("called %d times, want 3", calls)
	}
}
