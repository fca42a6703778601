package llm

import (
	"context"
	"testing"
	"time"
)

func TestRetryPolicyDelay(t *testing.T) {
	policy := RetryPolicy{
		BaseDelay:         1.0,
		BackoffMultiplier: 2.0,
		MaxDelay:          60.0,
		Jitter:            false,
	}

	delays := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
	}

	for i, expected := range delays {
		if got := policy.Delay(i); got != expected {
			t.Errorf("attempt %d: expected %v, got %v", i, expected, got)
		}
	}
}

func TestRetryPolicyDelayWithMaxCap(t *testing.T) {
	policy := RetryPolicy{
		BaseDelay:         1.0,
		BackoffMultiplier: 2.0,
		MaxDelay:          5.0,
		Jitter:            false,
	}

	// Attempt 10 would be 1024s without the cap.
	if got := policy.Delay(10); got != 5*time.Second {
		t.Errorf("expected 5s (capped), got %v", got)
	}
}

func TestRetryPolicyDelayWithJitter(t *testing.T) {
	policy := RetryPolicy{
		BaseDelay:         1.0,
		BackoffMultiplier: 2.0,
		MaxDelay:          60.0,
		Jitter:            true,
	}

	for i := 0; i < 100; i++ {
		got := policy.Delay(0)
		if got < 500*time.Millisecond || got > 1500*time.Millisecond {
			t.Errorf("jittered delay out of range: %v", got)
		}
	}
}

type flakyClient struct {
	failures int
	calls    int
	err      error
}

func (c *flakyClient) Complete(_ context.Context, _ Request) (*Response, error) {
	c.calls++
	if c.calls <= c.failures {
		return nil, c.err
	}
	return &Response{Text: "ok", StopReason: "stop"}, nil
}

func TestWithRetrySucceedsAfterRetryableFailures(t *testing.T) {
	inner := &flakyClient{
		failures: 2,
		err:      &ModelError{Kind: ErrServer, Message: "server error", Retryable: true},
	}
	client := WithRetry(inner, RetryPolicy{MaxRetries: 3, BaseDelay: 0.001, MaxDelay: 0.001, BackoffMultiplier: 1})

	resp, err := client.Complete(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "ok" {
		t.Errorf("expected ok, got %q", resp.Text)
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 calls, got %d", inner.calls)
	}
}

func TestWithRetryGivesUpOnNonRetryable(t *testing.T) {
	inner := &flakyClient{
		failures: 10,
		err:      &ModelError{Kind: ErrAuth, Message: "bad key"},
	}
	client := WithRetry(inner, RetryPolicy{MaxRetries: 3, BaseDelay: 0.001, MaxDelay: 0.001, BackoffMultiplier: 1})

	if _, err := client.Complete(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Errorf("non-retryable fault should not be retried, got %d calls", inner.calls)
	}
}

func TestWithRetryExhaustsRetries(t *testing.T) {
	inner := &flakyClient{
		failures: 10,
		err:      &ModelError{Kind: ErrServer, Message: "server error", Retryable: true},
	}
	client := WithRetry(inner, RetryPolicy{MaxRetries: 2, BaseDelay: 0.001, MaxDelay: 0.001, BackoffMultiplier: 1})

	if _, err := client.Complete(context.Background(), Request{}); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if inner.calls != 3 {
		t.Errorf("expected initial call plus 2 retries, got %d", inner.calls)
	}
}
