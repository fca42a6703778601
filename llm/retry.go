package llm

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy configures retry behavior with exponential backoff. Retrying is
// a collaborator concern; the orchestration core never retries on its own, so
// the policy is applied as an opt-in Client wrapper (see WithRetry).
type RetryPolicy struct {
	MaxRetries        int     // retry attempts, not counting the initial call
	BaseDelay         float64 // initial delay in seconds
	MaxDelay          float64 // maximum delay between retries in seconds
	BackoffMultiplier float64 // exponential backoff factor
	Jitter            bool    // add random jitter to prevent thundering herd
	OnRetry           func(err error, attempt int, delay time.Duration)
}

// DefaultRetryPolicy returns a conservative default policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		BaseDelay:         1.0,
		MaxDelay:          60.0,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// Delay calculates the delay for attempt n (0-indexed).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := math.Min(p.BaseDelay*math.Pow(p.BackoffMultiplier, float64(attempt)), p.MaxDelay)
	if p.Jitter {
		delay = delay * (0.5 + rand.Float64()) // +/- 50%
	}
	return time.Duration(delay * float64(time.Second))
}

type retryClient struct {
	inner  Client
	policy RetryPolicy
}

// WithRetry wraps a Client so that retryable model faults are retried
// according to the policy. Non-retryable faults pass through unchanged.
func WithRetry(c Client, policy RetryPolicy) Client {
	return &retryClient{inner: c, policy: policy}
}

func (c *retryClient) Complete(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.inner.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}

	for attempt := 0; attempt < c.policy.MaxRetries; attempt++ {
		if !IsRetryable(err) {
			return nil, err
		}

		delay := c.policy.Delay(attempt)
		if me, ok := err.(*ModelError); ok && me.Kind == ErrRateLimit && me.RetryAfter != nil {
			retryDelay := time.Duration(*me.RetryAfter * float64(time.Second))
			if retryDelay > time.Duration(c.policy.MaxDelay*float64(time.Second)) {
				// Retry-After exceeds the cap; surface immediately.
				return nil, err
			}
			delay = retryDelay
		}

		if c.policy.OnRetry != nil {
			c.policy.OnRetry(err, attempt+1, delay)
		}

		select {
		case <-ctx.Done():
			return nil, &ModelError{Kind: ErrTimeout, Message: "request cancelled during retry", Cause: ctx.Err()}
		case <-time.After(delay):
		}

		resp, err = c.inner.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
	}

	return nil, err
}
