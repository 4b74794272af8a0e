/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package retry provides backoff policies on top of github.com/cenkalti/backoff/v4
// and a helper that runs an operation under such a policy.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// IsRetryable defines a func that can tell if error is retryable as opposed to persistent.
type IsRetryable func(error) bool

// RetryableFunc is function that does some work and can be potentially retried.
type RetryableFunc func(ctx context.Context) error

// Policy defines backoff strategy.
type Policy interface {
	NewBackOff() backoff.BackOff
}

// DoWithRetry executes fn with retry according to policy p and with respect to context ctx.
// IsRetryable defines which errors lead to retry attempt (nil means any error).
// Errors wrapped with backoff.Permanent stop the loop regardless of isRetryable.
// Notify receives every retry with error and backoff delay (may be nil).
func DoWithRetry(ctx context.Context, p Policy, isRetryable IsRetryable, notify backoff.Notify, fn RetryableFunc) error {
	return DoWithRetryTimer(ctx, p, isRetryable, notify, nil, fn)
}

// DoWithRetryTimer is like DoWithRetry but sleeps between attempts with the given timer.
// Nil timer means the real-time timer.
func DoWithRetryTimer(
	ctx context.Context, p Policy, isRetryable IsRetryable, notify backoff.Notify, timer backoff.Timer, fn RetryableFunc,
) error {
	bctx := backoff.WithContext(p.NewBackOff(), ctx)
	var op backoff.Operation = func() error {
		err := fn(bctx.Context())
		if err != nil && isRetryable != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotifyWithTimer(op, bctx, notify, timer)
}

// The PolicyFunc type is an adapter to allow the use of ordinary functions as retry.Policy.
type PolicyFunc func() backoff.BackOff

// NewBackOff implements retry.Policy.
func (f PolicyFunc) NewBackOff() backoff.BackOff {
	return f()
}

// BackOffFunc is a backoff.BackOff whose next delay is whatever the function returns.
// It lets a caller pick the delay from the outcome of the previous attempt
// (e.g. a Retry-After header). Returning backoff.Stop ends the loop.
type BackOffFunc func() time.Duration

// NextBackOff implements backoff.BackOff.
func (f BackOffFunc) NextBackOff() time.Duration {
	return f()
}

// Reset implements backoff.BackOff.
func (f BackOffFunc) Reset() {}

// DelayedAttemptsPolicy makes at most maxAttempts attempts in total,
// sleeping between them for the delay reported by next.
type DelayedAttemptsPolicy struct {
	maxAttempts int
	next        func() time.Duration
}

// NewDelayedAttemptsPolicy returns a policy that makes up to maxAttempts attempts
// and asks next for every delay between them.
func NewDelayedAttemptsPolicy(maxAttempts int, next func() time.Duration) DelayedAttemptsPolicy {
	return DelayedAttemptsPolicy{maxAttempts: maxAttempts, next: next}
}

// NewBackOff implements retry.Policy.
func (p DelayedAttemptsPolicy) NewBackOff() backoff.BackOff {
	if p.maxAttempts <= 1 {
		return &backoff.StopBackOff{}
	}
	bf := backoff.WithMaxRetries(BackOffFunc(p.next), uint64(p.maxAttempts-1))
	bf.Reset()
	return bf
}

// ExponentialBackoffPolicy means repeat up to max times with exponentially growing delays (1.5 multiplier).
type ExponentialBackoffPolicy struct {
	initialInterval time.Duration
	maxAttempts     int
}

// NewExponentialBackoffPolicy returns an exponential backoff policy with given initial interval and max retry attempt count.
func NewExponentialBackoffPolicy(initialInterval time.Duration, maxRetryAttempts int) ExponentialBackoffPolicy {
	return ExponentialBackoffPolicy{initialInterval, maxRetryAttempts}
}

// NewBackOff implements retry.Policy.
func (p ExponentialBackoffPolicy) NewBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.initialInterval
	var bf backoff.BackOff = eb
	if p.maxAttempts > 0 {
		bf = backoff.WithMaxRetries(eb, uint64(p.maxAttempts))
	}
	bf.Reset()
	return bf
}

// ConstantBackoffPolicy means repeat up to max times with constant interval delays.
type ConstantBackoffPolicy struct {
	interval    time.Duration
	maxAttempts int
}

// NewConstantBackoffPolicy returns a constant backoff policy with given interval and max retry attempt count.
func NewConstantBackoffPolicy(interval time.Duration, maxRetryAttempts int) ConstantBackoffPolicy {
	return ConstantBackoffPolicy{interval, maxRetryAttempts}
}

// NewBackOff implements retry.Policy.
func (p ConstantBackoffPolicy) NewBackOff() backoff.BackOff {
	var bf backoff.BackOff = backoff.NewConstantBackOff(p.interval)
	if p.maxAttempts > 0 {
		bf = backoff.WithMaxRetries(bf, uint64(p.maxAttempts))
	}
	bf.Reset()
	return bf
}
