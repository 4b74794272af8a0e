/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/RussellLuo/slidingwindow"
	"golang.org/x/time/rate"
)

// Default parameter values for RateLimitingRoundTripper.
const (
	DefaultRateLimitingBurst       = 1
	DefaultRateLimitingWaitTimeout = 15 * time.Second
)

// RateLimitAlgorithm is an algorithm used for client-side rate limiting.
type RateLimitAlgorithm string

// Rate limiting algorithms.
const (
	RateLimitAlgorithmLeakyBucket   RateLimitAlgorithm = "leaky_bucket"
	RateLimitAlgorithmSlidingWindow RateLimitAlgorithm = "sliding_window"
)

// RateLimitingRoundTripperOpts represents an options for RateLimitingRoundTripper.
type RateLimitingRoundTripperOpts struct {
	// Algorithm is leaky_bucket when empty.
	Algorithm   RateLimitAlgorithm
	Burst       int
	WaitTimeout time.Duration
}

type waitLimiter interface {
	Wait(ctx context.Context) error
}

// RateLimitingRoundTripper wraps implementing http.RoundTripper interface object
// and spaces outgoing requests so that no more than RateLimit requests per second are made.
type RateLimitingRoundTripper struct {
	Delegate http.RoundTripper

	RateLimit   int
	Algorithm   RateLimitAlgorithm
	Burst       int
	WaitTimeout time.Duration

	limiter waitLimiter
}

// NewRateLimitingRoundTripper creates a new RateLimitingRoundTripper with specified rate limit.
func NewRateLimitingRoundTripper(delegate http.RoundTripper, rateLimit int) (*RateLimitingRoundTripper, error) {
	return NewRateLimitingRoundTripperWithOpts(delegate, rateLimit, RateLimitingRoundTripperOpts{})
}

// NewRateLimitingRoundTripperWithOpts creates a new RateLimitingRoundTripper with specified rate limit and options.
// For options that are not presented, the default values will be used.
func NewRateLimitingRoundTripperWithOpts(
	delegate http.RoundTripper, rateLimit int, opts RateLimitingRoundTripperOpts,
) (*RateLimitingRoundTripper, error) {
	if rateLimit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive")
	}
	if opts.Burst < 0 {
		return nil, fmt.Errorf("burst must be positive")
	}
	if opts.Burst == 0 {
		opts.Burst = DefaultRateLimitingBurst
	}
	if opts.WaitTimeout == 0 {
		opts.WaitTimeout = DefaultRateLimitingWaitTimeout
	}
	if opts.Algorithm == "" {
		opts.Algorithm = RateLimitAlgorithmLeakyBucket
	}

	var limiter waitLimiter
	switch opts.Algorithm {
	case RateLimitAlgorithmLeakyBucket:
		limiter = rate.NewLimiter(rate.Limit(rateLimit), opts.Burst)
	case RateLimitAlgorithmSlidingWindow:
		limiter = newSlidingWindowLimiter(time.Second, rateLimit)
	default:
		return nil, fmt.Errorf("unknown rate limiting algorithm %q", opts.Algorithm)
	}

	return &RateLimitingRoundTripper{
		Delegate:    delegate,
		RateLimit:   rateLimit,
		Algorithm:   opts.Algorithm,
		Burst:       opts.Burst,
		WaitTimeout: opts.WaitTimeout,
		limiter:     limiter,
	}, nil
}

// RoundTrip executes a single HTTP transaction, returning a Response for the provided Request.
func (rt *RateLimitingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(r.Context(), rt.WaitTimeout)
	defer cancel()

	if err := rt.limiter.Wait(ctx); err != nil {
		if r.Body != nil {
			_ = r.Body.Close() // Per RoundTripper contract.
		}
		if errors.Is(r.Context().Err(), context.Canceled) {
			return nil, r.Context().Err()
		}
		return nil, &RateLimitingWaitError{Inner: err}
	}
	return rt.Delegate.RoundTrip(r)
}

// RateLimitingWaitError is returned in RoundTrip method of RateLimitingRoundTripper
// when the request could not be sent within the wait timeout.
type RateLimitingWaitError struct {
	Inner error
}

func (e *RateLimitingWaitError) Error() string {
	return fmt.Sprintf("wait due to client side rate limiting: %s", e.Inner.Error())
}

// Unwrap returns the next error in the error chain.
func (e *RateLimitingWaitError) Unwrap() error {
	return e.Inner
}

// slidingWindowLimiter makes slidingwindow.Limiter blocking.
type slidingWindowLimiter struct {
	lim    *slidingwindow.Limiter
	window time.Duration
}

func newSlidingWindowLimiter(window time.Duration, limit int) *slidingWindowLimiter {
	lim, _ := slidingwindow.NewLimiter(window, int64(limit), func() (slidingwindow.Window, slidingwindow.StopFunc) {
		return slidingwindow.NewLocalWindow()
	})
	return &slidingWindowLimiter{lim: lim, window: window}
}

func (l *slidingWindowLimiter) Wait(ctx context.Context) error {
	for {
		if l.lim.Allow() {
			return nil
		}
		// The previous window keeps being weighted in, so poll in small steps.
		now := time.Now()
		retryAfter := now.Truncate(l.window).Add(l.window).Sub(now)
		if step := l.window / 10; retryAfter > step {
			retryAfter = step
		}
		t := time.NewTimer(retryAfter)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
