/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

package gateway

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// backoffWindows remembers until when network calls should be avoided,
// globally and per key. Windows expire by themselves.
type backoffWindows struct {
	mu     sync.Mutex
	global time.Time
	perKey map[string]time.Time
}

func newBackoffWindows() *backoffWindows {
	return &backoffWindows{perKey: make(map[string]time.Time)}
}

// extend moves both the global and the key window to until. A window is never shortened.
func (w *backoffWindows) extend(key string, until time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if until.After(w.global) {
		w.global = until
	}
	if until.After(w.perKey[key]) {
		w.perKey[key] = until
	}
}

// active reports whether either window covering the key is open. Neither takes precedence.
func (w *backoffWindows) active(key string, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return now.Before(w.global) || now.Before(w.perKey[key])
}

func (w *backoffWindows) globalRemaining(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return remaining(w.global, now)
}

func (w *backoffWindows) keyRemaining(key string, now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return remaining(w.perKey[key], now)
}

func remaining(until, now time.Time) time.Duration {
	if !now.Before(until) {
		return 0
	}
	return until.Sub(now)
}

// RateLimitPolicy computes how long to back off after a 429 response.
type RateLimitPolicy struct {
	// MinDelay is used when Retry-After is absent or malformed, and is the lower bound of the base delay.
	MinDelay time.Duration
	// MaxDelay caps the delay requested by Retry-After, before jitter.
	MaxDelay time.Duration
	// JitterMin and JitterMax bound the random delay added on top of the base delay.
	JitterMin time.Duration
	JitterMax time.Duration
}

// Delay returns the backoff delay for a 429 response with the given Retry-After header value.
// rnd(n) must return a number in [0, n).
func (p RateLimitPolicy) Delay(retryAfter string, now time.Time, rnd func(n int64) int64) time.Duration {
	base := p.MinDelay
	if d, ok := parseRetryAfter(retryAfter, now); ok && d > 0 {
		base = d
		if p.MaxDelay > 0 && base > p.MaxDelay {
			base = p.MaxDelay
		}
	}
	if base < p.MinDelay {
		base = p.MinDelay
	}
	return base + randomBetween(p.JitterMin, p.JitterMax, rnd)
}

// parseRetryAfter accepts delay-seconds and HTTP-date forms.
func parseRetryAfter(val string, now time.Time) (time.Duration, bool) {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		t, parseErr := time.Parse(time.RFC1123, val)
		if parseErr != nil {
			return 0, false
		}
		return t.Sub(now), true
	}
	if secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

func randomBetween(lo, hi time.Duration, rnd func(n int64) int64) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rnd(int64(hi-lo)+1))
}
