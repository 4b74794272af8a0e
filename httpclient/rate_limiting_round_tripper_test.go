/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func makeTestServerForRateLimitingRoundTripper() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte(`{"ok":true}`))
	}))
}

func TestNewRateLimitingRoundTripper(t *testing.T) {
	tests := []struct {
		name       string
		rateLimit  int
		opts       RateLimitingRoundTripperOpts
		wantErrMsg string
	}{
		{name: "rate limit is negative", rateLimit: -1, wantErrMsg: "rate limit must be positive"},
		{name: "rate limit is zero", rateLimit: 0, wantErrMsg: "rate limit must be positive"},
		{
			name:       "burst is negative",
			rateLimit:  1,
			opts:       RateLimitingRoundTripperOpts{Burst: -1},
			wantErrMsg: "burst must be positive",
		},
		{
			name:       "unknown algorithm",
			rateLimit:  1,
			opts:       RateLimitingRoundTripperOpts{Algorithm: "token_bucket"},
			wantErrMsg: `unknown rate limiting algorithm "token_bucket"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRateLimitingRoundTripperWithOpts(http.DefaultTransport, tt.rateLimit, tt.opts)
			require.EqualError(t, err, tt.wantErrMsg)
		})
	}

	rt, err := NewRateLimitingRoundTripper(http.DefaultTransport, 2)
	require.NoError(t, err)
	require.Equal(t, RateLimitAlgorithmLeakyBucket, rt.Algorithm)
	require.Equal(t, DefaultRateLimitingBurst, rt.Burst)
	require.Equal(t, DefaultRateLimitingWaitTimeout, rt.WaitTimeout)
	lim, ok := rt.limiter.(*rate.Limiter)
	require.True(t, ok)
	require.Equal(t, rate.Limit(2), lim.Limit())
}

func TestRateLimitingRoundTripper_LeakyBucket(t *testing.T) {
	server := makeTestServerForRateLimitingRoundTripper()
	defer server.Close()

	// A request every 100ms at most.
	rt, err := NewRateLimitingRoundTripper(http.DefaultTransport, 10)
	require.NoError(t, err)
	client := &http.Client{Transport: rt}

	const requests = 4
	start := time.Now()
	for i := 0; i < requests; i++ {
		resp := doRequest(t, client, context.Background(), server.URL)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	require.GreaterOrEqual(t, time.Since(start), (requests-1)*100*time.Millisecond-10*time.Millisecond)
}

func TestRateLimitingRoundTripper_SlidingWindow(t *testing.T) {
	server := makeTestServerForRateLimitingRoundTripper()
	defer server.Close()

	rt, err := NewRateLimitingRoundTripperWithOpts(http.DefaultTransport, 3, RateLimitingRoundTripperOpts{
		Algorithm: RateLimitAlgorithmSlidingWindow,
	})
	require.NoError(t, err)
	client := &http.Client{Transport: rt}

	var wg sync.WaitGroup
	finished := make(chan time.Time, 4)
	start := time.Now()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := client.Get(server.URL)
			if err == nil {
				_ = resp.Body.Close()
			}
			finished <- time.Now()
		}()
	}
	wg.Wait()
	close(finished)

	var late int
	for f := range finished {
		if f.Sub(start) >= 50*time.Millisecond {
			late++
		}
	}
	// Only 3 requests fit into the current window.
	require.GreaterOrEqual(t, late, 1)
}

func TestRateLimitingRoundTripper_WaitTimeout(t *testing.T) {
	server := makeTestServerForRateLimitingRoundTripper()
	defer server.Close()

	rt, err := NewRateLimitingRoundTripperWithOpts(http.DefaultTransport, 1, RateLimitingRoundTripperOpts{
		WaitTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	client := &http.Client{Transport: rt}

	doRequest(t, client, context.Background(), server.URL)

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	_, err = client.Do(req)
	var waitErr *RateLimitingWaitError
	require.ErrorAs(t, err, &waitErr)
}

func TestRateLimitingRoundTripper_ContextCanceled(t *testing.T) {
	server := makeTestServerForRateLimitingRoundTripper()
	defer server.Close()

	rt, err := NewRateLimitingRoundTripperWithOpts(http.DefaultTransport, 1, RateLimitingRoundTripperOpts{
		Algorithm: RateLimitAlgorithmSlidingWindow,
	})
	require.NoError(t, err)
	client := &http.Client{Transport: rt}
	doRequest(t, client, context.Background(), server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	_, err = client.Do(req)
	require.ErrorIs(t, err, context.Canceled)
	var waitErr *RateLimitingWaitError
	require.False(t, errors.As(err, &waitErr))
}
