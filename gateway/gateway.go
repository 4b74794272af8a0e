/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/vasayxtx/go-glob"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethosview/dashgate/httpclient"
	"github.com/ethosview/dashgate/internal/admission"
	"github.com/ethosview/dashgate/log"
	"github.com/ethosview/dashgate/retry"
)

const tracerName = "github.com/ethosview/dashgate/gateway"

// Opts contains optional parameters for the Gateway.
type Opts struct {
	// HTTPClient performs upstream requests. A client with the default transport is used when nil.
	HTTPClient *http.Client

	// Logger is used for gateway logs. Logging is disabled when nil.
	Logger log.FieldLogger

	// MetricsCollector collects gateway metrics. Metrics are disabled when nil.
	MetricsCollector MetricsCollector

	// TracerProvider creates the tracer for Get spans. The global provider is used when nil.
	TracerProvider trace.TracerProvider

	// Now returns the current time. time.Now is used when nil.
	Now func() time.Time

	// Rand returns a random number in [0, n). math/rand is used when nil.
	Rand func(n int64) int64

	// NewTimer returns the timer that sleeps between 429 attempts of one operation.
	// The real-time timer is used when nil.
	NewTimer func() backoff.Timer
}

// fetchResult is what a coalesced upstream operation hands to every caller.
type fetchResult struct {
	data    []byte
	outcome Outcome
}

// Gateway is a caching, coalescing, concurrency-bounded and backoff-aware client for the upstream JSON API.
// One Gateway is expected per process; all of its state lives in the instance.
type Gateway struct {
	cfg       *Config
	client    *http.Client
	logger    log.FieldLogger
	metrics   MetricsCollector
	tracer    trace.Tracer
	now       func() time.Time
	rnd       func(n int64) int64
	newTimer  func() backoff.Timer
	rateLimit RateLimitPolicy
	baseURL   string

	lowPriorityPatterns []func(path string) bool

	cache    *ResourceCache
	inflight *coalescer[fetchResult]
	gate     *admission.Gate
	backoff  *backoffWindows
}

// New creates a new Gateway.
func New(cfg *Config, opts Opts) (*Gateway, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := validateBaseURL(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("base URL: %w", err)
	}
	if cfg.MaxAttempts <= 0 {
		return nil, fmt.Errorf("max attempts should be positive, got %d", cfg.MaxAttempts)
	}

	g := &Gateway{
		cfg:       cfg,
		client:    opts.HTTPClient,
		logger:    opts.Logger,
		metrics:   opts.MetricsCollector,
		now:       opts.Now,
		rnd:       opts.Rand,
		newTimer:  opts.NewTimer,
		rateLimit: cfg.RateLimit.Policy(),
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		inflight:  newCoalescer[fetchResult](),
		backoff:   newBackoffWindows(),
	}
	if g.client == nil {
		g.client = &http.Client{}
	}
	if g.logger == nil {
		g.logger = log.NewDisabledLogger()
	}
	if g.metrics == nil {
		g.metrics = disabledMetrics{}
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.rnd == nil {
		g.rnd = rand.Int63n
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	g.tracer = tp.Tracer(tracerName)

	for _, pattern := range cfg.LowPriority.Patterns {
		if pattern != "" {
			g.lowPriorityPatterns = append(g.lowPriorityPatterns, glob.Compile(pattern))
		}
	}

	var err error
	if g.gate, err = admission.NewWithOpts(cfg.MaxConcurrency, admission.Opts{OnChange: g.metrics.SetAdmission}); err != nil {
		return nil, fmt.Errorf("create admission gate: %w", err)
	}
	g.cache = NewResourceCache(g.now, g.metrics)
	return g, nil
}

// Get returns the JSON body of the resource at path (query string included).
// ttl is how long a successful response stays fresh; a non-positive ttl disables caching for the call.
//
// A cached value, however stale, is returned instead of an error whenever one exists.
// The returned slice belongs to the caller.
func (g *Gateway) Get(ctx context.Context, path string, ttl time.Duration, opts ...RequestOption) ([]byte, error) {
	data, err := g.get(ctx, path, ttl, opts)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(data), nil
}

// GetJSON is like Gateway.Get but decodes the body into T.
func GetJSON[T any](ctx context.Context, g *Gateway, path string, ttl time.Duration, opts ...RequestOption) (T, error) {
	var v T
	data, err := g.get(ctx, path, ttl, opts)
	if err != nil {
		return v, err
	}
	if err = json.Unmarshal(data, &v); err != nil {
		return v, &ParseError{URL: g.ResolveURL(path), Err: err}
	}
	return v, nil
}

// ResolveURL returns the cache key and the upstream URL for path.
func (g *Gateway) ResolveURL(path string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return g.baseURL + path
}

// BackoffRemaining returns how long the global backoff window stays open (0 when it's closed).
func (g *Gateway) BackoffRemaining() time.Duration {
	return g.backoff.globalRemaining(g.now())
}

// KeyBackoffRemaining returns how long the backoff window of the resource at path stays open.
func (g *Gateway) KeyBackoffRemaining(path string) time.Duration {
	return g.backoff.keyRemaining(g.ResolveURL(path), g.now())
}

// Cache returns the resource cache of the gateway.
func (g *Gateway) Cache() *ResourceCache {
	return g.cache
}

func (g *Gateway) get(ctx context.Context, path string, ttl time.Duration, opts []RequestOption) ([]byte, error) {
	ro := requestOptions{requestType: DefaultRequestType}
	for _, opt := range opts {
		opt(&ro)
	}
	if !ro.lowPriority {
		ro.lowPriority = g.isLowPriority(path)
	}
	key := g.ResolveURL(path)

	ctx, span := g.tracer.Start(ctx, "gateway.Get", trace.WithAttributes(attribute.String("gateway.key", key)))
	defer span.End()

	res, err := g.resolve(ctx, key, ttl, ro)
	outcome := res.outcome
	if err != nil {
		outcome = OutcomeError
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("gateway.outcome", string(outcome)))
	g.metrics.IncRequests(outcome)
	return res.data, err
}

func (g *Gateway) resolve(ctx context.Context, key string, ttl time.Duration, ro requestOptions) (fetchResult, error) {
	logger := g.logger.With(log.String("key", key))

	now := g.now()
	entry, cached := g.cache.Get(key)
	if cached && g.backoff.active(key, now) {
		g.recordLookup(entry, now)
		logger.Debug("backoff window is open, serving cached data", log.Bool("fresh", entry.IsFresh(now)))
		return fetchResult{data: entry.Data, outcome: OutcomeBackoffStale}, nil
	}
	if cached && entry.IsFresh(now) {
		g.metrics.IncCacheLookups(CacheLookupFresh)
		logger.Debug("cache hit")
		return fetchResult{data: entry.Data, outcome: OutcomeFresh}, nil
	}
	if cached {
		g.metrics.IncCacheLookups(CacheLookupStale)
	} else {
		g.metrics.IncCacheLookups(CacheLookupMiss)
	}

	// The upstream operation is not bound to the caller's cancellation:
	// other callers may be waiting for it and its result is cached.
	fetchCtx := context.WithoutCancel(ctx)
	res, shared, err := g.inflight.DoContext(ctx, key, func() (fetchResult, error) {
		// A previous owner may have refreshed the entry between the lookup and the election.
		if entry, ok := g.cache.Get(key); ok && entry.IsFresh(g.now()) {
			logger.Debug("cache was refreshed by a completed operation")
			return fetchResult{data: entry.Data, outcome: OutcomeFresh}, nil
		}
		return g.fetch(fetchCtx, key, ttl, ro, logger)
	})
	if shared && err == nil {
		res.outcome = OutcomeCoalesced
	}
	return res, err
}

func (g *Gateway) recordLookup(entry CacheEntry, now time.Time) {
	if entry.IsFresh(now) {
		g.metrics.IncCacheLookups(CacheLookupFresh)
	} else {
		g.metrics.IncCacheLookups(CacheLookupStale)
	}
}

func (g *Gateway) isLowPriority(path string) bool {
	for _, prefix := range g.cfg.LowPriority.Prefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, match := range g.lowPriorityPatterns {
		if match(path) {
			return true
		}
	}
	return false
}

// fetch is run by the single owner of the key. It never returns an error when a cached entry exists.
func (g *Gateway) fetch(
	ctx context.Context, key string, ttl time.Duration, ro requestOptions, logger log.FieldLogger,
) (fetchResult, error) {
	if ro.lowPriority {
		g.sleep(ctx, randomBetween(g.cfg.LowPriority.JitterMin, g.cfg.LowPriority.JitterMax, g.rnd))
	}

	var res fetchResult
	err := g.gate.Do(ctx, func() error {
		var dispatchErr error
		res, dispatchErr = g.dispatch(ctx, key, ttl, ro, logger)
		return dispatchErr
	})
	if err == nil {
		return res, nil
	}

	if entry, ok := g.cache.Get(key); ok {
		logger.Warn("upstream request failed, serving stale data", log.Error(err))
		return fetchResult{data: entry.Data, outcome: OutcomeStaleFallback}, nil
	}
	logger.Warn("upstream request failed", log.Error(err))
	return fetchResult{}, err
}

// dispatch makes up to MaxAttempts upstream attempts. Only 429 responses are retried,
// and only when there is nothing cached to serve instead.
func (g *Gateway) dispatch(
	ctx context.Context, key string, ttl time.Duration, ro requestOptions, logger log.FieldLogger,
) (fetchResult, error) {
	var res fetchResult
	var nextDelay time.Duration
	attempt := 0

	policy := retry.NewDelayedAttemptsPolicy(g.cfg.MaxAttempts, func() time.Duration { return nextDelay })
	notify := func(err error, delay time.Duration) {
		logger.Warn("upstream is rate limiting, retrying",
			log.Int("attempt", attempt), log.Int("max_attempts", g.cfg.MaxAttempts), log.Duration("delay", delay))
	}
	var timer backoff.Timer
	if g.newTimer != nil {
		timer = g.newTimer()
	}
	err := retry.DoWithRetryTimer(ctx, policy, nil, notify, timer, func(ctx context.Context) error {
		attempt++
		data, err := g.doRequest(ctx, key, ro)
		if err == nil {
			g.cache.Set(key, data, ttl)
			res = fetchResult{data: data, outcome: OutcomeNetwork}
			return nil
		}

		var rlErr *RateLimitedError
		if !errors.As(err, &rlErr) {
			return backoff.Permanent(err)
		}

		now := g.now()
		nextDelay = g.rateLimit.Delay(rlErr.RetryAfter, now, g.rnd)
		g.backoff.extend(key, now.Add(nextDelay))
		g.metrics.IncRateLimited()

		if entry, ok := g.cache.Get(key); ok {
			logger.Warn("upstream is rate limiting, serving cached data",
				log.String("retry_after", rlErr.RetryAfter), log.Duration("backoff", nextDelay))
			res = fetchResult{data: entry.Data, outcome: OutcomeBackoffStale}
			return nil
		}
		return err
	})
	return res, err
}

func (g *Gateway) doRequest(ctx context.Context, url string, ro requestOptions) ([]byte, error) {
	ctx = httpclient.NewContextWithRequestType(ctx, ro.requestType)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	for k, vals := range ro.header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.metrics.IncUpstreamAttempts(UpstreamStatusError)
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	g.metrics.IncUpstreamAttempts(strconv.Itoa(resp.StatusCode))

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitedError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       readErrorBody(resp),
			RetryAfter: resp.Header.Get("Retry-After"),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status, Body: readErrorBody(resp)}
	}

	body := io.Reader(resp.Body)
	if g.cfg.MaxBodySize > 0 {
		body = io.LimitReader(resp.Body, int64(g.cfg.MaxBodySize)+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	if g.cfg.MaxBodySize > 0 && uint64(len(data)) > uint64(g.cfg.MaxBodySize) {
		return nil, &ParseError{URL: url, Err: fmt.Errorf("body exceeds %s", g.cfg.MaxBodySize)}
	}
	if !json.Valid(data) {
		return nil, &ParseError{URL: url, Err: errors.New("body is not valid JSON")}
	}
	return data, nil
}

func (g *Gateway) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
