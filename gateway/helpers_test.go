/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/atomic"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func zeroRand(int64) int64 { return 0 }

// missPausingMetrics holds the first caller that records a cache miss until release is closed.
type missPausingMetrics struct {
	*PrometheusMetrics
	paused  atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func newMissPausingMetrics(pm *PrometheusMetrics) *missPausingMetrics {
	return &missPausingMetrics{PrometheusMetrics: pm, entered: make(chan struct{}), release: make(chan struct{})}
}

func (m *missPausingMetrics) IncCacheLookups(result CacheLookupResult) {
	m.PrometheusMetrics.IncCacheLookups(result)
	if result == CacheLookupMiss && m.paused.CompareAndSwap(false, true) {
		close(m.entered)
		<-m.release
	}
}

// instantTimers records requested sleeps and fires immediately.
type instantTimers struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (it *instantTimers) New() backoff.Timer {
	return &instantTimer{owner: it}
}

func (it *instantTimers) Sleeps() []time.Duration {
	it.mu.Lock()
	defer it.mu.Unlock()
	return append([]time.Duration(nil), it.sleeps...)
}

type instantTimer struct {
	owner *instantTimers
	c     chan time.Time
}

func (t *instantTimer) Start(d time.Duration) {
	t.owner.mu.Lock()
	t.owner.sleeps = append(t.owner.sleeps, d)
	t.owner.mu.Unlock()
	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }

type recordedSpan struct {
	noop.Span
	name string

	mu    sync.Mutex
	attrs map[attribute.Key]attribute.Value
	err   error
}

func (s *recordedSpan) SetAttributes(kvs ...attribute.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kv := range kvs {
		s.attrs[kv.Key] = kv.Value
	}
}

func (s *recordedSpan) RecordError(err error, _ ...trace.EventOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *recordedSpan) attr(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attrs[attribute.Key(key)].AsString()
}

type recordingTracer struct {
	noop.Tracer

	mu    sync.Mutex
	spans []*recordedSpan
}

func (t *recordingTracer) Start(
	ctx context.Context, name string, opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordedSpan{name: name, attrs: make(map[attribute.Key]attribute.Value)}
	s.SetAttributes(cfg.Attributes()...)
	t.mu.Lock()
	t.spans = append(t.spans, s)
	t.mu.Unlock()
	return trace.ContextWithSpan(ctx, s), s
}

func (t *recordingTracer) Spans() []*recordedSpan {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*recordedSpan(nil), t.spans...)
}

type recordingTracerProvider struct {
	noop.TracerProvider
	tracer *recordingTracer
}

func (p recordingTracerProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return p.tracer
}
