/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

package gateway

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ethosview/dashgate/internal/buildinfo"
)

// CacheLookupResult is the result of a cache lookup made by Gateway.Get.
type CacheLookupResult string

// Cache lookup results.
const (
	CacheLookupFresh CacheLookupResult = "fresh"
	CacheLookupStale CacheLookupResult = "stale"
	CacheLookupMiss  CacheLookupResult = "miss"
)

// Outcome describes how a Gateway.Get call was resolved.
type Outcome string

// Gateway.Get outcomes.
const (
	OutcomeFresh         Outcome = "fresh"
	OutcomeBackoffStale  Outcome = "backoff_stale"
	OutcomeCoalesced     Outcome = "coalesced"
	OutcomeNetwork       Outcome = "network"
	OutcomeStaleFallback Outcome = "stale_fallback"
	OutcomeError         Outcome = "error"
)

// UpstreamStatusError is the status label of an upstream attempt that got no HTTP response.
const UpstreamStatusError = "error"

// MetricsCollector collects metrics about the gateway.
type MetricsCollector interface {
	// IncCacheLookups increments the number of cache lookups with the given result.
	IncCacheLookups(result CacheLookupResult)

	// SetCacheEntries sets the number of entries in the cache.
	SetCacheEntries(n int)

	// IncRequests increments the number of resolved Get calls.
	IncRequests(outcome Outcome)

	// IncUpstreamAttempts increments the number of upstream HTTP attempts with the given status.
	IncUpstreamAttempts(status string)

	// IncRateLimited increments the number of 429 responses.
	IncRateLimited()

	// SetAdmission sets the number of active and waiting upstream operations.
	SetAdmission(active, waiting int)
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels
}

// PrometheusMetrics implements MetricsCollector with Prometheus collectors.
type PrometheusMetrics struct {
	CacheLookups     *prometheus.CounterVec
	CacheEntries     prometheus.Gauge
	Requests         *prometheus.CounterVec
	UpstreamAttempts *prometheus.CounterVec
	RateLimited      prometheus.Counter
	AdmissionActive  prometheus.Gauge
	AdmissionWaiting prometheus.Gauge
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	constLabels := buildinfo.AddPrometheusVersionLabel(opts.ConstLabels)
	return &PrometheusMetrics{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "gateway_cache_lookups_total",
			Help:        "Number of cache lookups by result.",
			ConstLabels: constLabels,
		}, []string{"result"}),
		CacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "gateway_cache_entries",
			Help:        "Number of entries in the resource cache, stale ones included.",
			ConstLabels: constLabels,
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "gateway_requests_total",
			Help:        "Number of resolved gateway requests by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		UpstreamAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "gateway_upstream_attempts_total",
			Help:        "Number of upstream HTTP attempts by response status.",
			ConstLabels: constLabels,
		}, []string{"status"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "gateway_rate_limited_total",
			Help:        "Number of 429 responses received from upstream.",
			ConstLabels: constLabels,
		}),
		AdmissionActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "gateway_admission_active",
			Help:        "Number of upstream operations holding an admission slot.",
			ConstLabels: constLabels,
		}),
		AdmissionWaiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "gateway_admission_waiting",
			Help:        "Number of upstream operations waiting for an admission slot.",
			ConstLabels: constLabels,
		}),
	}
}

func (pm *PrometheusMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		pm.CacheLookups, pm.CacheEntries, pm.Requests, pm.UpstreamAttempts,
		pm.RateLimited, pm.AdmissionActive, pm.AdmissionWaiting,
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	pm.MustRegisterIn(prometheus.DefaultRegisterer)
}

// MustRegisterIn is like MustRegister but registers the collectors in reg.
func (pm *PrometheusMetrics) MustRegisterIn(reg prometheus.Registerer) {
	reg.MustRegister(pm.collectors()...)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	for _, c := range pm.collectors() {
		prometheus.Unregister(c)
	}
}

// IncCacheLookups increments the number of cache lookups with the given result.
func (pm *PrometheusMetrics) IncCacheLookups(result CacheLookupResult) {
	pm.CacheLookups.WithLabelValues(string(result)).Inc()
}

// SetCacheEntries sets the number of entries in the cache.
func (pm *PrometheusMetrics) SetCacheEntries(n int) {
	pm.CacheEntries.Set(float64(n))
}

// IncRequests increments the number of resolved Get calls.
func (pm *PrometheusMetrics) IncRequests(outcome Outcome) {
	pm.Requests.WithLabelValues(string(outcome)).Inc()
}

// IncUpstreamAttempts increments the number of upstream HTTP attempts with the given status.
func (pm *PrometheusMetrics) IncUpstreamAttempts(status string) {
	pm.UpstreamAttempts.WithLabelValues(status).Inc()
}

// IncRateLimited increments the number of 429 responses.
func (pm *PrometheusMetrics) IncRateLimited() {
	pm.RateLimited.Inc()
}

// SetAdmission sets the number of active and waiting upstream operations.
func (pm *PrometheusMetrics) SetAdmission(active, waiting int) {
	pm.AdmissionActive.Set(float64(active))
	pm.AdmissionWaiting.Set(float64(waiting))
}

type disabledMetrics struct{}

func (disabledMetrics) IncCacheLookups(CacheLookupResult) {}
func (disabledMetrics) SetCacheEntries(int)               {}
func (disabledMetrics) IncRequests(Outcome)               {}
func (disabledMetrics) IncUpstreamAttempts(string)        {}
func (disabledMetrics) IncRateLimited()                   {}
func (disabledMetrics) SetAdmission(int, int)             {}
