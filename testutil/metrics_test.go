/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestRequireSamplesCountInCounter(t *testing.T) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "requests_total"}, []string{"outcome"})
	requests.WithLabelValues("fresh").Add(42)
	requests.WithLabelValues("network").Inc()

	mockT := &MockT{}
	RequireSamplesCountInCounter(mockT, requests.WithLabelValues("fresh"), 41)
	require.True(t, mockT.Failed)

	mockT = &MockT{}
	RequireSamplesCountInCounter(mockT, requests.WithLabelValues("fresh"), 42)
	require.False(t, mockT.Failed)
}

func TestRequireSamplesCountInHistogram(t *testing.T) {
	durations := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "durations", Buckets: []float64{0.1, 1, 10}}, []string{"status"})
	durations.WithLabelValues("200").Observe(0.5)
	durations.WithLabelValues("429").Observe(0.05)

	mockT := &MockT{}
	RequireSamplesCountInHistogram(mockT, durations, 1)
	require.True(t, mockT.Failed)

	mockT = &MockT{}
	RequireSamplesCountInHistogram(mockT, durations, 2)
	require.False(t, mockT.Failed)
}
