/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

package esgapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ethosview/dashgate/log"
	"github.com/ethosview/dashgate/log/logtest"
	"github.com/ethosview/dashgate/testutil"
)

func TestWarmup(t *testing.T) {
	errBoom := errors.New("boom")
	logger := logtest.NewRecorder()

	var mu sync.Mutex
	started := make(map[string]time.Time)
	call := func(name string, err error) WarmupCall {
		return WarmupCall{Name: name, Fetch: func(ctx context.Context) error {
			mu.Lock()
			started[name] = time.Now()
			mu.Unlock()
			return err
		}}
	}
	calls := []WarmupCall{call("first", nil), call("second", errBoom), call("third", nil)}
	const stagger = 30 * time.Millisecond

	begin := time.Now()
	results := Warmup(context.Background(), calls, stagger, logger)

	require.Len(t, results, 3)
	require.Equal(t, "first", results[0].Name)
	require.NoError(t, results[0].Err)
	require.Equal(t, "second", results[1].Name)
	require.ErrorIs(t, results[1].Err, errBoom)
	require.Equal(t, "third", results[2].Name)
	require.NoError(t, results[2].Err)

	for i, name := range []string{"first", "second", "third"} {
		require.GreaterOrEqual(t, started[name].Sub(begin), time.Duration(i)*stagger, name)
	}

	entries := logger.FindAllEntriesByFilter(func(e logtest.RecordedEntry) bool { return e.Text == "warm-up call failed" })
	require.Len(t, entries, 1)
	require.Equal(t, log.LevelWarn, entries[0].Level)
	field, ok := entries[0].FindField("resource")
	require.True(t, ok)
	require.Equal(t, "second", string(field.Bytes))
}

func TestWarmup_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := []WarmupCall{
		{Name: "first", Fetch: func(context.Context) error {
			cancel()
			return nil
		}},
		{Name: "second", Fetch: func(context.Context) error {
			return errors.New("must not be called")
		}},
	}
	results := Warmup(ctx, calls, time.Hour, nil)

	require.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, context.Canceled)
}

func TestWarmup_Empty(t *testing.T) {
	require.Empty(t, Warmup(context.Background(), nil, time.Second, nil))
}

func TestClient_HomePage(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Warmup.Stagger = 0
	env := newTestEnv(t, cfg)

	requestURIs := []string{
		"/api/v1/dashboard",
		"/api/v1/analytics/summary",
		"/api/v1/financial/market",
		"/api/v1/financial/market/history?start_date=2025-03-03&end_date=2025-03-10&limit=30",
		"/api/v1/analytics/correlation/esg-financial",
		"/api/v1/analytics/top-performers/pe_ratio?limit=24",
		"/alerts?all=false",
		"/api/v1/ws/status",
		"/api/v1/analytics/companies/1/esg-trends?days=30",
		"/api/v1/advanced/summary",
		"/api/v1/financial/companies/1/indicators",
		"/api/v1/financial/companies/1/price/latest",
		"/api/v1/esg/scores?limit=20&min_score=0&offset=0",
		"/api/v1/financial/companies/1/summary",
		"/api/v1/financial/companies/1/prices?limit=30",
	}
	for _, uri := range requestURIs {
		env.handle(uri, http.StatusOK, `{}`)
	}
	env.upstream.Handle("/api/v1/advanced/summary", testutil.JSONResponse(http.StatusServiceUnavailable, `{"detail":"warming up"}`))

	calls := env.client.HomePage()
	require.Len(t, calls, len(requestURIs))

	results := env.client.Warmup(context.Background(), calls)
	require.Len(t, results, len(requestURIs))
	for i, res := range results {
		require.Equal(t, calls[i].Name, res.Name)
		if res.Name == string(ResourceAdvancedSummary) {
			require.Error(t, res.Err)
			continue
		}
		require.NoError(t, res.Err, res.Name)
	}
	for _, uri := range requestURIs {
		require.Equal(t, 1, env.upstream.Calls(uri), uri)
	}

	_, found := env.logger.FindEntry("warm-up call failed")
	require.True(t, found)
}

func TestClient_WarmupDeadline(t *testing.T) {
	env := newTestEnv(t, nil)
	release := make(chan struct{})
	env.upstream.Handle("/api/v1/dashboard", testutil.Blocking(release, testutil.JSONResponse(http.StatusOK, `{}`)))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	go func() {
		<-ctx.Done()
		close(release)
	}()

	calls := []WarmupCall{
		warmupCall(ResourceDashboard, env.client.Dashboard),
		warmupCall(ResourceDashboard, env.client.Dashboard),
	}
	results := Warmup(ctx, calls, 10*time.Millisecond, env.logger)

	require.NoError(t, results[0].Err, "the request owner is not bound to the deadline")
	testutil.RequireErrorIsAny(t, results[1].Err, []error{context.DeadlineExceeded, context.Canceled})
	require.Equal(t, 1, env.upstream.Calls("/api/v1/dashboard"))
}
