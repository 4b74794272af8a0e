/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

package main

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethosview/dashgate/testutil"
)

var homePagePaths = []string{
	"/api/v1/dashboard",
	"/api/v1/analytics/summary",
	"/api/v1/financial/market",
	"/api/v1/financial/market/history",
	"/api/v1/analytics/correlation/esg-financial",
	"/api/v1/analytics/top-performers/pe_ratio",
	"/alerts",
	"/api/v1/ws/status",
	"/api/v1/analytics/companies/1/esg-trends",
	"/api/v1/advanced/summary",
	"/api/v1/financial/companies/1/indicators",
	"/api/v1/financial/companies/1/price/latest",
	"/api/v1/esg/scores",
	"/api/v1/financial/companies/1/summary",
	"/api/v1/financial/companies/1/prices",
}

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func testConfig(baseURL string) string {
	return fmt.Sprintf(`
log:
  level: error
  output: stderr
gateway:
  baseURL: %s
  maxAttempts: 1
  lowPriority:
    jitterMin: 0s
    jitterMax: 0s
httpclient:
  metrics:
    enabled: true
esgapi:
  warmup:
    stagger: 0s
`, baseURL)
}

func TestRun(t *testing.T) {
	upstream := testutil.NewUpstream()
	defer upstream.Close()
	for _, path := range homePagePaths {
		upstream.Handle(path, testutil.JSONResponse(http.StatusOK, `{}`))
	}
	upstream.Handle("/alerts", testutil.TooManyRequests("1"))
	upstream.Handle("/api/v1/ws/status", testutil.JSONResponse(http.StatusBadGateway, `{"detail":"hub is down"}`))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", writeConfig(t, testConfig(upstream.URL)), "-metrics"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out := stdout.String()
	require.Regexp(t, regexp.MustCompile(`(?m)^RESOURCE\s+STATUS\s+DURATION$`), out)
	require.Regexp(t, regexp.MustCompile(`(?m)^dashboard\s+ok\s`), out)
	require.Regexp(t, regexp.MustCompile(`(?m)^alerts\s+rate limited\s`), out)
	require.Regexp(t, regexp.MustCompile(`(?m)^ws_status\s+error: HTTP 502 Bad Gateway`), out)
	require.Regexp(t, regexp.MustCompile(`(?m)^backoff remaining: [1-9]`), out)
	require.Contains(t, out, "ethosview_gateway_requests_total")
	require.Contains(t, out, "ethosview_http_client_request_duration_seconds")
	require.Equal(t, len(homePagePaths), upstream.TotalCalls())
}

func TestRun_DumpConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", writeConfig(t, testConfig("http://backend:8000")), "-dump-config"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out := stdout.String()
	require.Contains(t, out, "baseURL: http://backend:8000")
	require.Contains(t, out, "maxConcurrency: 4")
	require.Contains(t, out, "maxAttempts: 1")
	require.Contains(t, out, "stagger: 0s")
	require.Contains(t, out, "level: error")
}

func TestRun_Errors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", writeConfig(t, `gateway: {maxConcurrency: 0}`)}, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "load config: gateway.maxConcurrency: must be positive")

	stderr.Reset()
	code = run([]string{"-config", filepath.Join(t.TempDir(), "missing.yml")}, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "load config: ")

	stderr.Reset()
	code = run([]string{"-unknown"}, &stdout, &stderr)
	require.Equal(t, 2, code)
	require.Contains(t, stderr.String(), "flag provided but not defined: -unknown")

	require.Empty(t, stdout.String())
}
