/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

package esgapi

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ethosview/dashgate/config"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name        string
		cfgDataType config.DataType
		cfgData     string
		expectedCfg func() *Config
	}{
		{
			name:        "defaults",
			cfgDataType: config.DataTypeYAML,
			cfgData:     `esgapi: {}`,
			expectedCfg: NewDefaultConfig,
		},
		{
			name:        "yaml config",
			cfgDataType: config.DataTypeYAML,
			cfgData: `
esgapi:
  ttlOverrides:
    dashboard: 30s
    ws_status: 0s
  warmup:
    stagger: 50ms
`,
			expectedCfg: func() *Config {
				cfg := NewDefaultConfig()
				cfg.TTLOverrides = map[Resource]time.Duration{
					ResourceDashboard: 30 * time.Second,
					ResourceWSStatus:  0,
				}
				cfg.Warmup.Stagger = 50 * time.Millisecond
				return cfg
			},
		},
		{
			name:        "json config",
			cfgDataType: config.DataTypeJSON,
			cfgData:     `{"esgapi": {"ttlOverrides": {"sector_comparisons": "10m"}}}`,
			expectedCfg: func() *Config {
				cfg := NewDefaultConfig()
				cfg.TTLOverrides = map[Resource]time.Duration{ResourceSectorComparisons: 10 * time.Minute}
				return cfg
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actualCfg := NewConfig()
			err := config.NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(tt.cfgData), tt.cfgDataType, actualCfg)
			require.NoError(t, err)
			require.Equal(t, tt.expectedCfg(), actualCfg)
		})
	}
}

func TestConfigValidationErrors(t *testing.T) {
	tests := []struct {
		name           string
		cfgData        string
		expectedErrMsg string
	}{
		{
			name:           "unknown resource",
			cfgData:        `esgapi: {ttlOverrides: {portfolio: 1s}}`,
			expectedErrMsg: `esgapi.ttlOverrides: unknown resource "portfolio"`,
		},
		{
			name:           "negative ttl",
			cfgData:        `esgapi: {ttlOverrides: {dashboard: -1s}}`,
			expectedErrMsg: "esgapi.ttlOverrides.dashboard: must not be negative",
		},
		{
			name:           "negative stagger",
			cfgData:        `esgapi: {warmup: {stagger: -1ms}}`,
			expectedErrMsg: "esgapi.warmup.stagger: must not be negative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := config.NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(tt.cfgData), config.DataTypeYAML, NewConfig())
			require.EqualError(t, err, tt.expectedErrMsg)
		})
	}

	err := config.NewDefaultLoader("").LoadFromReader(
		bytes.NewBufferString(`esgapi: {ttlOverrides: {dashboard: soon}}`), config.DataTypeYAML, NewConfig())
	require.ErrorContains(t, err, "esgapi.ttlOverrides: ")
}
