/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/stretchr/testify/require"
)

func TestViperAdapter_GetByteSize(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    ByteSize
		wantErr bool
	}{
		{name: "human-readable", value: "10M", want: 10 * 1024 * 1024},
		{name: "k8s suffix", value: "64Ki", want: 64 * 1024},
		{name: "integer", value: 4096, want: 4096},
		{name: "negative integer", value: -1, wantErr: true},
		{name: "garbage", value: "lots", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			va := NewViperAdapter()
			va.Set("gateway.maxBodySize", tt.value)
			got, err := va.GetByteSize("gateway.maxBodySize")
			if tt.wantErr {
				require.ErrorContains(t, err, "gateway.maxBodySize")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestViperAdapter_GetStringSlice(t *testing.T) {
	va := NewViperAdapter()
	va.Set("fromList", []string{"/alerts", "/metrics"})
	va.Set("fromString", "/alerts, /metrics,,")

	got, err := va.GetStringSlice("fromList")
	require.NoError(t, err)
	require.Equal(t, []string{"/alerts", "/metrics"}, got)

	got, err = va.GetStringSlice("fromString")
	require.NoError(t, err)
	require.Equal(t, []string{"/alerts", "/metrics"}, got)

	got, err = va.GetStringSlice("missing")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestViperAdapter_GetStringFromSet(t *testing.T) {
	va := NewViperAdapter()
	va.Set("mode", "FAILED")

	got, err := va.GetStringFromSet("mode", []string{"none", "all", "failed"}, true)
	require.NoError(t, err)
	require.Equal(t, "FAILED", got)

	_, err = va.GetStringFromSet("mode", []string{"none", "all", "failed"}, false)
	require.ErrorContains(t, err, `unknown value "FAILED"`)
}

func TestViperAdapter_UnmarshalKey(t *testing.T) {
	va := NewViperAdapter()
	require.NoError(t, va.SetFromReader(bytes.NewBufferString(`
esgapi:
  ttlOverrides:
    dashboard: 30s
    marketlatest: 1m
`), DataTypeYAML))

	var got map[string]time.Duration
	err := NewKeyPrefixedDataProvider(va, "esgapi").UnmarshalKey(
		"ttlOverrides", &got, WithDecodeHook(mapstructure.StringToTimeDurationHookFunc()))
	require.NoError(t, err)
	require.Equal(t, map[string]time.Duration{"dashboard": 30 * time.Second, "marketlatest": time.Minute}, got)
}
