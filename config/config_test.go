/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sectionConfig struct {
	Timeout time.Duration
	Limit   int

	keyPrefix string
}

func (c *sectionConfig) KeyPrefix() string {
	return c.keyPrefix
}

func (c *sectionConfig) SetProviderDefaults(dp DataProvider) {
	dp.SetDefault("timeout", "5s")
	dp.SetDefault("limit", 2)
}

func (c *sectionConfig) Set(dp DataProvider) (err error) {
	if c.Timeout, err = dp.GetDuration("timeout"); err != nil {
		return err
	}
	if c.Limit, err = dp.GetInt("limit"); err != nil {
		return err
	}
	if c.Limit < 0 {
		return dp.WrapKeyErr("limit", errors.New("must not be negative"))
	}
	return nil
}

type appConfig struct {
	Upstream *sectionConfig
	Client   *sectionConfig
	Missing  *sectionConfig
	Name     string

	hidden *sectionConfig
}

func (c *appConfig) SetProviderDefaults(dp DataProvider) {
	CallSetProviderDefaultsForFields(c, dp)
}

func (c *appConfig) Set(dp DataProvider) error {
	return CallSetForFields(c, dp)
}

func TestCallHelpers(t *testing.T) {
	cfg := &appConfig{
		Upstream: &sectionConfig{keyPrefix: "upstream"},
		Client:   &sectionConfig{keyPrefix: "client"},
		hidden:   &sectionConfig{keyPrefix: "hidden"},
	}
	cfgData := `
upstream:
  timeout: 1m
  limit: 10
hidden:
  limit: 7
`
	err := NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(cfgData), DataTypeYAML, cfg)
	require.NoError(t, err)
	require.Equal(t, time.Minute, cfg.Upstream.Timeout)
	require.Equal(t, 10, cfg.Upstream.Limit)
	require.Equal(t, 5*time.Second, cfg.Client.Timeout)
	require.Equal(t, 2, cfg.Client.Limit)
	require.Nil(t, cfg.Missing)
	require.Zero(t, cfg.hidden.Limit)
}

func TestCallSetForFields_Error(t *testing.T) {
	cfg := &appConfig{
		Upstream: &sectionConfig{keyPrefix: "upstream"},
		Client:   &sectionConfig{keyPrefix: "client"},
	}
	err := NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(`client: {limit: -1}`), DataTypeYAML, cfg)
	require.EqualError(t, err, "client.limit: must not be negative")
	require.Equal(t, 2, cfg.Upstream.Limit)
}
