/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

package esgapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/ethosview/dashgate/config"
)

const cfgDefaultKeyPrefix = "esgapi"

const (
	cfgKeyTTLOverrides  = "ttlOverrides"
	cfgKeyWarmupStagger = "warmup.stagger"
)

// DefaultWarmupStagger is the delay between the starts of two consecutive warm-up calls.
const DefaultWarmupStagger = 200 * time.Millisecond

// WarmupConfig configures warming of the resource cache.
type WarmupConfig struct {
	Stagger time.Duration `mapstructure:"stagger" yaml:"stagger" json:"stagger"`
}

// Config represents a set of configuration parameters for the ESG API client.
type Config struct {
	// TTLOverrides replaces freshness lifetimes of the named resources. Zero disables caching of a resource.
	TTLOverrides map[Resource]time.Duration `mapstructure:"ttlOverrides" yaml:"ttlOverrides,omitempty" json:"ttlOverrides,omitempty"`

	Warmup WarmupConfig `mapstructure:"warmup" yaml:"warmup" json:"warmup"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return NewConfigWithKeyPrefix(cfgDefaultKeyPrefix)
}

// NewConfigWithKeyPrefix creates a new instance of the Config with the given key prefix.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix, Warmup: WarmupConfig{Stagger: DefaultWarmupStagger}}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the ESG API client in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyWarmupStagger, DefaultWarmupStagger.String())
}

// Set sets ESG API client configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.Warmup.Stagger, err = dp.GetDuration(cfgKeyWarmupStagger); err != nil {
		return err
	}
	if c.Warmup.Stagger < 0 {
		return dp.WrapKeyErr(cfgKeyWarmupStagger, errors.New("must not be negative"))
	}

	var overrides map[string]time.Duration
	if err = dp.UnmarshalKey(cfgKeyTTLOverrides, &overrides,
		config.WithDecodeHook(mapstructure.StringToTimeDurationHookFunc())); err != nil {
		return err
	}
	c.TTLOverrides = nil
	for name, ttl := range overrides {
		r := Resource(strings.ToLower(name))
		if !r.IsKnown() {
			return dp.WrapKeyErr(cfgKeyTTLOverrides, fmt.Errorf("unknown resource %q", name))
		}
		if ttl < 0 {
			return dp.WrapKeyErr(cfgKeyTTLOverrides+"."+name, errors.New("must not be negative"))
		}
		if c.TTLOverrides == nil {
			c.TTLOverrides = make(map[Resource]time.Duration, len(overrides))
		}
		c.TTLOverrides[r] = ttl
	}
	return nil
}
